package xpath

import (
	"github.com/ncxlabs/netconfd/pkg/rpcerror"
	"github.com/ncxlabs/netconfd/pkg/schema"
)

// maxBitmapKeys bounds the per-list predicate-key bitmap spec.md §4.G
// describes ("record them as a bitmap (cap 64 keys, warn beyond)"). A key
// predicate naming the list's 65th-or-later declared key is left
// unchecked rather than rejected — spec.md §8's boundary case.
const maxBitmapKeys = 64

// CheckKeys validates path's list-step predicates against the schema tree
// rooted at rootObj (spec.md §4.G "Predicate checks"): each step whose
// schema target is a list is checked for a duplicate predicate key and,
// when strict is true, for a missing one. strict is true only for the
// strict instance-identifier dialect; schema-instance-identifier and
// leafref paths pass strict=false, since spec.md §4.G tolerates missing
// keys for both of those.
//
// CheckKeys walks schema Objects only, never a value instance — that's
// Resolve's job (phase two against a live tree, once a document exists).
// An unresolvable prefix or node-identifier here simply stops the walk:
// that failure is reported separately once the value tree is resolved.
func CheckKeys(path *Path, rootObj schema.Object, resolve Resolver, strict bool, errPath string) []*rpcerror.RPCError {
	if rootObj == nil || !path.Absolute {
		return nil
	}
	var errs []*rpcerror.RPCError
	obj := rootObj
	for _, step := range path.Steps {
		ns, ok := resolve(step.Name.Prefix)
		if !ok {
			return errs
		}
		child := findSchemaChild(obj, ns, step.Name.Local)
		if child == nil {
			return errs
		}
		if child.BaseType() == schema.List {
			errs = append(errs, checkListPredicates(child, step.Predicates, strict, errPath)...)
		}
		obj = child
	}
	return errs
}

// ResolveTarget walks path against the schema tree rooted at rootObj and
// returns the schema object it reaches (spec.md §4.G "Output": the
// target-object the phase-two validator resolves against the finalized
// schema). ok is false if path isn't absolute, rootObj is nil, or any step
// fails to resolve. A path with no steps (the bare root, spec.md §8's
// boundary case) returns rootObj itself.
func ResolveTarget(path *Path, rootObj schema.Object, resolve Resolver) (schema.Object, bool) {
	if rootObj == nil || !path.Absolute {
		return nil, false
	}
	obj := rootObj
	for _, step := range path.Steps {
		ns, ok := resolve(step.Name.Prefix)
		if !ok {
			return nil, false
		}
		child := findSchemaChild(obj, ns, step.Name.Local)
		if child == nil {
			return nil, false
		}
		obj = child
	}
	return obj, true
}

// CheckLeafrefTarget enforces spec.md §4.G's Target rules for a leafref:
// the target must be a leaf or leaf-list, must not be the leafref's own
// schema object, and — when requireInstance applies — a config leafref
// must not target a state node (a state leafref may target either).
func CheckLeafrefTarget(target, owner schema.Object, requireInstance bool, errPath, expr string) []*rpcerror.RPCError {
	if target == nil {
		return nil
	}
	var errs []*rpcerror.RPCError
	if target.BaseType().IsComplex() {
		errs = append(errs, rpcerror.New(rpcerror.TagInvalidValue, errPath, "leafref \""+expr+"\" does not target a leaf or leaf-list"))
	}
	if owner != nil && target == owner {
		errs = append(errs, rpcerror.New(rpcerror.TagInvalidValue, errPath, "leafref \""+expr+"\" must not target itself"))
	}
	if requireInstance && owner != nil &&
		owner.DataClass() == schema.DataClassConfig && target.DataClass() == schema.DataClassState {
		errs = append(errs, rpcerror.New(rpcerror.TagInvalidValue, errPath, "config leafref \""+expr+"\" must target a config node"))
	}
	return errs
}

// CheckInstanceIdentifierTarget enforces spec.md §4.G's config-vs-state
// Target rule for an instance-identifier: a config leaf's
// instance-identifier value must reference a config target.
func CheckInstanceIdentifierTarget(target, owner schema.Object, errPath, expr string) []*rpcerror.RPCError {
	if target == nil || owner == nil {
		return nil
	}
	if owner.DataClass() == schema.DataClassConfig && target.DataClass() == schema.DataClassState {
		return []*rpcerror.RPCError{rpcerror.New(rpcerror.TagInvalidValue, errPath, "instance-identifier \""+expr+"\" must target a config node")}
	}
	return nil
}

func findSchemaChild(obj schema.Object, ns, name string) schema.Object {
	if obj == nil {
		return nil
	}
	for _, c := range obj.Children() {
		if c.Name() == name && (ns == "" || c.Namespace() == "" || c.Namespace() == ns) {
			return c
		}
	}
	return nil
}

func checkListPredicates(listObj schema.Object, preds []Predicate, strict bool, errPath string) []*rpcerror.RPCError {
	keys := listObj.Keys()
	keyIndex := make(map[string]int, len(keys))
	for i, k := range keys {
		keyIndex[k] = i
	}

	var errs []*rpcerror.RPCError
	var seen uint64
	for _, pred := range preds {
		idx, ok := keyIndex[pred.Key.Local]
		if !ok || idx >= maxBitmapKeys {
			continue
		}
		bit := uint64(1) << uint(idx)
		if seen&bit != 0 {
			errs = append(errs, rpcerror.New(rpcerror.TagBadAttribute, errPath, "duplicate predicate key \""+pred.Key.Local+"\""))
			continue
		}
		seen |= bit
	}

	if !strict {
		return errs
	}
	for i, k := range keys {
		if i >= maxBitmapKeys {
			break
		}
		if seen&(uint64(1)<<uint(i)) == 0 {
			errs = append(errs, rpcerror.New(rpcerror.TagInvalidValue, errPath, "missing index: "+k))
		}
	}
	return errs
}
