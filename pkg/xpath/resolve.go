package xpath

import (
	"github.com/ncxlabs/netconfd/pkg/rpcerror"
	"github.com/ncxlabs/netconfd/pkg/value"
)

// Resolver maps a path step's prefix to the namespace URI it denotes in
// the module that declared the path expression (spec.md §4.F "Leafref":
// resolution uses the defining module's prefix table, never the XML
// document's in-scope prefixes at parse time).
type Resolver func(prefix string) (namespace string, ok bool)

// candidates returns every live child of parent matching name, in
// document order — a list/leaf-list step may have more than one
// instance, disambiguated by the step's predicates.
func candidates(parent *value.Node, namespace, local string) []*value.Node {
	var out []*value.Node
	for _, c := range parent.LiveChildren() {
		if c.Name == local && c.Namespace == namespace {
			out = append(out, c)
		}
	}
	return out
}

// Resolve walks path starting from current (for a relative path) or root
// (for an absolute path), applying each step's predicates to disambiguate
// list instances, and returns the target node(s) it reaches. A leafref
// path targets exactly one node in a well-formed instance; an
// instance-identifier may legally target zero or more.
func Resolve(path *Path, current, root *value.Node, resolve Resolver) ([]*value.Node, error) {
	start := root
	if !path.Absolute {
		start = current
		for i := 0; i < path.UpLevels; i++ {
			if start == nil {
				return nil, errOutOfTree
			}
			start = start.Parent()
		}
	}
	if start == nil {
		return nil, errOutOfTree
	}

	frontier := []*value.Node{start}
	for _, step := range path.Steps {
		ns, ok := resolve(step.Name.Prefix)
		if !ok {
			return nil, &resolveErr{reason: "unresolvable prefix \"" + step.Name.Prefix + "\""}
		}
		var next []*value.Node
		for _, node := range frontier {
			for _, cand := range candidates(node, ns, step.Name.Local) {
				if matchesPredicates(cand, step.Predicates, current, resolve) {
					next = append(next, cand)
				}
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return frontier, nil
}

func matchesPredicates(node *value.Node, preds []Predicate, current *value.Node, resolve Resolver) bool {
	for _, pred := range preds {
		ns, ok := resolve(pred.Key.Prefix)
		if !ok {
			return false
		}
		key := node.FindChild(ns, pred.Key.Local)
		if key == nil {
			return false
		}
		wantLit := pred.Literal
		if wantLit == nil && pred.CurrentRelPath != nil {
			targets, err := Resolve(pred.CurrentRelPath, current, current, resolve)
			if err != nil || len(targets) != 1 {
				return false
			}
			lit := value.Lexical(targets[0])
			wantLit = &lit
		}
		if wantLit == nil || value.Lexical(key) != *wantLit {
			return false
		}
	}
	return true
}

type resolveErr struct{ reason string }

func (e *resolveErr) Error() string { return e.reason }

var errOutOfTree = &resolveErr{reason: "path climbs above the value tree root"}

// InstanceError builds the rpc-error for a leafref/instance-identifier
// that fails to resolve to a live instance (spec.md §4.F "require-instance").
func InstanceError(path, expr string) *rpcerror.RPCError {
	return rpcerror.New(rpcerror.TagDataMissing, path, "path expression \""+expr+"\" does not reference an existing instance")
}
