package value

import "github.com/ncxlabs/netconfd/pkg/schema"

// Compare reports whether a and b hold the same value, per spec.md §4.E's
// val_compare rules: simple types compare by value, containers and lists
// compare by a pairwise schema-order child walk, and strings/binary compare
// byte for byte rather than by any collation order.
//
// Compare does not consider metadata, edit-vars, or dirty/deleted flags:
// it answers "is this the same data", not "is this the same parse".
func Compare(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.BaseType != b.BaseType {
		return false
	}
	switch a.BaseType {
	case schema.List:
		return compareIndexChain(a, b) && compareChildren(a, b)
	case schema.Container, schema.Choice, schema.Case, schema.Any:
		return compareChildren(a, b)
	default:
		return compareLeaf(a, b)
	}
}

// compareIndexChain reports whether a and b's index chains hold the same
// key tuple, in key order (spec.md §3: "List equality is defined solely
// by index-chain equality"). Two list instances missing a key (a short
// chain from a missing-element parse error) compare equal only if both
// chains are the same length.
func compareIndexChain(a, b *Node) bool {
	ak, bk := IndexKey(a), IndexKey(b)
	if len(ak) != len(bk) {
		return false
	}
	for i := range ak {
		if ak[i] != bk[i] {
			return false
		}
	}
	return true
}

func compareLeaf(a, b *Node) bool {
	switch v, ok := a.Raw().(string); {
	case ok:
		w, ok2 := b.Raw().(string)
		return ok2 && v == w
	}
	switch v, ok := a.Raw().([]byte); {
	case ok:
		w, ok2 := b.Raw().([]byte)
		if !ok2 || len(v) != len(w) {
			return false
		}
		for i := range v {
			if v[i] != w[i] {
				return false
			}
		}
		return true
	}
	switch v, ok := a.Raw().([]string); {
	case ok:
		w, ok2 := b.Raw().([]string)
		if !ok2 || len(v) != len(w) {
			return false
		}
		for i := range v {
			if v[i] != w[i] {
				return false
			}
		}
		return true
	}
	if v, ok := a.Identityref(); ok {
		w, ok2 := b.Identityref()
		return ok2 && v == w
	}
	if v, ok := a.Decimal(); ok {
		w, ok2 := b.Decimal()
		return ok2 && v.Unscaled == w.Unscaled && v.FractionDigits == w.FractionDigits
	}
	return a.Raw() == b.Raw()
}

// compareChildren compares container/list/choice/case/any nodes by walking
// both live child sequences in parallel. AppendChild keeps schema-declared
// order (and arrival order within a repeated list/leaf-list run), so two
// subtrees built the same way compare positionally; this is the common
// case (e.g. Compare(n, Clone(n)) == true).
func compareChildren(a, b *Node) bool {
	ac, bc := a.LiveChildren(), b.LiveChildren()
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !Compare(ac[i], bc[i]) {
			return false
		}
	}
	return true
}
