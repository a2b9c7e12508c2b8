package value

// Filter is an optional predicate passed to Clone; a subtree rooted at n is
// included only if keep(n) is true. A container whose filter rejects it is
// dropped along with its children, even if a descendant would pass.
type Filter func(n *Node) bool

// Clone deep-copies n and, recursively, its children, deleted markers
// included (their flags are copied with them). If keep is
// non-nil, any child (and its subtree) for which keep returns false is
// omitted. Metadata is always copied; edit-vars are copied only when
// withEditVars is set, since most callers cloning for a read-only snapshot
// have no use for pending-edit state.
func Clone(n *Node, keep Filter, withEditVars bool) *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		Name:        n.Name,
		Namespace:   n.Namespace,
		Obj:         n.Obj,
		TypeDef:     n.TypeDef,
		BaseType:    n.BaseType,
		scalar:      n.scalar,
		Flags:       n.Flags,
		ParseStatus: n.ParseStatus,
	}
	if withEditVars {
		out.EditVars = n.EditVars.Clone()
	}
	for _, m := range n.metadata {
		mc := *m
		out.AddMetadata(&mc)
	}
	for _, c := range n.children {
		if keep != nil && !keep(c) {
			continue
		}
		childClone := Clone(c, keep, withEditVars)
		out.AppendChild(childClone)
	}
	if len(n.index) > 0 {
		chain := make([]*Node, 0, len(n.index))
		for _, k := range n.index {
			if found := out.FindChild(k.Namespace, k.Name); found != nil {
				chain = append(chain, found)
			}
		}
		out.SetIndexChain(chain)
	}
	return out
}

// MergePolicy controls how Merge reconciles a leaf-list/bits value against
// an existing one (spec.md §4.E "merge policy").
type MergePolicy int

const (
	// MergeReplace discards the destination's existing scalar and
	// substitutes src's (children are not touched), the default
	// nc:operation=merge behavior for a simple-typed leaf.
	MergeReplace MergePolicy = iota
	// MergeUnion appends src's leaf-list/bits entries not already present
	// in dst; when dst.Obj.DupsOK() is true, every src entry is appended,
	// duplicates included (spec.md §3).
	MergeUnion
)

// Merge reconciles src into dst in place, following policy. dst's Obj/
// TypeDef/BaseType are left untouched; only the scalar payload (and, for
// MergeUnion, its set membership) changes.
func Merge(dst, src *Node, policy MergePolicy) {
	if policy == MergeReplace {
		dst.scalar = src.scalar
		return
	}
	dstList, dstOK := dst.Raw().([]string)
	srcList, srcOK := src.Raw().([]string)
	if !dstOK || !srcOK {
		dst.scalar = src.scalar
		return
	}
	if dst.Obj != nil && dst.Obj.DupsOK() {
		dst.scalar = append(append([]string(nil), dstList...), srcList...)
		return
	}
	seen := make(map[string]bool, len(dstList))
	for _, v := range dstList {
		seen[v] = true
	}
	merged := append([]string(nil), dstList...)
	for _, v := range srcList {
		if seen[v] {
			continue
		}
		seen[v] = true
		merged = append(merged, v)
	}
	dst.scalar = merged
}
