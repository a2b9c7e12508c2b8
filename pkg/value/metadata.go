package value

// Metadata is one XML attribute attached to a value node (spec.md §3: "the
// metadata sequence contains XML attributes as values"). At most one entry
// exists per (Name, Namespace) pair unless the schema's MetaDef marks it
// Multivalued.
type Metadata struct {
	Name      string
	Namespace string
	Value     string
}

// FindMetadata returns the metadata entry matching (namespace, name), or
// nil.
func (n *Node) FindMetadata(namespace, name string) *Metadata {
	for _, m := range n.metadata {
		if m.Name == name && m.Namespace == namespace {
			return m
		}
	}
	return nil
}

// AddMetadata appends a metadata entry. Callers enforcing the at-most-once
// invariant (spec.md §3) should check FindMetadata first unless the
// schema's MetaDef.Multivalued is set.
func (n *Node) AddMetadata(m *Metadata) {
	n.metadata = append(n.metadata, m)
}
