package schema

// Object is a finalized, shared-immutable schema node (the `obj_template_t`
// equivalent named in spec.md §1). Many value nodes may point at one
// Object; the schema outlives every value built from it.
type Object interface {
	// Name is the local (unqualified) element name.
	Name() string
	// Namespace is the module namespace identifier this object belongs to.
	Namespace() string
	// BaseType selects which parser handler dispatches on this object
	// (spec.md §4.F "Dispatch").
	BaseType() BaseType
	// TypeDef returns the leaf type definition; nil for container/list/
	// choice/case/any objects.
	TypeDef() TypeDef
	// Children returns this object's declared children in schema order,
	// for container/list/choice/case objects; nil otherwise.
	Children() []Object
	// Keys returns the ordered list of key leaf names for a list object,
	// in schema-declared order (spec.md §3 invariant on index chains).
	Keys() []string
	// DataClass returns this object's explicit data class, or
	// DataClassInherit if it takes its parent's class (spec.md §4.F).
	DataClass() DataClass
	// MetadataDefs returns the metadata (XML attribute) definitions this
	// object declares, used to validate unknown-attribute (spec.md §4.F
	// step 1).
	MetadataDefs() []MetaDef
	// AcceptsEditOperation reports whether nc:operation is legal on this
	// object. Per spec.md §9's Open Question resolution, agent ingress
	// rejects nc:operation where this is false; manager ingress tolerates
	// it.
	AcceptsEditOperation() bool
	// OrderedByUser reports whether list/leaf-list children may carry
	// yang:insert/key/value (ordered-by user, vs. system-ordered).
	OrderedByUser() bool
	// DupsOK reports whether duplicate leaf-list/bits values are permitted
	// (spec.md §3 invariant, §4.E merge policy).
	DupsOK() bool
}

// MetaDef describes one legal metadata (XML attribute) on an Object.
type MetaDef struct {
	Name      string
	Namespace string
	// Multivalued marks attributes that may legally appear more than once
	// (spec.md §3: "except for explicitly multi-valued attributes").
	Multivalued bool
}

// Identity describes one YANG identity for identityref resolution
// (spec.md §4.F "Identityref").
type Identity interface {
	Namespace() string
	LocalName() string
	// IsDerivedFrom reports whether this identity is equal to or a
	// transitive derivation of base.
	IsDerivedFrom(base Identity) bool
}
