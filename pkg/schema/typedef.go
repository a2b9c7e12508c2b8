package schema

// TypeDef is the finalized type definition backing a leaf Object
// (spec.md §1's `typ_def_t` equivalent). Restrictions (range, length,
// pattern) are pre-resolved across the typedef inheritance chain: the
// parser applies TypeDef's restrictions directly rather than walking a
// chain of ancestor typedefs itself (spec.md §4.F "most-derived range
// wins").
type TypeDef interface {
	BaseType() BaseType

	// FractionDigits is the decimal64 scaling parameter (1..18).
	FractionDigits() int

	// Ranges returns the active numeric range restrictions, already
	// narrowed to the most-derived typedef in the chain.
	Ranges() []Range

	// LengthRestrictions returns active string/binary length restrictions
	// (for binary, measured in decoded bytes, per spec.md §4.F).
	LengthRestrictions() []LengthRange

	// Patterns returns all pattern restrictions AND-combined across the
	// typedef inheritance chain (spec.md §4.F "String/binary").
	Patterns() []string

	// EnumValues returns the declared enumeration literal names.
	EnumValues() []string

	// BitNames returns the declared bit names (type bits).
	BitNames() []string

	// MemberType returns the leaf-list-of-strings member type, or nil.
	MemberType() TypeDef

	// UnionMembers returns the member type definitions in declaration
	// order (spec.md §4.F "Union": tried in this order).
	UnionMembers() []TypeDef

	// IdentityBase returns the declared base identity for an identityref
	// typedef, or nil.
	IdentityBase() Identity

	// ResolveIdentity looks up the identity named by (namespace, local)
	// among those derived from this typedef's base, or nil if unknown
	// (spec.md §4.F "Identityref": "locate the identity by (module,
	// local-name)").
	ResolveIdentity(namespace, local string) Identity

	// LeafrefPath returns the raw (unparsed) leafref path expression.
	LeafrefPath() string

	// LeafrefRequireInstance reports whether the leafref target must
	// resolve to an existing instance. When false (a typedef marked
	// "unconstrained"), a config leafref may point at a non-config
	// target (spec.md §4.G "Two-phase validation").
	LeafrefRequireInstance() bool

	// InstanceIdentifierStrict reports whether this is the strict
	// instance-identifier dialect (every list key required) or the
	// schema-instance-identifier dialect (missing keys tolerated),
	// spec.md §4.G.
	InstanceIdentifierStrict() bool
}

// Range is a numeric (integer/decimal64/float) range restriction. A zero
// Max with HasMax=false means unbounded above; symmetric for Min.
type Range struct {
	Min, Max       float64
	HasMin, HasMax bool
	// ErrorAppTag/ErrorMessage carry the YANG-declared error-app-tag and
	// error-message for this restriction, attached to the rpcerror.Info
	// when violated (spec.md §4.F "attach the YANG-specified error-info").
	ErrorAppTag string
	ErrorMessage string
}

// Contains reports whether v satisfies the range.
func (r Range) Contains(v float64) bool {
	if r.HasMin && v < r.Min {
		return false
	}
	if r.HasMax && v > r.Max {
		return false
	}
	return true
}

// LengthRange is a string/binary length restriction, measured in runes for
// strings and decoded bytes for binary (spec.md §4.F).
type LengthRange struct {
	Min, Max int
}

// Contains reports whether length satisfies the restriction.
func (l LengthRange) Contains(length int) bool {
	return length >= l.Min && length <= l.Max
}
