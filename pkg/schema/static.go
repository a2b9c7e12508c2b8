package schema

// StaticObject is a plain-struct Object implementation for tests and for
// callers assembling a schema without a compiler front end. Fields are
// exported so fixtures can be built as struct literals.
type StaticObject struct {
	NameVal        string
	NamespaceVal   string
	BaseTypeVal    BaseType
	TypeDefVal     TypeDef
	ChildrenVal    []Object
	KeysVal        []string
	DataClassVal   DataClass
	MetadataVal    []MetaDef
	AcceptsEditVal bool
	OrderedVal     bool
	DupsOKVal      bool
}

func (o *StaticObject) Name() string              { return o.NameVal }
func (o *StaticObject) Namespace() string         { return o.NamespaceVal }
func (o *StaticObject) BaseType() BaseType        { return o.BaseTypeVal }
func (o *StaticObject) TypeDef() TypeDef          { return o.TypeDefVal }
func (o *StaticObject) Children() []Object        { return o.ChildrenVal }
func (o *StaticObject) Keys() []string            { return o.KeysVal }
func (o *StaticObject) DataClass() DataClass      { return o.DataClassVal }
func (o *StaticObject) MetadataDefs() []MetaDef   { return o.MetadataVal }
func (o *StaticObject) AcceptsEditOperation() bool { return o.AcceptsEditVal }
func (o *StaticObject) OrderedByUser() bool       { return o.OrderedVal }
func (o *StaticObject) DupsOK() bool              { return o.DupsOKVal }

// Child returns the declared child object matching (namespace, name), or
// nil. Namespace "" matches any namespace — used by fixtures that don't
// model multiple modules.
func (o *StaticObject) Child(namespace, name string) Object {
	for _, c := range o.ChildrenVal {
		if c.Name() == name && (namespace == "" || c.Namespace() == "" || c.Namespace() == namespace) {
			return c
		}
	}
	return nil
}

// StaticTypeDef is a plain-struct TypeDef implementation for fixtures.
type StaticTypeDef struct {
	BaseTypeVal        BaseType
	FractionDigitsVal  int
	RangesVal          []Range
	LengthVal          []LengthRange
	PatternsVal        []string
	EnumValuesVal      []string
	BitNamesVal        []string
	MemberTypeVal      TypeDef
	UnionMembersVal    []TypeDef
	IdentityBaseVal    Identity
	IdentitiesVal      []Identity
	LeafrefPathVal     string
	LeafrefRequireVal  bool
	InstanceIDStrict   bool
}

func (t *StaticTypeDef) BaseType() BaseType                 { return t.BaseTypeVal }
func (t *StaticTypeDef) FractionDigits() int                { return t.FractionDigitsVal }
func (t *StaticTypeDef) Ranges() []Range                    { return t.RangesVal }
func (t *StaticTypeDef) LengthRestrictions() []LengthRange  { return t.LengthVal }
func (t *StaticTypeDef) Patterns() []string                 { return t.PatternsVal }
func (t *StaticTypeDef) EnumValues() []string                { return t.EnumValuesVal }
func (t *StaticTypeDef) BitNames() []string                  { return t.BitNamesVal }
func (t *StaticTypeDef) MemberType() TypeDef                 { return t.MemberTypeVal }
func (t *StaticTypeDef) UnionMembers() []TypeDef             { return t.UnionMembersVal }
func (t *StaticTypeDef) IdentityBase() Identity               { return t.IdentityBaseVal }

// ResolveIdentity searches IdentitiesVal for a matching (namespace, local)
// pair. Fixtures that only exercise the base case can leave IdentitiesVal
// empty and set IdentityBaseVal directly.
func (t *StaticTypeDef) ResolveIdentity(namespace, local string) Identity {
	for _, id := range t.IdentitiesVal {
		if id.Namespace() == namespace && id.LocalName() == local {
			return id
		}
	}
	return nil
}
func (t *StaticTypeDef) LeafrefPath() string                  { return t.LeafrefPathVal }
func (t *StaticTypeDef) LeafrefRequireInstance() bool         { return t.LeafrefRequireVal }
func (t *StaticTypeDef) InstanceIdentifierStrict() bool       { return t.InstanceIDStrict }

// StaticIdentity is a plain-struct Identity implementation for fixtures.
type StaticIdentity struct {
	NamespaceVal string
	LocalNameVal string
	BaseVal      Identity
}

func (i *StaticIdentity) Namespace() string { return i.NamespaceVal }
func (i *StaticIdentity) LocalName() string { return i.LocalNameVal }

// IsDerivedFrom walks the Base chain looking for base.
func (i *StaticIdentity) IsDerivedFrom(base Identity) bool {
	for cur := Identity(i); cur != nil; {
		if cur.Namespace() == base.Namespace() && cur.LocalName() == base.LocalName() {
			return true
		}
		si, ok := cur.(*StaticIdentity)
		if !ok {
			return false
		}
		cur = si.BaseVal
	}
	return false
}
