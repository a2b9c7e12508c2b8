package xpath

// QName is a possibly-prefixed name as written in a path expression; the
// prefix is resolved to a namespace URI against the schema module that
// declared the expression, not against any XML document scope (spec.md
// §4.F "Leafref": the path is fixed at schema-compile time).
type QName struct {
	Prefix string
	Local  string
}

// Predicate is one "[...]" key predicate on a step (spec.md §4.G
// "predicate key-bitmap tracking").
type Predicate struct {
	Key QName
	// Literal holds a quoted-string right-hand side; nil when the
	// predicate instead compares against a current()-relative path.
	Literal *string
	// CurrentRelPath holds the right-hand side when the predicate takes
	// the "current()/../key" form used by leafref paths.
	CurrentRelPath *Path
}

// Step is one "/QName[predicate]*" segment.
type Step struct {
	Name       QName
	Predicates []Predicate
}

// Path is a parsed path-arg expression (spec.md §4.F "Leafref",
// "Instance-identifier").
type Path struct {
	// Absolute is true for a leading-"/" path (instance-identifier, and
	// absolute-form leafref paths).
	Absolute bool
	// UpLevels counts leading ".." steps for a relative leafref path.
	UpLevels int
	Steps     []Step
}
