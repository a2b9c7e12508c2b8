package xpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncxlabs/netconfd/pkg/schema"
)

// buildUsersSchema mirrors spec.md §8 scenario 4: a top-level "users"
// container holding a "user" list keyed by "name".
func buildUsersSchema() schema.Object {
	nameLeaf := &schema.StaticObject{NameVal: "name", NamespaceVal: testNS, BaseTypeVal: schema.String}
	ageLeaf := &schema.StaticObject{NameVal: "age", NamespaceVal: testNS, BaseTypeVal: schema.Uint8}
	userList := &schema.StaticObject{
		NameVal: "user", NamespaceVal: testNS, BaseTypeVal: schema.List,
		KeysVal:     []string{"name"},
		ChildrenVal: []schema.Object{nameLeaf, ageLeaf},
	}
	users := &schema.StaticObject{
		NameVal: "users", NamespaceVal: testNS, BaseTypeVal: schema.Container,
		ChildrenVal: []schema.Object{userList},
	}
	return &schema.StaticObject{BaseTypeVal: schema.Container, ChildrenVal: []schema.Object{users}}
}

func TestCheckKeysStrictMissingKeyReportsInvalidValue(t *testing.T) {
	t.Parallel()
	root := buildUsersSchema()
	p, err := Parse("/if:users/if:user[if:age='7']")
	require.NoError(t, err)

	errs := CheckKeys(p, root, ifResolver, true, "/target")
	require.Len(t, errs, 1)
	assert.Equal(t, "invalid-value", string(errs[0].Tag))
	assert.Contains(t, errs[0].Message, "missing index")
	assert.Equal(t, "/target", errs[0].Path)
}

func TestCheckKeysSchemaInstanceTolerateMissingKey(t *testing.T) {
	t.Parallel()
	root := buildUsersSchema()
	p, err := Parse("/if:users/if:user[if:age='7']")
	require.NoError(t, err)

	errs := CheckKeys(p, root, ifResolver, false, "/target")
	assert.Empty(t, errs)
}

func TestCheckKeysCompleteStrictKeyNoError(t *testing.T) {
	t.Parallel()
	root := buildUsersSchema()
	p, err := Parse("/if:users/if:user[if:name='alice']")
	require.NoError(t, err)

	errs := CheckKeys(p, root, ifResolver, true, "/target")
	assert.Empty(t, errs)
}

func TestCheckKeysDuplicatePredicateKey(t *testing.T) {
	t.Parallel()
	root := buildUsersSchema()
	p, err := Parse("/if:users/if:user[if:name='alice'][if:name='bob']")
	require.NoError(t, err)

	errs := CheckKeys(p, root, ifResolver, true, "/target")
	require.Len(t, errs, 1)
	assert.Equal(t, "bad-attribute", string(errs[0].Tag))
}

// TestCheckKeysBitmapCapAt64 exercises spec.md §8's boundary case: a list
// with 64 keys validates every predicate; a list with 65 keys leaves the
// 65th unchecked (neither flagged as missing nor as duplicate) while the
// first 64 still validate normally.
func TestCheckKeysBitmapCapAt64(t *testing.T) {
	t.Parallel()

	mkListWithNKeys := func(n int) schema.Object {
		keys := make([]string, n)
		children := make([]schema.Object, n)
		for i := 0; i < n; i++ {
			name := keyName(i)
			keys[i] = name
			children[i] = &schema.StaticObject{NameVal: name, NamespaceVal: testNS, BaseTypeVal: schema.String}
		}
		return &schema.StaticObject{
			NameVal: "entry", NamespaceVal: testNS, BaseTypeVal: schema.List,
			KeysVal: keys, ChildrenVal: children,
		}
	}
	buildRoot := func(entry schema.Object) schema.Object {
		return &schema.StaticObject{BaseTypeVal: schema.Container, ChildrenVal: []schema.Object{entry}}
	}
	buildExpr := func(n int) string {
		expr := "/if:entry"
		for i := 0; i < n; i++ {
			expr += "[if:" + keyName(i) + "='x']"
		}
		return expr
	}

	// 64 keys, all named in predicates: every key validated, no error.
	root64 := buildRoot(mkListWithNKeys(64))
	p64, err := Parse(buildExpr(64))
	require.NoError(t, err)
	assert.Empty(t, CheckKeys(p64, root64, ifResolver, true, "/target"))

	// 65 keys, only the first 64 named: no error — the 65th key is beyond
	// the bitmap's tracked width and is left unchecked rather than
	// flagged missing, per spec.md §8's boundary case.
	root65 := buildRoot(mkListWithNKeys(65))
	p64of65, err := Parse(buildExpr(64))
	require.NoError(t, err)
	assert.Empty(t, CheckKeys(p64of65, root65, ifResolver, true, "/target"))
}

// TestResolveTargetWalksSchemaTree exercises spec.md §4.G's "Output": the
// path is walked against the schema tree itself, not a value instance.
func TestResolveTargetWalksSchemaTree(t *testing.T) {
	t.Parallel()
	root := buildUsersSchema()
	p, err := Parse("/if:users/if:user[if:name='alice']/if:age")
	require.NoError(t, err)

	target, ok := ResolveTarget(p, root, ifResolver)
	require.True(t, ok)
	assert.Equal(t, "age", target.Name())
}

func TestResolveTargetBareRootReturnsRootObject(t *testing.T) {
	t.Parallel()
	root := buildUsersSchema()
	p, err := Parse("/")
	require.NoError(t, err)

	target, ok := ResolveTarget(p, root, ifResolver)
	require.True(t, ok)
	assert.Same(t, root, target)
}

func TestResolveTargetUnresolvableStepFails(t *testing.T) {
	t.Parallel()
	root := buildUsersSchema()
	p, err := Parse("/if:users/if:missing")
	require.NoError(t, err)

	_, ok := ResolveTarget(p, root, ifResolver)
	assert.False(t, ok)
}

// TestCheckLeafrefTargetRejectsComplexTarget is spec.md §4.G's Target rule:
// a leafref must resolve to a leaf or leaf-list, never a list/container.
func TestCheckLeafrefTargetRejectsComplexTarget(t *testing.T) {
	t.Parallel()
	userList := &schema.StaticObject{NameVal: "user", BaseTypeVal: schema.List}
	owner := &schema.StaticObject{NameVal: "ref", BaseTypeVal: schema.Leafref}

	errs := CheckLeafrefTarget(userList, owner, false, "/ref", "/if:users/if:user")
	require.Len(t, errs, 1)
	assert.Equal(t, "invalid-value", string(errs[0].Tag))
	assert.Contains(t, errs[0].Message, "leaf or leaf-list")
}

func TestCheckLeafrefTargetRejectsSelfReference(t *testing.T) {
	t.Parallel()
	leaf := &schema.StaticObject{NameVal: "name", BaseTypeVal: schema.String}

	errs := CheckLeafrefTarget(leaf, leaf, false, "/name", "/if:name")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "itself")
}

func TestCheckLeafrefTargetConfigMustNotReferenceState(t *testing.T) {
	t.Parallel()
	stateLeaf := &schema.StaticObject{NameVal: "counter", BaseTypeVal: schema.Uint64, DataClassVal: schema.DataClassState}
	configLeafref := &schema.StaticObject{NameVal: "ref", BaseTypeVal: schema.Leafref, DataClassVal: schema.DataClassConfig}

	errs := CheckLeafrefTarget(stateLeaf, configLeafref, true, "/ref", "/if:counter")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "config node")
}

func TestCheckLeafrefTargetValidLeafNoError(t *testing.T) {
	t.Parallel()
	nameLeaf := &schema.StaticObject{NameVal: "name", BaseTypeVal: schema.String, DataClassVal: schema.DataClassConfig}
	configLeafref := &schema.StaticObject{NameVal: "ref", BaseTypeVal: schema.Leafref, DataClassVal: schema.DataClassConfig}

	assert.Empty(t, CheckLeafrefTarget(nameLeaf, configLeafref, true, "/ref", "/if:name"))
}

func TestCheckInstanceIdentifierTargetConfigMustNotReferenceState(t *testing.T) {
	t.Parallel()
	stateLeaf := &schema.StaticObject{NameVal: "counter", BaseTypeVal: schema.Uint64, DataClassVal: schema.DataClassState}
	configOwner := &schema.StaticObject{NameVal: "target", BaseTypeVal: schema.InstanceIdentifier, DataClassVal: schema.DataClassConfig}

	errs := CheckInstanceIdentifierTarget(stateLeaf, configOwner, "/target", "/if:counter")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "config node")
}

func keyName(i int) string {
	return "k" + string(rune('a'+i%26)) + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [12]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
