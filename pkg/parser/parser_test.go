package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncxlabs/netconfd/pkg/rpcerror"
	"github.com/ncxlabs/netconfd/pkg/schema"
	"github.com/ncxlabs/netconfd/pkg/value"
	"github.com/ncxlabs/netconfd/pkg/xmlevents"
)

const exNS = "urn:ex"
const ifNS = "urn:ietf:params:xml:ns:yang:ietf-if"

func mustParse(t *testing.T, xmlText string, root schema.Object) (*value.Node, *Parser) {
	t.Helper()
	r := xmlevents.NewReader(strings.NewReader(xmlText))
	p := New(r, ModeAgent)
	node, err := p.ParseDocument(root)
	require.NoError(t, err)
	return node, p
}

// TestEnumerationInvalidValue is spec.md §8 scenario 2: an enum leaf given
// an undeclared literal records invalid-value at the leaf's own path.
func TestEnumerationInvalidValue(t *testing.T) {
	t.Parallel()
	root := &schema.StaticObject{
		NameVal: "color", BaseTypeVal: schema.Enumeration,
		TypeDefVal: &schema.StaticTypeDef{EnumValuesVal: []string{"red", "green"}},
	}
	node, p := mustParse(t, `<color>blue</color>`, root)

	require.Equal(t, value.StatusValueError, node.ParseStatus)
	errs := p.Errors().Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, rpcerror.TagInvalidValue, errs[0].Tag)
	assert.Equal(t, "/color", errs[0].Path)
	assert.Contains(t, errs[0].Message, "blue")
	assert.Equal(t, "blue", errs[0].Info["bad-value"])
}

func TestEnumerationValidValue(t *testing.T) {
	t.Parallel()
	root := &schema.StaticObject{
		NameVal: "color", BaseTypeVal: schema.Enumeration,
		TypeDefVal: &schema.StaticTypeDef{EnumValuesVal: []string{"red", "green"}},
	}
	node, p := mustParse(t, `<color>green</color>`, root)

	require.Equal(t, value.StatusOK, node.ParseStatus)
	assert.False(t, p.Errors().HasErrors())
	s, ok := node.String()
	require.True(t, ok)
	assert.Equal(t, "green", s)
}

// TestIdentityrefResolution is spec.md §8 scenario 3.
func TestIdentityrefResolution(t *testing.T) {
	t.Parallel()
	root := &schema.StaticObject{NameVal: "type", BaseTypeVal: schema.Identityref}
	node, p := mustParse(t, `<type xmlns:ex="urn:ex">ex:fast-ether</type>`, root)

	assert.False(t, p.Errors().HasErrors())
	idref, ok := node.Identityref()
	require.True(t, ok)
	assert.Equal(t, exNS, idref.Namespace)
	assert.Equal(t, "fast-ether", idref.LocalName)
}

// TestContainerSubtreeErrorRecovery is spec.md §8 scenario 6: an unknown
// child is reported but doesn't stop a sibling from parsing, and the
// known-good sibling's value lands in the tree.
func TestContainerSubtreeErrorRecovery(t *testing.T) {
	t.Parallel()
	goodLeaf := &schema.StaticObject{NameVal: "good", BaseTypeVal: schema.Int8}
	root := &schema.StaticObject{
		NameVal: "c", BaseTypeVal: schema.Container,
		ChildrenVal: []schema.Object{goodLeaf},
	}
	node, p := mustParse(t, `<c><bad>x</bad><good>1</good></c>`, root)

	errs := p.Errors().Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, rpcerror.TagUnknownElement, errs[0].Tag)
	assert.Contains(t, errs[0].Message, "bad")

	children := node.LiveChildren()
	require.Len(t, children, 1)
	assert.Equal(t, "good", children[0].Name)
	v, ok := children[0].Int()
	require.True(t, ok)
	assert.Equal(t, int64(1), v)
}

// TestListGeneratesIndexChain builds a keyed list instance and checks that
// GenerateIndexChain (invoked from parseElement's List case) produces one
// index-chain entry per declared key, in schema order.
func TestListGeneratesIndexChain(t *testing.T) {
	t.Parallel()
	nameLeaf := &schema.StaticObject{NameVal: "name", BaseTypeVal: schema.String}
	mtuLeaf := &schema.StaticObject{NameVal: "mtu", BaseTypeVal: schema.Uint32}
	entry := &schema.StaticObject{
		NameVal: "interface", BaseTypeVal: schema.List,
		KeysVal:     []string{"name"},
		ChildrenVal: []schema.Object{nameLeaf, mtuLeaf},
	}
	node, p := mustParse(t, `<interface><name>eth0</name><mtu>1500</mtu></interface>`, entry)

	assert.False(t, p.Errors().HasErrors())
	chain := node.IndexChain()
	require.Len(t, chain, 1)
	assert.Equal(t, "name", chain[0].Name)
	s, _ := chain[0].String()
	assert.Equal(t, "eth0", s)
}

// TestListMissingKeyReportsMissingElement covers the index-chain invariant
// from spec.md §8: removing/omitting a declared key child leaves the list
// node's index chain short and records missing-element at the list's path.
func TestListMissingKeyReportsMissingElement(t *testing.T) {
	t.Parallel()
	nameLeaf := &schema.StaticObject{NameVal: "name", BaseTypeVal: schema.String}
	entry := &schema.StaticObject{
		NameVal: "interface", BaseTypeVal: schema.List,
		KeysVal:     []string{"name"},
		ChildrenVal: []schema.Object{nameLeaf},
	}
	_, p := mustParse(t, `<interface></interface>`, entry)

	errs := p.Errors().Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, rpcerror.TagMissingElement, errs[0].Tag)
}

// TestInstanceIdentifierMissingKeyStrict is spec.md §8 scenario 4: a
// strict instance-identifier targeting a keyed list without naming all of
// its keys is rejected with invalid-value once phase two
// (ValidateReferences) runs.
func TestInstanceIdentifierMissingKeyStrict(t *testing.T) {
	t.Parallel()
	nameLeaf := &schema.StaticObject{NameVal: "name", NamespaceVal: ifNS, BaseTypeVal: schema.String}
	ageLeaf := &schema.StaticObject{NameVal: "age", NamespaceVal: ifNS, BaseTypeVal: schema.Uint8}
	userList := &schema.StaticObject{
		NameVal: "user", NamespaceVal: ifNS, BaseTypeVal: schema.List,
		KeysVal:     []string{"name"},
		ChildrenVal: []schema.Object{nameLeaf, ageLeaf},
	}
	usersContainer := &schema.StaticObject{
		NameVal: "users", NamespaceVal: ifNS, BaseTypeVal: schema.Container,
		ChildrenVal: []schema.Object{userList},
	}
	docRoot := &schema.StaticObject{
		NameVal: "doc", BaseTypeVal: schema.Container,
		ChildrenVal: []schema.Object{usersContainer},
	}
	targetLeaf := &schema.StaticObject{
		NameVal: "target", BaseTypeVal: schema.InstanceIdentifier,
		TypeDefVal: &schema.StaticTypeDef{InstanceIDStrict: true},
	}
	docRoot.ChildrenVal = append(docRoot.ChildrenVal, targetLeaf)

	r := xmlevents.NewReader(strings.NewReader(`<target xmlns:if="` + ifNS + `">/if:users/if:user[if:age='7']</target>`))
	p := New(r, ModeAgent)
	node, err := p.ParseDocument(targetLeaf)
	require.NoError(t, err)

	resolve := func(prefix string) (string, bool) {
		if prefix == "if" {
			return ifNS, true
		}
		return "", false
	}
	p.rootObj = docRoot
	p.ValidateReferences(node, resolve)

	errs := p.Errors().Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, rpcerror.TagInvalidValue, errs[0].Tag)
	assert.Contains(t, errs[0].Message, "missing index")
}

// TestAnyTreatsStartAsContainer covers spec.md §4.F "Any": a start event
// inside an anyxml leaf recurses as a schema-less container.
func TestAnyTreatsStartAsContainer(t *testing.T) {
	t.Parallel()
	root := &schema.StaticObject{NameVal: "config-change", BaseTypeVal: schema.Any}
	node, p := mustParse(t, `<config-change><target>eth0</target></config-change>`, root)

	assert.False(t, p.Errors().HasErrors())
	assert.Equal(t, schema.Container, node.BaseType)
	children := node.LiveChildren()
	require.Len(t, children, 1)
	assert.Equal(t, "target", children[0].Name)
	assert.Equal(t, schema.String, children[0].BaseType)
	s, ok := children[0].String()
	require.True(t, ok)
	assert.Equal(t, "eth0", s)
}

// TestAnyTreatsTextAsString covers the "a string -> generic string leaf"
// branch of spec.md §4.F "Any".
func TestAnyTreatsTextAsString(t *testing.T) {
	t.Parallel()
	root := &schema.StaticObject{NameVal: "blob", BaseTypeVal: schema.Any}
	node, p := mustParse(t, `<blob>raw payload</blob>`, root)

	assert.False(t, p.Errors().HasErrors())
	assert.Equal(t, schema.String, node.BaseType)
	s, ok := node.String()
	require.True(t, ok)
	assert.Equal(t, "raw payload", s)
}

// TestAnyTreatsImmediateEndAsEmpty covers the "immediate end -> empty type"
// branch of spec.md §4.F "Any", both for a self-closing tag and for an
// explicit open/close pair with no content.
func TestAnyTreatsImmediateEndAsEmpty(t *testing.T) {
	t.Parallel()
	root := &schema.StaticObject{NameVal: "blob", BaseTypeVal: schema.Any}

	node, p := mustParse(t, `<blob/>`, root)
	assert.False(t, p.Errors().HasErrors())
	assert.Equal(t, schema.Empty, node.BaseType)

	node, p = mustParse(t, `<blob></blob>`, root)
	assert.False(t, p.Errors().HasErrors())
	assert.Equal(t, schema.Empty, node.BaseType)
}
