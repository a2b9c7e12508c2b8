package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncxlabs/netconfd/pkg/schema"
)

func buildSampleTree() *Node {
	top := New("top", "ns", &schema.StaticObject{BaseTypeVal: schema.Container})
	leaf := New("leaf", "ns", &schema.StaticObject{BaseTypeVal: schema.String})
	leaf.SetString("v")
	leaf.AddMetadata(&Metadata{Name: "operation", Namespace: "ns:nc", Value: "merge"})
	leaf.EditVars = &EditVars{Op: EditMerge}
	top.AppendChild(leaf)
	return top
}

func TestCloneProducesEqualButDistinctTree(t *testing.T) {
	t.Parallel()
	orig := buildSampleTree()
	clone := Clone(orig, nil, false)

	assert.True(t, Compare(orig, clone))
	require.Len(t, clone.Children(), 1)
	assert.NotSame(t, orig.Children()[0], clone.Children()[0])

	// Mutating the clone must not affect the original.
	clone.Children()[0].SetString("changed")
	origVal, _ := orig.Children()[0].String()
	assert.Equal(t, "v", origVal)
}

func TestCloneCopiesMetadataAlways(t *testing.T) {
	t.Parallel()
	orig := buildSampleTree()
	clone := Clone(orig, nil, false)
	require.Len(t, clone.Children()[0].Metadata(), 1)
	assert.Equal(t, "merge", clone.Children()[0].Metadata()[0].Value)
}

func TestCloneOmitsEditVarsUnlessRequested(t *testing.T) {
	t.Parallel()
	orig := buildSampleTree()

	withoutVars := Clone(orig, nil, false)
	assert.Nil(t, withoutVars.Children()[0].EditVars)

	withVars := Clone(orig, nil, true)
	require.NotNil(t, withVars.Children()[0].EditVars)
	assert.Equal(t, EditMerge, withVars.Children()[0].EditVars.Op)
}

func TestCloneFilterDropsRejectedSubtrees(t *testing.T) {
	t.Parallel()
	orig := buildSampleTree()
	other := New("other", "ns", &schema.StaticObject{BaseTypeVal: schema.String})
	other.SetString("x")
	orig.AppendChild(other)

	filtered := Clone(orig, func(n *Node) bool { return n.Name != "other" }, false)
	assert.Nil(t, filtered.FindChild("ns", "other"))
	assert.NotNil(t, filtered.FindChild("ns", "leaf"))
}

func TestMergeReplacePolicy(t *testing.T) {
	t.Parallel()
	dst := New("x", "", &schema.StaticObject{BaseTypeVal: schema.String})
	dst.SetString("old")
	src := New("x", "", &schema.StaticObject{BaseTypeVal: schema.String})
	src.SetString("new")

	Merge(dst, src, MergeReplace)
	v, _ := dst.String()
	assert.Equal(t, "new", v)
}

func TestMergeUnionPolicyDedupes(t *testing.T) {
	t.Parallel()
	dst := New("x", "", &schema.StaticObject{BaseTypeVal: schema.ListOfStrings})
	dst.SetListOfStrings([]string{"a", "b"})
	src := New("x", "", &schema.StaticObject{BaseTypeVal: schema.ListOfStrings})
	src.SetListOfStrings([]string{"b", "c"})

	Merge(dst, src, MergeUnion)
	v, ok := dst.ListOfStrings()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, v)
}
