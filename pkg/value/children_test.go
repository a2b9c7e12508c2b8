package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncxlabs/netconfd/pkg/schema"
)

func TestAppendChildPreservesSchemaOrder(t *testing.T) {
	t.Parallel()
	leafA := &schema.StaticObject{NameVal: "a", BaseTypeVal: schema.String}
	listB := &schema.StaticObject{NameVal: "b", BaseTypeVal: schema.List}
	leafC := &schema.StaticObject{NameVal: "c", BaseTypeVal: schema.String}
	top := &schema.StaticObject{
		NameVal:     "top",
		BaseTypeVal: schema.Container,
		ChildrenVal: []schema.Object{leafA, listB, leafC},
	}

	n := New("top", "", top)
	// Append out of schema order: c, a, b1, b2.
	n.AppendChild(New("c", "", leafC))
	n.AppendChild(New("a", "", leafA))
	n.AppendChild(New("b", "", listB))
	n.AppendChild(New("b", "", listB))

	names := make([]string, 0, 4)
	for _, c := range n.Children() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"a", "b", "b", "c"}, names)
}

func TestAppendChildKeepsListRunContiguousInArrivalOrder(t *testing.T) {
	t.Parallel()
	listItem := &schema.StaticObject{NameVal: "item", BaseTypeVal: schema.List}
	top := &schema.StaticObject{
		NameVal:     "top",
		BaseTypeVal: schema.Container,
		ChildrenVal: []schema.Object{listItem},
	}
	n := New("top", "", top)

	first := New("item", "", listItem)
	first.SetString("one")
	second := New("item", "", listItem)
	second.SetString("two")
	third := New("item", "", listItem)
	third.SetString("three")

	n.AppendChild(first)
	n.AppendChild(second)
	n.AppendChild(third)

	require.Len(t, n.Children(), 3)
	v0, _ := n.Children()[0].String()
	v1, _ := n.Children()[1].String()
	v2, _ := n.Children()[2].String()
	assert.Equal(t, []string{"one", "two", "three"}, []string{v0, v1, v2})
}

func TestFindChildSkipsDeleted(t *testing.T) {
	t.Parallel()
	n := New("top", "", nil)
	a := New("a", "ns", nil)
	a.MarkDeleted()
	b := New("a", "ns", nil)
	n.AppendChild(a)
	n.AppendChild(b)

	found := n.FindChild("ns", "a")
	require.NotNil(t, found)
	assert.Same(t, b, found)
}

func TestRemoveChildClearsParent(t *testing.T) {
	t.Parallel()
	n := New("top", "", nil)
	child := New("c", "", nil)
	n.AppendChild(child)
	require.Same(t, n, child.Parent())

	n.RemoveChild(child)
	assert.Nil(t, child.Parent())
	assert.Empty(t, n.Children())
}

func TestReplaceChildPreservesSlot(t *testing.T) {
	t.Parallel()
	n := New("top", "", nil)
	a := New("a", "", nil)
	b := New("b", "", nil)
	c := New("c", "", nil)
	n.AppendChild(a)
	n.AppendChild(b)
	n.AppendChild(c)

	replacement := New("b2", "", nil)
	ok := n.ReplaceChild(b, replacement)
	require.True(t, ok)

	names := make([]string, 0, 3)
	for _, ch := range n.Children() {
		names = append(names, ch.Name)
	}
	assert.Equal(t, []string{"a", "b2", "c"}, names)
	assert.Nil(t, b.Parent())
}

func TestNextSiblingSkipsDeletedMarkers(t *testing.T) {
	t.Parallel()
	n := New("top", "", nil)
	a := New("a", "", nil)
	b := New("b", "", nil)
	b.MarkDeleted()
	c := New("c", "", nil)
	n.AppendChild(a)
	n.AppendChild(b)
	n.AppendChild(c)

	next := n.NextSibling(a)
	require.NotNil(t, next)
	assert.Same(t, c, next)
}
