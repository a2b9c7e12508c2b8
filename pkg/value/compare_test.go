package value

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ncxlabs/netconfd/pkg/schema"
)

func TestCompareScalarsByValue(t *testing.T) {
	t.Parallel()
	a := New("x", "", &schema.StaticObject{BaseTypeVal: schema.String})
	a.SetString("hello")
	b := New("x", "", &schema.StaticObject{BaseTypeVal: schema.String})
	b.SetString("hello")
	c := New("x", "", &schema.StaticObject{BaseTypeVal: schema.String})
	c.SetString("world")

	assert.True(t, Compare(a, b))
	assert.False(t, Compare(a, c))
}

func TestCompareBinaryByBytes(t *testing.T) {
	t.Parallel()
	a := New("x", "", &schema.StaticObject{BaseTypeVal: schema.Binary})
	a.SetBinary([]byte{1, 2, 3})
	b := New("x", "", &schema.StaticObject{BaseTypeVal: schema.Binary})
	b.SetBinary([]byte{1, 2, 3})
	d := New("x", "", &schema.StaticObject{BaseTypeVal: schema.Binary})
	d.SetBinary([]byte{1, 2, 4})

	assert.True(t, Compare(a, b))
	assert.False(t, Compare(a, d))
}

func TestCompareContainersRecurse(t *testing.T) {
	t.Parallel()
	top := &schema.StaticObject{BaseTypeVal: schema.Container}
	a := New("top", "", top)
	a1 := New("leaf", "", &schema.StaticObject{BaseTypeVal: schema.String})
	a1.SetString("v")
	a.AppendChild(a1)

	b := New("top", "", top)
	b1 := New("leaf", "", &schema.StaticObject{BaseTypeVal: schema.String})
	b1.SetString("v")
	b.AppendChild(b1)

	assert.True(t, Compare(a, b))

	b1.SetString("different")
	assert.False(t, Compare(a, b))
}

func TestCompareDifferentBaseTypesAreUnequal(t *testing.T) {
	t.Parallel()
	a := New("x", "", &schema.StaticObject{BaseTypeVal: schema.String})
	a.SetString("1")
	b := New("x", "", &schema.StaticObject{BaseTypeVal: schema.Int64})
	b.SetInt(1)

	assert.False(t, Compare(a, b))
}

func TestCompareNilHandling(t *testing.T) {
	t.Parallel()
	assert.True(t, Compare(nil, nil))
	n := New("x", "", nil)
	assert.False(t, Compare(n, nil))
	assert.False(t, Compare(nil, n))
}
