package xmlevents

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectKinds(t *testing.T, r *Reader) []Kind {
	t.Helper()
	var kinds []Kind
	for {
		ev, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

func TestSelfClosingElementCollapsesToEmpty(t *testing.T) {
	t.Parallel()
	r := NewReader(strings.NewReader(`<top><a/></top>`))
	kinds := collectKinds(t, r)
	assert.Equal(t, []Kind{Start, Empty, End}, kinds)
}

func TestStartEndWithNoContentCollapsesToEmpty(t *testing.T) {
	t.Parallel()
	r := NewReader(strings.NewReader(`<top><a></a></top>`))
	kinds := collectKinds(t, r)
	assert.Equal(t, []Kind{Start, Empty, End}, kinds)
}

func TestElementWithTextStaysStartStringEnd(t *testing.T) {
	t.Parallel()
	r := NewReader(strings.NewReader(`<top><a>hi</a></top>`))
	kinds := collectKinds(t, r)
	assert.Equal(t, []Kind{Start, Start, String, End, End}, kinds)
}

func TestPeekDoesNotConsume(t *testing.T) {
	t.Parallel()
	r := NewReader(strings.NewReader(`<top/>`))
	peeked, err := r.Peek()
	require.NoError(t, err)
	assert.Equal(t, Empty, peeked.Kind)

	next, err := r.Next()
	require.NoError(t, err)
	assert.Same(t, peeked, next)
}

func TestNamespaceResolutionOnAttributesAndElements(t *testing.T) {
	t.Parallel()
	r := NewReader(strings.NewReader(`<top xmlns="urn:a" xmlns:b="urn:b"><b:leaf b:attr="x"/></top>`))

	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "urn:a", ev.Name.Space)

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, Empty, ev.Kind)
	assert.Equal(t, "urn:b", ev.Name.Space)
	require.Len(t, ev.Attrs, 1)
	assert.Equal(t, "urn:b", ev.Attrs[0].Name.Space)
}

func TestResolvePrefixForQNameTextContent(t *testing.T) {
	t.Parallel()
	r := NewReader(strings.NewReader(`<top xmlns:b="urn:b"><leaf>b:local</leaf></top>`))

	_, err := r.Next() // top (Start)
	require.NoError(t, err)
	_, err = r.Next() // leaf (Start)
	require.NoError(t, err)

	uri, ok := r.ResolvePrefix("b")
	require.True(t, ok)
	assert.Equal(t, "urn:b", uri)

	_, ok = r.ResolvePrefix("nope")
	assert.False(t, ok)
}
