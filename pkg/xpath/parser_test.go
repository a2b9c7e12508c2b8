package xpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAbsolutePath(t *testing.T) {
	t.Parallel()
	p, err := Parse("/if:interfaces/if:interface")
	require.NoError(t, err)
	assert.True(t, p.Absolute)
	require.Len(t, p.Steps, 2)
	assert.Equal(t, QName{Prefix: "if", Local: "interfaces"}, p.Steps[0].Name)
	assert.Equal(t, QName{Prefix: "if", Local: "interface"}, p.Steps[1].Name)
}

func TestParseRelativeLeafrefPath(t *testing.T) {
	t.Parallel()
	p, err := Parse("../../if:interface/if:name")
	require.NoError(t, err)
	assert.False(t, p.Absolute)
	assert.Equal(t, 2, p.UpLevels)
	require.Len(t, p.Steps, 2)
}

func TestParsePredicateWithLiteral(t *testing.T) {
	t.Parallel()
	p, err := Parse("/if:interfaces/if:interface[if:name='eth0']/if:mtu")
	require.NoError(t, err)
	require.Len(t, p.Steps, 2)
	require.Len(t, p.Steps[0].Predicates, 1)
	pred := p.Steps[0].Predicates[0]
	require.NotNil(t, pred.Literal)
	assert.Equal(t, "eth0", *pred.Literal)
}

func TestParsePredicateWithCurrentFunction(t *testing.T) {
	t.Parallel()
	p, err := Parse("/if:interfaces/if:interface[if:name=current()/../if:if-name]")
	require.NoError(t, err)
	pred := p.Steps[1].Predicates[0]
	require.NotNil(t, pred.CurrentRelPath)
	assert.Equal(t, 1, pred.CurrentRelPath.UpLevels)
	require.Len(t, pred.CurrentRelPath.Steps, 1)
	assert.Equal(t, "if-name", pred.CurrentRelPath.Steps[0].Name.Local)
}

func TestParseRejectsMalformedPath(t *testing.T) {
	t.Parallel()
	cases := []string{
		"",
		"interfaces", // neither absolute nor relative-with-..
		"/if:interfaces[",
		"/if:interfaces[if:name=]",
		"/if:interfaces/",
	}
	for _, expr := range cases {
		_, err := Parse(expr)
		assert.Error(t, err, expr)
	}
}
