package rpcerror

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueAccumulatesInOrder(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	assert.False(t, q.HasErrors())
	assert.Nil(t, q.First())

	q.Add(New(TagUnknownElement, "/c/bad", "unexpected child element"))
	q.Add(New(TagInvalidValue, "/c/good", "value out of range"))

	require.True(t, q.HasErrors())
	require.Equal(t, 2, q.Len())

	errs := q.Errors()
	assert.Equal(t, TagUnknownElement, errs[0].Tag)
	assert.Equal(t, TagInvalidValue, errs[1].Tag)
	assert.Equal(t, errs[0], q.First())
}

func TestQueueAddNilIsNoop(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	q.Add(nil)
	assert.False(t, q.HasErrors())
}

func TestRPCErrorWithers(t *testing.T) {
	t.Parallel()

	base := New(TagInvalidValue, "/color", "bad value")
	withInfo := base.WithInfo(Info{"bad-value": "blue"})
	withAppTag := base.WithAppTag("too-big")
	withType := base.WithType(TypeProtocol)

	assert.Nil(t, base.Info, "original must not be mutated")
	assert.Equal(t, "blue", withInfo.Info["bad-value"])
	assert.Equal(t, "too-big", withAppTag.AppTag)
	assert.Equal(t, TypeProtocol, withType.Type)
	assert.Equal(t, TypeApp, base.Type, "original type unaffected by WithType copy")
}

func TestRPCErrorMessageFormat(t *testing.T) {
	t.Parallel()

	err := New(TagMissingElement, "/users/user[name='bob']", "missing index")
	assert.Contains(t, err.Error(), "missing-element")
	assert.Contains(t, err.Error(), "/users/user[name='bob']")

	bare := &RPCError{Tag: TagMalformedMessage, Message: "truncated chunk header"}
	assert.Equal(t, "malformed-message: truncated chunk header", bare.Error())
}
