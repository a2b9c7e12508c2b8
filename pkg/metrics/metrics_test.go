package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRegistry_IdempotentAndRecords(t *testing.T) {
	reset()
	defer reset()

	assert.False(t, IsEnabled())
	InitRegistry()
	InitRegistry() // second call must be a no-op, not a re-registration panic
	require.True(t, IsEnabled())

	SetActiveSessions(3)
	RecordSessionClosed("clean")
	RecordError("invalid-value")

	reg := Registry()
	require.NotNil(t, reg)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestRecorders_NoopWhenDisabled(t *testing.T) {
	reset()
	defer reset()

	assert.False(t, IsEnabled())
	assert.NotPanics(t, func() {
		SetActiveSessions(1)
		RecordSessionClosed("clean")
		SetBufferPoolInUse(2)
		RecordBufferAlloc()
		RecordError("invalid-value")
		ObserveParseDuration(0.01)
	})
}
