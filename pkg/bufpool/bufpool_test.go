package bufpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferResetPlacesCursorsPastPad(t *testing.T) {
	t.Parallel()

	p := NewPool(64)
	b := p.Get()
	require.Equal(t, StartChunkPad, b.Start)
	require.Equal(t, StartChunkPad, b.Pos)
	require.Equal(t, StartChunkPad, b.End)
	assert.Equal(t, 64+StartChunkPad, b.Cap())
}

func TestBufferAdvanceAndBytes(t *testing.T) {
	t.Parallel()

	p := NewPool(64)
	b := p.Get()

	copy(b.WriteSpace(), []byte("hello"))
	b.Advance(5)

	assert.Equal(t, "hello", string(b.Bytes()))
	assert.Equal(t, "hello", string(b.Unread()))
}

func TestPoolRecyclesSameCapacity(t *testing.T) {
	t.Parallel()

	p := NewPool(64)
	b1 := p.Get()
	raw := b1.Raw()
	p.Put(b1)

	b2 := p.Get()
	assert.Same(t, &raw[0], &b2.Raw()[0], "expected the pool to recycle the same backing array")
}

func TestPoolDropsMismatchedCapacity(t *testing.T) {
	t.Parallel()

	p := NewPool(64)
	oversized := &Buffer{data: make([]byte, 4096)}
	oversized.Reset()

	// Must not panic and must not be handed back by a subsequent Get in a
	// way that breaks size invariants.
	p.Put(oversized)
	got := p.Get()
	assert.Equal(t, 64+StartChunkPad, got.Cap())
}

func TestGlobalPoolRoundTrip(t *testing.T) {
	SetGlobalSize(128)
	defer SetGlobalSize(DefaultBufferSize)

	b := Get()
	assert.Equal(t, 128+StartChunkPad, b.Cap())
	Put(b)
}
