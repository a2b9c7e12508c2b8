package framing

import (
	"testing"

	"github.com/ncxlabs/netconfd/pkg/bufpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEOMRoundTrip(t *testing.T) {
	t.Parallel()

	d := NewDecoder(Mode10, 0)
	encoded := EncodeEOM([]byte("<hello/>"))

	msgs, err := d.Feed(encoded)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "<hello/>", string(msgs[0]))
}

func TestEOMSentinelSplitAcrossFeeds(t *testing.T) {
	t.Parallel()

	d := NewDecoder(Mode10, 0)
	encoded := EncodeEOM([]byte("<hi/>"))

	// Split right in the middle of the six-byte sentinel.
	split := len(encoded) - 3
	msgs1, err := d.Feed(encoded[:split])
	require.NoError(t, err)
	assert.Empty(t, msgs1)

	msgs2, err := d.Feed(encoded[split:])
	require.NoError(t, err)
	require.Len(t, msgs2, 1)
	assert.Equal(t, "<hi/>", string(msgs2[0]))
}

func TestChunkedRoundTrip(t *testing.T) {
	t.Parallel()

	// Exact seed from spec.md §8 scenario 1.
	input := "\n#5\n<hi/>\n##\n"

	d := NewDecoder(Mode11, 0)
	msgs, err := d.Feed([]byte(input))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "<hi/>", string(msgs[0]))

	assert.Equal(t, input, string(EncodeChunks([]byte("<hi/>"), 5)))
}

func TestChunkedMultiChunkMessage(t *testing.T) {
	t.Parallel()

	payload := []byte("0123456789")
	encoded := EncodeChunks(payload, 4)

	d := NewDecoder(Mode11, 0)
	msgs, err := d.Feed(encoded)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, payload, msgs[0])
}

func TestChunkedHeaderSplitAcrossFeeds(t *testing.T) {
	t.Parallel()

	encoded := []byte("\n#5\n<hi/>\n##\n")
	d := NewDecoder(Mode11, 0)

	var got [][]byte
	for _, b := range encoded {
		msgs, err := d.Feed([]byte{b})
		require.NoError(t, err)
		got = append(got, msgs...)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "<hi/>", string(got[0]))
}

func TestChunkedZeroLengthChunkRoundTrips(t *testing.T) {
	t.Parallel()

	encoded := EncodeChunks(nil, 4)
	assert.Equal(t, "\n#0\n\n##\n", string(encoded))

	d := NewDecoder(Mode11, 0)
	msgs, err := d.Feed(encoded)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Empty(t, msgs[0])
}

func TestChunkedRejectsOversizedChunk(t *testing.T) {
	t.Parallel()

	d := NewDecoder(Mode11, 8)
	_, err := d.Feed([]byte("\n#9\n"))
	require.Error(t, err)
}

func TestChunkedRejectsMalformedHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"missing hash", "\nX5\n"},
		{"leading zero length", "\n#05\nhello"},
		{"bad digit", "\n#5x\nhello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := NewDecoder(Mode11, 0)
			_, err := d.Feed([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestFinalizeChunkWritesHeaderInPlace(t *testing.T) {
	t.Parallel()

	pool := bufpool.NewPool(64)
	buf := pool.Get()
	copy(buf.WriteSpace(), []byte("<hi/>"))
	buf.Advance(5)

	require.NoError(t, FinalizeChunk(buf))

	got := buf.Raw()[buf.Start:buf.End]
	assert.Equal(t, "\n#5\n<hi/>", string(got))
}

func TestPendingAndDiscard(t *testing.T) {
	t.Parallel()

	d := NewDecoder(Mode10, 0)
	_, err := d.Feed([]byte("partial"))
	require.NoError(t, err)
	assert.True(t, d.Pending())

	d.Discard()
	assert.False(t, d.Pending())
}
