package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncxlabs/netconfd/pkg/framing"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxBuffers = 4
	cfg.FreeListCap = 2
	return cfg
}

func TestNewSessionStartsInInitWith10Framing(t *testing.T) {
	t.Parallel()

	s := New(uuid.New(), Peer{User: "alice"}, testConfig())
	assert.Equal(t, StateInit, s.State())
	assert.Equal(t, framing.Mode10, s.Mode())
}

func TestNegotiateFramingRequiresBothSides(t *testing.T) {
	t.Parallel()

	s := New(uuid.New(), Peer{}, testConfig())
	s.AdvertiseCapability(base11Capability, true)
	s.NegotiateFraming()
	assert.Equal(t, framing.Mode10, s.Mode(), "only local side advertised 1.1")

	s.AdvertiseCapability(base11Capability, false)
	s.NegotiateFraming()
	assert.Equal(t, framing.Mode11, s.Mode())
}

func TestFeedInboundEnqueuesCompleteMessages(t *testing.T) {
	t.Parallel()

	s := New(uuid.New(), Peer{}, testConfig())
	require.NoError(t, s.FeedInbound([]byte("<hi/>]]>]]>")))

	require.True(t, s.HasInboundMessage())
	msg, ok := s.PopInboundMessage()
	require.True(t, ok)
	assert.Equal(t, "<hi/>", string(msg))
	assert.False(t, s.HasInboundMessage())
}

func TestFeedInboundPropagatesMalformedError(t *testing.T) {
	t.Parallel()

	s := New(uuid.New(), Peer{}, testConfig())
	s.AdvertiseCapability(base11Capability, true)
	s.AdvertiseCapability(base11Capability, false)
	s.NegotiateFraming()

	err := s.FeedInbound([]byte("garbage"))
	assert.Error(t, err)
}

func TestEnqueueOutboundRespectsBufferCap(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxBuffers = 1
	s := New(uuid.New(), Peer{}, cfg)

	rerr := s.EnqueueOutbound([]byte("short"), 8)
	require.Nil(t, rerr)
	assert.Equal(t, 1, s.OutboundDepth())

	rerr = s.EnqueueOutbound([]byte("more"), 8)
	require.NotNil(t, rerr, "expected resource-denied once the per-session cap is hit")
}

func TestOutboundBufferRecycledAfterFullWrite(t *testing.T) {
	t.Parallel()

	s := New(uuid.New(), Peer{}, testConfig())
	require.Nil(t, s.EnqueueOutbound([]byte("payload"), 8))

	buf, pos := s.NextOutbound()
	require.NotNil(t, buf)
	assert.Equal(t, 0, pos)

	s.AdvanceOutbound(len(buf.Bytes()))
	assert.Equal(t, 0, s.OutboundDepth())

	next, _ := s.NextOutbound()
	assert.Nil(t, next)
}

func TestChunkedOutboundEndsWithTerminator(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxChunkSize = 4
	s := New(uuid.New(), Peer{}, cfg)
	s.AdvertiseCapability(base11Capability, true)
	s.AdvertiseCapability(base11Capability, false)
	s.NegotiateFraming()

	require.Nil(t, s.EnqueueOutbound([]byte("hello"), 8))

	var out []byte
	for {
		buf, pos := s.NextOutbound()
		if buf == nil {
			break
		}
		out = append(out, buf.Bytes()[pos:]...)
		s.AdvanceOutbound(len(buf.Bytes()) - pos)
	}
	assert.Contains(t, string(out), "\n##\n")
}

func TestExpiredChecksIdleAndLifetime(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.IdleTimeout = time.Millisecond
	cfg.Lifetime = time.Hour
	s := New(uuid.New(), Peer{}, cfg)

	time.Sleep(5 * time.Millisecond)
	assert.True(t, s.Expired(time.Now()))
}

func TestDrainReleasesEverything(t *testing.T) {
	t.Parallel()

	s := New(uuid.New(), Peer{}, testConfig())
	require.NoError(t, s.FeedInbound([]byte("<a/>]]>]]>")))
	require.Nil(t, s.EnqueueOutbound([]byte("x"), 8))

	s.Drain()
	assert.False(t, s.HasInboundMessage())
	assert.Equal(t, 0, s.OutboundDepth())
}

func TestSnapshotReflectsState(t *testing.T) {
	t.Parallel()

	s := New(uuid.New(), Peer{User: "bob", Address: "10.0.0.1"}, testConfig())
	s.SetState(StateIdle)

	snap := s.Snapshot()
	assert.Equal(t, "bob", snap.User)
	assert.Equal(t, "idle", snap.State)
	assert.Equal(t, "1.0", snap.Mode)
}
