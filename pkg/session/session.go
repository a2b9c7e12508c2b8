// Package session implements the NETCONF session control block (spec.md
// §4.B): the per-connection state the I/O multiplexer (pkg/ioloop) drives —
// input/output buffer queues, framing mode, free list, and the session
// state machine.
//
// A Session owns no socket itself; pkg/transport binds one to an accepted
// net.Conn and pkg/ioloop reads/writes it. Keeping the socket external
// mirrors the way the teacher's NFS/SMB adapters separate an adapter-level
// net.Listener loop from per-connection state, except here one multiplexer
// goroutine drives every Session instead of one goroutine per connection
// (spec.md §5: "single-threaded cooperative... No per-session thread").
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ncxlabs/netconfd/pkg/bufpool"
	"github.com/ncxlabs/netconfd/pkg/framing"
	"github.com/ncxlabs/netconfd/pkg/rpcerror"
)

// State is the session state machine enumerated in spec.md §4.B.
type State int

const (
	StateInit State = iota
	StateHelloWait
	StateIdle
	StateShutdownRequested
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateHelloWait:
		return "hello-wait"
	case StateIdle:
		return "idle"
	case StateShutdownRequested:
		return "shutdown-requested"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Peer carries the identity the transport adaptor reported in its
// ncx-connect handshake (spec.md §6).
type Peer struct {
	User      string
	Address   string
	Port      int
	Transport string
}

// Config bounds one session's resource usage. Every field is set from
// pkg/config so an operator can tune buffer caps without a rebuild.
type Config struct {
	// FreeListCap bounds the per-session buffer free list (spec.md §4.A:
	// "typical 32").
	FreeListCap int
	// MaxBuffers is the hard per-session cap on buffers outstanding at
	// once (the buffer being read into plus buffers queued outbound);
	// exceeding it is resource-denied.
	MaxBuffers int
	// MaxChunkSize bounds a single NETCONF 1.1 chunk's declared length
	// (spec.md §9 Open Question, resolved here as configurable).
	MaxChunkSize int
	// CacheTimeout bounds how long a virtual value's cached copy is
	// considered fresh for this session (spec.md §3, §4.E).
	CacheTimeout time.Duration
	// IdleTimeout is the maximum time a session may sit with no inbound
	// traffic before the multiplexer moves it to shutdown-requested.
	IdleTimeout time.Duration
	// Lifetime is the absolute maximum session duration regardless of
	// activity.
	Lifetime time.Duration
}

// DefaultConfig returns the same values pkg/config's ApplyDefaults fills in
// for unset session and framing fields.
func DefaultConfig() Config {
	return Config{
		FreeListCap:  32,
		MaxBuffers:   64,
		MaxChunkSize: 16 << 20, // 16MB
		CacheTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Minute,
		Lifetime:     24 * time.Hour,
	}
}

// Session is one NETCONF connection's control block (spec.md §4.B).
//
// Every field below is touched only by the owning multiplexer iteration
// except where noted; the mutex exists so admin/metrics code (pkg/adminhttp)
// can snapshot read-only fields (state, counters, peer) from another
// goroutine without racing the loop, matching the concurrency model spec.md
// §5 describes ("The buffer pool... is touched only by the loop thread").
type Session struct {
	ID   uuid.UUID
	Peer Peer
	cfg  Config

	mu    sync.Mutex
	state State

	mode    framing.Mode
	decoder *framing.Decoder

	// capabilities holds the NETCONF base capability URIs negotiated
	// during the hello exchange; 1.1 framing only activates once both
	// peers advertise it (spec.md §4.B).
	capabilities map[string]bool

	// inbound holds complete messages not yet handed to the parser.
	inbound [][]byte

	// curIn is the buffer currently being filled by the multiplexer's read
	// of this session's socket (spec.md §4.C step 2).
	curIn *bufpool.Buffer

	// outbound holds buffers queued for write, in enqueue order (spec.md
	// §4.C: "outbound buffers are sent in enqueue order"). outPos tracks
	// how many bytes of outbound[0] have already been written, so a
	// partial write can resume (spec.md §4.C step 3).
	outbound []*bufpool.Buffer
	outPos   int

	// freeList recycles buffers released by this session, bounded by
	// cfg.FreeListCap, before falling back to the global bufpool (spec.md
	// §4.A).
	freeList []*bufpool.Buffer

	// bufCount is the number of buffers currently charged against this
	// session (curIn and queued outbound; buffers parked on freeList and
	// the copied inbound messages are not counted), enforced against
	// cfg.MaxBuffers (spec.md §4.A, §4.C "Backpressure").
	bufCount int

	createdAt    time.Time
	lastActivity time.Time
}

// New constructs a Session bound to id and peer, starting in StateInit with
// 1.0 framing, per spec.md §4.B ("framing mode 1.0 until capabilities
// exchange succeeds with 1.1 support on both sides").
func New(id uuid.UUID, peer Peer, cfg Config) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Peer:         peer,
		cfg:          cfg,
		state:        StateInit,
		mode:         framing.Mode10,
		decoder:      framing.NewDecoder(framing.Mode10, cfg.MaxChunkSize),
		capabilities: make(map[string]bool),
		createdAt:    now,
		lastActivity: now,
	}
}

// State returns the session's current state machine value.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState transitions the session. Callers (the multiplexer) are
// responsible for only making legal transitions; this is a plain setter,
// not a validator, matching spec.md §4.B's description of the states as
// multiplexer-driven rather than self-enforcing.
func (s *Session) SetState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Mode returns the session's current framing mode.
func (s *Session) Mode() framing.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// AdvertiseCapability records a base capability URI one side advertised
// during the hello exchange.
func (s *Session) AdvertiseCapability(uri string, local bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if local {
		s.capabilities["local:"+uri] = true
	} else {
		s.capabilities["peer:"+uri] = true
	}
}

// base11Capability is the NETCONF 1.1 base capability URI that gates
// chunked framing (spec.md §6).
const base11Capability = "urn:ietf:params:netconf:base:1.1"

// NegotiateFraming switches the session to 1.1 chunked framing once both
// sides have advertised the 1.1 base capability; otherwise it is a no-op
// and the session stays on 1.0 (spec.md §4.B, §6).
func (s *Session) NegotiateFraming() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capabilities["local:"+base11Capability] && s.capabilities["peer:"+base11Capability] {
		s.mode = framing.Mode11
		s.decoder.SetMode(framing.Mode11)
	}
}

// Touch records inbound activity for idle-timeout accounting.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// Expired reports whether the session has exceeded its idle timeout or
// absolute lifetime as of now (spec.md §4.C "Cancellation/timeout").
func (s *Session) Expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.IdleTimeout > 0 && now.Sub(s.lastActivity) > s.cfg.IdleTimeout {
		return true
	}
	if s.cfg.Lifetime > 0 && now.Sub(s.createdAt) > s.cfg.Lifetime {
		return true
	}
	return false
}

// CacheTimeout returns the session's virtual-value cache freshness window
// (spec.md §3, §4.E), consumed by pkg/value's virtual-value fetch.
func (s *Session) CacheTimeout() time.Duration { return s.cfg.CacheTimeout }

// getBuffer returns a buffer for this session, preferring the per-session
// free list over the global pool, and enforces the per-session cap
// (spec.md §4.A: "additional buffers are allocated up to a hard per-session
// cap and denied beyond that").
func (s *Session) getBuffer() (*bufpool.Buffer, *rpcerror.RPCError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getBufferLocked()
}

func (s *Session) getBufferLocked() (*bufpool.Buffer, *rpcerror.RPCError) {
	if s.bufCount >= s.cfg.MaxBuffers {
		return nil, rpcerror.New(rpcerror.TagResourceDenied, "", "session buffer cap exceeded")
	}
	var buf *bufpool.Buffer
	if n := len(s.freeList); n > 0 {
		buf = s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
		buf.Reset()
	} else {
		buf = bufpool.Get()
	}
	s.bufCount++
	return buf, nil
}

// putBuffer releases buf back to this session's free list (bounded at
// cfg.FreeListCap) or, once that is full, to the global pool.
func (s *Session) putBuffer(buf *bufpool.Buffer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putBufferLocked(buf)
}

func (s *Session) putBufferLocked(buf *bufpool.Buffer) {
	if s.bufCount > 0 {
		s.bufCount--
	}
	if len(s.freeList) < s.cfg.FreeListCap {
		s.freeList = append(s.freeList, buf)
		return
	}
	bufpool.Put(buf)
}

// CurrentInbound returns the buffer the multiplexer should read socket
// bytes into, allocating one from the session's pool if none is in
// progress.
func (s *Session) CurrentInbound() (*bufpool.Buffer, *rpcerror.RPCError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.curIn == nil {
		buf, rerr := s.getBufferLocked()
		if rerr != nil {
			return nil, rerr
		}
		s.curIn = buf
	}
	return s.curIn, nil
}

// FeedInbound hands newly-read bytes (already appended to CurrentInbound's
// payload by the caller) to the framing decoder and enqueues every message
// that becomes complete. On a malformed-message decode error the caller
// must terminate the session (spec.md §4.A "Failure semantics").
func (s *Session) FeedInbound(data []byte) error {
	msgs, err := s.decoder.Feed(data)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	s.mu.Lock()
	for _, m := range msgs {
		cp := make([]byte, len(m))
		copy(cp, m)
		s.inbound = append(s.inbound, cp)
	}
	s.mu.Unlock()
	return nil
}

// ReleaseCurrentInbound recycles the in-progress inbound buffer once its
// bytes have been fed to the decoder and it is full or the socket read
// returned less than a full buffer's worth (the multiplexer calls this
// once per readiness iteration, not once per byte).
func (s *Session) ReleaseCurrentInbound() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.curIn == nil {
		return
	}
	buf := s.curIn
	s.curIn = nil
	s.putBufferLocked(buf)
}

// HasInboundMessage reports whether at least one complete message is
// queued (spec.md §4.C "in-ready").
func (s *Session) HasInboundMessage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inbound) > 0
}

// PopInboundMessage removes and returns the oldest queued message, in
// arrival order (spec.md §4.C "Ordering").
func (s *Session) PopInboundMessage() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.inbound) == 0 {
		return nil, false
	}
	msg := s.inbound[0]
	s.inbound = s.inbound[1:]
	return msg, true
}

// EnqueueOutbound frames payload per the session's current mode and
// appends the resulting buffer(s) to the outbound queue. It returns a
// resource-denied RPCError without enqueueing anything if the session's
// outbound buffer count is already at cap (spec.md §4.C "Backpressure":
// "parser completions that would enqueue further output block
// (cooperatively) by refusing to emit").
func (s *Session) EnqueueOutbound(payload []byte, maxScatterBuffers int) *rpcerror.RPCError {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == framing.Mode11 {
		return s.enqueueChunkedLocked(payload)
	}
	return s.enqueueEOMLocked(payload)
}

func (s *Session) enqueueEOMLocked(payload []byte) *rpcerror.RPCError {
	framed := framing.EncodeEOM(payload)
	bufs, rerr := s.splitIntoBuffersLocked(framed)
	if rerr != nil {
		return rerr
	}
	s.outbound = append(s.outbound, bufs...)
	return nil
}

// enqueueChunkedLocked frames payload as one or more 1.1 chunks, each
// carried by exactly one buffer, per spec.md §4.C step 3: "For 1.1, each
// buffer is sent as exactly one chunk and never split across writes."
func (s *Session) enqueueChunkedLocked(payload []byte) *rpcerror.RPCError {
	maxChunk := s.cfg.MaxChunkSize
	if maxChunk <= 0 {
		maxChunk = len(payload)
	}
	if maxChunk <= 0 {
		maxChunk = 1
	}

	var bufs []*bufpool.Buffer
	offset := 0
	for offset < len(payload) || (offset == 0 && len(payload) == 0) {
		end := offset + maxChunk
		if end > len(payload) {
			end = len(payload)
		}
		chunk := payload[offset:end]

		buf, rerr := s.getBufferLocked()
		if rerr != nil {
			for _, b := range bufs {
				s.putBufferLocked(b)
			}
			return rerr
		}
		if len(chunk) > len(buf.WriteSpace()) {
			// Oversized chunk relative to the pool's buffer size: grow a
			// one-off buffer rather than splitting the chunk (spec.md §4.C:
			// a chunk is never split across writes in 1.1 mode).
			s.putBufferLocked(buf)
			bufpool.Put(buf)
			buf = bufpool.Get()
		}
		copy(buf.WriteSpace(), chunk)
		buf.Advance(len(chunk))
		if err := framing.FinalizeChunk(buf); err != nil {
			s.putBufferLocked(buf)
			return rpcerror.New(rpcerror.TagOperationFailed, "", err.Error())
		}
		bufs = append(bufs, buf)
		offset = end
		if len(payload) == 0 {
			break
		}
	}

	term, rerr := s.getBufferLocked()
	if rerr != nil {
		for _, b := range bufs {
			s.putBufferLocked(b)
		}
		return rerr
	}
	copy(term.WriteSpace(), "\n##\n")
	term.Advance(4)
	bufs = append(bufs, term)

	s.outbound = append(s.outbound, bufs...)
	return nil
}

// splitIntoBuffersLocked copies framed into as many pool buffers as
// needed, for the 1.0 path where chunk-per-buffer framing doesn't apply.
func (s *Session) splitIntoBuffersLocked(framed []byte) ([]*bufpool.Buffer, *rpcerror.RPCError) {
	var bufs []*bufpool.Buffer
	offset := 0
	for offset < len(framed) || (offset == 0 && len(framed) == 0) {
		buf, rerr := s.getBufferLocked()
		if rerr != nil {
			for _, b := range bufs {
				s.putBufferLocked(b)
			}
			return nil, rerr
		}
		space := buf.WriteSpace()
		n := len(framed) - offset
		if n > len(space) {
			n = len(space)
		}
		copy(space, framed[offset:offset+n])
		buf.Advance(n)
		bufs = append(bufs, buf)
		offset += n
		if len(framed) == 0 {
			break
		}
	}
	return bufs, nil
}

// OutboundDepth returns the number of buffers currently queued for write,
// used by the multiplexer to decide whether this session is still
// "out-ready" and by pkg/adminhttp for the debug session table.
func (s *Session) OutboundDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outbound)
}

// NextOutbound returns the buffer the multiplexer should write next
// (outbound[0], resuming from outPos for a previously-partial write), or
// nil if nothing is queued.
func (s *Session) NextOutbound() (*bufpool.Buffer, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.outbound) == 0 {
		return nil, 0
	}
	return s.outbound[0], s.outPos
}

// AdvanceOutbound records that n more bytes of outbound[0] were written.
// Once the whole buffer has been written it is popped and recycled.
func (s *Session) AdvanceOutbound(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.outbound) == 0 {
		return
	}
	s.outPos += n
	buf := s.outbound[0]
	if s.outPos >= len(buf.Bytes()) {
		s.outbound = s.outbound[1:]
		s.outPos = 0
		s.putBufferLocked(buf)
	}
}

// ScatterBatch returns up to maxBufs queued outbound buffers' byte slices,
// for a writev-style scatter write (spec.md §4.C step 3), starting from
// outPos on the first buffer.
func (s *Session) ScatterBatch(maxBufs, maxBytes int) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out [][]byte
	total := 0
	for i := 0; i < len(s.outbound) && i < maxBufs; i++ {
		b := s.outbound[i].Bytes()
		if i == 0 {
			b = b[s.outPos:]
		}
		if total+len(b) > maxBytes && total > 0 {
			break
		}
		out = append(out, b)
		total += len(b)
	}
	return out
}

// RequestShutdown transitions the session to shutdown-requested: no new
// inbound messages are accepted, but queued outbound is still flushed
// (spec.md §4.C "Cancellation/timeout").
func (s *Session) RequestShutdown() {
	s.mu.Lock()
	if s.state != StateShutdown {
		s.state = StateShutdownRequested
	}
	s.mu.Unlock()
}

// ForceShutdown transitions directly to shutdown, used on a broken write
// (spec.md §4.C "A broken write transitions directly to shutdown").
func (s *Session) ForceShutdown() {
	s.SetState(StateShutdown)
}

// Drain discards any partially-assembled inbound message and releases
// every buffer the session holds, per spec.md §5 "Partial messages in
// flight are abandoned; their parser output (if any) is discarded without
// reply." Called once a session reaches StateShutdown.
func (s *Session) Drain() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decoder.Discard()
	s.inbound = nil
	if s.curIn != nil {
		bufpool.Put(s.curIn)
		s.curIn = nil
	}
	for _, b := range s.outbound {
		bufpool.Put(b)
	}
	s.outbound = nil
	s.outPos = 0
	for _, b := range s.freeList {
		bufpool.Put(b)
	}
	s.freeList = nil
	s.bufCount = 0
}

// Snapshot is a read-only projection of session state for admin/metrics
// reporting (pkg/adminhttp), matching the shape of
// the teacher's ServerStatus DTOs used by its CLI "status" command.
type Snapshot struct {
	ID           string
	User         string
	Address      string
	State        string
	Mode         string
	InboundDepth int
	OutboundDepth int
	Age          time.Duration
	Idle         time.Duration
}

// Snapshot takes a consistent read of the session's observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	return Snapshot{
		ID:            s.ID.String(),
		User:          s.Peer.User,
		Address:       s.Peer.Address,
		State:         s.state.String(),
		Mode:          s.mode.String(),
		InboundDepth:  len(s.inbound),
		OutboundDepth: len(s.outbound),
		Age:           now.Sub(s.createdAt),
		Idle:          now.Sub(s.lastActivity),
	}
}
