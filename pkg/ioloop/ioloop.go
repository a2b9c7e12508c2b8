// Package ioloop implements the single-threaded cooperative I/O
// multiplexer described in spec.md §4.C: one goroutine owns every
// session's socket, driven by a level-triggered readiness primitive
// (epoll on Linux, select elsewhere), with no per-session goroutine or
// lock held across a blocking syscall.
package ioloop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/ncxlabs/netconfd/internal/logger"
	"github.com/ncxlabs/netconfd/pkg/rpcerror"
	"github.com/ncxlabs/netconfd/pkg/session"
)

// Config tunes the loop's scheduling and backpressure behavior (spec.md
// §4.C "Backpressure", "Fairness").
type Config struct {
	// TickInterval bounds how often the loop wakes even with nothing
	// ready, so idle/lifetime timeouts are checked promptly.
	TickInterval time.Duration
	// ReadChunkSize is how many bytes the loop attempts to read from a
	// readable socket per iteration, into the session's current inbound
	// buffer WriteSpace.
	ReadChunkSize int
	// MaxScatterBuffers bounds how many queued outbound buffers one
	// writev-style write call may combine (spec.md §4.C step 3).
	MaxScatterBuffers int
	// MaxScatterBytes bounds the total bytes one scatter write may cover.
	MaxScatterBytes int
}

// DefaultConfig returns the loop's built-in defaults. pkg/config applies
// its own IOLoop defaults (applyIOLoopDefaults), which use a 16KB read
// chunk and 16 scatter buffers instead of these values.
func DefaultConfig() Config {
	return Config{
		TickInterval:      time.Second,
		ReadChunkSize:     64 << 10,
		MaxScatterBuffers: 8,
		MaxScatterBytes:   256 << 10,
	}
}

// MessageHandler is invoked once per complete inbound NETCONF message,
// in arrival order, from the loop goroutine itself — spec.md §5: "The
// parser and value tree operate entirely within the single event-loop
// thread; no locking is required for the core pipeline." A handler that
// wants to enqueue a reply calls sess.EnqueueOutbound and returns; the
// loop picks up the new outbound data on its next readiness pass.
type MessageHandler func(sess *session.Session, msg []byte)

// CloseHandler is invoked once a session is fully torn down and removed
// from the loop, after its buffers have been drained.
type CloseHandler func(sess *session.Session)

type entry struct {
	conn      net.Conn
	fd        int
	sess      *session.Session
	wantWrite bool
}

// Loop is the multiplexer described in spec.md §4.C. The zero value is
// not usable; construct with New.
type Loop struct {
	cfg Config
	p   poller

	mu       sync.Mutex
	entries  map[int]*entry
	bySessID map[string]*entry

	OnMessage MessageHandler
	OnClose   CloseHandler

	closing chan struct{}
	closed  bool
}

// New constructs a Loop with its own poller instance (epoll on Linux).
func New(cfg Config) (*Loop, error) {
	p, err := newPoller()
	if err != nil {
		return nil, fmt.Errorf("ioloop: %w", err)
	}
	return &Loop{
		cfg:      cfg,
		p:        p,
		entries:  make(map[int]*entry),
		bySessID: make(map[string]*entry),
		closing:  make(chan struct{}),
	}, nil
}

// fdConn is satisfied by *net.TCPConn, *net.UnixConn, and any net.Conn
// that exposes its underlying descriptor — the same narrowing the
// teacher's pkg/wal does before handing a descriptor to a raw syscall.
type fdConn interface {
	SyscallConn() (syscall.RawConn, error)
}

func extractFD(conn net.Conn) (int, error) {
	sc, ok := conn.(fdConn)
	if !ok {
		return 0, fmt.Errorf("ioloop: connection type %T does not expose a raw descriptor", conn)
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return 0, fmt.Errorf("ioloop: SyscallConn: %w", err)
	}
	var fd int
	var ctrlErr error
	err = raw.Control(func(d uintptr) {
		fd = int(d)
	})
	if err != nil {
		return 0, err
	}
	return fd, ctrlErr
}

// Register binds conn to sess and starts driving it from the loop.
// conn must expose SyscallConn (*net.TCPConn/*net.UnixConn satisfy this);
// pkg/transport hands over the accepted connection immediately after its
// ncx-connect handshake completes (spec.md §6).
func (l *Loop) Register(conn net.Conn, sess *session.Session) error {
	fd, err := extractFD(conn)
	if err != nil {
		return err
	}
	if err := l.p.add(fd, false); err != nil {
		return err
	}

	e := &entry{conn: conn, fd: fd, sess: sess}
	l.mu.Lock()
	l.entries[fd] = e
	l.bySessID[sess.ID.String()] = e
	l.mu.Unlock()
	return nil
}

// Deregister removes a session from the loop without closing its
// connection (used by pkg/transport on a clean client-driven close).
func (l *Loop) Deregister(sess *session.Session) {
	l.mu.Lock()
	e, ok := l.bySessID[sess.ID.String()]
	if ok {
		delete(l.entries, e.fd)
		delete(l.bySessID, sess.ID.String())
	}
	l.mu.Unlock()
	if ok {
		l.p.remove(e.fd)
	}
}

// Sessions returns a snapshot of every session currently registered,
// consumed by pkg/adminhttp's debug endpoint.
func (l *Loop) Sessions() []*session.Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*session.Session, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.sess)
	}
	return out
}

// Run drives the multiplexer until ctx is canceled or Close is called.
// It is the sole owner of every registered session's socket: no other
// goroutine may read or write a registered conn directly (spec.md §5).
func (l *Loop) Run(ctx context.Context) error {
	defer l.p.close()

	tick := l.cfg.TickInterval
	if tick <= 0 {
		tick = time.Second
	}

	for {
		select {
		case <-ctx.Done():
			return l.shutdownAll()
		case <-l.closing:
			return l.shutdownAll()
		default:
		}

		events, err := l.p.wait(tick)
		if err != nil {
			return fmt.Errorf("ioloop: poller wait: %w", err)
		}

		for _, ev := range events {
			l.handleReadiness(ev)
		}

		l.sweepTimeouts()
		l.sweepShutdowns()
	}
}

// Close stops Run and tears down every registered session.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()
	close(l.closing)
}

func (l *Loop) handleReadiness(ev readiness) {
	l.mu.Lock()
	e, ok := l.entries[ev.fd]
	l.mu.Unlock()
	if !ok {
		return
	}

	if ev.readable {
		l.handleReadable(e)
	}
	// Re-check: a readable event can have pushed the session straight to
	// shutdown (malformed framing); don't then try to write to it.
	if ev.writable && e.sess.State() != session.StateShutdown {
		l.handleWritable(e)
	}

	l.syncWantWrite(e)
}

// handleReadable implements spec.md §4.C step 2: read available bytes
// into the session's current inbound buffer, feed them to the framing
// decoder, and dispatch every completed message to OnMessage in order.
func (l *Loop) handleReadable(e *entry) {
	sess := e.sess
	buf, rerr := sess.CurrentInbound()
	if rerr != nil {
		l.failSession(e, rerr)
		return
	}

	space := buf.WriteSpace()
	if len(space) == 0 {
		sess.ReleaseCurrentInbound()
		buf, rerr = sess.CurrentInbound()
		if rerr != nil {
			l.failSession(e, rerr)
			return
		}
		space = buf.WriteSpace()
	}
	if len(space) > l.cfg.ReadChunkSize && l.cfg.ReadChunkSize > 0 {
		space = space[:l.cfg.ReadChunkSize]
	}

	n, err := e.conn.Read(space)
	if n > 0 {
		buf.Advance(n)
		if ferr := sess.FeedInbound(space[:n]); ferr != nil {
			logger.Warn("ioloop: malformed framing, closing session", "session", sess.ID, "error", ferr)
			l.closeSession(e)
			return
		}
		sess.Touch()
		for sess.HasInboundMessage() {
			msg, ok := sess.PopInboundMessage()
			if !ok {
				break
			}
			if l.OnMessage != nil {
				l.OnMessage(sess, msg)
			}
		}
	}
	if err != nil {
		if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
			sess.RequestShutdown()
		} else {
			logger.Warn("ioloop: read error, closing session", "session", sess.ID, "error", err)
		}
		l.closeSession(e)
		return
	}
}

// handleWritable implements spec.md §4.C step 3: scatter-write as many
// queued outbound buffers as the configured caps allow, advancing (and
// recycling) whatever was fully written.
func (l *Loop) handleWritable(e *entry) {
	sess := e.sess
	batch := sess.ScatterBatch(l.cfg.MaxScatterBuffers, l.cfg.MaxScatterBytes)
	if len(batch) == 0 {
		return
	}

	n, err := writeBuffers(e.conn, batch)
	if n > 0 {
		sess.AdvanceOutbound(n)
	}
	if err != nil {
		logger.Warn("ioloop: write error, forcing shutdown", "session", sess.ID, "error", err)
		sess.ForceShutdown()
		l.closeSession(e)
	}
}

// writeBuffers writes as many whole buffers as fit in one Write call.
// net.Conn has no portable writev; this composes one contiguous slice
// when the batch is small, which is the common case given
// MaxScatterBuffers is typically single digits.
func writeBuffers(conn net.Conn, batch [][]byte) (int, error) {
	total := 0
	for _, b := range batch {
		total += len(b)
	}
	if len(batch) == 1 {
		n, err := conn.Write(batch[0])
		return n, err
	}
	combined := make([]byte, 0, total)
	for _, b := range batch {
		combined = append(combined, b...)
	}
	n, err := conn.Write(combined)
	return n, err
}

// syncWantWrite updates the poller registration's write interest to
// match whether the session currently has anything queued to send, so
// the loop doesn't spin on a writable event for an idle socket (spec.md
// §4.C "Fairness": "a session with no outbound data pending is not
// woken for writability").
func (l *Loop) syncWantWrite(e *entry) {
	want := e.sess.OutboundDepth() > 0
	if want == e.wantWrite {
		return
	}
	if err := l.p.modify(e.fd, want); err != nil {
		logger.Warn("ioloop: poller modify failed", "session", e.sess.ID, "error", err)
		return
	}
	e.wantWrite = want
}

func (l *Loop) failSession(e *entry, rerr *rpcerror.RPCError) {
	logger.Warn("ioloop: session resource error, closing", "session", e.sess.ID, "tag", rerr.Tag)
	l.closeSession(e)
}

// closeSession tears a session down: removes it from the poller and the
// registry, drains its buffers, and invokes OnClose.
func (l *Loop) closeSession(e *entry) {
	l.mu.Lock()
	_, ok := l.entries[e.fd]
	if ok {
		delete(l.entries, e.fd)
		delete(l.bySessID, e.sess.ID.String())
	}
	l.mu.Unlock()
	if !ok {
		return
	}

	l.p.remove(e.fd)
	e.sess.SetState(session.StateShutdown)
	e.sess.Drain()
	_ = e.conn.Close()
	if l.OnClose != nil {
		l.OnClose(e.sess)
	}
}

// sweepTimeouts closes any session past its idle timeout or absolute
// lifetime (spec.md §4.C "Cancellation/timeout").
func (l *Loop) sweepTimeouts() {
	now := time.Now()
	for _, e := range l.snapshotEntries() {
		if e.sess.Expired(now) {
			e.sess.RequestShutdown()
		}
	}
}

// sweepShutdowns closes any session whose outbound queue has fully
// drained after a shutdown was requested (spec.md §4.C: "a shutdown-
// requested session... is closed once its outbound queue drains").
func (l *Loop) sweepShutdowns() {
	for _, e := range l.snapshotEntries() {
		if e.sess.State() == session.StateShutdownRequested && e.sess.OutboundDepth() == 0 {
			l.closeSession(e)
		}
	}
}

func (l *Loop) snapshotEntries() []*entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	return out
}

func (l *Loop) shutdownAll() error {
	for _, e := range l.snapshotEntries() {
		e.sess.RequestShutdown()
		l.closeSession(e)
	}
	return nil
}
