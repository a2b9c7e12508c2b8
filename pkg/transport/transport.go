// Package transport implements spec.md §6's "Local control socket": the
// Unix-domain listener the SSH subsystem's per-session transport adaptor
// dials, and the one-shot ncx-connect handshake that authenticates it.
// Everything past the handshake — framed NETCONF bytes — is handed to
// pkg/session/pkg/ioloop; the SSH subsystem itself (spawning the adaptor,
// proxying the real client bytes) is an external collaborator per spec.md
// §1's scope table.
package transport

import (
	"bufio"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ncxlabs/netconfd/internal/logger"
	"github.com/ncxlabs/netconfd/pkg/session"
)

// Registrar is the subset of pkg/ioloop.Loop the acceptance loop needs,
// kept narrow so transport doesn't import ioloop's scheduling internals.
type Registrar interface {
	Register(conn net.Conn, sess *session.Session) error
}

// connectSentinel is the 1.0 end-of-message framing the adaptor's single
// handshake line is terminated with (spec.md §6: "The message ends with
// the 1.0 framing sentinel").
const connectSentinel = "]]>]]>"

// handshakeTimeout bounds how long the listener waits for one adaptor's
// connect line before giving up and closing the connection.
const handshakeTimeout = 5 * time.Second

// ncxConnect is the XML shape of the adaptor's one-line handshake (spec.md
// §6): `<ncx-connect version="1" user=".." address=".." magic=".."
// transport="ssh" port=".."/>`.
type ncxConnect struct {
	XMLName   xml.Name `xml:"ncx-connect"`
	Version   string   `xml:"version,attr"`
	User      string   `xml:"user,attr"`
	Address   string   `xml:"address,attr"`
	Magic     string   `xml:"magic,attr"`
	Transport string   `xml:"transport,attr"`
	Port      string   `xml:"port,attr"`
}

// Listener accepts adaptor connections on a Unix-domain socket, validates
// each one's ncx-connect handshake, and hands authenticated connections to
// Accept's caller (the multiplexer's acceptance path).
type Listener struct {
	ln    net.Listener
	magic string
}

// Listen binds a Unix-domain stream socket at path, removing any stale
// socket file left behind by a previous unclean shutdown first (the
// original server does the same so restart after a crash doesn't fail
// bind with "address already in use").
func Listen(path, magic string) (*Listener, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("netconfd: remove stale socket %s: %w", path, err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("netconfd: listen on %s: %w", path, err)
	}
	return &Listener{ln: ln, magic: magic}, nil
}

// Close closes the underlying listener.
func (l *Listener) Close() error { return l.ln.Close() }

// Addr returns the socket path the listener is bound to.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Accept blocks for the next adaptor connection, performs its connect
// handshake, and returns the validated connection plus peer identity. A
// handshake failure (magic mismatch, malformed XML, timeout) closes the
// connection and returns an error without handing anything to the caller
// — per spec.md §6: "The server validates the magic; mismatch closes the
// connection with no reply."
func (l *Listener) Accept(ctx context.Context) (net.Conn, *session.Peer, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, nil, err
	}

	peer, err := l.handshake(conn)
	if err != nil {
		conn.Close()
		logger.WarnCtx(ctx, "transport: handshake rejected", "error", err, "remote", conn.RemoteAddr())
		return nil, nil, &handshakeError{err}
	}
	return conn, peer, nil
}

// handshakeError distinguishes a rejected handshake (connection already
// closed, caller should keep accepting) from a listener-level Accept
// failure (caller should stop serving).
type handshakeError struct{ err error }

func (e *handshakeError) Error() string { return e.err.Error() }
func (e *handshakeError) Unwrap() error { return e.err }

// handshake reads exactly one framed ncx-connect line and validates it.
func (l *Listener) handshake(conn net.Conn) (*session.Peer, error) {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	defer conn.SetReadDeadline(time.Time{})

	line, err := readUntilSentinel(conn)
	if err != nil {
		return nil, fmt.Errorf("netconfd: read connect handshake: %w", err)
	}

	var msg ncxConnect
	if err := xml.Unmarshal(line, &msg); err != nil {
		return nil, fmt.Errorf("netconfd: malformed connect handshake: %w", err)
	}
	if msg.Magic != l.magic {
		return nil, fmt.Errorf("netconfd: connect handshake magic mismatch")
	}

	port, _ := strconv.Atoi(msg.Port)
	return &session.Peer{
		User:      msg.User,
		Address:   msg.Address,
		Port:      port,
		Transport: msg.Transport,
	}, nil
}

// Serve runs the accept loop until ctx is canceled or the listener is
// closed: each authenticated connection becomes a new session.Session,
// registered with reg so pkg/ioloop starts driving its I/O immediately.
// pkg/server runs it in its own goroutine, separate from the ioloop
// goroutine itself (spec.md §4.C: "one goroutine owns every session's
// socket"). Connections are accepted and handshaken one at a time on
// that single goroutine; no goroutine is started per connection.
func (l *Listener) Serve(ctx context.Context, reg Registrar, sessCfg session.Config) error {
	for {
		conn, peer, err := l.Accept(ctx)
		if err != nil {
			var hsErr *handshakeError
			if errors.As(err, &hsErr) {
				// Already logged and closed in Accept; keep serving
				// subsequent adaptors.
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		sess := session.New(uuid.New(), *peer, sessCfg)
		if err := reg.Register(conn, sess); err != nil {
			logger.WarnCtx(ctx, "transport: session registration failed", "error", err, "session", sess.ID)
			conn.Close()
			continue
		}
		logger.InfoCtx(ctx, "transport: session accepted", "session", sess.ID, "user", peer.User, "address", peer.Address)
	}
}

// readUntilSentinel reads bytes from r up to and excluding the first
// occurrence of connectSentinel, matching the way the handshake is framed
// exactly like any other 1.0 NETCONF message (spec.md §6).
func readUntilSentinel(r net.Conn) ([]byte, error) {
	br := bufio.NewReader(r)
	var buf []byte
	sentinel := []byte(connectSentinel)
	for {
		b, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		buf = append(buf, b)
		if len(buf) >= len(sentinel) && string(buf[len(buf)-len(sentinel):]) == string(sentinel) {
			return buf[:len(buf)-len(sentinel)], nil
		}
		if len(buf) > 64<<10 {
			return nil, fmt.Errorf("connect handshake exceeded maximum size without a terminating sentinel")
		}
	}
}

// BuildConnectLine is the adaptor-side counterpart of handshake: it
// encodes an ncx-connect handshake line the way the SSH subsystem's
// adaptor process constructs it from SSH_CONNECTION and USER, per spec.md
// §6. netconfd's own server never calls this — it is provided so a test
// double, or a future standalone adaptor binary, can speak the same
// framing this package parses.
func BuildConnectLine(user, address string, port int, magic string) []byte {
	msg := fmt.Sprintf(
		`<?xml version="1.0" encoding="UTF-8"?>`+
			`<ncx-connect version="1" user=%q address=%q magic=%q transport="ssh" port="%d"/>`,
		user, address, magic, port,
	)
	return append([]byte(msg), connectSentinel...)
}
