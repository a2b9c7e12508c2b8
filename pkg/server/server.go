// Package server wires together the packages spec.md names into a
// runnable daemon: pkg/transport's local control socket, pkg/ioloop's
// multiplexer, and the ambient pkg/adminhttp surface. It plays the role
// the teacher's runtime.Runtime/dittoServer.Server plays for dittofs —
// the top-level object cmd/netconfd's start command constructs, starts,
// and shuts down — generalized to netconfd's transport/session/loop
// trio instead of dittofs's store/share/adapter trio.
package server

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/ncxlabs/netconfd/internal/logger"
	"github.com/ncxlabs/netconfd/pkg/adminhttp"
	"github.com/ncxlabs/netconfd/pkg/config"
	"github.com/ncxlabs/netconfd/pkg/ioloop"
	"github.com/ncxlabs/netconfd/pkg/metrics"
	"github.com/ncxlabs/netconfd/pkg/rpcerror"
	"github.com/ncxlabs/netconfd/pkg/session"
	"github.com/ncxlabs/netconfd/pkg/transport"
)

// base10Capability and base11Capability are the capabilities netconfd
// advertises in its own hello, gating 1.1 chunked framing once the peer
// advertises base:1.1 too (spec.md §4.B, §6).
const (
	base10Capability = "urn:ietf:params:netconf:base:1.0"
	base11Capability = "urn:ietf:params:netconf:base:1.1"
)

// Server owns the local control socket listener, the I/O multiplexer,
// and the admin HTTP surface for their combined lifetime.
type Server struct {
	cfg      *config.Config
	listener *transport.Listener
	loop     *ioloop.Loop
	admin    *adminhttp.Server
}

// New constructs a Server bound to cfg, without yet listening.
func New(cfg *config.Config) (*Server, error) {
	listener, err := transport.Listen(cfg.Transport.SocketPath, cfg.Transport.Magic)
	if err != nil {
		return nil, fmt.Errorf("netconfd: bind control socket: %w", err)
	}

	loop, err := ioloop.New(ioloop.Config{
		TickInterval:      cfg.IOLoop.TickInterval,
		ReadChunkSize:     cfg.IOLoop.ReadChunkSize,
		MaxScatterBuffers: cfg.IOLoop.MaxScatterBuffers,
		MaxScatterBytes:   cfg.IOLoop.MaxScatterBytes,
	})
	if err != nil {
		listener.Close()
		return nil, fmt.Errorf("netconfd: create multiplexer: %w", err)
	}

	s := &Server{cfg: cfg, listener: listener, loop: loop}
	loop.OnMessage = s.handleMessage
	loop.OnClose = s.handleClose

	if cfg.Admin.Enabled {
		s.admin = adminhttp.New(cfg.Admin.Addr, loop)
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	return s, nil
}

// sessionConfig projects cfg.Session/cfg.Framing into session.Config.
func (s *Server) sessionConfig() session.Config {
	return session.Config{
		FreeListCap:  s.cfg.Session.FreeListCap,
		MaxBuffers:   s.cfg.Session.MaxBuffers,
		MaxChunkSize: s.cfg.Framing.MaxChunkSize,
		CacheTimeout: s.cfg.Session.CacheTimeout,
		IdleTimeout:  s.cfg.Session.IdleTimeout,
		Lifetime:     s.cfg.Session.Lifetime,
	}
}

// Serve runs the control socket accept loop, the multiplexer, and (if
// enabled) the admin HTTP server until ctx is canceled, then drains and
// closes everything in reverse order.
func (s *Server) Serve(ctx context.Context) error {
	acceptDone := make(chan error, 1)
	go func() {
		acceptDone <- s.listener.Serve(ctx, s.loop, s.sessionConfig())
	}()

	var adminDone chan error
	if s.admin != nil {
		adminDone = make(chan error, 1)
		go func() {
			if err := s.admin.ListenAndServe(); err != nil {
				adminDone <- err
				return
			}
			adminDone <- nil
		}()
		logger.Info("admin http listening", "addr", s.cfg.Admin.Addr)
	}

	logger.Info("control socket listening", "path", s.cfg.Transport.SocketPath)

	loopErr := s.loop.Run(ctx)

	s.listener.Close()
	if err := <-acceptDone; err != nil {
		logger.Warn("accept loop exited with error", "error", err)
	}

	if s.admin != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.admin.Shutdown(shutdownCtx); err != nil {
			logger.Warn("admin http shutdown error", "error", err)
		}
		<-adminDone
	}

	return loopErr
}

// Close forces an immediate shutdown of the multiplexer. cmd/netconfd does
// not call it; its start command cancels the context passed to Serve.
func (s *Server) Close() {
	s.loop.Close()
}

func (s *Server) handleClose(sess *session.Session) {
	metrics.RecordSessionClosed("closed")
	metrics.SetActiveSessions(len(s.loop.Sessions()))
	logger.Info("session closed", "session", sess.ID, "user", sess.Peer.User)
}

// helloEnvelope is the framework-level <hello> element (RFC 6241 §8.1):
// a flat capability-URI list, not a YANG-modeled data node, so it is
// parsed directly rather than through pkg/parser's schema-directed
// pipeline (spec.md §6: "capability exchange precedes any modeled
// content").
type helloEnvelope struct {
	XMLName      xml.Name `xml:"hello"`
	Capabilities struct {
		Capability []string `xml:"capability"`
	} `xml:"capabilities"`
}

// handleMessage is the multiplexer's MessageHandler: it completes the
// hello capability exchange for a session's first message, and for
// every message after that responds with an rpc-error, since datastore
// semantics are an explicit non-goal of this core (spec.md §1, SPEC_FULL
// §1: "Datastore semantics... remain external collaborators/non-goals").
func (s *Server) handleMessage(sess *session.Session, msg []byte) {
	metrics.SetActiveSessions(len(s.loop.Sessions()))

	if sess.State() == session.StateInit || sess.State() == session.StateHelloWait {
		s.handleHello(sess, msg)
		return
	}

	s.replyUnsupported(sess)
}

func (s *Server) handleHello(sess *session.Session, msg []byte) {
	var hello helloEnvelope
	if err := xml.Unmarshal(msg, &hello); err != nil {
		metrics.RecordError(string(rpcerror.TagMalformedMessage))
		logger.Warn("malformed hello", "session", sess.ID, "error", err)
		sess.ForceShutdown()
		return
	}

	for _, uri := range hello.Capabilities.Capability {
		sess.AdvertiseCapability(strings.TrimSpace(uri), false)
	}
	sess.AdvertiseCapability(base10Capability, true)
	sess.AdvertiseCapability(base11Capability, true)
	sess.SetState(session.StateIdle)

	reply := fmt.Sprintf(
		`<?xml version="1.0" encoding="UTF-8"?>`+
			`<hello xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">`+
			`<capabilities><capability>%s</capability><capability>%s</capability></capabilities>`+
			`<session-id>%d</session-id></hello>`,
		base10Capability, base11Capability, sessionIDHash(sess),
	)
	if rerr := sess.EnqueueOutbound([]byte(reply), s.cfg.IOLoop.MaxScatterBuffers); rerr != nil {
		logger.Warn("failed to enqueue hello reply", "session", sess.ID, "error", rerr)
	}
	// The hello reply itself goes out with 1.0 framing; chunked framing
	// applies only to the messages that follow the exchange.
	sess.NegotiateFraming()
	logger.Info("hello exchange complete", "session", sess.ID, "framing", sess.Mode())
}

func (s *Server) replyUnsupported(sess *session.Session) {
	rerr := rpcerror.New(rpcerror.TagOperationFailed, "",
		"datastore operations are not implemented by this core").
		WithType(rpcerror.TypeApp)
	metrics.RecordError(string(rerr.Tag))

	reply := fmt.Sprintf(
		`<?xml version="1.0" encoding="UTF-8"?>`+
			`<rpc-reply xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">`+
			`<rpc-error><error-type>%s</error-type><error-tag>%s</error-tag>`+
			`<error-severity>error</error-severity><error-message>%s</error-message>`+
			`</rpc-error></rpc-reply>`,
		rerr.Type, rerr.Tag, rerr.Message,
	)
	if rerr := sess.EnqueueOutbound([]byte(reply), s.cfg.IOLoop.MaxScatterBuffers); rerr != nil {
		logger.Warn("failed to enqueue error reply", "session", sess.ID, "error", rerr)
	}
}

// sessionIDHash derives NETCONF's small positive session-id from the
// session's UUID; the id only needs to be unique among concurrently
// open sessions, not globally.
func sessionIDHash(sess *session.Session) uint32 {
	var h uint32 = 2166136261
	for _, b := range []byte(sess.ID.String()) {
		h ^= uint32(b)
		h *= 16777619
	}
	if h == 0 {
		return 1
	}
	return h & 0x7fffffff
}
