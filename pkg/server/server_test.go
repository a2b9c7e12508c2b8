package server

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncxlabs/netconfd/pkg/config"
	"github.com/ncxlabs/netconfd/pkg/ioloop"
	"github.com/ncxlabs/netconfd/pkg/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	loop, err := ioloop.New(ioloop.DefaultConfig())
	require.NoError(t, err)
	return &Server{cfg: config.Default(), loop: loop}
}

func newTestSession() *session.Session {
	return session.New(uuid.New(), session.Peer{User: "alice"}, session.DefaultConfig())
}

func TestHandleHello_NegotiatesFramingAndRepliesHello(t *testing.T) {
	s := newTestServer(t)
	sess := newTestSession()

	hello := []byte(`<?xml version="1.0"?><hello xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">` +
		`<capabilities><capability>urn:ietf:params:netconf:base:1.0</capability>` +
		`<capability>urn:ietf:params:netconf:base:1.1</capability></capabilities></hello>`)

	s.handleHello(sess, hello)

	assert.Equal(t, session.StateIdle, sess.State())
	assert.Equal(t, 1, sess.OutboundDepth())
	assert.Equal(t, framingMode11(sess), true)
}

func TestHandleHello_MalformedForceShutsDown(t *testing.T) {
	s := newTestServer(t)
	sess := newTestSession()

	s.handleHello(sess, []byte("not xml"))

	assert.Equal(t, session.StateShutdown, sess.State())
}

func TestReplyUnsupported_EnqueuesRPCError(t *testing.T) {
	s := newTestServer(t)
	sess := newTestSession()

	s.replyUnsupported(sess)

	assert.Equal(t, 1, sess.OutboundDepth())
}

func framingMode11(sess *session.Session) bool {
	return sess.Mode().String() == "1.1"
}
