package ioloop

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncxlabs/netconfd/pkg/session"
)

// socketpair returns two connected *net.TCPConn-like endpoints backed by
// real file descriptors, since the loop registers sessions via
// SyscallConn; a net.Pipe() in-memory conn does not expose one.
func socketpair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	acceptedCh := make(chan net.Conn, 1)
	errCh := make(chan error, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			errCh <- err
			return
		}
		acceptedCh <- c
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)

	select {
	case server := <-acceptedCh:
		return client, server
	case err := <-errCh:
		t.Fatalf("accept failed: %v", err)
		return nil, nil
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for accept")
		return nil, nil
	}
}

func TestLoopDeliversInboundMessage(t *testing.T) {
	t.Parallel()

	loop, err := New(DefaultConfig())
	require.NoError(t, err)

	client, server := socketpair(t)
	defer client.Close()

	sess := session.New(uuid.New(), session.Peer{User: "alice"}, session.DefaultConfig())

	received := make(chan string, 1)
	loop.OnMessage = func(s *session.Session, msg []byte) {
		received <- string(msg)
	}

	require.NoError(t, loop.Register(server, sess))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	_, err = client.Write([]byte("<hello/>]]>]]>"))
	require.NoError(t, err)

	select {
	case msg := <-received:
		assert.Equal(t, "<hello/>", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}

	loop.Close()
}

func TestLoopFlushesOutboundReply(t *testing.T) {
	t.Parallel()

	loop, err := New(DefaultConfig())
	require.NoError(t, err)

	client, server := socketpair(t)
	defer client.Close()

	sess := session.New(uuid.New(), session.Peer{User: "bob"}, session.DefaultConfig())
	loop.OnMessage = func(s *session.Session, msg []byte) {
		_ = s.EnqueueOutbound([]byte("<ok/>"), 8)
	}
	require.NoError(t, loop.Register(server, sess))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	_, err = client.Write([]byte("<req/>]]>]]>"))
	require.NoError(t, err)

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64)
	n, err := client.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), "<ok/>")

	loop.Close()
}

func TestDeregisterStopsDelivering(t *testing.T) {
	t.Parallel()

	loop, err := New(DefaultConfig())
	require.NoError(t, err)

	client, server := socketpair(t)
	defer client.Close()
	defer server.Close()

	sess := session.New(uuid.New(), session.Peer{}, session.DefaultConfig())
	require.NoError(t, loop.Register(server, sess))
	loop.Deregister(sess)

	assert.Empty(t, loop.Sessions())
}
