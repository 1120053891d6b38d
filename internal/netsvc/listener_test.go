package netsvc

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsdb/nsdb/internal/auth"
	"github.com/nsdb/nsdb/internal/config"
)

func TestListenerAcceptsAndServesConnections(t *testing.T) {
	sysAuth, err := auth.NewSysAuth("hunter2")
	require.NoError(t, err)
	sysAuth.SetEnabled(false)

	runner := &echoRunner{}
	l, err := Listen(config.Endpoint{Host: "127.0.0.1", Port: 0}, nil, 2, sysAuth, func() QueryRunner { return runner }, nil)
	require.NoError(t, err)

	addr := l.ln.Addr().String()
	serveErr := make(chan error, 1)
	go func() { serveErr <- l.Serve() }()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)

	hs := Handshake{HandshakeVersion: 1, ProtocolVersion: 1, AuthMode: 0, Username: "root", Password: ""}
	_, err = conn.Write(encodeHandshakeForTest(hs))
	require.NoError(t, err)
	_, err = conn.Write(EncodeQueryFrame(0, "ping", nil))
	require.NoError(t, err)

	buf := make([]byte, 64)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ok:ping", string(buf[:n]))

	conn.Close()
	require.NoError(t, l.Shutdown())
	err = <-serveErr
	assert.NoError(t, err)
}

func TestListenerRejectsBeyondCapacity(t *testing.T) {
	sysAuth, err := auth.NewSysAuth("hunter2")
	require.NoError(t, err)
	sysAuth.SetEnabled(false)

	runner := &blockingRunner{release: make(chan struct{})}
	l, err := Listen(config.Endpoint{Host: "127.0.0.1", Port: 0}, nil, 1, sysAuth, func() QueryRunner { return runner }, nil)
	require.NoError(t, err)

	addr := l.ln.Addr().String()
	go l.Serve()

	hs := Handshake{HandshakeVersion: 1, ProtocolVersion: 1, AuthMode: 0, Username: "root"}

	first, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	_, err = first.Write(encodeHandshakeForTest(hs))
	require.NoError(t, err)
	_, err = first.Write(EncodeQueryFrame(0, "slow", nil))
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	second, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	second.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	buf := make([]byte, 16)
	_, err = second.Read(buf)
	assert.Error(t, err, "second connection should be dropped while at capacity")

	close(runner.release)
	first.Close()
	second.Close()
	require.NoError(t, l.Shutdown())
}

type blockingRunner struct {
	release chan struct{}
}

func (r *blockingRunner) Run(w io.Writer, q Query) error {
	<-r.release
	_, err := w.Write([]byte("done"))
	return err
}
