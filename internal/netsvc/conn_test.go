package netsvc

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsdb/nsdb/internal/auth"
)

type echoRunner struct{ calls int }

func (r *echoRunner) Run(w io.Writer, q Query) error {
	r.calls++
	_, err := w.Write([]byte("ok:" + q.Text))
	return err
}

func TestConnServeHandshakeAuthAndOneQuery(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	sysAuth, err := auth.NewSysAuth("hunter2")
	require.NoError(t, err)

	runner := &echoRunner{}
	terminate := make(chan struct{})
	c := NewConn(server, sysAuth, runner, nil, terminate)
	done := make(chan struct{})
	go func() {
		c.Serve()
		close(done)
	}()

	hs := Handshake{HandshakeVersion: 1, ProtocolVersion: 1, DataExchangeMode: 0, QueryMode: 0, AuthMode: 1, Username: "root", Password: "hunter2"}
	_, err = client.Write(encodeHandshakeForTest(hs))
	require.NoError(t, err)

	_, err = client.Write(EncodeQueryFrame(0, "select 1", nil))
	require.NoError(t, err)

	buf := make([]byte, 64)
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ok:select 1", string(buf[:n]))

	client.Close()
	<-done
	assert.Equal(t, 1, runner.calls)
}

func TestConnServeRejectsBadAuth(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	sysAuth, err := auth.NewSysAuth("correct")
	require.NoError(t, err)

	runner := &echoRunner{}
	terminate := make(chan struct{})
	c := NewConn(server, sysAuth, runner, nil, terminate)
	done := make(chan struct{})
	go func() {
		c.Serve()
		close(done)
	}()

	hs := Handshake{HandshakeVersion: 1, ProtocolVersion: 1, AuthMode: 1, Username: "root", Password: "wrong"}
	_, err = client.Write(encodeHandshakeForTest(hs))
	require.NoError(t, err)

	<-done
	assert.Equal(t, 0, runner.calls)
}

func encodeHandshakeForTest(hs Handshake) []byte {
	var buf []byte
	buf = append(buf, 'H')
	buf = append(buf, hs.HandshakeVersion, hs.ProtocolVersion, hs.DataExchangeMode, hs.QueryMode, hs.AuthMode)
	buf = append(buf, []byte(itoa(len(hs.Username))+"\n")...)
	buf = append(buf, []byte(itoa(len(hs.Password))+"\n")...)
	buf = append(buf, []byte(hs.Username)...)
	buf = append(buf, []byte(hs.Password)...)
	return buf
}
