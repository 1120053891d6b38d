package netsvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeHandshake builds the wire layout the scanner expects: the "H"
// marker, the 5 static fields, both length lines back to back, then both
// values concatenated (spec §4.7/§8 scenario 5).
func encodeHandshake(t *testing.T, hs Handshake) []byte {
	t.Helper()
	var buf []byte
	buf = append(buf, 'H')
	buf = append(buf, hs.HandshakeVersion, hs.ProtocolVersion, hs.DataExchangeMode, hs.QueryMode, hs.AuthMode)
	buf = append(buf, []byte(itoa(len(hs.Username))+"\n")...)
	buf = append(buf, []byte(itoa(len(hs.Password))+"\n")...)
	buf = append(buf, []byte(hs.Username)...)
	buf = append(buf, []byte(hs.Password)...)
	return buf
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func TestHandshakeScannerSinglePass(t *testing.T) {
	want := Handshake{HandshakeVersion: 1, ProtocolVersion: 1, DataExchangeMode: 0, QueryMode: 1, AuthMode: 1, Username: "root", Password: "hunter2"}
	buf := encodeHandshake(t, want)

	s := NewHandshakeScanner()
	got, done, err := s.Feed(buf)
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, want, got)
}

func TestHandshakeScannerResumableByteAtATime(t *testing.T) {
	want := Handshake{HandshakeVersion: 2, ProtocolVersion: 1, DataExchangeMode: 1, QueryMode: 0, AuthMode: 1, Username: "alice", Password: "pw"}
	buf := encodeHandshake(t, want)

	s := NewHandshakeScanner()
	var got Handshake
	var done bool
	var err error
	for i := 0; i < len(buf); i++ {
		got, done, err = s.Feed(buf[i : i+1])
		require.NoError(t, err)
		if done {
			assert.Equal(t, i, len(buf)-1, "should complete exactly on the last byte")
			break
		}
	}
	require.True(t, done)
	assert.Equal(t, want, got)
}

func TestHandshakeScannerResumableAtEveryPrefixSplit(t *testing.T) {
	want := Handshake{HandshakeVersion: 1, ProtocolVersion: 1, DataExchangeMode: 1, QueryMode: 1, AuthMode: 0, Username: "u", Password: "p"}
	buf := encodeHandshake(t, want)

	for split := 1; split < len(buf); split++ {
		s := NewHandshakeScanner()
		_, done, err := s.Feed(buf[:split])
		require.NoError(t, err)
		if done {
			continue // a split landing exactly on a boundary may complete early; that's fine
		}
		got, done2, err := s.Feed(buf[split:])
		require.NoError(t, err)
		require.True(t, done2)
		assert.Equal(t, want, got)
	}
}

func TestHandshakeScannerEmptyUsernameAndPassword(t *testing.T) {
	want := Handshake{HandshakeVersion: 1, ProtocolVersion: 1, DataExchangeMode: 1, QueryMode: 1, AuthMode: 1}
	buf := encodeHandshake(t, want)

	s := NewHandshakeScanner()
	got, done, err := s.Feed(buf)
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, "", got.Username)
	assert.Equal(t, "", got.Password)
}

func TestHandshakeScannerRejectsMalformedLength(t *testing.T) {
	s := NewHandshakeScanner()
	buf := append([]byte{'H', 1, 1, 1, 1, 1}, []byte("notanumber\n")...)
	_, done, err := s.Feed(buf)
	assert.True(t, done)
	assert.Error(t, err)
}

// TestHandshakeScannerParsesSpecLiteralStream feeds the exact byte stream
// spec §8 scenario 5 describes — "H\0\0\0\0\x015\n8\nsayanpass1234" — and
// checks it parses to (sayan, pass1234) instead of erroring on the length
// line, guarding against treating "H" as a struct field rather than a
// leading marker consumed as part of the 6-byte static block.
func TestHandshakeScannerParsesSpecLiteralStream(t *testing.T) {
	buf := []byte("H\x00\x00\x00\x00\x015\n8\nsayanpass1234")

	s := NewHandshakeScanner()
	got, done, err := s.Feed(buf)
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, "sayan", got.Username)
	assert.Equal(t, "pass1234", got.Password)
	assert.Equal(t, byte(1), got.AuthMode)
}
