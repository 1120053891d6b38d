package netsvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQTScannerSinglePass(t *testing.T) {
	buf := EncodeQueryFrame(1, "select * from users", []byte{1, 2, 3})
	s := NewQTScanner()
	q, done, err := s.Feed(buf)
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, byte(1), q.Kind)
	assert.Equal(t, "select * from users", q.Text)
	assert.Equal(t, []byte{1, 2, 3}, q.Params)
}

func TestQTScannerResumableAtEveryPrefixSplit(t *testing.T) {
	buf := EncodeQueryFrame(2, "insert into t (a) values (1)", []byte{9, 9})

	for split := 1; split < len(buf); split++ {
		s := NewQTScanner()
		_, done, err := s.Feed(buf[:split])
		require.NoError(t, err)
		if done {
			continue
		}
		q, done2, err := s.Feed(buf[split:])
		require.NoError(t, err)
		require.True(t, done2)
		assert.Equal(t, "insert into t (a) values (1)", q.Text)
	}
}

func TestQTScannerRejectsBadSignature(t *testing.T) {
	s := NewQTScanner()
	_, done, err := s.Feed([]byte("XXXX"))
	assert.True(t, done)
	assert.Error(t, err)
}

// TestQTScannerSpecScenarioSixFrameSize pins down the frame size for §8
// scenario 6's exact query ("select * from myspace.mymodel where
// username = ?" + param "sayan") at 64 bytes: the 4-byte "NSQ1" signature
// §4.7 mandates plus the 60 bytes the original wire format (a single
// 1-byte marker, no separate signature) would produce. See DESIGN.md's
// "QT-DEX frame size vs. §4.7's 4-byte signature" entry for why the
// signature wins over matching the scenario's literal 60-byte count.
func TestQTScannerSpecScenarioSixFrameSize(t *testing.T) {
	const query = "select * from myspace.mymodel where username = ?"
	buf := EncodeQueryFrame(1, query, []byte("sayan"))
	require.Len(t, buf, 64)

	s := NewQTScanner()
	q, done, err := s.Feed(buf)
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, query, q.Text)
	assert.Equal(t, "sayan", string(q.Params))
}

func TestQTScannerNoParams(t *testing.T) {
	buf := EncodeQueryFrame(0, "use space1", nil)
	s := NewQTScanner()
	q, done, err := s.Feed(buf)
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, "use space1", q.Text)
	assert.Empty(t, q.Params)
}
