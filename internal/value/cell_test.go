package value

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, d Datacell) Datacell {
	t.Helper()
	raw := EncodeBytes(d)
	got, err := Decode(bufio.NewReader(bytes.NewReader(raw)))
	require.NoError(t, err)
	return got
}

func TestDatacellRoundTrip(t *testing.T) {
	cells := []Datacell{
		NewBool(true),
		NewBool(false),
		NewUInt8(7),
		NewUInt64(1 << 40),
		NewSInt32(-42),
		NewSInt64(-1),
		NewFloat32(3.5),
		NewFloat64(2.71828),
		NewBin([]byte{0, 1, 2, 0xff}),
		NewStr("alice"),
		NewStr(""),
		NewList([]Datacell{NewUInt8(1), NewStr("x"), NewList([]Datacell{NewBool(true)})}),
	}
	for _, d := range cells {
		got := roundTrip(t, d)
		assert.True(t, d.Equal(got), "round trip mismatch for %v", d.Tag())
		assert.Equal(t, d.Tag(), got.Tag())
	}
}

func TestDatacellRoundTripNull(t *testing.T) {
	got := roundTrip(t, Null(TagOf(SelectorStr)))
	assert.False(t, got.IsInit())
}

func TestDatacellAccessorPanicsOnClassMismatch(t *testing.T) {
	d := NewUInt8(1)
	assert.Panics(t, func() { d.Str() })
}

func TestSelectorUniqueness(t *testing.T) {
	assert.False(t, SelectorFloat64.Unique())
	assert.False(t, SelectorList.Unique())
	assert.True(t, SelectorStr.Unique())
	assert.True(t, SelectorUInt64.Unique())
}
