package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimaryIndexKeyEqualsLiteral(t *testing.T) {
	lit := NewStr("alice")
	key, err := NewPrimaryIndexKey(lit)
	require.NoError(t, err)

	other := NewStr("alice")
	otherKey, err := NewPrimaryIndexKey(other)
	require.NoError(t, err)

	assert.True(t, key.Equal(otherKey))
	assert.True(t, key.EqualDatacell(other))
	assert.Equal(t, key.Hash(), otherKey.Hash())

	diff, err := NewPrimaryIndexKey(NewStr("bob"))
	require.NoError(t, err)
	assert.False(t, key.Equal(diff))
}

func TestPrimaryIndexKeyRejectsNonUnique(t *testing.T) {
	_, err := NewPrimaryIndexKey(NewFloat64(1.5))
	assert.ErrorIs(t, err, ErrNotUnique)

	_, err = NewPrimaryIndexKey(NewList(nil))
	assert.ErrorIs(t, err, ErrNotUnique)
}

func TestPrimaryIndexKeyRejectsNull(t *testing.T) {
	_, err := NewPrimaryIndexKey(Null(TagOf(SelectorStr)))
	assert.Error(t, err)
}

func TestPrimaryIndexKeyScalarIdentity(t *testing.T) {
	// UInt8 and UInt64 encoding the same integer share only the class byte
	// but must compare and hash identically, per design notes §9.
	a, err := NewPrimaryIndexKey(NewUInt8(5))
	require.NoError(t, err)
	b, err := NewPrimaryIndexKey(NewUInt64(5))
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
}
