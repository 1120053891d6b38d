package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsdb/nsdb/internal/value"
)

func newTestModel() (*Model, value.PrimaryIndexKey) {
	fields := NewFieldMap()
	fields.Set("name", NewScalarField(value.TagOf(value.SelectorStr), false))
	m := New("t", "id", value.TagOf(value.SelectorUInt64), fields)

	pk, _ := value.NewPrimaryIndexKey(value.NewUInt64(1))
	return m, pk
}

func TestModelReadRowNoDeltasIsStable(t *testing.T) {
	m, pk := newTestModel()
	row := NewRow(pk, map[string]value.Datacell{"name": value.NewStr("alice")}, m.SchemaVersion())
	m.Index.Insert(pk, row)

	fields, txn := m.ReadRow(row)
	assert.Equal(t, "alice", fields["name"].Str())
	assert.Equal(t, uint64(0), txn)
}

func TestModelReadRowProjectsAddDelta(t *testing.T) {
	m, pk := newTestModel()
	row := NewRow(pk, map[string]value.Datacell{"name": value.NewStr("alice")}, m.SchemaVersion())
	m.Index.Insert(pk, row)

	plan, err := PlanAdd(m.fields, "id", map[string]Field{"age": NewScalarField(value.TagOf(value.SelectorUInt8), true)})
	require.NoError(t, err)
	require.NoError(t, m.Apply(plan))

	fields, _ := m.ReadRow(row)
	_, ok := fields["age"]
	require.True(t, ok)
	assert.False(t, fields["age"].IsInit())
	assert.Equal(t, uint64(1), row.Data.SchemaVersion)
}

func TestModelReadRowProjectsRemoveDelta(t *testing.T) {
	m, pk := newTestModel()
	row := NewRow(pk, map[string]value.Datacell{"name": value.NewStr("alice")}, m.SchemaVersion())
	m.Index.Insert(pk, row)

	plan, err := PlanRemove(m.fields, "id", []string{"name"})
	require.NoError(t, err)
	require.NoError(t, m.Apply(plan))

	fields, _ := m.ReadRow(row)
	_, ok := fields["name"]
	assert.False(t, ok)
}

func TestModelReadRowProjectsUpdateDeltaWidening(t *testing.T) {
	_, pk := newTestModel()
	fields := NewFieldMap()
	fields.Set("score", NewScalarField(value.TagOf(value.SelectorUInt8), false))
	m2 := New("t2", "id", value.TagOf(value.SelectorUInt64), fields)

	row := NewRow(pk, map[string]value.Datacell{"score": value.NewUInt8(7)}, m2.SchemaVersion())
	m2.Index.Insert(pk, row)

	plan, err := PlanUpdate(m2.fields, "id", map[string]Field{"score": NewScalarField(value.TagOf(value.SelectorUInt64), false)})
	require.NoError(t, err)
	require.NoError(t, m2.Apply(plan))

	out, _ := m2.ReadRow(row)
	assert.Equal(t, uint64(7), out["score"].UInt())
	assert.Equal(t, value.SelectorUInt64, out["score"].Tag().Selector)
}
