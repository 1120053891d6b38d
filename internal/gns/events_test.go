package gns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsdb/nsdb/internal/model"
	"github.com/nsdb/nsdb/internal/value"
)

func TestCreateSpaceEventEncodeDecodeApply(t *testing.T) {
	g := New()
	ev := &CreateSpaceEvent{Name: "app", Props: map[string]value.Datacell{"owner": value.NewStr("root")}}

	buf := EncodeEvent(ev)
	decoded, err := DecodeEvent(buf)
	require.NoError(t, err)
	require.NoError(t, decoded.ApplyLive(g))

	s, ok := g.Space("app")
	require.True(t, ok)
	assert.Equal(t, "root", s.Props["owner"].Str())
}

func TestCreateSpaceEventRejectsDuplicate(t *testing.T) {
	g := New()
	ev := &CreateSpaceEvent{Name: "app"}
	require.NoError(t, ev.ApplyLive(g))
	assert.Error(t, ev.ApplyLive(g))
	assert.True(t, IsAlreadyExists(ev.ApplyRestore(g)))
}

func TestCreateModelThenAlterThenDrop(t *testing.T) {
	g := New()
	require.NoError(t, (&CreateSpaceEvent{Name: "app"}).ApplyLive(g))

	fields := model.NewFieldMap()
	fields.Set("name", model.NewScalarField(value.TagOf(value.SelectorStr), false))
	createModel := &CreateModelEvent{
		Space: "app", Model: "users", PKColumn: "id",
		PKTag: value.TagOf(value.SelectorUInt64), Fields: fields,
	}
	require.NoError(t, createModel.ApplyLive(g))

	m, ok := g.Model("app", "users")
	require.True(t, ok)
	assert.Equal(t, "users", m.Name)

	addEv := &alterModelEvent{kind: EventAlterModelAdd, Space: "app", Model: "users",
		Add: map[string]model.Field{"age": model.NewScalarField(value.TagOf(value.SelectorUInt8), true)}}
	require.NoError(t, addEv.ApplyLive(g))

	_, ok = m.Field("age")
	assert.True(t, ok)

	dropEv := &DropModelEvent{Space: "app", Model: "users"}
	require.NoError(t, dropEv.ApplyLive(g))
	_, ok = g.Model("app", "users")
	assert.False(t, ok)
}

func TestAlterModelRestoreMissingModel(t *testing.T) {
	g := New()
	require.NoError(t, (&CreateSpaceEvent{Name: "app"}).ApplyLive(g))

	addEv := &alterModelEvent{kind: EventAlterModelAdd, Space: "app", Model: "ghost",
		Add: map[string]model.Field{"x": model.NewScalarField(value.TagOf(value.SelectorBool), false)}}
	err := addEv.ApplyRestore(g)
	assert.True(t, IsMissing(err))
}

func TestDropSpaceRejectsNonEmpty(t *testing.T) {
	g := New()
	require.NoError(t, (&CreateSpaceEvent{Name: "app"}).ApplyLive(g))
	fields := model.NewFieldMap()
	require.NoError(t, (&CreateModelEvent{Space: "app", Model: "m", PKColumn: "id",
		PKTag: value.TagOf(value.SelectorUInt64), Fields: fields}).ApplyLive(g))

	err := (&DropSpaceEvent{Name: "app"}).ApplyLive(g)
	assert.Error(t, err)
}

func TestEventRoundTripAllKinds(t *testing.T) {
	fields := model.NewFieldMap()
	fields.Set("x", model.NewScalarField(value.TagOf(value.SelectorBool), false))

	events := []Event{
		&CreateSpaceEvent{Name: "s", Props: map[string]value.Datacell{"a": value.NewUInt8(1)}},
		&AlterSpaceEvent{Name: "s", Props: map[string]value.Datacell{"b": value.NewBool(true)}},
		&DropSpaceEvent{Name: "s"},
		&CreateModelEvent{Space: "s", Model: "m", PKColumn: "id", PKTag: value.TagOf(value.SelectorUInt64), Fields: fields},
		&alterModelEvent{kind: EventAlterModelAdd, Space: "s", Model: "m", Add: map[string]model.Field{"y": model.NewScalarField(value.TagOf(value.SelectorStr), true)}},
		&alterModelEvent{kind: EventAlterModelRemove, Space: "s", Model: "m", Remove: []string{"y"}},
		&alterModelEvent{kind: EventAlterModelUpdate, Space: "s", Model: "m", Update: map[string]model.Field{"x": model.NewScalarField(value.TagOf(value.SelectorBool), false)}},
		&DropModelEvent{Space: "s", Model: "m"},
	}

	for _, ev := range events {
		buf := EncodeEvent(ev)
		decoded, err := DecodeEvent(buf)
		require.NoError(t, err)
		assert.Equal(t, ev.Kind(), decoded.Kind())
	}
}
