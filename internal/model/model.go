package model

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/nsdb/nsdb/internal/mtchm"
	"github.com/nsdb/nsdb/internal/value"
)

// Model is a schema-ful table: a primary key column, an ordered field map
// for the non-PK columns, the lock-free (sharded) primary index, and the
// schema-delta log that lets rows lazily project forward (spec §4.2/§4.3).
type Model struct {
	UUID     uuid.UUID
	Name     string
	PKColumn string
	PKTag    value.FullTag

	mu             sync.RWMutex
	fields         *FieldMap
	deltas         []SchemaDelta
	currentVersion uint64

	Index *mtchm.Map[value.PrimaryIndexKey, *Row]
}

// New constructs an empty model at schema version 0.
func New(name string, pkColumn string, pkTag value.FullTag, fields *FieldMap) *Model {
	return &Model{
		UUID:     uuid.New(),
		Name:     name,
		PKColumn: pkColumn,
		PKTag:    pkTag,
		fields:   fields,
		Index:    mtchm.New[value.PrimaryIndexKey, *Row](),
	}
}

// Fields returns a read-only snapshot of the current field map.
func (m *Model) Fields() *FieldMap {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fields.Clone()
}

// Field looks up a single non-PK field definition.
func (m *Model) Field(name string) (Field, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fields.Get(name)
}

// SchemaVersion returns the model's current (most-recently-bumped) schema
// version.
func (m *Model) SchemaVersion() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentVersion
}

// Apply commits an AlterPlan: it mutates the field map, bumps the schema
// version, and pushes the corresponding delta entries. The caller is
// responsible for having already journaled the DDL event (spec §4.3: GNS
// mutations are journaled before being applied in memory).
func (m *Model) Apply(plan *AlterPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.currentVersion++
	switch plan.Action {
	case ActionAdd:
		for name, f := range plan.Add {
			if name == m.PKColumn || m.fields.Has(name) {
				return fmt.Errorf("model: field %q already exists", name)
			}
			m.fields.Set(name, f)
			m.deltas = append(m.deltas, SchemaDelta{Version: m.currentVersion, Kind: DeltaAdd, Field: name, NewDef: f})
		}
	case ActionRemove:
		for _, name := range plan.Remove {
			if !m.fields.Has(name) {
				return fmt.Errorf("model: field %q does not exist", name)
			}
			m.fields.Remove(name)
			m.deltas = append(m.deltas, SchemaDelta{Version: m.currentVersion, Kind: DeltaRemove, Field: name})
		}
	case ActionUpdate:
		for name, f := range plan.Update {
			if !m.fields.Has(name) {
				return fmt.Errorf("model: field %q does not exist", name)
			}
			m.fields.Set(name, f)
			m.deltas = append(m.deltas, SchemaDelta{Version: m.currentVersion, Kind: DeltaUpdate, Field: name, NewDef: f})
		}
	}
	return nil
}

// ApplyUpdate projects any pending schema deltas forward under the row's
// write lock (same as ReadRow), lets fn revise the field map in place, then
// bumps txn_revised and returns a snapshot of the resulting fields. fn runs
// with the lock held, so it must not call back into the model.
func (m *Model) ApplyUpdate(r *Row, fn func(fields map[string]value.Datacell) error) (map[string]value.Datacell, error) {
	r.Data.mu.Lock()
	defer r.Data.mu.Unlock()

	current := m.SchemaVersion()
	if r.Data.SchemaVersion != current {
		for _, d := range m.pendingDeltas(r.Data.SchemaVersion) {
			applyDelta(r.Data.Fields, d)
		}
		r.Data.SchemaVersion = current
	}
	if err := fn(r.Data.Fields); err != nil {
		return nil, err
	}
	r.Data.TxnRevised++
	out := make(map[string]value.Datacell, len(r.Data.Fields))
	for k, v := range r.Data.Fields {
		out[k] = v
	}
	return out, nil
}

// pendingDeltas returns deltas with version strictly greater than `since`,
// in application order.
func (m *Model) pendingDeltas(since uint64) []SchemaDelta {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []SchemaDelta
	for _, d := range m.deltas {
		if d.Version > since {
			out = append(out, d)
		}
	}
	return out
}

// ReadRow implements resolve_schema_deltas_and_freeze (spec §4.2/§9): it
// returns the row's field map and txn_revised counter, having first
// projected forward any schema deltas the row hasn't seen yet. Projection
// happens under the row's write lock, exactly once per pending delta, after
// which the row is stamped at the model's current version.
func (m *Model) ReadRow(r *Row) (map[string]value.Datacell, uint64) {
	r.Data.mu.RLock()
	current := m.SchemaVersion()
	if r.Data.SchemaVersion == current {
		defer r.Data.mu.RUnlock()
		out := make(map[string]value.Datacell, len(r.Data.Fields))
		for k, v := range r.Data.Fields {
			out[k] = v
		}
		return out, r.Data.TxnRevised
	}
	r.Data.mu.RUnlock()

	r.Data.mu.Lock()
	pending := m.pendingDeltas(r.Data.SchemaVersion)
	for _, d := range pending {
		applyDelta(r.Data.Fields, d)
	}
	r.Data.SchemaVersion = current
	out := make(map[string]value.Datacell, len(r.Data.Fields))
	for k, v := range r.Data.Fields {
		out[k] = v
	}
	txn := r.Data.TxnRevised
	r.Data.mu.Unlock()
	return out, txn
}
