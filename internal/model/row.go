package model

import (
	"sync"

	"github.com/nsdb/nsdb/internal/value"
)

// RowData is the mutable body of a row: a field-map (non-PK columns only —
// the PK lives in the index slot), a monotonic txn-revised counter bumped
// on every update, and the schema version the field-map was last
// materialized against.
type RowData struct {
	mu            sync.RWMutex
	Fields        map[string]value.Datacell
	TxnRevised    uint64
	SchemaVersion uint64
}

// Row pairs a primary-key reference with its lockable body.
type Row struct {
	PK   value.PrimaryIndexKey
	Data *RowData
}

// NewRow constructs a row materialized against the given schema version
// (callers pass the model's current version at insert time).
func NewRow(pk value.PrimaryIndexKey, fields map[string]value.Datacell, schemaVersion uint64) *Row {
	return &Row{
		PK: pk,
		Data: &RowData{
			Fields:        fields,
			SchemaVersion: schemaVersion,
		},
	}
}

// snapshot copies out the field map and txn_revised counter under a read
// lock, with no delta projection. Model.ReadRow is the delta-aware entry
// point callers outside this package should use.
func (r *RowData) snapshot() (map[string]value.Datacell, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]value.Datacell, len(r.Fields))
	for k, v := range r.Fields {
		out[k] = v
	}
	return out, r.TxnRevised
}
