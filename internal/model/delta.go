package model

import "github.com/nsdb/nsdb/internal/value"

// DeltaKind identifies the shape of a schema-delta entry.
type DeltaKind int

const (
	DeltaAdd DeltaKind = iota
	DeltaRemove
	DeltaUpdate
)

// SchemaDelta is one versioned schema change: the field it touched, what
// kind of change it was, and (for Add/Update) the new field definition.
type SchemaDelta struct {
	Version uint64
	Kind    DeltaKind
	Field   string
	NewDef  Field
}

// applyDelta mutates a row's field map in place for one delta. It is only
// ever called while the row's write lock is held (see Model.ReadRow).
func applyDelta(fields map[string]value.Datacell, d SchemaDelta) {
	switch d.Kind {
	case DeltaAdd:
		if _, exists := fields[d.Field]; !exists {
			fields[d.Field] = value.Null(d.NewDef.LeafTag())
		}
	case DeltaRemove:
		delete(fields, d.Field)
	case DeltaUpdate:
		old, ok := fields[d.Field]
		if !ok || !old.IsInit() {
			return
		}
		fields[d.Field] = recast(old, d.NewDef.LeafTag())
	}
}

// recast widens a scalar cell to a new selector of the same class,
// preserving its numeric value. Bin/Str/Bool/List casts are identity
// re-tags (the legal-cast matrix only permits same-class, non-narrowing
// casts, so no value truncation is ever required).
func recast(d value.Datacell, newTag value.FullTag) value.Datacell {
	if d.Tag().Class() != newTag.Class() {
		return d
	}
	switch newTag.Selector {
	case value.SelectorUInt8:
		return value.NewUInt8(uint8(d.UInt()))
	case value.SelectorUInt16:
		return value.NewUInt16(uint16(d.UInt()))
	case value.SelectorUInt32:
		return value.NewUInt32(uint32(d.UInt()))
	case value.SelectorUInt64:
		return value.NewUInt64(d.UInt())
	case value.SelectorSInt8:
		return value.NewSInt8(int8(d.SInt()))
	case value.SelectorSInt16:
		return value.NewSInt16(int16(d.SInt()))
	case value.SelectorSInt32:
		return value.NewSInt32(int32(d.SInt()))
	case value.SelectorSInt64:
		return value.NewSInt64(d.SInt())
	case value.SelectorFloat32:
		return value.NewFloat32(float32(d.Float()))
	case value.SelectorFloat64:
		return value.NewFloat64(d.Float())
	default:
		return d
	}
}
