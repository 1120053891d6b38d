package exec

import (
	nsdberrors "github.com/nsdb/nsdb/internal/errors"
	"github.com/nsdb/nsdb/internal/model"
	"github.com/nsdb/nsdb/internal/ql"
	"github.com/nsdb/nsdb/internal/storage"
	"github.com/nsdb/nsdb/internal/value"
)

// buildRow turns an InsertData into (pk, non-PK fields), validating every
// value against the model's current schema (spec §4.5: unknown fields ->
// QExecUnknownField; count/type mismatch -> QExecDmlValidationError).
func buildRow(m *model.Model, data ql.InsertData) (value.Datacell, map[string]value.Datacell, error) {
	names := m.Fields().Names()

	if data.Named != nil {
		pk, ok := data.Named[m.PKColumn]
		if !ok {
			return value.Datacell{}, nil, nsdberrors.New(nsdberrors.QExecDmlValidationError, "missing primary key column %q", m.PKColumn)
		}
		fields := make(map[string]value.Datacell, len(names))
		seen := 0
		for col, v := range data.Named {
			if col == m.PKColumn {
				continue
			}
			f, ok := m.Field(col)
			if !ok {
				return value.Datacell{}, nil, nsdberrors.New(nsdberrors.QExecUnknownField, "unknown field %q", col)
			}
			if err := f.Validate(v); err != nil {
				return value.Datacell{}, nil, nsdberrors.New(nsdberrors.QExecDmlValidationError, "%v", err)
			}
			fields[col] = v
			seen++
		}
		if seen != len(names) {
			return value.Datacell{}, nil, nsdberrors.New(nsdberrors.QExecDmlValidationError, "expected %d fields, got %d", len(names), seen)
		}
		return pk, fields, nil
	}

	tuple := data.Positional
	if len(tuple) != len(names)+1 {
		return value.Datacell{}, nil, nsdberrors.New(nsdberrors.QExecDmlValidationError, "expected %d values, got %d", len(names)+1, len(tuple))
	}
	pk := tuple[0]
	fields := make(map[string]value.Datacell, len(names))
	for i, n := range names {
		v := tuple[i+1]
		f, _ := m.Field(n)
		if err := f.Validate(v); err != nil {
			return value.Datacell{}, nil, nsdberrors.New(nsdberrors.QExecDmlValidationError, "%v", err)
		}
		fields[n] = v
	}
	return pk, fields, nil
}

func (s *Session) execInsert(st *ql.InsertStatement) (result, error) {
	space, name, m, err := s.resolveModel(st.Entity)
	if err != nil {
		return result{}, err
	}
	pk, fields, err := buildRow(m, st.Data)
	if err != nil {
		return result{}, err
	}
	key, err := value.NewPrimaryIndexKey(pk)
	if err != nil {
		return result{}, nsdberrors.New(nsdberrors.QExecDmlValidationError, "primary key: %v", err)
	}
	if !m.Index.Insert(key, model.NewRow(key, fields, m.SchemaVersion())) {
		return result{}, nsdberrors.New(nsdberrors.QExecDmlDuplicate, "row %v already exists", pk)
	}
	if err := s.store.AppendRow(space, name, storage.BatchEntry{Op: storage.BatchInsert, Payload: encodeRowPayload(pk, fields)}); err != nil {
		m.Index.Delete(key)
		return result{}, nsdberrors.New(nsdberrors.TxnIoError, "journaling insert: %v", err)
	}
	return okResult(), nil
}

// resolveWhereKey validates that a where-clause targets the model's primary
// key column (spec §4.5: non-PK where is rejected as
// QExecDmlWhereHasUnindexedColumn) and builds the lookup key.
func resolveWhereKey(m *model.Model, where ql.WhereClause) (value.PrimaryIndexKey, error) {
	if !where.Set || where.Column != m.PKColumn {
		return value.PrimaryIndexKey{}, nsdberrors.New(nsdberrors.QExecDmlWhereHasUnindexedColumn, "where clause must equality-match the primary key column %q", m.PKColumn)
	}
	key, err := value.NewPrimaryIndexKey(where.Value)
	if err != nil {
		return value.PrimaryIndexKey{}, nsdberrors.New(nsdberrors.QExecDmlValidationError, "primary key: %v", err)
	}
	return key, nil
}

func applyAssignment(old value.Datacell, op ql.AssignOp, v value.Datacell) (value.Datacell, error) {
	if op == ql.OpAssign {
		return v, nil
	}
	if old.Tag().Class() != v.Tag().Class() {
		return value.Datacell{}, nsdberrors.New(nsdberrors.QExecDmlValidationError, "arithmetic assignment across mismatched types")
	}
	switch old.Tag().Class() {
	case value.ClassUInt:
		return applyUIntOp(old, op, v)
	case value.ClassSInt:
		return applySIntOp(old, op, v)
	case value.ClassFloat:
		return applyFloatOp(old, op, v)
	default:
		return value.Datacell{}, nsdberrors.New(nsdberrors.QExecDmlValidationError, "arithmetic assignment not supported for %s", old.Tag())
	}
}

func newUIntForSelector(sel value.Selector, v uint64) value.Datacell {
	switch sel {
	case value.SelectorUInt8:
		return value.NewUInt8(uint8(v))
	case value.SelectorUInt16:
		return value.NewUInt16(uint16(v))
	case value.SelectorUInt32:
		return value.NewUInt32(uint32(v))
	default:
		return value.NewUInt64(v)
	}
}

func newSIntForSelector(sel value.Selector, v int64) value.Datacell {
	switch sel {
	case value.SelectorSInt8:
		return value.NewSInt8(int8(v))
	case value.SelectorSInt16:
		return value.NewSInt16(int16(v))
	case value.SelectorSInt32:
		return value.NewSInt32(int32(v))
	default:
		return value.NewSInt64(v)
	}
}

func applyUIntOp(old value.Datacell, op ql.AssignOp, v value.Datacell) (value.Datacell, error) {
	a, b := old.UInt(), v.UInt()
	var r uint64
	switch op {
	case ql.OpAdd:
		r = a + b
	case ql.OpSub:
		r = a - b
	case ql.OpMul:
		r = a * b
	case ql.OpDiv:
		if b == 0 {
			return value.Datacell{}, nsdberrors.New(nsdberrors.QExecDmlValidationError, "division by zero")
		}
		r = a / b
	}
	return newUIntForSelector(old.Tag().Selector, r), nil
}

func applySIntOp(old value.Datacell, op ql.AssignOp, v value.Datacell) (value.Datacell, error) {
	a, b := old.SInt(), v.SInt()
	var r int64
	switch op {
	case ql.OpAdd:
		r = a + b
	case ql.OpSub:
		r = a - b
	case ql.OpMul:
		r = a * b
	case ql.OpDiv:
		if b == 0 {
			return value.Datacell{}, nsdberrors.New(nsdberrors.QExecDmlValidationError, "division by zero")
		}
		r = a / b
	}
	return newSIntForSelector(old.Tag().Selector, r), nil
}

func applyFloatOp(old value.Datacell, op ql.AssignOp, v value.Datacell) (value.Datacell, error) {
	a, b := old.Float(), v.Float()
	var r float64
	switch op {
	case ql.OpAdd:
		r = a + b
	case ql.OpSub:
		r = a - b
	case ql.OpMul:
		r = a * b
	case ql.OpDiv:
		if b == 0 {
			return value.Datacell{}, nsdberrors.New(nsdberrors.QExecDmlValidationError, "division by zero")
		}
		r = a / b
	}
	if old.Tag().Selector == value.SelectorFloat32 {
		return value.NewFloat32(float32(r)), nil
	}
	return value.NewFloat64(r), nil
}

func (s *Session) execUpdate(st *ql.UpdateStatement) (result, error) {
	space, name, m, err := s.resolveModel(st.Entity)
	if err != nil {
		return result{}, err
	}
	key, err := resolveWhereKey(m, st.Where)
	if err != nil {
		return result{}, err
	}
	row, ok := m.Index.Get(key)
	if !ok {
		return result{}, nsdberrors.New(nsdberrors.QExecDmlRowNotFound, "row not found")
	}

	fields, err := m.ApplyUpdate(row, func(fields map[string]value.Datacell) error {
		for _, a := range st.Assignments {
			f, ok := m.Field(a.Column)
			if !ok {
				return nsdberrors.New(nsdberrors.QExecUnknownField, "unknown field %q", a.Column)
			}
			old, ok := fields[a.Column]
			if !ok {
				old = value.Null(f.LeafTag())
			}
			nv, err := applyAssignment(old, a.Op, a.Value)
			if err != nil {
				return err
			}
			if err := f.Validate(nv); err != nil {
				return nsdberrors.New(nsdberrors.QExecDmlValidationError, "%v", err)
			}
			fields[a.Column] = nv
		}
		return nil
	})
	if err != nil {
		return result{}, err
	}

	pk := key.ToDatacell(m.PKTag)
	if err := s.store.AppendRow(space, name, storage.BatchEntry{Op: storage.BatchUpdate, Payload: encodeRowPayload(pk, fields)}); err != nil {
		return result{}, nsdberrors.New(nsdberrors.TxnIoError, "journaling update: %v", err)
	}
	return okResult(), nil
}

func (s *Session) execDelete(st *ql.DeleteStatement) (result, error) {
	space, name, m, err := s.resolveModel(st.Entity)
	if err != nil {
		return result{}, err
	}
	key, err := resolveWhereKey(m, st.Where)
	if err != nil {
		return result{}, err
	}
	if !m.Index.Delete(key) {
		return result{}, nsdberrors.New(nsdberrors.QExecDmlRowNotFound, "row not found")
	}
	pk := key.ToDatacell(m.PKTag)
	if err := s.store.AppendRow(space, name, storage.BatchEntry{Op: storage.BatchDelete, Payload: encodePKPayload(pk)}); err != nil {
		return result{}, nsdberrors.New(nsdberrors.TxnIoError, "journaling delete: %v", err)
	}
	return okResult(), nil
}

func (s *Session) execSelect(st *ql.SelectStatement) (result, error) {
	_, _, m, err := s.resolveModel(st.Entity)
	if err != nil {
		return result{}, err
	}
	key, err := resolveWhereKey(m, st.Where)
	if err != nil {
		return result{}, err
	}
	row, ok := m.Index.Get(key)
	if !ok {
		return result{}, nsdberrors.New(nsdberrors.QExecDmlRowNotFound, "row not found")
	}
	fields, _ := m.ReadRow(row)
	fields[m.PKColumn] = key.ToDatacell(m.PKTag)

	names := st.Fields
	if st.Wildcard {
		names = append([]string{m.PKColumn}, m.Fields().Names()...)
	} else {
		for _, n := range names {
			if n != m.PKColumn && !m.Fields().Has(n) {
				return result{}, nsdberrors.New(nsdberrors.QExecUnknownField, "unknown field %q", n)
			}
		}
	}
	return encodeRowResult(names, fields), nil
}

func (s *Session) execSelectAll(st *ql.SelectAllStatement) (result, error) {
	_, _, m, err := s.resolveModel(st.Entity)
	if err != nil {
		return result{}, err
	}
	names := append([]string{m.PKColumn}, m.Fields().Names()...)

	guard := m.Index.AcquireExclusive()
	defer guard.Release()

	var rows []map[string]value.Datacell
	guard.Iterate(int(st.Limit), func(k value.PrimaryIndexKey, row *model.Row) bool {
		fields, _ := m.ReadRow(row)
		out := make(map[string]value.Datacell, len(fields)+1)
		for f, v := range fields {
			out[f] = v
		}
		out[m.PKColumn] = k.ToDatacell(m.PKTag)
		rows = append(rows, out)
		return true
	})
	return encodeMultiRowResult(names, rows), nil
}
