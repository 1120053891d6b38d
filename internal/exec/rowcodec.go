package exec

import (
	"github.com/nsdb/nsdb/internal/persist"
	"github.com/nsdb/nsdb/internal/value"
)

// encodeRowPayload serializes a full row — its primary-key literal plus its
// non-PK fields — for the model batch journal. BatchInsert/BatchUpdate
// entries carry this; BatchDelete carries only the PK (encodePKPayload).
func encodeRowPayload(pk value.Datacell, fields map[string]value.Datacell) []byte {
	w := persist.NewWriter()
	persist.EncodeCell(w, pk)
	w.U64(uint64(len(fields)))
	for name, v := range fields {
		w.String(name)
		persist.EncodeCell(w, v)
	}
	return w.Bytes()
}

func decodeRowPayload(buf []byte) (value.Datacell, map[string]value.Datacell, error) {
	r := persist.NewReader(buf)
	pk, err := persist.DecodeCell(r)
	if err != nil {
		return value.Datacell{}, nil, err
	}
	n, err := r.U64()
	if err != nil {
		return value.Datacell{}, nil, err
	}
	fields := make(map[string]value.Datacell, n)
	for i := uint64(0); i < n; i++ {
		name, err := r.String()
		if err != nil {
			return value.Datacell{}, nil, err
		}
		v, err := persist.DecodeCell(r)
		if err != nil {
			return value.Datacell{}, nil, err
		}
		fields[name] = v
	}
	return pk, fields, nil
}

func encodePKPayload(pk value.Datacell) []byte {
	w := persist.NewWriter()
	persist.EncodeCell(w, pk)
	return w.Bytes()
}

func decodePKPayload(buf []byte) (value.Datacell, error) {
	r := persist.NewReader(buf)
	return persist.DecodeCell(r)
}
