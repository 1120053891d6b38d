package persist

import "github.com/nsdb/nsdb/internal/value"

// EncodeDict writes a property dict (space/model metadata, sys.db settings)
// as a count-prefixed sequence of (name, cell) pairs. Key order is not
// preserved; callers that need stable iteration keep their own ordering
// (see FieldMap).
func EncodeDict(w *Writer, d map[string]value.Datacell) {
	w.U64(uint64(len(d)))
	for k, v := range d {
		w.String(k)
		EncodeCell(w, v)
	}
}

func DecodeDict(r *Reader) (map[string]value.Datacell, error) {
	n, err := r.U64()
	if err != nil {
		return nil, err
	}
	out := make(map[string]value.Datacell, n)
	for i := uint64(0); i < n; i++ {
		k, err := r.String()
		if err != nil {
			return nil, err
		}
		v, err := DecodeCell(r)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}
