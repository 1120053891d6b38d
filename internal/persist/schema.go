package persist

import (
	"github.com/nsdb/nsdb/internal/model"
	"github.com/nsdb/nsdb/internal/value"
)

// EncodeLayer writes one Field layer: a bool (is-list) followed by, for a
// leaf layer, its selector.
func EncodeLayer(w *Writer, l model.Layer) {
	w.Bool(l.IsList)
	if !l.IsList {
		w.Selector(l.Tag.Selector)
	}
}

func DecodeLayer(r *Reader) (model.Layer, error) {
	isList, err := r.Bool()
	if err != nil {
		return model.Layer{}, err
	}
	if isList {
		return model.ListLayer(), nil
	}
	sel, err := r.Selector()
	if err != nil {
		return model.Layer{}, err
	}
	return model.LeafLayer(value.TagOf(sel)), nil
}

// EncodeField writes a field definition: nullable flag, layer count, then
// each layer in order (outermost list wrappers first, leaf last).
func EncodeField(w *Writer, f model.Field) {
	w.Bool(f.Nullable)
	w.U64(uint64(len(f.Layers)))
	for _, l := range f.Layers {
		EncodeLayer(w, l)
	}
}

func DecodeField(r *Reader) (model.Field, error) {
	nullable, err := r.Bool()
	if err != nil {
		return model.Field{}, err
	}
	n, err := r.U64()
	if err != nil {
		return model.Field{}, err
	}
	layers := make([]model.Layer, 0, n)
	for i := uint64(0); i < n; i++ {
		l, err := DecodeLayer(r)
		if err != nil {
			return model.Field{}, err
		}
		layers = append(layers, l)
	}
	return model.Field{Layers: layers, Nullable: nullable}, nil
}

// EncodeFieldMap writes a FieldMap preserving insertion order, which matters
// for wildcard projection and positional tuple inserts on restore.
func EncodeFieldMap(w *Writer, fm *model.FieldMap) {
	names := fm.Names()
	w.U64(uint64(len(names)))
	for _, name := range names {
		f, _ := fm.Get(name)
		w.String(name)
		EncodeField(w, f)
	}
}

func DecodeFieldMap(r *Reader) (*model.FieldMap, error) {
	n, err := r.U64()
	if err != nil {
		return nil, err
	}
	fm := model.NewFieldMap()
	for i := uint64(0); i < n; i++ {
		name, err := r.String()
		if err != nil {
			return nil, err
		}
		f, err := DecodeField(r)
		if err != nil {
			return nil, err
		}
		fm.Set(name, f)
	}
	return fm, nil
}
