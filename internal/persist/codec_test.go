package persist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsdb/nsdb/internal/model"
	"github.com/nsdb/nsdb/internal/value"
)

func TestReaderWriterPrimitivesRoundTrip(t *testing.T) {
	w := NewWriter()
	w.U8(7)
	w.U32(1234)
	w.U64(9876543210)
	w.Bool(true)
	w.String("hello")
	w.RawBytes([]byte{1, 2, 3})
	w.Selector(value.SelectorUInt32)

	r := NewReader(w.Bytes())
	u8, err := r.U8()
	require.NoError(t, err)
	assert.Equal(t, uint8(7), u8)

	u32, err := r.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(1234), u32)

	u64, err := r.U64()
	require.NoError(t, err)
	assert.Equal(t, uint64(9876543210), u64)

	b, err := r.Bool()
	require.NoError(t, err)
	assert.True(t, b)

	s, err := r.String()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	raw, err := r.RawBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, raw)

	sel, err := r.Selector()
	require.NoError(t, err)
	assert.Equal(t, value.SelectorUInt32, sel)

	assert.True(t, r.Exhausted())
}

func TestReaderTruncatedStream(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_, err := r.U64()
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestSelectorFromUint64RejectsOutOfRange(t *testing.T) {
	w := NewWriter()
	w.U64(255)
	r := NewReader(w.Bytes())
	_, err := r.Selector()
	assert.Error(t, err)
}

func TestEncodeDecodeCellRoundTrip(t *testing.T) {
	cells := []value.Datacell{
		value.NewBool(true),
		value.NewUInt8(5),
		value.NewUInt64(1 << 40),
		value.NewSInt32(-7),
		value.NewFloat64(3.25),
		value.NewStr("hi"),
		value.NewBin([]byte{9, 8, 7}),
		value.NewList([]value.Datacell{value.NewUInt8(1), value.NewUInt8(2)}),
		value.Null(value.TagOf(value.SelectorStr)),
	}

	for _, c := range cells {
		w := NewWriter()
		EncodeCell(w, c)
		got, err := DecodeCell(NewReader(w.Bytes()))
		require.NoError(t, err)
		assert.True(t, c.Equal(got))
	}
}

func TestEncodeDecodeFieldMapRoundTrip(t *testing.T) {
	fm := model.NewFieldMap()
	fm.Set("id", model.NewScalarField(value.TagOf(value.SelectorUInt64), false))
	fm.Set("tags", model.Field{Layers: []model.Layer{model.ListLayer(), model.LeafLayer(value.TagOf(value.SelectorStr))}, Nullable: true})

	w := NewWriter()
	EncodeFieldMap(w, fm)
	got, err := DecodeFieldMap(NewReader(w.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, fm.Names(), got.Names())

	f, ok := got.Get("tags")
	require.True(t, ok)
	assert.Equal(t, 1, f.ListDepth())
	assert.True(t, f.Nullable)
}

func TestEncodeDecodeDictRoundTrip(t *testing.T) {
	d := map[string]value.Datacell{
		"owner":   value.NewStr("root"),
		"version": value.NewUInt64(3),
	}
	w := NewWriter()
	EncodeDict(w, d)
	got, err := DecodeDict(NewReader(w.Bytes()))
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "root", got["owner"].Str())
	assert.Equal(t, uint64(3), got["version"].UInt())
}

type testObject struct {
	name string
}

func (o testObject) PersistVersion() uint32 { return 1 }
func (o testObject) EncodeObject(w *Writer) { w.String(o.name) }

func TestFullEncodeDecodeRoundTrip(t *testing.T) {
	obj := testObject{name: "space1"}
	buf := FullEncode(obj)

	got, err := FullDecode(buf, 1, func(r *Reader) (testObject, error) {
		name, err := r.String()
		return testObject{name: name}, err
	})
	require.NoError(t, err)
	assert.Equal(t, obj, got)

	_, err = FullDecode(buf, 2, func(r *Reader) (testObject, error) {
		name, err := r.String()
		return testObject{name: name}, err
	})
	assert.ErrorIs(t, err, ErrVersionMismatch)

	corrupted := append([]byte{}, buf...)
	corrupted[len(corrupted)-1] ^= 0xFF
	_, err = FullDecode(corrupted, 1, func(r *Reader) (testObject, error) {
		name, err := r.String()
		return testObject{name: name}, err
	})
	assert.ErrorIs(t, err, ErrCorrupted)
}
