// Package persist implements the structured encode/decode layer (spec
// §4.6, C8): version-tagged PersistObject encoding for schemas, maps, and
// cells. All integers are little-endian; strings are length-prefixed utf-8;
// tag selectors are encoded as u64 with a max-selector sanity check.
package persist

import (
	"encoding/binary"
	"fmt"

	"github.com/nsdb/nsdb/internal/value"
)

// Writer accumulates a little-endian encoded byte stream.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) U8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) U32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) U64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) Bool(v bool) {
	if v {
		w.U8(1)
	} else {
		w.U8(0)
	}
}

// RawBytes writes a length-prefixed opaque byte buffer.
func (w *Writer) RawBytes(v []byte) {
	w.U64(uint64(len(v)))
	w.buf = append(w.buf, v...)
}

// String writes a length-prefixed utf-8 string.
func (w *Writer) String(v string) {
	w.RawBytes([]byte(v))
}

// Selector writes a tag selector as u64.
func (w *Writer) Selector(s value.Selector) {
	w.U64(uint64(s))
}

// Reader consumes a little-endian encoded byte stream produced by Writer.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(b []byte) *Reader { return &Reader{buf: b} }

// ErrTruncated is returned when the stream ends before an expected field.
var ErrTruncated = fmt.Errorf("persist: truncated stream")

func (r *Reader) need(n int) error {
	if r.pos+n > len(r.buf) {
		return ErrTruncated
	}
	return nil
}

func (r *Reader) U8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *Reader) U64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *Reader) Bool() (bool, error) {
	v, err := r.U8()
	return v != 0, err
}

func (r *Reader) RawBytes() ([]byte, error) {
	n, err := r.U64()
	if err != nil {
		return nil, err
	}
	if err := r.need(int(n)); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return out, nil
}

func (r *Reader) String() (string, error) {
	b, err := r.RawBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *Reader) Selector() (value.Selector, error) {
	v, err := r.U64()
	if err != nil {
		return 0, err
	}
	return value.SelectorFromUint64(v)
}

// Remaining reports unconsumed byte count (pretest_can_dec_* equivalent: a
// quick check before attempting a full decode).
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) Exhausted() bool { return r.Remaining() == 0 }
