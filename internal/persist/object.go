package persist

import (
	"fmt"
	"hash/crc32"
)

// Object is anything that can serialize itself into a Writer and identify
// itself with a stable format version. The version is carried in every
// full-encoded frame so a future incompatible layout change can be detected
// on decode rather than silently misread.
type Object interface {
	PersistVersion() uint32
	EncodeObject(w *Writer)
}

// FullEncode composes meta_enc/obj_enc (spec §4.6): a version tag, the
// object's own payload, and a trailing CRC32 of that payload so a decoder can
// distinguish "wrong version" from "correct version but corrupted payload"
// before attempting the more expensive field-by-field decode.
func FullEncode(o Object) []byte {
	w := NewWriter()
	inner := NewWriter()
	o.EncodeObject(inner)
	payload := inner.Bytes()

	w.U32(o.PersistVersion())
	w.U64(uint64(len(payload)))
	w.buf = append(w.buf, payload...)
	w.U32(crc32.ChecksumIEEE(payload))
	return w.Bytes()
}

// ErrVersionMismatch is returned by FullDecode when the encoded version
// tag does not match the version the caller's decode function expects.
var ErrVersionMismatch = fmt.Errorf("persist: object version mismatch")

// ErrCorrupted is returned by FullDecode when the trailing CRC32 does not
// match the recomputed checksum of the payload.
var ErrCorrupted = fmt.Errorf("persist: object payload corrupted")

// FullDecode is the meta_dec/obj_dec counterpart to FullEncode. decodeFn is
// handed a Reader scoped to exactly the payload bytes (the object's own
// EncodeObject output) once the version and checksum pretests pass.
func FullDecode[T any](buf []byte, wantVersion uint32, decodeFn func(*Reader) (T, error)) (T, error) {
	var zero T
	r := NewReader(buf)
	version, err := r.U32()
	if err != nil {
		return zero, err
	}
	if version != wantVersion {
		return zero, ErrVersionMismatch
	}
	n, err := r.U64()
	if err != nil {
		return zero, err
	}
	if err := r.need(int(n)); err != nil {
		return zero, err
	}
	payload := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	wantCRC, err := r.U32()
	if err != nil {
		return zero, err
	}
	if crc32.ChecksumIEEE(payload) != wantCRC {
		return zero, ErrCorrupted
	}
	return decodeFn(NewReader(payload))
}
