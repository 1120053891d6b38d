package value

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
)

// uniqueClass is the coarse discriminant a PrimaryIndexKey hashes/compares
// on: two cells that share only a class (e.g. UInt8 vs UInt64 encoding the
// same integer) must compare and hash identically, per design notes §9. The
// full Selector is not part of key identity — only Class plus the original
// Datacell's class-appropriate payload is.
type uniqueClass uint8

const (
	ucBool uniqueClass = iota
	ucUInt
	ucSInt
	ucBin
	ucStr
)

func uniqueClassOf(t FullTag) uniqueClass {
	switch t.Class() {
	case ClassBool:
		return ucBool
	case ClassUInt:
		return ucUInt
	case ClassSInt:
		return ucSInt
	case ClassBin:
		return ucBin
	case ClassStr:
		return ucStr
	default:
		panic(fmt.Sprintf("value: %s is not unique-eligible", t))
	}
}

// PrimaryIndexKey is constructed from a candidate Datacell whose tag is
// unique-eligible. It stores the unique tag plus either the scalar word or
// a copy of the variable-length buffer, per spec §3.
type PrimaryIndexKey struct {
	uc   uniqueClass
	word uint64
	bin  []byte
}

// ErrNotUnique is returned when building a key from a non-unique-eligible
// cell (List, Float) or an uninitialized one.
var ErrNotUnique = fmt.Errorf("value: cell tag is not unique-eligible for a primary key")

// NewPrimaryIndexKey builds a key from a candidate cell.
func NewPrimaryIndexKey(d Datacell) (PrimaryIndexKey, error) {
	if !d.tag.Unique() {
		return PrimaryIndexKey{}, ErrNotUnique
	}
	if !d.init {
		return PrimaryIndexKey{}, fmt.Errorf("value: cannot build a primary key from a null cell")
	}
	k := PrimaryIndexKey{uc: uniqueClassOf(d.tag)}
	switch d.tag.Class() {
	case ClassBin, ClassStr:
		k.bin = make([]byte, len(d.bin))
		copy(k.bin, d.bin)
	default:
		k.word = d.word
	}
	return k, nil
}

func (k PrimaryIndexKey) isVariable() bool {
	return k.uc == ucBin || k.uc == ucStr
}

// Equal implements unique-tag + (if variable) byte-content equality.
func (k PrimaryIndexKey) Equal(o PrimaryIndexKey) bool {
	if k.uc != o.uc {
		return false
	}
	if k.isVariable() {
		return string(k.bin) == string(o.bin)
	}
	return k.word == o.word
}

// EqualDatacell compares a key against a literal cell of the same
// underlying tag+bytes, per the "key == literal" testable property. The
// literal need not share the candidate's exact Selector (e.g. a UInt8 key
// equals a UInt64 literal of the same value) so long as its class and
// payload match.
func (k PrimaryIndexKey) EqualDatacell(d Datacell) bool {
	if !d.init || !d.tag.Unique() || uniqueClassOf(d.tag) != k.uc {
		return false
	}
	if k.isVariable() {
		return string(k.bin) == string(d.bin)
	}
	return k.word == d.word
}

// Hash hashes the unique tag, then the variable-length payload (the scalar
// word for fixed-width classes, or the buffer contents for Bin/Str).
func (k PrimaryIndexKey) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte{byte(k.uc)})
	if k.isVariable() {
		h.Write(k.bin)
	} else {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], k.word)
		h.Write(buf[:])
	}
	return h.Sum64()
}

// ToDatacell reconstructs a literal Datacell of the given target tag (which
// must share the key's unique class) — used when the row index must hand
// the key back out, e.g. for wildcard select synthesizing the PK column.
func (k PrimaryIndexKey) ToDatacell(target FullTag) Datacell {
	d := Datacell{tag: target, init: true}
	if k.isVariable() {
		d.bin = make([]byte, len(k.bin))
		copy(d.bin, k.bin)
	} else {
		d.word = k.word
	}
	return d
}
