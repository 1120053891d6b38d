// Package value implements the tagged Datacell value system (spec §3, C1):
// a class/selector/unique-discriminated runtime value, the PrimaryIndexKey
// built from unique-tagged cells, and the wire/row encoding both share.
package value

import "fmt"

// Datacell is a tagged runtime value. Scalars are stored inline; Bin/Str own
// a heap buffer; List owns a lock-protected vector. A zero Datacell is the
// distinguished uninitialized/null state for whatever tag it carries.
type Datacell struct {
	tag  FullTag
	init bool

	word uint64 // bool/uint/sint/float bit pattern
	bin  []byte // Bin/Str backing buffer
	list *List  // List backing vector
}

// Tag returns the cell's discriminant. Valid even for a null cell.
func (d Datacell) Tag() FullTag { return d.tag }

// IsInit reports whether the cell holds a value (as opposed to null).
func (d Datacell) IsInit() bool { return d.init }

// Null constructs an uninitialized cell of the given tag.
func Null(tag FullTag) Datacell {
	return Datacell{tag: tag}
}

func checkClass(d Datacell, want Class) {
	if got := d.tag.Class(); got != want {
		panic(fmt.Sprintf("value: read as %s but cell tag is %s", want, got))
	}
	if !d.init {
		panic("value: read of uninitialized cell")
	}
}

// --- constructors -----------------------------------------------------

func NewBool(v bool) Datacell {
	w := uint64(0)
	if v {
		w = 1
	}
	return Datacell{tag: TagOf(SelectorBool), init: true, word: w}
}

func newUint(sel Selector, v uint64) Datacell {
	return Datacell{tag: TagOf(sel), init: true, word: v}
}

func NewUInt8(v uint8) Datacell   { return newUint(SelectorUInt8, uint64(v)) }
func NewUInt16(v uint16) Datacell { return newUint(SelectorUInt16, uint64(v)) }
func NewUInt32(v uint32) Datacell { return newUint(SelectorUInt32, uint64(v)) }
func NewUInt64(v uint64) Datacell { return newUint(SelectorUInt64, v) }

func newSint(sel Selector, v int64) Datacell {
	return Datacell{tag: TagOf(sel), init: true, word: uint64(v)}
}

func NewSInt8(v int8) Datacell   { return newSint(SelectorSInt8, int64(v)) }
func NewSInt16(v int16) Datacell { return newSint(SelectorSInt16, int64(v)) }
func NewSInt32(v int32) Datacell { return newSint(SelectorSInt32, int64(v)) }
func NewSInt64(v int64) Datacell { return newSint(SelectorSInt64, v) }

func NewFloat32(v float32) Datacell {
	return Datacell{tag: TagOf(SelectorFloat32), init: true, word: uint64(float32bits(v))}
}

func NewFloat64(v float64) Datacell {
	return Datacell{tag: TagOf(SelectorFloat64), init: true, word: float64bits(v)}
}

func NewBin(v []byte) Datacell {
	cp := make([]byte, len(v))
	copy(cp, v)
	return Datacell{tag: TagOf(SelectorBin), init: true, bin: cp}
}

func NewStr(v string) Datacell {
	return Datacell{tag: TagOf(SelectorStr), init: true, bin: []byte(v)}
}

func NewList(items []Datacell) Datacell {
	return Datacell{tag: TagOf(SelectorList), init: true, list: NewListValue(items)}
}

// --- accessors (debug-checked: panic on class mismatch or null read) --

func (d Datacell) Bool() bool {
	checkClass(d, ClassBool)
	return d.word != 0
}

func (d Datacell) UInt() uint64 {
	checkClass(d, ClassUInt)
	return d.word
}

func (d Datacell) SInt() int64 {
	checkClass(d, ClassSInt)
	return int64(d.word)
}

func (d Datacell) Float() float64 {
	checkClass(d, ClassFloat)
	if d.tag.Selector == SelectorFloat32 {
		return float64(float32frombits(uint32(d.word)))
	}
	return float64frombits(d.word)
}

func (d Datacell) Bin() []byte {
	checkClass(d, ClassBin)
	out := make([]byte, len(d.bin))
	copy(out, d.bin)
	return out
}

func (d Datacell) Str() string {
	checkClass(d, ClassStr)
	return string(d.bin)
}

func (d Datacell) List() *List {
	checkClass(d, ClassList)
	return d.list
}

// Equal compares two cells for value equality, tag included.
func (d Datacell) Equal(o Datacell) bool {
	if d.tag != o.tag || d.init != o.init {
		return false
	}
	if !d.init {
		return true
	}
	switch d.tag.Class() {
	case ClassBin, ClassStr:
		return string(d.bin) == string(o.bin)
	case ClassList:
		return d.list.Equal(o.list)
	default:
		return d.word == o.word
	}
}
