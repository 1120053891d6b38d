package value

import "fmt"

// Class groups selectors into the seven families a Datacell can hold.
type Class uint8

const (
	ClassBool Class = iota
	ClassUInt
	ClassSInt
	ClassFloat
	ClassBin
	ClassStr
	ClassList
)

func (c Class) String() string {
	switch c {
	case ClassBool:
		return "bool"
	case ClassUInt:
		return "uint"
	case ClassSInt:
		return "sint"
	case ClassFloat:
		return "float"
	case ClassBin:
		return "binary"
	case ClassStr:
		return "string"
	case ClassList:
		return "list"
	default:
		return "unknown"
	}
}

// Selector is the leaf-level type tag: it picks out both a Class and (for
// scalar classes) a concrete width. Selector values are stable on the wire
// and in persisted headers, so new selectors are only ever appended.
type Selector uint8

const (
	SelectorBool Selector = iota
	SelectorUInt8
	SelectorUInt16
	SelectorUInt32
	SelectorUInt64
	SelectorSInt8
	SelectorSInt16
	SelectorSInt32
	SelectorSInt64
	SelectorFloat32
	SelectorFloat64
	SelectorBin
	SelectorStr
	SelectorList

	selectorMax = SelectorList
)

// Class returns the coarse family a selector belongs to.
func (s Selector) Class() Class {
	switch s {
	case SelectorBool:
		return ClassBool
	case SelectorUInt8, SelectorUInt16, SelectorUInt32, SelectorUInt64:
		return ClassUInt
	case SelectorSInt8, SelectorSInt16, SelectorSInt32, SelectorSInt64:
		return ClassSInt
	case SelectorFloat32, SelectorFloat64:
		return ClassFloat
	case SelectorBin:
		return ClassBin
	case SelectorStr:
		return ClassStr
	case SelectorList:
		return ClassList
	default:
		panic(fmt.Sprintf("value: unknown selector %d", s))
	}
}

// Unique reports whether cells of this selector may serve as a primary key.
// Lists and floats are never unique-eligible.
func (s Selector) Unique() bool {
	switch s.Class() {
	case ClassFloat, ClassList:
		return false
	default:
		return true
	}
}

// Width returns the in-memory word width in bytes for scalar selectors, or
// 0 for Bin/Str/List (which own a separate buffer/slice).
func (s Selector) Width() int {
	switch s {
	case SelectorBool, SelectorUInt8, SelectorSInt8:
		return 1
	case SelectorUInt16, SelectorSInt16:
		return 2
	case SelectorUInt32, SelectorSInt32, SelectorFloat32:
		return 4
	case SelectorUInt64, SelectorSInt64, SelectorFloat64:
		return 8
	default:
		return 0
	}
}

func (s Selector) String() string {
	names := [...]string{
		"bool", "uint8", "uint16", "uint32", "uint64",
		"sint8", "sint16", "sint32", "sint64",
		"float32", "float64", "binary", "string", "list",
	}
	if int(s) >= len(names) {
		return "unknown"
	}
	return names[s]
}

// SelectorFromUint64 validates a persisted selector value. C8 persistence
// objects encode selectors as u64; this is the "max-selector sanity check"
// spec §4.6 names.
func SelectorFromUint64(v uint64) (Selector, error) {
	if v > uint64(selectorMax) {
		return 0, fmt.Errorf("value: selector %d exceeds maximum known selector %d", v, selectorMax)
	}
	return Selector(v), nil
}

// FullTag is the (class, selector, unique) discriminant triple carried by a
// Datacell and by every Field leaf layer.
type FullTag struct {
	Selector Selector
}

func (t FullTag) Class() Class  { return t.Selector.Class() }
func (t FullTag) Unique() bool  { return t.Selector.Unique() }
func (t FullTag) String() string {
	return t.Selector.String()
}

// TagOf is a convenience constructor.
func TagOf(s Selector) FullTag { return FullTag{Selector: s} }
