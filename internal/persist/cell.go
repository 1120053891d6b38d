package persist

import (
	"fmt"

	"github.com/nsdb/nsdb/internal/value"
)

// EncodeCell writes a durable encoding of a Datacell: selector u64, init
// flag, then a class-specific payload. Unlike value.Encode (the wire framing
// used for query responses), this format is meant to be read back bit-for-bit
// identical regardless of platform and is what journal/sys.db payloads use.
func EncodeCell(w *Writer, d value.Datacell) {
	w.Selector(d.Tag().Selector)
	w.Bool(d.IsInit())
	if !d.IsInit() {
		return
	}
	switch d.Tag().Class() {
	case value.ClassBool:
		w.Bool(d.Bool())
	case value.ClassUInt:
		w.U64(d.UInt())
	case value.ClassSInt:
		w.U64(uint64(d.SInt()))
	case value.ClassFloat:
		if d.Tag().Selector == value.SelectorFloat32 {
			w.U32(float32ToBits(float32(d.Float())))
		} else {
			w.U64(float64ToBits(d.Float()))
		}
	case value.ClassBin:
		w.RawBytes(d.Bin())
	case value.ClassStr:
		w.String(d.Str())
	case value.ClassList:
		items := d.List().Snapshot()
		w.U64(uint64(len(items)))
		for _, item := range items {
			EncodeCell(w, item)
		}
	}
}

// DecodeCell reads a cell written by EncodeCell.
func DecodeCell(r *Reader) (value.Datacell, error) {
	sel, err := r.Selector()
	if err != nil {
		return value.Datacell{}, err
	}
	init, err := r.Bool()
	if err != nil {
		return value.Datacell{}, err
	}
	tag := value.TagOf(sel)
	if !init {
		return value.Null(tag), nil
	}
	switch sel.Class() {
	case value.ClassBool:
		v, err := r.Bool()
		if err != nil {
			return value.Datacell{}, err
		}
		return value.NewBool(v), nil
	case value.ClassUInt:
		v, err := r.U64()
		if err != nil {
			return value.Datacell{}, err
		}
		return uintCellForSelector(sel, v), nil
	case value.ClassSInt:
		v, err := r.U64()
		if err != nil {
			return value.Datacell{}, err
		}
		return sintCellForSelector(sel, int64(v)), nil
	case value.ClassFloat:
		if sel == value.SelectorFloat32 {
			v, err := r.U32()
			if err != nil {
				return value.Datacell{}, err
			}
			return value.NewFloat32(bitsToFloat32(v)), nil
		}
		v, err := r.U64()
		if err != nil {
			return value.Datacell{}, err
		}
		return value.NewFloat64(bitsToFloat64(v)), nil
	case value.ClassBin:
		v, err := r.RawBytes()
		if err != nil {
			return value.Datacell{}, err
		}
		return value.NewBin(v), nil
	case value.ClassStr:
		v, err := r.String()
		if err != nil {
			return value.Datacell{}, err
		}
		return value.NewStr(v), nil
	case value.ClassList:
		n, err := r.U64()
		if err != nil {
			return value.Datacell{}, err
		}
		items := make([]value.Datacell, 0, n)
		for i := uint64(0); i < n; i++ {
			item, err := DecodeCell(r)
			if err != nil {
				return value.Datacell{}, err
			}
			items = append(items, item)
		}
		return value.NewList(items), nil
	default:
		return value.Datacell{}, fmt.Errorf("persist: unsupported selector class %s", sel.Class())
	}
}

func uintCellForSelector(sel value.Selector, v uint64) value.Datacell {
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

func sintCellForSelector(sel value.Selector, v int64) value.Datacell {
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
