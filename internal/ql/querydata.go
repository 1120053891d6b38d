package ql

import (
	"strconv"

	nsdberrors "github.com/nsdb/nsdb/internal/errors"
	"github.com/nsdb/nsdb/internal/value"
)

// QueryData abstracts "in-place literal" vs "parameter-bound literal": the
// parser asks it to materialize a Datacell for a literal-position token
// under a target tag, and the mode decides whether that means reading the
// token's own text or popping the next out-of-band parameter instead.
type QueryData interface {
	// CanReadLitFrom reports whether tok may serve as a literal source in
	// the current mode (e.g. parameter mode only accepts a `?` placeholder
	// token, never a literal written in the query text).
	CanReadLitFrom(tok Token) bool
	// ReadLit materializes the literal at tok under the given tag.
	ReadLit(tok Token, tag value.FullTag) (value.Datacell, error)
}

// InPlaceQueryData reads literals directly out of the query text — the
// only mode this server's clients use today (spec §4.4's "in-place
// literal" case); ParameterizedQueryData exists so the grammar and
// executor aren't hard-wired to one mode.
type InPlaceQueryData struct{}

func (InPlaceQueryData) CanReadLitFrom(tok Token) bool {
	switch tok.Kind {
	case TokInt, TokFloat, TokString, TokBinary, TokIdent:
		return true
	default:
		return false
	}
}

func (InPlaceQueryData) ReadLit(tok Token, tag value.FullTag) (value.Datacell, error) {
	return literalFromToken(tok, tag)
}

// ParameterizedQueryData reads literals from the QT-DEX frame's trailing
// params buffer in order, one per `?` placeholder encountered.
type ParameterizedQueryData struct {
	Params []value.Datacell
	next   int
}

func (p *ParameterizedQueryData) CanReadLitFrom(tok Token) bool {
	return tok.Kind == TokPunct && tok.Text == "?"
}

func (p *ParameterizedQueryData) ReadLit(tok Token, tag value.FullTag) (value.Datacell, error) {
	if p.next >= len(p.Params) {
		return value.Datacell{}, nsdberrors.New(nsdberrors.QLInvalidSyntax, "no parameter bound for placeholder %d", p.next)
	}
	d := p.Params[p.next]
	p.next++
	if d.Tag() != tag {
		return value.Datacell{}, nsdberrors.New(nsdberrors.QExecDmlValidationError, "parameter %d has tag %s, expected %s", p.next-1, d.Tag(), tag)
	}
	return d, nil
}

// literalFromToken converts a lexed token's text into a Datacell of the
// requested tag. Used by InPlaceQueryData and anywhere the parser infers a
// literal's tag from context (e.g. a bare integer defaults to SInt64, a
// bare string to Str) rather than a pre-declared field tag.
func literalFromToken(tok Token, tag value.FullTag) (value.Datacell, error) {
	switch tag.Class() {
	case value.ClassBool:
		switch tok.Text {
		case "true":
			return value.NewBool(true), nil
		case "false":
			return value.NewBool(false), nil
		default:
			return value.Datacell{}, nsdberrors.New(nsdberrors.QLInvalidSyntax, "expected a boolean literal, got %q", tok.Text)
		}
	case value.ClassUInt:
		if tok.Kind != TokInt {
			return value.Datacell{}, nsdberrors.New(nsdberrors.QLInvalidSyntax, "expected an unsigned integer literal, got %q", tok.Text)
		}
		v, err := strconv.ParseUint(tok.Text, 10, 64)
		if err != nil {
			return value.Datacell{}, nsdberrors.New(nsdberrors.QLInvalidSyntax, "invalid unsigned integer literal %q", tok.Text)
		}
		return castUint(tag.Selector, v), nil
	case value.ClassSInt:
		if tok.Kind != TokInt {
			return value.Datacell{}, nsdberrors.New(nsdberrors.QLInvalidSyntax, "expected a signed integer literal, got %q", tok.Text)
		}
		v, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return value.Datacell{}, nsdberrors.New(nsdberrors.QLInvalidSyntax, "invalid signed integer literal %q", tok.Text)
		}
		return castSint(tag.Selector, v), nil
	case value.ClassFloat:
		if tok.Kind != TokFloat && tok.Kind != TokInt {
			return value.Datacell{}, nsdberrors.New(nsdberrors.QLInvalidSyntax, "expected a float literal, got %q", tok.Text)
		}
		bits := 64
		if tag.Selector == value.SelectorFloat32 {
			bits = 32
		}
		v, err := strconv.ParseFloat(tok.Text, bits)
		if err != nil {
			return value.Datacell{}, nsdberrors.New(nsdberrors.QLInvalidSyntax, "invalid float literal %q", tok.Text)
		}
		if tag.Selector == value.SelectorFloat32 {
			return value.NewFloat32(float32(v)), nil
		}
		return value.NewFloat64(v), nil
	case value.ClassStr:
		if tok.Kind != TokString {
			return value.Datacell{}, nsdberrors.New(nsdberrors.QLInvalidSyntax, "expected a string literal, got %q", tok.Text)
		}
		return value.NewStr(tok.Text), nil
	case value.ClassBin:
		if tok.Kind != TokBinary {
			return value.Datacell{}, nsdberrors.New(nsdberrors.QLInvalidSyntax, "expected a binary literal, got %q", tok.Text)
		}
		return value.NewBin([]byte(tok.Text)), nil
	default:
		return value.Datacell{}, nsdberrors.New(nsdberrors.QLInvalidSyntax, "cannot read a literal for tag %s", tag)
	}
}

func castUint(sel value.Selector, v uint64) value.Datacell {
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

func castSint(sel value.Selector, v int64) value.Datacell {
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

// inferLiteral builds a Datacell straight from a token with no target tag
// in hand (e.g. a raw value inside an InsertData positional tuple, where
// the field's declared tag is checked against the result afterward rather
// than driving the parse). Integers default to SInt64, floats to Float64.
func inferLiteral(tok Token) (value.Datacell, error) {
	switch tok.Kind {
	case TokInt:
		v, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return value.Datacell{}, nsdberrors.New(nsdberrors.QLInvalidSyntax, "invalid integer literal %q", tok.Text)
		}
		return value.NewSInt64(v), nil
	case TokFloat:
		v, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return value.Datacell{}, nsdberrors.New(nsdberrors.QLInvalidSyntax, "invalid float literal %q", tok.Text)
		}
		return value.NewFloat64(v), nil
	case TokString:
		return value.NewStr(tok.Text), nil
	case TokBinary:
		return value.NewBin([]byte(tok.Text)), nil
	case TokIdent:
		switch tok.Text {
		case "true":
			return value.NewBool(true), nil
		case "false":
			return value.NewBool(false), nil
		}
	}
	return value.Datacell{}, nsdberrors.New(nsdberrors.QLInvalidSyntax, "expected a literal, got %q", tok.Text)
}
