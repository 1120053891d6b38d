package errors

import "fmt"

// QueryError is returned to the client as a one-byte code (spec §7): parse
// errors, DDL errors, DML errors, and the system-category errors that can
// arise mid-query. It never terminates the connection — the propagation
// policy hands it back to the current query only.
type QueryError struct {
	Code Code
	Msg  string
}

func New(code Code, format string, args ...any) *QueryError {
	return &QueryError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func (e *QueryError) Error() string {
	if e.Msg == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// CodeOf extracts the wire code for any error this server can produce. It
// recognizes QueryError and RuntimeError directly; anything else (including
// a bare fmt.Errorf from a lower layer that hasn't been translated into a
// QueryError yet) is reported as SysUnknownError so the wire response is
// always well-formed even if a code mapping was missed somewhere.
func CodeOf(err error) Code {
	if err == nil {
		return 0
	}
	switch e := err.(type) {
	case *QueryError:
		return e.Code
	case *RuntimeError:
		return e.Code
	default:
		return SysUnknownError
	}
}
