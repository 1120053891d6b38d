package gns

import "fmt"

// restoreError is the family of typed errors returned while replaying the
// DDL journal against an in-memory GNSData: these distinguish "the journal
// and the in-memory state disagree" failures from ordinary validation
// errors raised when an event is first applied live.
type restoreError struct {
	kind string
	msg  string
}

func (e *restoreError) Error() string { return e.msg }

// OnRestoreDataConflictAlreadyExists is returned when a Create event's
// target (space or model name) already exists in the namespace being
// restored into.
func OnRestoreDataConflictAlreadyExists(what, name string) error {
	return &restoreError{kind: "already_exists", msg: fmt.Sprintf("gns: restore conflict: %s %q already exists", what, name)}
}

// OnRestoreDataMissing is returned when a non-Create event (Alter/Drop)
// names a space or model the in-memory namespace doesn't have.
func OnRestoreDataMissing(what, name string) error {
	return &restoreError{kind: "missing", msg: fmt.Sprintf("gns: restore conflict: %s %q is missing", what, name)}
}

// OnRestoreDataConflictMismatch is returned when an event's recorded
// preconditions (e.g. an AlterModel referencing a field that should exist
// at that point in the log) don't hold against the replayed state.
func OnRestoreDataConflictMismatch(detail string) error {
	return &restoreError{kind: "mismatch", msg: fmt.Sprintf("gns: restore conflict: %s", detail)}
}

// IsAlreadyExists reports whether err is an already-exists restore conflict.
func IsAlreadyExists(err error) bool {
	re, ok := err.(*restoreError)
	return ok && re.kind == "already_exists"
}

// IsMissing reports whether err is a missing-target restore conflict.
func IsMissing(err error) bool {
	re, ok := err.(*restoreError)
	return ok && re.kind == "missing"
}

// IsMismatch reports whether err is a precondition-mismatch restore conflict.
func IsMismatch(err error) bool {
	re, ok := err.(*restoreError)
	return ok && re.kind == "mismatch"
}
