package ql

import (
	"github.com/nsdb/nsdb/internal/model"
	"github.com/nsdb/nsdb/internal/value"
)

// EntityKind distinguishes the three ways a statement can name a model
// (spec §4.4): relative to the session's current space, a partial
// reference into it, or fully qualified.
type EntityKind int

const (
	// EntityCurrent names a model in the session's currently-selected
	// space ("users").
	EntityCurrent EntityKind = iota
	// EntityPartial is the same, written with the explicit partial-entity
	// sigil (":users").
	EntityPartial
	// EntityFull is fully qualified ("myspace.users").
	EntityFull
)

// Entity is a resolved-at-parse-time reference to a model; the executor
// still has to look it up against the session's current space when Kind is
// EntityCurrent or EntityPartial.
type Entity struct {
	Kind  EntityKind
	Space string // set only for EntityFull
	Name  string
}

// AssignOp is the operator in an UPDATE assignment.
type AssignOp int

const (
	OpAssign AssignOp = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
)

// Assignment is one `col OP value` clause of an UPDATE statement.
type Assignment struct {
	Column string
	Op     AssignOp
	Value  value.Datacell
}

// WhereClause is the single PK-equality predicate DML statements carry
// (spec §4.5: non-PK where is rejected by the executor, not the parser,
// since legality depends on which column is the model's primary key).
type WhereClause struct {
	Column string
	Value  value.Datacell
	Set    bool
}

// InsertData is either a positional tuple or a named map of column values.
type InsertData struct {
	Positional []value.Datacell
	Named      map[string]value.Datacell
}

// FieldDef names one field in a DDL field list (CreateModel/AlterModel).
type FieldDef struct {
	Name  string
	Field model.Field
}

// Statement is implemented by every parsed DDL/DML statement.
type Statement interface {
	isStatement()
}

type CreateSpaceStatement struct {
	Name  string
	Props map[string]value.Datacell
}

type UseStatement struct {
	Name string
}

type AlterSpaceStatement struct {
	Name  string
	Props map[string]value.Datacell
}

type CreateModelStatement struct {
	Entity   Entity
	PKColumn string
	PKTag    value.FullTag
	Fields   []FieldDef
}

// AlterKind is the three shapes an ALTER MODEL statement can take.
type AlterKind int

const (
	AlterAdd AlterKind = iota
	AlterRemove
	AlterUpdate
)

type AlterModelStatement struct {
	Entity Entity
	Kind   AlterKind
	Add    []FieldDef
	Remove []string
	Update []FieldDef
}

type DropModelStatement struct {
	Entity Entity
	Force  bool
}

type DropSpaceStatement struct {
	Name  string
	Force bool
}

type InspectSpaceStatement struct {
	Name string
}

type InspectModelStatement struct {
	Entity Entity
}

type InspectSpacesStatement struct{}

type InsertStatement struct {
	Entity Entity
	Data   InsertData
}

type UpdateStatement struct {
	Entity      Entity
	Assignments []Assignment
	Where       WhereClause
}

type SelectStatement struct {
	Entity   Entity
	Fields   []string
	Wildcard bool
	Where    WhereClause
}

type SelectAllStatement struct {
	Entity Entity
	Limit  uint64
}

type DeleteStatement struct {
	Entity Entity
	Where  WhereClause
}

func (*CreateSpaceStatement) isStatement()   {}
func (*UseStatement) isStatement()           {}
func (*AlterSpaceStatement) isStatement()    {}
func (*CreateModelStatement) isStatement()   {}
func (*AlterModelStatement) isStatement()    {}
func (*DropModelStatement) isStatement()     {}
func (*DropSpaceStatement) isStatement()     {}
func (*InspectSpaceStatement) isStatement()  {}
func (*InspectModelStatement) isStatement()  {}
func (*InspectSpacesStatement) isStatement() {}
func (*InsertStatement) isStatement()        {}
func (*UpdateStatement) isStatement()        {}
func (*SelectStatement) isStatement()        {}
func (*SelectAllStatement) isStatement()     {}
func (*DeleteStatement) isStatement()        {}
