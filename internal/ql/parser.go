package ql

import (
	"strings"

	nsdberrors "github.com/nsdb/nsdb/internal/errors"
	"github.com/nsdb/nsdb/internal/model"
	"github.com/nsdb/nsdb/internal/value"
)

// Parser is a state-machine recursive descent parser over a token stream.
// Once poisoned (any parse step fails) it never recovers mid-statement;
// the whole parse aborts and returns the typed QueryError that poisoned
// it, per spec §4.4's "abort-on-first-bad-token" recovery policy.
type Parser struct {
	lex      *Lexer
	data     QueryData
	cur      Token
	poisoned bool
	poisonBy error
}

// Parse tokenizes and parses a full statement out of buf. data selects
// in-place vs parameterized literal reading.
func Parse(buf []byte, data QueryData) (Statement, error) {
	p := &Parser{lex: NewLexer(buf), data: data}
	if err := p.advance(); err != nil {
		return nil, err
	}
	stmt := p.parseStatement()
	if p.poisoned {
		return nil, p.poisonBy
	}
	if p.cur.Kind != TokEOF {
		return nil, nsdberrors.New(nsdberrors.QLInvalidSyntax, "unexpected trailing input near %q", p.cur.Text)
	}
	return stmt, nil
}

func (p *Parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		p.poison(err)
		return err
	}
	p.cur = tok
	return nil
}

func (p *Parser) poison(err error) {
	if !p.poisoned {
		p.poisoned = true
		p.poisonBy = err
	}
}

func (p *Parser) fail(code nsdberrors.Code, format string, args ...any) {
	p.poison(nsdberrors.New(code, format, args...))
}

func (p *Parser) isIdent(text string) bool {
	return p.cur.Kind == TokIdent && strings.EqualFold(p.cur.Text, text)
}

func (p *Parser) isPunct(text string) bool {
	return p.cur.Kind == TokPunct && p.cur.Text == text
}

func (p *Parser) isOperator(text string) bool {
	return p.cur.Kind == TokOperator && p.cur.Text == text
}

// expectIdent consumes the current token as an arbitrary identifier (a
// name), failing if it isn't one.
func (p *Parser) expectIdent() string {
	if p.poisoned {
		return ""
	}
	if p.cur.Kind != TokIdent {
		p.fail(nsdberrors.QLInvalidSyntax, "expected an identifier, got %q", p.cur.Text)
		return ""
	}
	name := p.cur.Text
	p.advanceOrPoison()
	return name
}

// expectKeyword consumes the current token iff it case-insensitively
// matches kw.
func (p *Parser) expectKeyword(kw string) {
	if p.poisoned {
		return
	}
	if !p.isIdent(kw) {
		p.fail(nsdberrors.QLInvalidSyntax, "expected keyword %q, got %q", kw, p.cur.Text)
		return
	}
	p.advanceOrPoison()
}

func (p *Parser) expectPunct(text string) {
	if p.poisoned {
		return
	}
	if !p.isPunct(text) {
		p.fail(nsdberrors.QLInvalidSyntax, "expected %q, got %q", text, p.cur.Text)
		return
	}
	p.advanceOrPoison()
}

func (p *Parser) advanceOrPoison() {
	if err := p.advance(); err != nil {
		p.poison(err)
	}
}

func (p *Parser) atEOF() bool {
	return p.cur.Kind == TokEOF
}

// parseEntity implements parse_entity: Current(name), Partial(:name), or
// Full(space.name) selected by lookahead.
func (p *Parser) parseEntity() Entity {
	if p.poisoned {
		return Entity{}
	}
	if p.isPunct(":") {
		p.advanceOrPoison()
		name := p.expectIdent()
		return Entity{Kind: EntityPartial, Name: name}
	}
	first := p.expectIdent()
	if p.isPunct(".") {
		p.advanceOrPoison()
		name := p.expectIdent()
		return Entity{Kind: EntityFull, Space: first, Name: name}
	}
	return Entity{Kind: EntityCurrent, Name: first}
}

// parseStatement dispatches on the leading keyword.
func (p *Parser) parseStatement() Statement {
	if p.poisoned {
		return nil
	}
	if p.atEOF() {
		p.fail(nsdberrors.QLUnexpectedEndOfStatement, "empty statement")
		return nil
	}
	switch {
	case p.isIdent("create"):
		return p.parseCreate()
	case p.isIdent("use"):
		p.advanceOrPoison()
		name := p.expectIdent()
		return &UseStatement{Name: name}
	case p.isIdent("alter"):
		return p.parseAlter()
	case p.isIdent("drop"):
		return p.parseDrop()
	case p.isIdent("inspect"):
		return p.parseInspect()
	case p.isIdent("insert"):
		return p.parseInsert()
	case p.isIdent("update"):
		return p.parseUpdate()
	case p.isIdent("select"):
		return p.parseSelect()
	case p.isIdent("delete"):
		return p.parseDelete()
	default:
		p.fail(nsdberrors.QLInvalidSyntax, "unrecognized statement keyword %q", p.cur.Text)
		return nil
	}
}

// --- CREATE ---------------------------------------------------------------

func (p *Parser) parseCreate() Statement {
	p.advanceOrPoison()
	switch {
	case p.isIdent("space"):
		p.advanceOrPoison()
		name := p.expectIdent()
		props := map[string]value.Datacell{}
		if p.isIdent("with") {
			p.advanceOrPoison()
			props = p.parsePropDict()
		}
		return &CreateSpaceStatement{Name: name, Props: props}
	case p.isIdent("model"):
		p.advanceOrPoison()
		entity := p.parseEntity()
		p.expectPunct("(")
		var fields []FieldDef
		var pkColumn string
		var pkTag value.FullTag
		for !p.poisoned && !p.isPunct(")") {
			name := p.expectIdent()
			p.expectPunct(":")
			field := p.parseTypeDef()
			isKey := false
			if p.isIdent("key") {
				p.advanceOrPoison()
				isKey = true
			} else if p.isIdent("nullable") {
				p.advanceOrPoison()
				field.Nullable = true
			}
			if isKey {
				pkColumn = name
				pkTag = field.LeafTag()
			} else {
				fields = append(fields, FieldDef{Name: name, Field: field})
			}
			if p.isPunct(",") {
				p.advanceOrPoison()
			} else {
				break
			}
		}
		p.expectPunct(")")
		if !p.poisoned && pkColumn == "" {
			p.fail(nsdberrors.QExecDdlModelBadDefinition, "model definition has no primary key column")
		}
		return &CreateModelStatement{Entity: entity, PKColumn: pkColumn, PKTag: pkTag, Fields: fields}
	default:
		p.fail(nsdberrors.QLInvalidSyntax, "expected SPACE or MODEL after CREATE, got %q", p.cur.Text)
		return nil
	}
}

// parseTypeDef reads a (possibly nested-list) type definition into a
// model.Field with a single leaf layer appended per recursion level.
func (p *Parser) parseTypeDef() model.Field {
	if p.poisoned {
		return model.Field{}
	}
	if p.isIdent("list") {
		p.advanceOrPoison()
		p.expectPunct("{")
		p.expectKeyword("type")
		p.expectPunct(":")
		inner := p.parseTypeDef()
		p.expectPunct("}")
		return model.Field{Layers: append([]model.Layer{model.ListLayer()}, inner.Layers...)}
	}
	name := p.expectIdent()
	sel, ok := selectorByName(name)
	if !ok {
		p.fail(nsdberrors.QExecDdlInvalidTypeDefinition, "unknown type %q", name)
		return model.Field{}
	}
	return model.NewScalarField(value.TagOf(sel), false)
}

func selectorByName(name string) (value.Selector, bool) {
	switch strings.ToLower(name) {
	case "bool":
		return value.SelectorBool, true
	case "uint8":
		return value.SelectorUInt8, true
	case "uint16":
		return value.SelectorUInt16, true
	case "uint32":
		return value.SelectorUInt32, true
	case "uint64":
		return value.SelectorUInt64, true
	case "sint8", "int8":
		return value.SelectorSInt8, true
	case "sint16", "int16":
		return value.SelectorSInt16, true
	case "sint32", "int32":
		return value.SelectorSInt32, true
	case "sint64", "int64":
		return value.SelectorSInt64, true
	case "float32":
		return value.SelectorFloat32, true
	case "float64":
		return value.SelectorFloat64, true
	case "binary":
		return value.SelectorBin, true
	case "string":
		return value.SelectorStr, true
	default:
		return 0, false
	}
}

// parsePropDict reads a `{ key: value, ... }` property dictionary, used by
// CREATE/ALTER SPACE. Values are read with no target tag in hand, so their
// Datacell tag is inferred from the literal's lexical shape.
func (p *Parser) parsePropDict() map[string]value.Datacell {
	props := map[string]value.Datacell{}
	if p.poisoned {
		return props
	}
	p.expectPunct("{")
	for !p.poisoned && !p.isPunct("}") {
		name := p.expectIdent()
		p.expectPunct(":")
		d := p.parseLiteralInferred()
		props[name] = d
		if p.isPunct(",") {
			p.advanceOrPoison()
		} else {
			break
		}
	}
	p.expectPunct("}")
	return props
}

func (p *Parser) parseLiteralInferred() value.Datacell {
	if p.poisoned {
		return value.Datacell{}
	}
	tok := p.cur
	d, err := inferLiteral(tok)
	if err != nil {
		p.poison(err)
		return value.Datacell{}
	}
	p.advanceOrPoison()
	return d
}

// --- ALTER ------------------------------------------------------------------

func (p *Parser) parseAlter() Statement {
	p.advanceOrPoison()
	switch {
	case p.isIdent("space"):
		p.advanceOrPoison()
		name := p.expectIdent()
		p.expectKeyword("with")
		props := p.parsePropDict()
		return &AlterSpaceStatement{Name: name, Props: props}
	case p.isIdent("model"):
		p.advanceOrPoison()
		entity := p.parseEntity()
		switch {
		case p.isIdent("add"):
			p.advanceOrPoison()
			fields := p.parseFieldDefList()
			return &AlterModelStatement{Entity: entity, Kind: AlterAdd, Add: fields}
		case p.isIdent("remove"):
			p.advanceOrPoison()
			names := p.parseNameList()
			return &AlterModelStatement{Entity: entity, Kind: AlterRemove, Remove: names}
		case p.isIdent("update"):
			p.advanceOrPoison()
			fields := p.parseFieldDefList()
			return &AlterModelStatement{Entity: entity, Kind: AlterUpdate, Update: fields}
		default:
			p.fail(nsdberrors.QLInvalidSyntax, "expected ADD, REMOVE or UPDATE, got %q", p.cur.Text)
			return nil
		}
	default:
		p.fail(nsdberrors.QLInvalidSyntax, "expected SPACE or MODEL after ALTER, got %q", p.cur.Text)
		return nil
	}
}

func (p *Parser) parseFieldDefList() []FieldDef {
	var out []FieldDef
	if p.poisoned {
		return out
	}
	p.expectPunct("(")
	for !p.poisoned && !p.isPunct(")") {
		name := p.expectIdent()
		p.expectPunct(":")
		field := p.parseTypeDef()
		if p.isIdent("nullable") {
			p.advanceOrPoison()
			field.Nullable = true
		}
		out = append(out, FieldDef{Name: name, Field: field})
		if p.isPunct(",") {
			p.advanceOrPoison()
		} else {
			break
		}
	}
	p.expectPunct(")")
	return out
}

func (p *Parser) parseNameList() []string {
	var out []string
	if p.poisoned {
		return out
	}
	p.expectPunct("(")
	for !p.poisoned && !p.isPunct(")") {
		out = append(out, p.expectIdent())
		if p.isPunct(",") {
			p.advanceOrPoison()
		} else {
			break
		}
	}
	p.expectPunct(")")
	return out
}

// --- DROP / INSPECT ---------------------------------------------------------

func (p *Parser) parseDrop() Statement {
	p.advanceOrPoison()
	switch {
	case p.isIdent("model"):
		p.advanceOrPoison()
		entity := p.parseEntity()
		force := false
		if p.isIdent("force") {
			p.advanceOrPoison()
			force = true
		}
		return &DropModelStatement{Entity: entity, Force: force}
	case p.isIdent("space"):
		p.advanceOrPoison()
		name := p.expectIdent()
		force := false
		if p.isIdent("force") {
			p.advanceOrPoison()
			force = true
		}
		return &DropSpaceStatement{Name: name, Force: force}
	default:
		p.fail(nsdberrors.QLInvalidSyntax, "expected MODEL or SPACE after DROP, got %q", p.cur.Text)
		return nil
	}
}

func (p *Parser) parseInspect() Statement {
	p.advanceOrPoison()
	switch {
	case p.isIdent("spaces"):
		p.advanceOrPoison()
		return &InspectSpacesStatement{}
	case p.isIdent("space"):
		p.advanceOrPoison()
		name := p.expectIdent()
		return &InspectSpaceStatement{Name: name}
	case p.isIdent("model"):
		p.advanceOrPoison()
		entity := p.parseEntity()
		return &InspectModelStatement{Entity: entity}
	default:
		p.fail(nsdberrors.QLInvalidSyntax, "expected SPACE, SPACES or MODEL after INSPECT, got %q", p.cur.Text)
		return nil
	}
}

// --- DML --------------------------------------------------------------------

func (p *Parser) parseInsert() Statement {
	p.advanceOrPoison()
	p.expectKeyword("into")
	entity := p.parseEntity()
	var data InsertData
	switch {
	case p.isPunct("("):
		p.advanceOrPoison()
		for !p.poisoned && !p.isPunct(")") {
			data.Positional = append(data.Positional, p.parseValueExpr())
			if p.isPunct(",") {
				p.advanceOrPoison()
			} else {
				break
			}
		}
		p.expectPunct(")")
	case p.isPunct("{"):
		p.advanceOrPoison()
		data.Named = map[string]value.Datacell{}
		for !p.poisoned && !p.isPunct("}") {
			name := p.expectIdent()
			p.expectPunct(":")
			data.Named[name] = p.parseValueExpr()
			if p.isPunct(",") {
				p.advanceOrPoison()
			} else {
				break
			}
		}
		p.expectPunct("}")
	default:
		p.fail(nsdberrors.QLInvalidSyntax, "expected ( or { after INSERT INTO entity, got %q", p.cur.Text)
	}
	return &InsertStatement{Entity: entity, Data: data}
}

// parseValueExpr reads one insert value: a literal, a nested list, or (in
// parameterized mode) a `?` placeholder.
func (p *Parser) parseValueExpr() value.Datacell {
	if p.poisoned {
		return value.Datacell{}
	}
	if p.isPunct("(") {
		p.advanceOrPoison()
		var items []value.Datacell
		for !p.poisoned && !p.isPunct(")") {
			items = append(items, p.parseValueExpr())
			if p.isPunct(",") {
				p.advanceOrPoison()
			} else {
				break
			}
		}
		p.expectPunct(")")
		return value.NewList(items)
	}
	if p.data.CanReadLitFrom(p.cur) && p.cur.Kind == TokPunct {
		// parameter placeholder: the target tag is validated by the
		// executor against the field it's assigned to, so a zero tag is
		// passed through here and resolved by ParameterizedQueryData.
		d, err := p.data.ReadLit(p.cur, value.FullTag{})
		if err != nil {
			p.poison(err)
			return value.Datacell{}
		}
		p.advanceOrPoison()
		return d
	}
	return p.parseLiteralInferred()
}

func (p *Parser) parseUpdate() Statement {
	p.advanceOrPoison()
	entity := p.parseEntity()
	p.expectKeyword("set")
	var assigns []Assignment
	for {
		col := p.expectIdent()
		op := p.parseAssignOp()
		val := p.parseValueExpr()
		assigns = append(assigns, Assignment{Column: col, Op: op, Value: val})
		if p.isPunct(",") {
			p.advanceOrPoison()
		} else {
			break
		}
	}
	where := p.parseWhere(true)
	return &UpdateStatement{Entity: entity, Assignments: assigns, Where: where}
}

func (p *Parser) parseAssignOp() AssignOp {
	if p.poisoned {
		return OpAssign
	}
	switch {
	case p.isOperator("="):
		p.advanceOrPoison()
		return OpAssign
	case p.isOperator("+"):
		p.advanceOrPoison()
		p.expectOperatorEquals()
		return OpAdd
	case p.isOperator("-"):
		p.advanceOrPoison()
		p.expectOperatorEquals()
		return OpSub
	case p.isOperator("*"):
		p.advanceOrPoison()
		p.expectOperatorEquals()
		return OpMul
	case p.isOperator("/"):
		p.advanceOrPoison()
		p.expectOperatorEquals()
		return OpDiv
	default:
		p.fail(nsdberrors.QLInvalidSyntax, "expected an assignment operator, got %q", p.cur.Text)
		return OpAssign
	}
}

func (p *Parser) expectOperatorEquals() {
	if p.poisoned {
		return
	}
	if !p.isOperator("=") {
		p.fail(nsdberrors.QLInvalidSyntax, "expected '=' to complete a compound assignment operator, got %q", p.cur.Text)
		return
	}
	p.advanceOrPoison()
}

// parseWhere reads `WHERE col = value`. required forces the clause to be
// present (DML statements other than SELECT ALL always require it).
func (p *Parser) parseWhere(required bool) WhereClause {
	if p.poisoned {
		return WhereClause{}
	}
	if !p.isIdent("where") {
		if required {
			p.fail(nsdberrors.QLUnexpectedEndOfStatement, "expected a WHERE clause")
		}
		return WhereClause{}
	}
	p.advanceOrPoison()
	col := p.expectIdent()
	p.expectOperatorEquals()
	val := p.parseValueExpr()
	return WhereClause{Column: col, Value: val, Set: true}
}

func (p *Parser) parseSelect() Statement {
	p.advanceOrPoison()
	if p.isIdent("all") {
		p.advanceOrPoison()
		p.expectKeyword("from")
		entity := p.parseEntity()
		var limit uint64
		if p.isIdent("limit") {
			p.advanceOrPoison()
			if p.cur.Kind != TokInt {
				p.fail(nsdberrors.QLInvalidSyntax, "expected an integer after LIMIT, got %q", p.cur.Text)
			} else {
				limit = parseUintToken(p.cur.Text)
				p.advanceOrPoison()
			}
		}
		return &SelectAllStatement{Entity: entity, Limit: limit}
	}

	wildcard := false
	var fields []string
	if p.isPunct("*") {
		wildcard = true
		p.advanceOrPoison()
	} else {
		for {
			fields = append(fields, p.expectIdent())
			if p.isPunct(",") {
				p.advanceOrPoison()
			} else {
				break
			}
		}
	}
	p.expectKeyword("from")
	entity := p.parseEntity()
	where := p.parseWhere(false)
	return &SelectStatement{Entity: entity, Fields: fields, Wildcard: wildcard, Where: where}
}

func (p *Parser) parseDelete() Statement {
	p.advanceOrPoison()
	p.expectKeyword("from")
	entity := p.parseEntity()
	where := p.parseWhere(true)
	return &DeleteStatement{Entity: entity, Where: where}
}

func parseUintToken(s string) uint64 {
	var v uint64
	for i := 0; i < len(s); i++ {
		v = v*10 + uint64(s[i]-'0')
	}
	return v
}
