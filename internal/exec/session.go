package exec

import (
	"bufio"
	"bytes"
	"io"
	"sync"

	nsdberrors "github.com/nsdb/nsdb/internal/errors"
	"github.com/nsdb/nsdb/internal/gns"
	"github.com/nsdb/nsdb/internal/netsvc"
	"github.com/nsdb/nsdb/internal/ql"
	"github.com/nsdb/nsdb/internal/value"
)

// Session is a connection-private netsvc.QueryRunner: it tracks which space
// an unqualified (Current/Partial) entity reference resolves against, and
// dispatches every parsed statement against the shared namespace and store.
// One Session is constructed per accepted connection (see NewFactory), so
// currentSpace needs no cross-connection synchronization beyond its own
// mutex against concurrent queries on the same connection (which can't
// happen — spec §5 serializes a connection's requests — but costs nothing
// to guard).
type Session struct {
	gnsData *gns.GNSData
	store   *Store

	mu           sync.Mutex
	currentSpace string
}

// NewSession constructs a session against the shared namespace and store.
func NewSession(gnsData *gns.GNSData, store *Store) *Session {
	return &Session{gnsData: gnsData, store: store}
}

// NewFactory builds the netsvc.QueryRunnerFactory cmd/nsdbd wires into
// netsvc.Listen: one fresh Session per accepted connection.
func NewFactory(gnsData *gns.GNSData, store *Store) netsvc.QueryRunnerFactory {
	return func() netsvc.QueryRunner {
		return NewSession(gnsData, store)
	}
}

func (s *Session) getCurrentSpace() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentSpace
}

func (s *Session) setCurrentSpace(name string) {
	s.mu.Lock()
	s.currentSpace = name
	s.mu.Unlock()
}

// Run implements netsvc.QueryRunner: parse the scanned query, execute it,
// and frame the outcome onto w.
func (s *Session) Run(w io.Writer, q netsvc.Query) error {
	data, err := s.queryData(q)
	if err != nil {
		return writeError(w, nsdberrors.CodeOf(err))
	}

	stmt, err := ql.Parse([]byte(q.Text), data)
	if err != nil {
		return writeError(w, nsdberrors.CodeOf(err))
	}

	res, err := s.execute(stmt)
	if err != nil {
		return writeError(w, nsdberrors.CodeOf(err))
	}
	return writeResult(w, res)
}

// queryData builds the literal-reading mode for this query: in-place when
// no trailing parameter payload was sent, parameter-bound otherwise.
func (s *Session) queryData(q netsvc.Query) (ql.QueryData, error) {
	if len(q.Params) == 0 {
		return ql.InPlaceQueryData{}, nil
	}
	params, err := decodeParams(q.Params)
	if err != nil {
		return nil, err
	}
	return &ql.ParameterizedQueryData{Params: params}, nil
}

func decodeParams(buf []byte) ([]value.Datacell, error) {
	r := bufio.NewReader(bytes.NewReader(buf))
	var out []value.Datacell
	for {
		if _, err := r.Peek(1); err == io.EOF {
			return out, nil
		}
		d, err := value.Decode(r)
		if err != nil {
			return nil, nsdberrors.New(nsdberrors.ProtocolParseError, "malformed parameter buffer: %v", err)
		}
		out = append(out, d)
	}
}

// execute dispatches a parsed statement to its DDL or DML handler.
func (s *Session) execute(stmt ql.Statement) (result, error) {
	switch st := stmt.(type) {
	case *ql.UseStatement:
		return s.execUse(st)
	case *ql.CreateSpaceStatement:
		return s.execCreateSpace(st)
	case *ql.AlterSpaceStatement:
		return s.execAlterSpace(st)
	case *ql.DropSpaceStatement:
		return s.execDropSpace(st)
	case *ql.CreateModelStatement:
		return s.execCreateModel(st)
	case *ql.AlterModelStatement:
		return s.execAlterModel(st)
	case *ql.DropModelStatement:
		return s.execDropModel(st)
	case *ql.InspectSpacesStatement:
		return s.execInspectSpaces(st)
	case *ql.InspectSpaceStatement:
		return s.execInspectSpace(st)
	case *ql.InspectModelStatement:
		return s.execInspectModel(st)
	case *ql.InsertStatement:
		return s.execInsert(st)
	case *ql.UpdateStatement:
		return s.execUpdate(st)
	case *ql.SelectStatement:
		return s.execSelect(st)
	case *ql.SelectAllStatement:
		return s.execSelectAll(st)
	case *ql.DeleteStatement:
		return s.execDelete(st)
	default:
		return result{}, nsdberrors.New(nsdberrors.SysServerError, "unhandled statement type %T", stmt)
	}
}
