package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nsdberrors "github.com/nsdb/nsdb/internal/errors"
	"github.com/nsdb/nsdb/internal/gns"
	"github.com/nsdb/nsdb/internal/ql"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	gnsData := gns.New()
	store, err := OpenStore(t.TempDir(), gnsData)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewSession(gnsData, store)
}

func mustExec(t *testing.T, s *Session, q string) result {
	t.Helper()
	stmt, err := ql.Parse([]byte(q), ql.InPlaceQueryData{})
	require.NoError(t, err)
	res, err := s.execute(stmt)
	require.NoError(t, err)
	return res
}

func execErr(t *testing.T, s *Session, q string) error {
	t.Helper()
	stmt, err := ql.Parse([]byte(q), ql.InPlaceQueryData{})
	require.NoError(t, err)
	_, err = s.execute(stmt)
	return err
}

func TestCreateSpaceUseCreateModelInsertSelect(t *testing.T) {
	s := newTestSession(t)

	mustExec(t, s, "create space apps")
	mustExec(t, s, "use apps")
	mustExec(t, s, "create model social(id: uint64 key, name: string)")
	mustExec(t, s, "insert into social(1, 'alice')")

	res := mustExec(t, s, "select * from social where id = 1")
	assert.Equal(t, respRow, res.kind)
}

func TestDuplicateInsertIsRejectedAndFirstValueSurvives(t *testing.T) {
	s := newTestSession(t)
	mustExec(t, s, "create space apps")
	mustExec(t, s, "use apps")
	mustExec(t, s, "create model social(id: uint64 key, name: string)")
	mustExec(t, s, "insert into social(1, 'alice')")

	err := execErr(t, s, "insert into social(1, 'bob')")
	require.Error(t, err)
	assert.Equal(t, nsdberrors.QExecDmlDuplicate, nsdberrors.CodeOf(err))

	res := mustExec(t, s, "select * from social where id = 1")
	assert.Contains(t, string(res.data), "alice")
	assert.NotContains(t, string(res.data), "bob")
}

func TestUpdateThenSelectReflectsNewValue(t *testing.T) {
	s := newTestSession(t)
	mustExec(t, s, "create space apps")
	mustExec(t, s, "use apps")
	mustExec(t, s, "create model counters(id: uint64 key, n: uint64)")
	mustExec(t, s, "insert into counters(1, 10)")
	mustExec(t, s, "update counters set n += 5 where id = 1")

	res := mustExec(t, s, "select n from counters where id = 1")
	assert.Equal(t, respRow, res.kind)
	assert.Contains(t, string(res.data), "15\n")
}

func TestDeleteThenSelectIsRowNotFound(t *testing.T) {
	s := newTestSession(t)
	mustExec(t, s, "create space apps")
	mustExec(t, s, "use apps")
	mustExec(t, s, "create model social(id: uint64 key, name: string)")
	mustExec(t, s, "insert into social(1, 'alice')")
	mustExec(t, s, "delete from social where id = 1")

	err := execErr(t, s, "select * from social where id = 1")
	assert.Equal(t, nsdberrors.QExecDmlRowNotFound, nsdberrors.CodeOf(err))

	err = execErr(t, s, "delete from social where id = 1")
	assert.Equal(t, nsdberrors.QExecDmlRowNotFound, nsdberrors.CodeOf(err))
}

func TestSelectWhereOnNonPKColumnIsRejected(t *testing.T) {
	s := newTestSession(t)
	mustExec(t, s, "create space apps")
	mustExec(t, s, "use apps")
	mustExec(t, s, "create model social(id: uint64 key, name: string)")
	mustExec(t, s, "insert into social(1, 'alice')")

	err := execErr(t, s, "select * from social where name = 'alice'")
	assert.Equal(t, nsdberrors.QExecDmlWhereHasUnindexedColumn, nsdberrors.CodeOf(err))
}

func TestSelectAllRespectsLimit(t *testing.T) {
	s := newTestSession(t)
	mustExec(t, s, "create space apps")
	mustExec(t, s, "use apps")
	mustExec(t, s, "create model social(id: uint64 key, name: string)")
	mustExec(t, s, "insert into social(1, 'alice')")
	mustExec(t, s, "insert into social(2, 'bob')")
	mustExec(t, s, "insert into social(3, 'carl')")

	res := mustExec(t, s, "select all from social limit 2")
	assert.Equal(t, respMultiRow, res.kind)
	assert.Equal(t, uint64(2), res.size)
}

func TestDropNonEmptyModelRequiresForce(t *testing.T) {
	s := newTestSession(t)
	mustExec(t, s, "create space apps")
	mustExec(t, s, "use apps")
	mustExec(t, s, "create model social(id: uint64 key, name: string)")
	mustExec(t, s, "insert into social(1, 'alice')")

	err := execErr(t, s, "drop model social")
	assert.Equal(t, nsdberrors.QExecDdlNotEmpty, nsdberrors.CodeOf(err))

	mustExec(t, s, "drop model social force")
}

func TestRestoreFromJournalsReconstructsRows(t *testing.T) {
	dir := t.TempDir()
	gnsData := gns.New()
	store, err := OpenStore(dir, gnsData)
	require.NoError(t, err)
	s := NewSession(gnsData, store)

	mustExec(t, s, "create space apps")
	mustExec(t, s, "use apps")
	mustExec(t, s, "create model social(id: uint64 key, name: string)")
	mustExec(t, s, "insert into social(1, 'alice')")
	require.NoError(t, store.Close())

	gnsData2 := gns.New()
	store2, err := OpenStore(dir, gnsData2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store2.Close() })
	s2 := NewSession(gnsData2, store2)
	mustExec(t, s2, "use apps")

	res := mustExec(t, s2, "select * from social where id = 1")
	assert.Equal(t, respRow, res.kind)
}
