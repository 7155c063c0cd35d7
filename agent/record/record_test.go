package record

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
)

func setupTestStore(t *testing.T) (*BunStore, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db := bun.NewDB(mockDB, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewBunStore(db)
	require.NoError(t, err)
	store.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return store, mock
}

func TestBunStore_CreateSchema(t *testing.T) {
	store, mock := setupTestStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "dialogue_turns"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.CreateSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBunStore_Record(t *testing.T) {
	store, mock := setupTestStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "dialogue_turns"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := &TurnRecord{SessionID: "s-1", Turn: 1, SysResponse: "hello"}
	require.NoError(t, store.Record(context.Background(), rec))

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), rec.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBunStore_RecordValidation(t *testing.T) {
	store, _ := setupTestStore(t)

	assert.Error(t, store.Record(context.Background(), nil))
	assert.Error(t, store.Record(context.Background(), &TurnRecord{}))
}

func TestBunStore_ListSession(t *testing.T) {
	store, mock := setupTestStore(t)

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "session_id", "turn", "user_response", "sys_response", "user_action", "sys_action", "session_over", "reward", "created_at"}).
		AddRow("a", "s-1", int64(1), "hi", "hello", `[["greet","general","none","none"]]`, "null", false, -1.0, created).
		AddRow("b", "s-1", int64(2), "bye", "goodbye", "null", "null", true, 39.0, created)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "dialogue_turns" AS "dt" WHERE (session_id = 's-1')`)).
		WillReturnRows(rows)

	got, err := store.ListSession(context.Background(), "s-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[1].Turn)
	assert.True(t, got[1].SessionOver)

	act, err := DecodeAct(got[0].UserAction)
	require.NoError(t, err)
	assert.True(t, actx.Equal(act, actx.Structured{actx.T("greet", "general", "none", "none")}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEncodeAct(t *testing.T) {
	raw, err := EncodeAct(actx.Utterance("hi"))
	require.NoError(t, err)
	assert.Equal(t, `"hi"`, raw)

	back, err := DecodeAct(raw)
	require.NoError(t, err)
	assert.Equal(t, actx.Utterance("hi"), back)

	empty, err := DecodeAct("")
	require.NoError(t, err)
	assert.Nil(t, empty)
}
