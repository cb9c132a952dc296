package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreMock(t *testing.T) (*Postgres, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	p := NewPostgres(sqlx.NewDb(db, "sqlmock"), PostgresOptions{NotifyChannel: "docstore_changes"})
	return p, mock, func() { db.Close() }
}

func documentColumns() []string {
	return []string{"id", "data", "created_at", "updated_at"}
}

func TestPostgresGet(t *testing.T) {
	p, mock, cleanup := newStoreMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, data, created_at, updated_at FROM documents WHERE collection = $1 AND id = $2")).
		WithArgs("teachers", "t-1").
		WillReturnRows(sqlmock.NewRows(documentColumns()).AddRow("t-1", []byte(`{"name":"Pak Budi"}`), now, now))

	doc, err := p.Get(context.Background(), "teachers", "t-1")
	require.NoError(t, err)
	assert.Equal(t, "Pak Budi", doc.String("name"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetNotFound(t *testing.T) {
	p, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, data, created_at, updated_at FROM documents").
		WithArgs("teachers", "missing").
		WillReturnRows(sqlmock.NewRows(documentColumns()))

	_, err := p.Get(context.Background(), "teachers", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresQueryBuildsFiltersAndOrder(t *testing.T) {
	p, mock, cleanup := newStoreMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, data, created_at, updated_at FROM documents WHERE collection = $1 AND data->>'className' = $2 ORDER BY data->>'date' DESC LIMIT 30")).
		WithArgs("attendance", "5A").
		WillReturnRows(sqlmock.NewRows(documentColumns()).AddRow("a-1", []byte(`{"className":"5A"}`), now, now))

	docs, err := p.Query(context.Background(), "attendance", Query{
		Filters: []Filter{{Field: "className", Value: "5A"}},
		OrderBy: "date",
		Desc:    true,
		Limit:   30,
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a-1", docs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSetNotifiesInTransaction(t *testing.T) {
	p, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO documents").
		WithArgs("announcements", "n-1", sqlmock.AnyArg(), false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_notify($1, $2)")).
		WithArgs("docstore_changes", "announcements").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := p.Set(context.Background(), "announcements", "n-1", map[string]interface{}{"title": "Exam week"}, false)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateMissingRowRollsBack(t *testing.T) {
	p, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE documents SET data = data").
		WithArgs("posts", "p-404", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := p.Update(context.Background(), "posts", "p-404", map[string]interface{}{"title": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresApplyLocksRowAndUpserts(t *testing.T) {
	p, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE")).
		WithArgs("posts", "p-1").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(`{"likes":{"u-1":true}}`)))
	mock.ExpectExec("INSERT INTO documents").
		WithArgs("posts", "p-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_notify($1, $2)")).
		WithArgs("docstore_changes", "posts").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	var seen map[string]interface{}
	err := p.Apply(context.Background(), "posts", "p-1", func(data map[string]interface{}) (map[string]interface{}, error) {
		seen = data
		return data, nil
	})
	require.NoError(t, err)
	likes := seen["likes"].(map[string]interface{})
	assert.Contains(t, likes, "u-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeliverPushesSnapshotToWatchers(t *testing.T) {
	p, mock, cleanup := newStoreMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("SELECT id, data, created_at, updated_at FROM documents WHERE collection").
		WithArgs("posts").
		WillReturnRows(sqlmock.NewRows(documentColumns()).AddRow("p-1", []byte(`{"title":"Art class"}`), now, now))

	p.mu.Lock()
	p.watchers["posts"] = map[int]Observer{}
	var got Snapshot
	p.watchers["posts"][1] = func(s Snapshot) { got = s }
	p.mu.Unlock()

	p.deliver("posts")

	require.Len(t, got.Documents, 1)
	assert.Equal(t, "Art class", got.Documents[0].String("title"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
