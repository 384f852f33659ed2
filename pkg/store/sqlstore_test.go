package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	Name string `json:"name"`
}

func newMockSQLStore(t *testing.T) (*SQL[widget], sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS widgets")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	s, err := NewSQLiteStore[widget](db, "widgets")
	require.NoError(t, err)
	return s, mock, db
}

func TestSQLStore_PutThenGet(t *testing.T) {
	s, mock, db := newMockSQLStore(t)
	defer db.Close()
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO widgets")).
		WithArgs("w1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, s.Put(ctx, "w1", &widget{Name: "cog"}))

	rows := sqlmock.NewRows([]string{"payload"}).AddRow(`{"name":"cog"}`)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM widgets WHERE id = ?")).
		WithArgs("w1").
		WillReturnRows(rows)

	got, err := s.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "cog", got.Name)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_GetMissing(t *testing.T) {
	s, mock, db := newMockSQLStore(t)
	defer db.Close()
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM widgets WHERE id = ?")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Get(ctx, "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}
