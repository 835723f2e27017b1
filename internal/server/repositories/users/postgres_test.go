package users

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/idkeeper/internal/common"
	"github.com/dmitrijs2005/idkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	qInsert     = `(?s)^INSERT\s+INTO\s+users\s*\(name,\s*email,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,\s*created_at,\s*updated_at\s*$`
	qByEmail    = `(?s)^SELECT\s+id,\s*name,\s*email,\s*password_hash,\s*created_at,\s*updated_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s*$`
	qByID       = `(?s)^SELECT\s+id,\s*name,\s*email,\s*password_hash,\s*created_at,\s*updated_at\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	qList       = `(?s)^SELECT\s+id,\s*name,\s*email,\s*password_hash,\s*created_at,\s*updated_at\s+FROM\s+users\s+ORDER\s+BY\s+id\s*$`
	qUpdate     = `(?s)^UPDATE\s+users\s+SET\s+name\s*=\s*\$1,\s*email\s*=\s*\$2,\s*password_hash\s*=\s*\$3,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$4\s+RETURNING\s+updated_at\s*$`
	qDelete     = `(?s)^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`
	userColumns = "id,name,email,password_hash,created_at,updated_at"
)

var ts = time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows(strings.Split(userColumns, ","))
}

func TestPostgresCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qInsert).
		WithArgs("Ann", "ann@x.io", "digest").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(42), ts, ts))

	got, err := repo.Create(context.Background(), &models.User{Name: "Ann", Email: "ann@x.io", PasswordHash: "digest"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, ts, got.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreate_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qInsert).
		WithArgs("Ann", "ann@x.io", "digest").
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &models.User{Name: "Ann", Email: "ann@x.io", PasswordHash: "digest"})
	assert.ErrorIs(t, err, common.ErrDuplicateIdentifier)
}

func TestPostgresCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qInsert).
		WithArgs("Ann", "ann@x.io", "digest").
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Name: "Ann", Email: "ann@x.io", PasswordHash: "digest"})
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, common.ErrDuplicateIdentifier)
}

func TestPostgresGetByEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qByEmail).
		WithArgs("ann@x.io").
		WillReturnRows(userRows().AddRow(int64(1), "Ann", "ann@x.io", "digest", ts, ts))

	got, err := repo.GetByEmail(context.Background(), "ann@x.io")
	require.NoError(t, err)
	assert.Equal(t, &models.User{ID: 1, Name: "Ann", Email: "ann@x.io", PasswordHash: "digest", CreatedAt: ts, UpdatedAt: ts}, got)

	mock.ExpectQuery(qByEmail).
		WithArgs("ghost@x.io").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByEmail(context.Background(), "ghost@x.io")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgresGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qByID).
		WithArgs(int64(9)).
		WillReturnRows(userRows().AddRow(int64(9), "Bo", "bo@x.io", "d", ts, ts))

	got, err := repo.GetByID(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "bo@x.io", got.Email)

	mock.ExpectQuery(qByID).WithArgs(int64(10)).WillReturnError(errors.New("db err"))
	_, err = repo.GetByID(context.Background(), 10)
	assert.Regexp(t, `db error: .*db err`, err.Error())
}

func TestPostgresList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qList).
		WillReturnRows(userRows().
			AddRow(int64(1), "Ann", "ann@x.io", "d1", ts, ts).
			AddRow(int64(2), "Bo", "bo@x.io", "d2", ts, ts))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[1].ID)

	mock.ExpectQuery(qList).WillReturnRows(userRows())
	got, err = repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	mock.ExpectQuery(qList).
		WillReturnRows(userRows().AddRow(int64(1), "Ann", "ann@x.io", "d1", ts, ts).RowError(0, errors.New("row err")))
	_, err = repo.List(context.Background())
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestPostgresUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	later := ts.Add(time.Minute)
	mock.ExpectQuery(qUpdate).
		WithArgs("Ann B", "ann@x.io", "d", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(later))

	got, err := repo.Update(context.Background(), &models.User{ID: 1, Name: "Ann B", Email: "ann@x.io", PasswordHash: "d"})
	require.NoError(t, err)
	assert.Equal(t, later, got.UpdatedAt)

	mock.ExpectQuery(qUpdate).
		WithArgs("X", "taken@x.io", "d", int64(1)).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})
	_, err = repo.Update(context.Background(), &models.User{ID: 1, Name: "X", Email: "taken@x.io", PasswordHash: "d"})
	assert.ErrorIs(t, err, common.ErrDuplicateIdentifier)

	mock.ExpectQuery(qUpdate).
		WithArgs("X", "x@x.io", "d", int64(404)).
		WillReturnError(sql.ErrNoRows)
	_, err = repo.Update(context.Background(), &models.User{ID: 404, Name: "X", Email: "x@x.io", PasswordHash: "d"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgresDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(qDelete).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Delete(context.Background(), 1))

	mock.ExpectExec(qDelete).WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), 2), common.ErrorNotFound)

	mock.ExpectExec(qDelete).WithArgs(int64(3)).WillReturnError(errors.New("db err"))
	assert.ErrorIs(t, repo.Delete(context.Background(), 3), common.ErrStoreUnavailable)

	assert.NoError(t, mock.ExpectationsWereMet())
}
