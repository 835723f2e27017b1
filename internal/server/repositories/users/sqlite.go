package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/idkeeper/internal/common"
	"github.com/dmitrijs2005/idkeeper/internal/dbx"
	"github.com/dmitrijs2005/idkeeper/internal/server/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteRepository stores timestamps as unix milliseconds.
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	now := toMillis(r.now())

	query :=
		`INSERT INTO users (name, email, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, now, now).Scan(&user.ID)

	if err != nil {
		return nil, r.mapError(err)
	}

	user.CreatedAt = fromMillis(now)
	user.UpdatedAt = user.CreatedAt
	return user, nil
}

func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, name, email, password_hash, created_at, updated_at FROM users
		 WHERE email = ?
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query :=
		`SELECT id, name, email, password_hash, created_at, updated_at FROM users
		 WHERE id = ?
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.User, error) {
	query :=
		`SELECT id, name, email, password_hash, created_at, updated_at FROM users
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	result := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, dbError(err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}

	return result, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	now := toMillis(r.now())

	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, password_hash = ?, updated_at = ? WHERE id = ?`,
		user.Name, user.Email, user.PasswordHash, now, user.ID)
	if err != nil {
		return nil, r.mapError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, dbError(err)
	}
	if n == 0 {
		return nil, common.ErrorNotFound
	}

	user.UpdatedAt = fromMillis(now)
	return user, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return dbError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return dbError(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	var created, updated int64
	u := &models.User{}
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &created, &updated); err != nil {
		return nil, err
	}
	u.CreatedAt = fromMillis(created)
	u.UpdatedAt = fromMillis(updated)
	return u, nil
}

func (r *SQLiteRepository) scanOne(row *sql.Row) (*models.User, error) {
	u, err := scanUser(row)
	if err != nil {
		return nil, r.mapError(err)
	}
	return u, nil
}

func (r *SQLiteRepository) mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return common.ErrDuplicateIdentifier
		}
	}

	return dbError(err)
}
