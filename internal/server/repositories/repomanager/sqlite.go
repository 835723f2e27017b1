package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/idkeeper/internal/dbx"
	"github.com/dmitrijs2005/idkeeper/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager vends SQLite-backed repositories. It serves
// single-node deployments and the end-to-end tests.
type SQLiteRepositoryManager struct{}

func NewSQLiteRepositoryManager() *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{}
}

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return runMigrations(ctx, db, goose.DialectSQLite3, "sqlite")
}
