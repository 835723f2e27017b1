// Package repomanager vends repository implementations for the configured
// storage driver and applies the embedded goose migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"

	"github.com/dmitrijs2005/idkeeper/internal/dbx"
	"github.com/dmitrijs2005/idkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/idkeeper/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}

// gooseUp is a seam for testing the goose provider.
var gooseUp = func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
	p, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}

func runMigrations(ctx context.Context, db *sql.DB, dialect goose.Dialect, dir string) error {
	sub, err := fs.Sub(migrations.Migrations, dir)
	if err != nil {
		return err
	}
	if err := gooseUp(ctx, dialect, db, sub); err != nil {
		return fmt.Errorf("migrate %s: %w", dir, err)
	}
	return nil
}

// Open opens a connection pool for driver and returns the matching manager.
// It pings the database before returning.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, RepositoryManager, error) {
	var (
		db  *sql.DB
		rm  RepositoryManager
		err error
	)

	switch driver {
	case DriverPostgres:
		db, err = sql.Open("pgx", dsn)
		rm = NewPostgresRepositoryManager()
	case DriverSQLite:
		db, err = sql.Open("sqlite", sqliteDSN(dsn))
		rm = NewSQLiteRepositoryManager()
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return db, rm, nil
}

// sqliteDSN adds a busy timeout unless the caller already set pragmas.
// Every pooled connection opens the same file, so dsn must not be :memory:.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)"
}
