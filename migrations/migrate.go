// Package migrations embeds the schema of the record store server
// (PostgreSQL) and of the client's local database (SQLite) and applies them
// with goose.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql
var postgresMigrations embed.FS

//go:embed sqlite/*.sql
var sqliteMigrations embed.FS

// ErrNilDB is returned when a migration is started without a connection.
var ErrNilDB = errors.New("db is nil")

// goose keeps the base FS and dialect in package globals
var gooseMu sync.Mutex

// MigratePostgres applies the server schema.
func MigratePostgres(db *sql.DB) error {
	return migrate(db, postgresMigrations, "pgx", "postgres")
}

// MigrateSQLite applies the client schema.
func MigrateSQLite(db *sql.DB) error {
	return migrate(db, sqliteMigrations, "sqlite3", "sqlite")
}

func migrate(db *sql.DB, fsys embed.FS, dialect, dir string) error {
	if db == nil {
		return fmt.Errorf("migration error: %w", ErrNilDB)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}
