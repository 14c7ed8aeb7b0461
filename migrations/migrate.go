// Package migrations manages the vault database schema.
// It uses the goose migration library with embedded SQL files, ensuring that
// all migration files are compiled into the binary and applied automatically
// at create and unlock time without requiring external file access.
//
// The embedded migration set is the single source of truth for DDL: vault
// creation and unlock both run the same files, and every statement is
// additive (CREATE TABLE IF NOT EXISTS / ADD COLUMN), so reapplication on an
// existing database is safe.
//
// A dedicated schema_meta table gates versioning: when the database reports
// a schema version newer than this binary supports, migration refuses to
// proceed instead of silently continuing.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/hengadev/errsx"
	"github.com/pressly/goose/v3"

	"github.com/clinvault/clinvault/internal/logger"
)

// SchemaVersion is the newest schema this binary understands. Bump together
// with each new migration file.
const SchemaVersion = 3

// embedMigrations holds all *.sql migration files embedded into the binary
// at compile time via the go:embed directive.
//
//go:embed *.sql
var embedMigrations embed.FS

// Migrate applies all pending migrations and stamps schema_meta.
//
// It is intended to be called at vault create and at every unlock, before
// the database is used by any other component. A database whose recorded
// schema version is newer than [SchemaVersion] is refused.
func Migrate(db *sql.DB, log *logger.Logger) error {
	if db == nil {
		return fmt.Errorf("migration error: db is nil")
	}
	if log == nil {
		log = logger.Nop()
	}

	if err := checkSchemaVersion(db); err != nil {
		return err
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("migration error setting dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	if _, err := db.Exec(
		`INSERT INTO schema_meta (id, version) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version = excluded.version`,
		SchemaVersion,
	); err != nil {
		return fmt.Errorf("migration error stamping schema version: %w", err)
	}

	log.Info().Int("schema_version", SchemaVersion).Msg("database migrations complete")
	return nil
}

// checkSchemaVersion refuses databases written by a newer binary. A missing
// schema_meta table means a fresh or pre-versioning database and is fine.
func checkSchemaVersion(db *sql.DB) error {
	var exists int
	err := db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_meta'`,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("migration error reading catalog: %w", err)
	}
	if exists == 0 {
		return nil
	}

	var errs errsx.Map
	var version int
	if err := db.QueryRow(`SELECT version FROM schema_meta WHERE id = 1`).Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		errs.Set("read schema version", err)
	}
	if version > SchemaVersion {
		errs.Set("schema version gate", fmt.Errorf("database schema v%d is newer than supported v%d", version, SchemaVersion))
	}
	return errs.AsError()
}
