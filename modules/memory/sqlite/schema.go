package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// metaSessionKey is the meta table row holding the session counter. It
// survives ClearAll so session numbering is monotonic for the lifetime of
// the database file.
const metaSessionKey = "session"

// schemaStatements are executed in order to create the database schema.
// All use IF NOT EXISTS for idempotent re-application.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS facts (
		id               TEXT    PRIMARY KEY,
		content          TEXT    NOT NULL,
		category         TEXT    NOT NULL,
		importance       INTEGER NOT NULL,
		source           TEXT    NOT NULL,
		created_at       TEXT    NOT NULL,
		last_accessed_at TEXT    NOT NULL,
		access_count     INTEGER NOT NULL DEFAULT 0,
		session_id       INTEGER NOT NULL DEFAULT 1
	)`,

	`CREATE INDEX IF NOT EXISTS idx_facts_category ON facts(category)`,

	`CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

// migrate creates or updates the database schema to the latest version.
// All DDL uses IF NOT EXISTS, making migration idempotent.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("sqlite: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w\nstatement: %s", err, stmt)
		}
	}

	// Seed the session counter on first migration.
	if _, err := db.ExecContext(ctx,
		"INSERT OR IGNORE INTO meta (key, value) VALUES (?, '1')", metaSessionKey,
	); err != nil {
		return fmt.Errorf("sqlite: seed session counter: %w", err)
	}

	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("sqlite: record schema version: %w", err)
	}

	return nil
}
