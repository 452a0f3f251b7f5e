package store

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version == schemaVersion {
		return nil
	}
	if version > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, schemaVersion)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS bibliographies (
			cache_key TEXT PRIMARY KEY,
			file TEXT NOT NULL,
			markdown TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bibliographies_created
			ON bibliographies(created_at)`,
		fmt.Sprintf("PRAGMA user_version = %d", schemaVersion),
	}
	for _, q := range queries {
		if _, err := tx.Exec(q); err != nil {
			return fmt.Errorf("executing %q: %w", q, err)
		}
	}
	return tx.Commit()
}
