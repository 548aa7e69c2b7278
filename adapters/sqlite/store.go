// Package sqlite persists datasets and analysis runs in a local SQLite
// database.
package sqlite

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width UTC so that created_at columns sort
// lexicographically. The driver binds time.Time values in Go's default
// String format, which does not round-trip, so timestamps are stored as
// text explicitly.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS datasets (
	id           TEXT PRIMARY KEY,
	filename     TEXT NOT NULL,
	row_count    INTEGER NOT NULL,
	column_count INTEGER NOT NULL,
	payload      BLOB NOT NULL,
	created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY,
	dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	kind       TEXT NOT NULL,
	domain     TEXT NOT NULL,
	result     BLOB NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_dataset ON analyses(dataset_id);
`

// Open connects to the SQLite database at path, creating the schema if
// needed. Use ":memory:" for an ephemeral store.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", path, err)
	}

	// modernc.org/sqlite serializes access itself; a single connection
	// avoids SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	log.Printf("[SQLite] store ready at %s", path)
	return db, nil
}
