// Package store persists routing schemes, ingest providers, and the routed
// item audit log in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Open opens (and creates if needed) the SQLite database at path and ensures
// required tables exist.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign_keys: %w", err)
	}
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}

	if err := bootstrap(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Store wraps the database handle. All methods are safe for concurrent use.
type Store struct {
	db *sql.DB
}

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB { return s.db }

func bootstrap(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS routing_schemes (
  id         TEXT PRIMARY KEY,
  name       TEXT NOT NULL UNIQUE,
  rules      JSON NOT NULL DEFAULT '[]',
  updated_at TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS ingest_providers (
  id               TEXT PRIMARY KEY,
  name             TEXT NOT NULL UNIQUE,
  scheme_id        TEXT,
  is_closed        INTEGER NOT NULL DEFAULT 0,
  allow_remove     INTEGER NOT NULL DEFAULT 0,
  idle_hours       INTEGER NOT NULL DEFAULT 0,
  idle_minutes     INTEGER NOT NULL DEFAULT 0,
  last_item_update TEXT,
  updated_at       TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS routed_item_log (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  item_guid   TEXT NOT NULL,
  provider    TEXT NOT NULL,
  scheme      TEXT NOT NULL,
  rule        TEXT NOT NULL,
  kind        TEXT NOT NULL,
  desk        TEXT NOT NULL,
  stage       TEXT NOT NULL,
  archived_id TEXT,
  error       TEXT,
  created_at  TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS routed_item_log_guid_idx ON routed_item_log(item_guid);`,
		`CREATE INDEX IF NOT EXISTS routed_item_log_created_at_idx ON routed_item_log(created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap sqlite: %w", err)
		}
	}
	return nil
}
