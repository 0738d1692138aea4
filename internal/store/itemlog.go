package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ItemLogEntry is one row of the routed-item audit trail: a single action
// outcome for a single item.
type ItemLogEntry struct {
	ID         int64
	ItemGUID   string
	Provider   string
	Scheme     string
	Rule       string
	Kind       string
	Desk       string
	Stage      string
	ArchivedID string
	Error      string
	CreatedAt  time.Time
}

// AppendItemLog records a batch of action outcomes in one transaction.
func (s *Store) AppendItemLog(ctx context.Context, entries []ItemLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin item log tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO routed_item_log(item_guid, provider, scheme, rule, kind, desk, stage, archived_id, error, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`)
	if err != nil {
		return fmt.Errorf("prepare item log insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		created := e.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		var archived, errMsg any
		if e.ArchivedID != "" {
			archived = e.ArchivedID
		}
		if e.Error != "" {
			errMsg = e.Error
		}
		if _, err := stmt.ExecContext(ctx, e.ItemGUID, e.Provider, e.Scheme, e.Rule,
			e.Kind, e.Desk, e.Stage, archived, errMsg,
			created.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert item log row: %w", err)
		}
	}
	return tx.Commit()
}

// RecentItemLog returns the newest entries, newest first, capped at limit.
func (s *Store) RecentItemLog(ctx context.Context, limit int) ([]ItemLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, item_guid, provider, scheme, rule, kind, desk, stage, archived_id, error, created_at
FROM routed_item_log ORDER BY id DESC LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query item log: %w", err)
	}
	defer rows.Close()
	return scanItemLog(rows)
}

// ItemHistory returns every logged outcome for one item GUID, oldest first.
func (s *Store) ItemHistory(ctx context.Context, guid string) ([]ItemLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, item_guid, provider, scheme, rule, kind, desk, stage, archived_id, error, created_at
FROM routed_item_log WHERE item_guid = ? ORDER BY id;
`, guid)
	if err != nil {
		return nil, fmt.Errorf("query item history: %w", err)
	}
	defer rows.Close()
	return scanItemLog(rows)
}

func scanItemLog(rows *sql.Rows) ([]ItemLogEntry, error) {
	var out []ItemLogEntry
	for rows.Next() {
		var e ItemLogEntry
		var archived, errMsg sql.NullString
		var created string
		if err := rows.Scan(&e.ID, &e.ItemGUID, &e.Provider, &e.Scheme, &e.Rule,
			&e.Kind, &e.Desk, &e.Stage, &archived, &errMsg, &created); err != nil {
			return nil, fmt.Errorf("scan item log row: %w", err)
		}
		e.ArchivedID = archived.String
		e.Error = errMsg.String
		t, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parse item log timestamp: %w", err)
		}
		e.CreatedAt = t
		out = append(out, e)
	}
	return out, rows.Err()
}
