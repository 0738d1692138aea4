package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rjardine/newsroute/internal/model"
)

// UpsertProvider inserts or replaces a provider record. A provider without an
// ID is assigned one.
func (s *Store) UpsertProvider(ctx context.Context, p *model.IngestProvider) error {
	if p.Name == "" {
		return fmt.Errorf("provider name is empty")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	var last any
	if p.LastItemUpdate != nil {
		last = p.LastItemUpdate.UTC().Format(time.RFC3339Nano)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(ctx, `
INSERT INTO ingest_providers(id, name, scheme_id, is_closed, allow_remove, idle_hours, idle_minutes, last_item_update, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name = excluded.name,
  scheme_id = excluded.scheme_id,
  is_closed = excluded.is_closed,
  allow_remove = excluded.allow_remove,
  idle_hours = excluded.idle_hours,
  idle_minutes = excluded.idle_minutes,
  last_item_update = excluded.last_item_update,
  updated_at = excluded.updated_at;
`, p.ID, p.Name, p.SchemeID, boolInt(p.IsClosed), boolInt(p.AllowRemoveIngested),
		p.IdleTime.Hours, p.IdleTime.Minutes, last, now)
	if err != nil {
		return fmt.Errorf("upsert provider %q: %w", p.Name, err)
	}
	return nil
}

// GetProvider loads one provider by ID.
func (s *Store) GetProvider(ctx context.Context, id string) (*model.IngestProvider, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, scheme_id, is_closed, allow_remove, idle_hours, idle_minutes, last_item_update
FROM ingest_providers WHERE id = ?;`, id)
	return scanProvider(row)
}

// ListProviders returns all providers ordered by name.
func (s *Store) ListProviders(ctx context.Context) ([]*model.IngestProvider, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, scheme_id, is_closed, allow_remove, idle_hours, idle_minutes, last_item_update
FROM ingest_providers ORDER BY name;`)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	defer rows.Close()

	var out []*model.IngestProvider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// TouchProvider records the arrival of a new item from the provider.
func (s *Store) TouchProvider(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE ingest_providers SET last_item_update = ?, updated_at = ? WHERE id = ?;
`, at.UTC().Format(time.RFC3339Nano), time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("touch provider: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProvider removes a provider by ID.
func (s *Store) DeleteProvider(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ingest_providers WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete provider: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProvider(row rowScanner) (*model.IngestProvider, error) {
	var p model.IngestProvider
	var schemeID, last sql.NullString
	var closed, allowRemove int
	if err := row.Scan(&p.ID, &p.Name, &schemeID, &closed, &allowRemove,
		&p.IdleTime.Hours, &p.IdleTime.Minutes, &last); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan provider: %w", err)
	}
	p.SchemeID = schemeID.String
	p.IsClosed = closed != 0
	p.AllowRemoveIngested = allowRemove != 0
	if last.Valid {
		t, err := time.Parse(time.RFC3339Nano, last.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_item_update for provider %q: %w", p.Name, err)
		}
		p.LastItemUpdate = &t
	}
	return &p, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
