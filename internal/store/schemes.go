package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rjardine/newsroute/internal/model"
)

// ErrNotFound is returned when a scheme or provider does not exist.
var ErrNotFound = errors.New("not found")

// SaveScheme inserts or replaces a scheme. Placeholder rules are compacted
// and the scheme validated before anything touches the database; a scheme
// without an ID is assigned one.
func (s *Store) SaveScheme(ctx context.Context, scheme *model.RoutingScheme) error {
	scheme.Compact()
	if err := scheme.Validate(); err != nil {
		return err
	}
	if scheme.ID == "" {
		scheme.ID = uuid.NewString()
	}

	rules, err := json.Marshal(scheme.Rules)
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err = s.db.ExecContext(ctx, `
INSERT INTO routing_schemes(id, name, rules, updated_at)
VALUES(?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, rules = excluded.rules, updated_at = excluded.updated_at;
`, scheme.ID, scheme.Name, string(rules), now)
	if err != nil {
		return fmt.Errorf("save scheme %q: %w", scheme.Name, err)
	}
	return nil
}

// GetScheme loads one scheme by ID.
func (s *Store) GetScheme(ctx context.Context, id string) (*model.RoutingScheme, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, rules FROM routing_schemes WHERE id = ?;`, id)
	return scanScheme(row)
}

// GetSchemeByName loads one scheme by its unique name.
func (s *Store) GetSchemeByName(ctx context.Context, name string) (*model.RoutingScheme, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, rules FROM routing_schemes WHERE name = ?;`, name)
	return scanScheme(row)
}

// ListSchemes returns all schemes ordered by name.
func (s *Store) ListSchemes(ctx context.Context) ([]*model.RoutingScheme, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, rules FROM routing_schemes ORDER BY name;`)
	if err != nil {
		return nil, fmt.Errorf("list schemes: %w", err)
	}
	defer rows.Close()

	var out []*model.RoutingScheme
	for rows.Next() {
		scheme, err := scanScheme(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, scheme)
	}
	return out, rows.Err()
}

// DeleteScheme removes a scheme by ID.
func (s *Store) DeleteScheme(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM routing_schemes WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete scheme: %w", err)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScheme(row rowScanner) (*model.RoutingScheme, error) {
	var scheme model.RoutingScheme
	var rules string
	if err := row.Scan(&scheme.ID, &scheme.Name, &rules); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan scheme: %w", err)
	}
	if err := json.Unmarshal([]byte(rules), &scheme.Rules); err != nil {
		return nil, fmt.Errorf("unmarshal rules for scheme %q: %w", scheme.Name, err)
	}
	return &scheme, nil
}
