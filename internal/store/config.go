package store

import (
	"context"
	"time"
)

// GetConfig returns the configuration entry with the given key.
func (q *Queries) GetConfig(ctx context.Context, key string) (Config, error) {
	var c Config
	err := q.db.QueryRowContext(ctx,
		`SELECT id, key, value, created_at, updated_at FROM config WHERE key = ?`, key).
		Scan(&c.ID, &c.Key, &c.Value, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// SetConfigParams holds parameters for SetConfig.
type SetConfigParams struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// SetConfig creates or updates a configuration entry.
func (q *Queries) SetConfig(ctx context.Context, arg SetConfigParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO config (key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		arg.Key, arg.Value, arg.UpdatedAt, arg.UpdatedAt)
	return err
}

// ListConfig returns all configuration entries.
func (q *Queries) ListConfig(ctx context.Context) ([]Config, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, key, value, created_at, updated_at FROM config ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Config
	for rows.Next() {
		var c Config
		if err := rows.Scan(&c.ID, &c.Key, &c.Value, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
