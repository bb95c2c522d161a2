package store

import (
	"context"
	"database/sql"
	"time"
)

const locationColumns = `id, name, is_published, created_at, updated_at`

func scanLocation(row *sql.Row) (Location, error) {
	var l Location
	err := row.Scan(&l.ID, &l.Name, &l.IsPublished, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

// CreateLocationParams holds parameters for CreateLocation.
type CreateLocationParams struct {
	Name        string
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateLocation inserts a new location and returns the created row.
func (q *Queries) CreateLocation(ctx context.Context, arg CreateLocationParams) (Location, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO locations (name, is_published, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		RETURNING `+locationColumns,
		arg.Name, arg.IsPublished, arg.CreatedAt, arg.UpdatedAt)
	return scanLocation(row)
}

// GetLocationByID returns the location with the given ID.
func (q *Queries) GetLocationByID(ctx context.Context, id int64) (Location, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = ?`, id)
	return scanLocation(row)
}

// UpdateLocationParams holds parameters for UpdateLocation.
type UpdateLocationParams struct {
	ID          int64
	Name        string
	IsPublished bool
	UpdatedAt   time.Time
}

// UpdateLocation updates an existing location and returns the updated row.
func (q *Queries) UpdateLocation(ctx context.Context, arg UpdateLocationParams) (Location, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE locations
		SET name = ?, is_published = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+locationColumns,
		arg.Name, arg.IsPublished, arg.UpdatedAt, arg.ID)
	return scanLocation(row)
}

// DeleteLocation removes a location. Posts referencing it keep a NULL
// location via the foreign key action.
func (q *Queries) DeleteLocation(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, id)
	return err
}

func (q *Queries) listLocations(ctx context.Context, query string, args ...any) ([]Location, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Name, &l.IsPublished, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// ListLocations returns all locations ordered by name.
func (q *Queries) ListLocations(ctx context.Context) ([]Location, error) {
	return q.listLocations(ctx, `SELECT `+locationColumns+` FROM locations ORDER BY name`)
}

// ListPublishedLocations returns published locations ordered by name.
func (q *Queries) ListPublishedLocations(ctx context.Context) ([]Location, error) {
	return q.listLocations(ctx, `SELECT `+locationColumns+` FROM locations WHERE is_published = 1 ORDER BY name`)
}
