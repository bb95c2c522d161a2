package store

import (
	"context"
	"database/sql"
	"time"
)

const categoryColumns = `id, title, slug, description, is_published, created_at, updated_at`

func scanCategory(row *sql.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Title, &c.Slug, &c.Description, &c.IsPublished, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// CreateCategoryParams holds parameters for CreateCategory.
type CreateCategoryParams struct {
	Title       string
	Slug        string
	Description string
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateCategory inserts a new category and returns the created row.
func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO categories (title, slug, description, is_published, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+categoryColumns,
		arg.Title, arg.Slug, arg.Description, arg.IsPublished, arg.CreatedAt, arg.UpdatedAt)
	return scanCategory(row)
}

// GetCategoryByID returns the category with the given ID.
func (q *Queries) GetCategoryByID(ctx context.Context, id int64) (Category, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	return scanCategory(row)
}

// GetCategoryBySlug returns the category with the given slug.
func (q *Queries) GetCategoryBySlug(ctx context.Context, slug string) (Category, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug = ?`, slug)
	return scanCategory(row)
}

// CategorySlugExists reports whether a category slug is already taken.
func (q *Queries) CategorySlugExists(ctx context.Context, slug string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE slug = ?`, slug).Scan(&count)
	return count, err
}

// CategorySlugExistsExcludingParams holds parameters for CategorySlugExistsExcluding.
type CategorySlugExistsExcludingParams struct {
	Slug string
	ID   int64
}

// CategorySlugExistsExcluding reports whether a slug is used by another category.
func (q *Queries) CategorySlugExistsExcluding(ctx context.Context, arg CategorySlugExistsExcludingParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE slug = ? AND id != ?`,
		arg.Slug, arg.ID).Scan(&count)
	return count, err
}

// UpdateCategoryParams holds parameters for UpdateCategory.
type UpdateCategoryParams struct {
	ID          int64
	Title       string
	Slug        string
	Description string
	IsPublished bool
	UpdatedAt   time.Time
}

// UpdateCategory updates an existing category and returns the updated row.
func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE categories
		SET title = ?, slug = ?, description = ?, is_published = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+categoryColumns,
		arg.Title, arg.Slug, arg.Description, arg.IsPublished, arg.UpdatedAt, arg.ID)
	return scanCategory(row)
}

// DeleteCategory removes a category. Fails while posts still reference it.
func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return err
}

func (q *Queries) listCategories(ctx context.Context, query string, args ...any) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Title, &c.Slug, &c.Description, &c.IsPublished, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ListCategories returns all categories ordered by title.
func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	return q.listCategories(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY title`)
}

// ListPublishedCategories returns published categories ordered by title.
func (q *Queries) ListPublishedCategories(ctx context.Context) ([]Category, error) {
	return q.listCategories(ctx, `SELECT `+categoryColumns+` FROM categories WHERE is_published = 1 ORDER BY title`)
}

// CountPostsInCategory returns the number of posts referencing a category.
func (q *Queries) CountPostsInCategory(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE category_id = ?`, id).Scan(&count)
	return count, err
}
