package store

import (
	"context"
	"database/sql"
	"time"
)

// postMetaSelect is the shared SELECT for post listings: the post row
// joined with author, category, and location columns plus a comment count.
const postMetaSelect = `
SELECT p.id, p.title, p.body, p.pub_date, p.is_published, p.author_id,
       p.category_id, p.location_id, p.image_path, p.created_at, p.updated_at,
       u.username, u.first_name, u.last_name,
       c.title, c.slug, c.is_published,
       l.name,
       (SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p.id) AS comment_count
FROM posts p
JOIN users u ON u.id = p.author_id
JOIN categories c ON c.id = p.category_id
LEFT JOIN locations l ON l.id = p.location_id`

// postVisibleWhere is the public visibility gate: the post is published,
// its publication date has passed, and its category is published.
const postVisibleWhere = `p.is_published = 1 AND p.pub_date <= ? AND c.is_published = 1`

func scanPostWithMeta(rows interface{ Scan(...any) error }) (PostWithMeta, error) {
	var p PostWithMeta
	err := rows.Scan(&p.ID, &p.Title, &p.Body, &p.PubDate, &p.IsPublished, &p.AuthorID,
		&p.CategoryID, &p.LocationID, &p.ImagePath, &p.CreatedAt, &p.UpdatedAt,
		&p.AuthorUsername, &p.AuthorFirstName, &p.AuthorLastName,
		&p.CategoryTitle, &p.CategorySlug, &p.CategoryIsPublished,
		&p.LocationName, &p.CommentCount)
	return p, err
}

func (q *Queries) listPostsWithMeta(ctx context.Context, query string, args ...any) ([]PostWithMeta, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []PostWithMeta
	for rows.Next() {
		p, err := scanPostWithMeta(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CreatePostParams holds parameters for CreatePost.
type CreatePostParams struct {
	Title       string
	Body        string
	PubDate     time.Time
	IsPublished bool
	AuthorID    int64
	CategoryID  int64
	LocationID  sql.NullInt64
	ImagePath   sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreatePost inserts a new post and returns the created row.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO posts (title, body, pub_date, is_published, author_id, category_id, location_id, image_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, title, body, pub_date, is_published, author_id, category_id, location_id, image_path, created_at, updated_at`,
		arg.Title, arg.Body, arg.PubDate, arg.IsPublished, arg.AuthorID,
		arg.CategoryID, arg.LocationID, arg.ImagePath, arg.CreatedAt, arg.UpdatedAt)
	return scanPost(row)
}

func scanPost(row *sql.Row) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.Title, &p.Body, &p.PubDate, &p.IsPublished, &p.AuthorID,
		&p.CategoryID, &p.LocationID, &p.ImagePath, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// GetPostByID returns the raw post row with the given ID.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (Post, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, title, body, pub_date, is_published, author_id, category_id, location_id, image_path, created_at, updated_at
		FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

// GetPostWithMeta returns a post joined with author, category, location,
// and comment count data.
func (q *Queries) GetPostWithMeta(ctx context.Context, id int64) (PostWithMeta, error) {
	row := q.db.QueryRowContext(ctx, postMetaSelect+` WHERE p.id = ?`, id)
	return scanPostWithMeta(row)
}

// UpdatePostParams holds parameters for UpdatePost.
type UpdatePostParams struct {
	ID          int64
	Title       string
	Body        string
	PubDate     time.Time
	IsPublished bool
	CategoryID  int64
	LocationID  sql.NullInt64
	ImagePath   sql.NullString
	UpdatedAt   time.Time
}

// UpdatePost updates an existing post and returns the updated row.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE posts
		SET title = ?, body = ?, pub_date = ?, is_published = ?, category_id = ?, location_id = ?, image_path = ?, updated_at = ?
		WHERE id = ?
		RETURNING id, title, body, pub_date, is_published, author_id, category_id, location_id, image_path, created_at, updated_at`,
		arg.Title, arg.Body, arg.PubDate, arg.IsPublished, arg.CategoryID,
		arg.LocationID, arg.ImagePath, arg.UpdatedAt, arg.ID)
	return scanPost(row)
}

// DeletePost removes a post. Comments are removed by the cascade.
func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	return err
}

// SetPostPublishedParams holds parameters for SetPostPublished.
type SetPostPublishedParams struct {
	ID          int64
	IsPublished bool
	UpdatedAt   time.Time
}

// SetPostPublished toggles the moderation publish flag on a post.
func (q *Queries) SetPostPublished(ctx context.Context, arg SetPostPublishedParams) error {
	_, err := q.db.ExecContext(ctx, `UPDATE posts SET is_published = ?, updated_at = ? WHERE id = ?`,
		arg.IsPublished, arg.UpdatedAt, arg.ID)
	return err
}

// ListVisiblePostsParams holds parameters for ListVisiblePosts.
type ListVisiblePostsParams struct {
	Now    time.Time
	Limit  int64
	Offset int64
}

// ListVisiblePosts returns publicly visible posts, newest publication first.
func (q *Queries) ListVisiblePosts(ctx context.Context, arg ListVisiblePostsParams) ([]PostWithMeta, error) {
	return q.listPostsWithMeta(ctx,
		postMetaSelect+` WHERE `+postVisibleWhere+` ORDER BY p.pub_date DESC LIMIT ? OFFSET ?`,
		arg.Now, arg.Limit, arg.Offset)
}

// CountVisiblePosts returns the number of publicly visible posts.
func (q *Queries) CountVisiblePosts(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM posts p
		JOIN categories c ON c.id = p.category_id
		WHERE `+postVisibleWhere, now).Scan(&count)
	return count, err
}

// ListVisiblePostsByCategoryParams holds parameters for ListVisiblePostsByCategory.
type ListVisiblePostsByCategoryParams struct {
	CategoryID int64
	Now        time.Time
	Limit      int64
	Offset     int64
}

// ListVisiblePostsByCategory returns visible posts of one category.
func (q *Queries) ListVisiblePostsByCategory(ctx context.Context, arg ListVisiblePostsByCategoryParams) ([]PostWithMeta, error) {
	return q.listPostsWithMeta(ctx,
		postMetaSelect+` WHERE p.category_id = ? AND `+postVisibleWhere+` ORDER BY p.pub_date DESC LIMIT ? OFFSET ?`,
		arg.CategoryID, arg.Now, arg.Limit, arg.Offset)
}

// CountVisiblePostsByCategoryParams holds parameters for CountVisiblePostsByCategory.
type CountVisiblePostsByCategoryParams struct {
	CategoryID int64
	Now        time.Time
}

// CountVisiblePostsByCategory returns the number of visible posts in a category.
func (q *Queries) CountVisiblePostsByCategory(ctx context.Context, arg CountVisiblePostsByCategoryParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM posts p
		JOIN categories c ON c.id = p.category_id
		WHERE p.category_id = ? AND `+postVisibleWhere,
		arg.CategoryID, arg.Now).Scan(&count)
	return count, err
}

// ListVisiblePostsByAuthorParams holds parameters for ListVisiblePostsByAuthor.
type ListVisiblePostsByAuthorParams struct {
	AuthorID int64
	Now      time.Time
	Limit    int64
	Offset   int64
}

// ListVisiblePostsByAuthor returns an author's visible posts for everyone
// but the author themselves.
func (q *Queries) ListVisiblePostsByAuthor(ctx context.Context, arg ListVisiblePostsByAuthorParams) ([]PostWithMeta, error) {
	return q.listPostsWithMeta(ctx,
		postMetaSelect+` WHERE p.author_id = ? AND `+postVisibleWhere+` ORDER BY p.pub_date DESC LIMIT ? OFFSET ?`,
		arg.AuthorID, arg.Now, arg.Limit, arg.Offset)
}

// CountVisiblePostsByAuthorParams holds parameters for CountVisiblePostsByAuthor.
type CountVisiblePostsByAuthorParams struct {
	AuthorID int64
	Now      time.Time
}

// CountVisiblePostsByAuthor returns the number of an author's visible posts.
func (q *Queries) CountVisiblePostsByAuthor(ctx context.Context, arg CountVisiblePostsByAuthorParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM posts p
		JOIN categories c ON c.id = p.category_id
		WHERE p.author_id = ? AND `+postVisibleWhere,
		arg.AuthorID, arg.Now).Scan(&count)
	return count, err
}

// ListPostsByAuthorParams holds parameters for ListPostsByAuthor.
type ListPostsByAuthorParams struct {
	AuthorID int64
	Limit    int64
	Offset   int64
}

// ListPostsByAuthor returns all of an author's posts including hidden
// ones. Used for the author's own profile page.
func (q *Queries) ListPostsByAuthor(ctx context.Context, arg ListPostsByAuthorParams) ([]PostWithMeta, error) {
	return q.listPostsWithMeta(ctx,
		postMetaSelect+` WHERE p.author_id = ? ORDER BY p.pub_date DESC LIMIT ? OFFSET ?`,
		arg.AuthorID, arg.Limit, arg.Offset)
}

// CountPostsByAuthor returns the total number of an author's posts.
func (q *Queries) CountPostsByAuthor(ctx context.Context, authorID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE author_id = ?`, authorID).Scan(&count)
	return count, err
}

// ListPostsParams holds parameters for ListPosts.
type ListPostsParams struct {
	Limit  int64
	Offset int64
}

// ListPosts returns all posts regardless of visibility, newest first.
// Used by the admin moderation list.
func (q *Queries) ListPosts(ctx context.Context, arg ListPostsParams) ([]PostWithMeta, error) {
	return q.listPostsWithMeta(ctx,
		postMetaSelect+` ORDER BY p.pub_date DESC LIMIT ? OFFSET ?`,
		arg.Limit, arg.Offset)
}

// CountPosts returns the total number of posts.
func (q *Queries) CountPosts(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count)
	return count, err
}
