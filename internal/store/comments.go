package store

import (
	"context"
	"database/sql"
	"time"
)

const commentColumns = `id, post_id, author_id, body, created_at, updated_at`

func scanComment(row *sql.Row) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// CreateCommentParams holds parameters for CreateComment.
type CreateCommentParams struct {
	PostID    int64
	AuthorID  int64
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateComment inserts a new comment and returns the created row.
func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (Comment, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO comments (post_id, author_id, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+commentColumns,
		arg.PostID, arg.AuthorID, arg.Body, arg.CreatedAt, arg.UpdatedAt)
	return scanComment(row)
}

// GetCommentByID returns the comment with the given ID.
func (q *Queries) GetCommentByID(ctx context.Context, id int64) (Comment, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id)
	return scanComment(row)
}

// UpdateCommentParams holds parameters for UpdateComment.
type UpdateCommentParams struct {
	ID        int64
	Body      string
	UpdatedAt time.Time
}

// UpdateComment updates a comment's body and returns the updated row.
func (q *Queries) UpdateComment(ctx context.Context, arg UpdateCommentParams) (Comment, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE comments SET body = ?, updated_at = ? WHERE id = ?
		RETURNING `+commentColumns,
		arg.Body, arg.UpdatedAt, arg.ID)
	return scanComment(row)
}

// DeleteComment removes a comment.
func (q *Queries) DeleteComment(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	return err
}

// ListCommentsByPost returns a post's comments with author names, oldest first.
func (q *Queries) ListCommentsByPost(ctx context.Context, postID int64) ([]CommentWithAuthor, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT cm.id, cm.post_id, cm.author_id, cm.body, cm.created_at, cm.updated_at,
		       u.username, u.first_name, u.last_name
		FROM comments cm
		JOIN users u ON u.id = cm.author_id
		WHERE cm.post_id = ?
		ORDER BY cm.created_at`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []CommentWithAuthor
	for rows.Next() {
		var c CommentWithAuthor
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.CreatedAt, &c.UpdatedAt,
			&c.AuthorUsername, &c.AuthorFirstName, &c.AuthorLastName); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// CountCommentsByPost returns the number of comments on a post.
func (q *Queries) CountCommentsByPost(ctx context.Context, postID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = ?`, postID).Scan(&count)
	return count, err
}

// CountComments returns the total number of comments.
func (q *Queries) CountComments(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`).Scan(&count)
	return count, err
}
