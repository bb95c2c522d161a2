package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/blogicum-go/internal/auth"
)

// Default admin credentials
const (
	DefaultAdminUsername = "admin"
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme"
)

// Seed creates initial data in the database: the admin account and a
// default category so post creation works out of the box.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	// Check if admin user already exists
	_, err := queries.GetUserByUsername(ctx, DefaultAdminUsername)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	// Hash the default password
	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Username:     DefaultAdminUsername,
		Email:        DefaultAdminEmail,
		PasswordHash: passwordHash,
		Role:         RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}
	slog.Warn("created default admin user, change the password after first login",
		"username", user.Username)

	if _, err := queries.CreateCategory(ctx, CreateCategoryParams{
		Title:       "Miscellaneous",
		Slug:        "misc",
		Description: "Posts that fit nowhere else.",
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		return fmt.Errorf("creating default category: %w", err)
	}

	return nil
}

// SeedDemo fills the database with demo content: a demo author with a few
// posts (including a scheduled and an unpublished one) and comments.
// It is idempotent: once the demo author exists, nothing is created.
func SeedDemo(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	_, err := queries.GetUserByUsername(ctx, "demo")
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for demo user: %w", err)
	}

	passwordHash, err := auth.HashPassword("demo-password")
	if err != nil {
		return fmt.Errorf("hashing demo password: %w", err)
	}

	now := time.Now()
	demo, err := queries.CreateUser(ctx, CreateUserParams{
		Username:     "demo",
		Email:        "demo@example.com",
		PasswordHash: passwordHash,
		FirstName:    "Demo",
		LastName:     "Author",
		Role:         RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating demo user: %w", err)
	}

	category, err := queries.CreateCategory(ctx, CreateCategoryParams{
		Title:       "Travel",
		Slug:        "travel",
		Description: "Trips and places.",
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return fmt.Errorf("creating demo category: %w", err)
	}

	location, err := queries.CreateLocation(ctx, CreateLocationParams{
		Name:        "Lisbon",
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return fmt.Errorf("creating demo location: %w", err)
	}

	demoPosts := []CreatePostParams{
		{
			Title:       "Hello from Lisbon",
			Body:        "First day of the trip. The *pastel de nata* rumors are true.",
			PubDate:     now.Add(-48 * time.Hour),
			IsPublished: true,
			AuthorID:    demo.ID,
			CategoryID:  category.ID,
			LocationID:  sql.NullInt64{Int64: location.ID, Valid: true},
		},
		{
			Title:       "Packing notes",
			Body:        "A draft that nobody should see yet.",
			PubDate:     now.Add(-24 * time.Hour),
			IsPublished: false,
			AuthorID:    demo.ID,
			CategoryID:  category.ID,
		},
		{
			Title:       "Scheduled retrospective",
			Body:        "This goes live next week.",
			PubDate:     now.Add(7 * 24 * time.Hour),
			IsPublished: true,
			AuthorID:    demo.ID,
			CategoryID:  category.ID,
		},
	}

	for _, p := range demoPosts {
		p.CreatedAt = now
		p.UpdatedAt = now
		post, err := queries.CreatePost(ctx, p)
		if err != nil {
			return fmt.Errorf("creating demo post %q: %w", p.Title, err)
		}
		if post.IsVisibleAt(now) {
			if _, err := queries.CreateComment(ctx, CreateCommentParams{
				PostID:    post.ID,
				AuthorID:  demo.ID,
				Body:      "Note to self: add photos.",
				CreatedAt: now,
				UpdatedAt: now,
			}); err != nil {
				return fmt.Errorf("creating demo comment: %w", err)
			}
		}
	}

	slog.Info("demo content seeded", "user", demo.Username)
	return nil
}
