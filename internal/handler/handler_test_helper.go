package handler

import (
	"context"
	"database/sql"
	"io/fs"
	"net/http"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"

	"github.com/olegiv/blogicum-go/internal/cache"
	"github.com/olegiv/blogicum-go/internal/config"
	"github.com/olegiv/blogicum-go/internal/middleware"
	"github.com/olegiv/blogicum-go/internal/render"
	"github.com/olegiv/blogicum-go/internal/store"
	"github.com/olegiv/blogicum-go/web"
)

// testDB creates an in-memory SQLite database with the required schema for testing.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// Create required tables
	schema := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'user',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login_at DATETIME
		);
		CREATE INDEX idx_users_username ON users(username);
		CREATE INDEX idx_users_email ON users(email);

		CREATE TABLE sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
		CREATE INDEX idx_sessions_expiry ON sessions(expiry);

		CREATE TABLE categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			is_published BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX idx_categories_slug ON categories(slug);

		CREATE TABLE locations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			is_published BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			pub_date DATETIME NOT NULL,
			is_published BOOLEAN NOT NULL DEFAULT 1,
			author_id INTEGER NOT NULL,
			category_id INTEGER NOT NULL,
			location_id INTEGER,
			image_path TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (author_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (category_id) REFERENCES categories(id),
			FOREIGN KEY (location_id) REFERENCES locations(id) ON DELETE SET NULL
		);
		CREATE INDEX idx_posts_pub_date ON posts(pub_date DESC);
		CREATE INDEX idx_posts_author_id ON posts(author_id);

		CREATE TABLE comments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			post_id INTEGER NOT NULL,
			author_id INTEGER NOT NULL,
			body TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE,
			FOREIGN KEY (author_id) REFERENCES users(id) ON DELETE CASCADE
		);
		CREATE INDEX idx_comments_post_id ON comments(post_id);

		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level TEXT NOT NULL DEFAULT 'info',
			category TEXT NOT NULL DEFAULT 'system',
			message TEXT NOT NULL,
			user_id INTEGER,
			ip_address TEXT NOT NULL DEFAULT '',
			request_path TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE SET NULL
		);
		CREATE INDEX idx_events_created_at ON events(created_at DESC);

		CREATE TABLE config (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key TEXT NOT NULL UNIQUE,
			value TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		INSERT INTO config (key, value) VALUES ('site_name', 'Test Blog');
	`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// testSessionManager creates a session manager for testing.
func testSessionManager(t *testing.T) *scs.SessionManager {
	t.Helper()
	sm := scs.New()
	sm.Lifetime = 24 * time.Hour
	return sm
}

// testUser describes a user to insert for a test.
type testUser struct {
	Username     string
	Email        string
	Role         string
	PasswordHash string
}

// createTestUser creates a test user in the database.
func createTestUser(t *testing.T, db *sql.DB, user testUser) store.User {
	t.Helper()

	if user.Email == "" {
		user.Email = user.Username + "@example.com"
	}
	if user.Role == "" {
		user.Role = store.RoleUser
	}
	if user.PasswordHash == "" {
		user.PasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$c29tZXNhbHQ$RdescudvJCsgt3ub"
	}

	now := time.Now()
	result, err := db.Exec(
		`INSERT INTO users (username, email, password_hash, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		user.Username, user.Email, user.PasswordHash, user.Role, now, now,
	)
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	id, _ := result.LastInsertId()
	return store.User{
		ID:           id,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// createTestCategory creates a test category in the database.
func createTestCategory(t *testing.T, db *sql.DB, slug string, published bool) store.Category {
	t.Helper()

	now := time.Now()
	result, err := db.Exec(
		`INSERT INTO categories (title, slug, is_published, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		"Category "+slug, slug, published, now, now,
	)
	if err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}

	id, _ := result.LastInsertId()
	return store.Category{
		ID:          id,
		Title:       "Category " + slug,
		Slug:        slug,
		IsPublished: published,
	}
}

// createTestPost creates a test post in the database.
func createTestPost(t *testing.T, db *sql.DB, title string, authorID, categoryID int64, pubDate time.Time, published bool) store.Post {
	t.Helper()

	now := time.Now()
	result, err := db.Exec(
		`INSERT INTO posts (title, body, pub_date, is_published, author_id, category_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		title, "body", pubDate, published, authorID, categoryID, now, now,
	)
	if err != nil {
		t.Fatalf("failed to create test post: %v", err)
	}

	id, _ := result.LastInsertId()
	return store.Post{
		ID:          id,
		Title:       title,
		Body:        "body",
		PubDate:     pubDate,
		IsPublished: published,
		AuthorID:    authorID,
		CategoryID:  categoryID,
	}
}

// createTestComment creates a test comment in the database.
func createTestComment(t *testing.T, db *sql.DB, postID, authorID int64, body string) store.Comment {
	t.Helper()

	now := time.Now()
	result, err := db.Exec(
		`INSERT INTO comments (post_id, author_id, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		postID, authorID, body, now, now,
	)
	if err != nil {
		t.Fatalf("failed to create test comment: %v", err)
	}

	id, _ := result.LastInsertId()
	return store.Comment{
		ID:       id,
		PostID:   postID,
		AuthorID: authorID,
		Body:     body,
	}
}

// testRenderer creates a renderer from the embedded templates.
func testRenderer(t *testing.T, sm *scs.SessionManager) *render.Renderer {
	t.Helper()

	templates, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("failed to open embedded templates: %v", err)
	}

	renderer, err := render.New(render.Config{
		TemplatesFS:    templates,
		SessionManager: sm,
	})
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}
	return renderer
}

// testCacheManager creates a cache manager backed by the in-memory cache.
func testCacheManager(db *sql.DB) *cache.Manager {
	cfg := &config.Config{
		CacheTTL:     60,
		CacheMaxSize: 100,
	}
	return cache.NewManager(cfg, store.New(db))
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// requestWithSession wraps a request with a loaded session context.
func requestWithSession(t *testing.T, sm *scs.SessionManager, r *http.Request) *http.Request {
	t.Helper()
	ctx, err := sm.Load(r.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session: %v", err)
	}
	return r.WithContext(ctx)
}

// requestWithUser adds an authenticated user to the request context.
func requestWithUser(r *http.Request, user store.User) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.ContextKeyUser, user)
	return r.WithContext(ctx)
}

// assertStatus checks if the response status code matches the expected value.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}
