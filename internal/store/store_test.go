// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	// Create temp file for test database
	f, err := os.CreateTemp("", "blogicum-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	f.Close()

	// Open database
	db, err := NewDB(dbPath)
	if err != nil {
		os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	// Run migrations
	if err := Migrate(db); err != nil {
		db.Close()
		os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}

	return db, cleanup
}

func createTestUser(t *testing.T, q *Queries, username string) User {
	t.Helper()

	now := time.Now()
	user, err := q.CreateUser(context.Background(), CreateUserParams{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     "User",
		Role:         RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser(%q): %v", username, err)
	}
	return user
}

func createTestCategory(t *testing.T, q *Queries, slug string, published bool) Category {
	t.Helper()

	now := time.Now()
	cat, err := q.CreateCategory(context.Background(), CreateCategoryParams{
		Title:       "Category " + slug,
		Slug:        slug,
		Description: "test category",
		IsPublished: published,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateCategory(%q): %v", slug, err)
	}
	return cat
}

func createTestPost(t *testing.T, q *Queries, title string, authorID, categoryID int64, pubDate time.Time, published bool) Post {
	t.Helper()

	now := time.Now()
	post, err := q.CreatePost(context.Background(), CreatePostParams{
		Title:       title,
		Body:        "body of " + title,
		PubDate:     pubDate,
		IsPublished: published,
		AuthorID:    authorID,
		CategoryID:  categoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreatePost(%q): %v", title, err)
	}
	return post
}

func TestCreateUser(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	now := time.Now()
	user, err := q.CreateUser(ctx, CreateUserParams{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hashed-password",
		FirstName:    "Alice",
		LastName:     "Smith",
		Role:         RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if user.ID == 0 {
		t.Error("user.ID should not be 0")
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q, want %q", user.Username, "alice")
	}
	if user.Role != RoleUser {
		t.Errorf("Role = %q, want %q", user.Role, RoleUser)
	}
	if got := user.FullName(); got != "Alice Smith" {
		t.Errorf("FullName() = %q, want %q", got, "Alice Smith")
	}
}

func TestGetUserByUsername(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	created := createTestUser(t, q, "bob")

	found, err := q.GetUserByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}

	_, err = q.GetUserByUsername(ctx, "nobody")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetUserByUsername(nobody) error = %v, want sql.ErrNoRows", err)
	}
}

func TestUsernameExists(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	user := createTestUser(t, q, "carol")

	count, err := q.UsernameExists(ctx, "carol")
	if err != nil {
		t.Fatalf("UsernameExists: %v", err)
	}
	if count != 1 {
		t.Errorf("UsernameExists(carol) = %d, want 1", count)
	}

	count, err = q.UsernameExists(ctx, "nobody")
	if err != nil {
		t.Fatalf("UsernameExists: %v", err)
	}
	if count != 0 {
		t.Errorf("UsernameExists(nobody) = %d, want 0", count)
	}

	// A user does not conflict with their own name
	count, err = q.UsernameExistsExcluding(ctx, UsernameExistsExcludingParams{
		Username: "carol",
		ID:       user.ID,
	})
	if err != nil {
		t.Fatalf("UsernameExistsExcluding: %v", err)
	}
	if count != 0 {
		t.Errorf("UsernameExistsExcluding(carol, self) = %d, want 0", count)
	}
}

func TestUpdateUserProfile(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	user := createTestUser(t, q, "dave")

	updated, err := q.UpdateUserProfile(ctx, UpdateUserProfileParams{
		ID:        user.ID,
		Username:  "david",
		Email:     "david@example.com",
		FirstName: "David",
		LastName:  "Jones",
		UpdatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("UpdateUserProfile: %v", err)
	}

	if updated.Username != "david" {
		t.Errorf("Username = %q, want %q", updated.Username, "david")
	}
	if updated.Email != "david@example.com" {
		t.Errorf("Email = %q, want %q", updated.Email, "david@example.com")
	}

	// Old username is free again
	count, err := q.UsernameExists(ctx, "dave")
	if err != nil {
		t.Fatalf("UsernameExists: %v", err)
	}
	if count != 0 {
		t.Errorf("UsernameExists(dave) = %d, want 0 after rename", count)
	}
}

func TestUpdateUserPassword(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	user := createTestUser(t, q, "erin")

	err := q.UpdateUserPassword(ctx, UpdateUserPasswordParams{
		PasswordHash: "new-hash",
		UpdatedAt:    time.Now(),
		ID:           user.ID,
	})
	if err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}

	found, err := q.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if found.PasswordHash != "new-hash" {
		t.Errorf("PasswordHash = %q, want %q", found.PasswordHash, "new-hash")
	}
}

func TestListVisiblePosts(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	author := createTestUser(t, q, "writer")
	visible := createTestCategory(t, q, "published-cat", true)
	hidden := createTestCategory(t, q, "hidden-cat", false)

	now := time.Now()
	live := createTestPost(t, q, "Live", author.ID, visible.ID, now.Add(-time.Hour), true)
	createTestPost(t, q, "Draft", author.ID, visible.ID, now.Add(-time.Hour), false)
	createTestPost(t, q, "Scheduled", author.ID, visible.ID, now.Add(time.Hour), true)
	createTestPost(t, q, "Hidden category", author.ID, hidden.ID, now.Add(-time.Hour), true)

	posts, err := q.ListVisiblePosts(ctx, ListVisiblePostsParams{
		Now:    now,
		Limit:  10,
		Offset: 0,
	})
	if err != nil {
		t.Fatalf("ListVisiblePosts: %v", err)
	}

	if len(posts) != 1 {
		t.Fatalf("len(posts) = %d, want 1", len(posts))
	}
	if posts[0].ID != live.ID {
		t.Errorf("posts[0].ID = %d, want %d", posts[0].ID, live.ID)
	}
	if posts[0].CategorySlug != "published-cat" {
		t.Errorf("CategorySlug = %q, want %q", posts[0].CategorySlug, "published-cat")
	}
	if posts[0].AuthorUsername != "writer" {
		t.Errorf("AuthorUsername = %q, want %q", posts[0].AuthorUsername, "writer")
	}

	count, err := q.CountVisiblePosts(ctx, now)
	if err != nil {
		t.Fatalf("CountVisiblePosts: %v", err)
	}
	if count != 1 {
		t.Errorf("CountVisiblePosts = %d, want 1", count)
	}
}

func TestListVisiblePosts_Ordering(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	author := createTestUser(t, q, "writer")
	cat := createTestCategory(t, q, "news", true)

	now := time.Now()
	older := createTestPost(t, q, "Older", author.ID, cat.ID, now.Add(-48*time.Hour), true)
	newer := createTestPost(t, q, "Newer", author.ID, cat.ID, now.Add(-time.Hour), true)
	middle := createTestPost(t, q, "Middle", author.ID, cat.ID, now.Add(-24*time.Hour), true)

	posts, err := q.ListVisiblePosts(ctx, ListVisiblePostsParams{
		Now:    now,
		Limit:  10,
		Offset: 0,
	})
	if err != nil {
		t.Fatalf("ListVisiblePosts: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("len(posts) = %d, want 3", len(posts))
	}

	want := []int64{newer.ID, middle.ID, older.ID}
	for i, id := range want {
		if posts[i].ID != id {
			t.Errorf("posts[%d].ID = %d, want %d", i, posts[i].ID, id)
		}
	}

	// Pagination window
	page, err := q.ListVisiblePosts(ctx, ListVisiblePostsParams{
		Now:    now,
		Limit:  1,
		Offset: 1,
	})
	if err != nil {
		t.Fatalf("ListVisiblePosts: %v", err)
	}
	if len(page) != 1 || page[0].ID != middle.ID {
		t.Errorf("page = %+v, want the middle post only", page)
	}
}

func TestListVisiblePostsByCategory(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	author := createTestUser(t, q, "writer")
	travel := createTestCategory(t, q, "travel", true)
	food := createTestCategory(t, q, "food", true)

	now := time.Now()
	inTravel := createTestPost(t, q, "Trip", author.ID, travel.ID, now.Add(-time.Hour), true)
	createTestPost(t, q, "Recipe", author.ID, food.ID, now.Add(-time.Hour), true)
	createTestPost(t, q, "Future trip", author.ID, travel.ID, now.Add(time.Hour), true)

	posts, err := q.ListVisiblePostsByCategory(ctx, ListVisiblePostsByCategoryParams{
		CategoryID: travel.ID,
		Now:        now,
		Limit:      10,
		Offset:     0,
	})
	if err != nil {
		t.Fatalf("ListVisiblePostsByCategory: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != inTravel.ID {
		t.Errorf("posts = %+v, want only the travel post", posts)
	}

	count, err := q.CountVisiblePostsByCategory(ctx, CountVisiblePostsByCategoryParams{
		CategoryID: travel.ID,
		Now:        now,
	})
	if err != nil {
		t.Fatalf("CountVisiblePostsByCategory: %v", err)
	}
	if count != 1 {
		t.Errorf("CountVisiblePostsByCategory = %d, want 1", count)
	}
}

func TestListPostsByAuthor_IncludesHidden(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	author := createTestUser(t, q, "writer")
	other := createTestUser(t, q, "other")
	cat := createTestCategory(t, q, "diary", true)

	now := time.Now()
	createTestPost(t, q, "Public", author.ID, cat.ID, now.Add(-time.Hour), true)
	createTestPost(t, q, "Draft", author.ID, cat.ID, now.Add(-time.Hour), false)
	createTestPost(t, q, "Scheduled", author.ID, cat.ID, now.Add(time.Hour), true)
	createTestPost(t, q, "Someone else", other.ID, cat.ID, now.Add(-time.Hour), true)

	// Owner view shows everything of theirs
	all, err := q.ListPostsByAuthor(ctx, ListPostsByAuthorParams{
		AuthorID: author.ID,
		Limit:    10,
		Offset:   0,
	})
	if err != nil {
		t.Fatalf("ListPostsByAuthor: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len(all) = %d, want 3", len(all))
	}

	total, err := q.CountPostsByAuthor(ctx, author.ID)
	if err != nil {
		t.Fatalf("CountPostsByAuthor: %v", err)
	}
	if total != 3 {
		t.Errorf("CountPostsByAuthor = %d, want 3", total)
	}

	// Visitor view shows only the live post
	public, err := q.ListVisiblePostsByAuthor(ctx, ListVisiblePostsByAuthorParams{
		AuthorID: author.ID,
		Now:      now,
		Limit:    10,
		Offset:   0,
	})
	if err != nil {
		t.Fatalf("ListVisiblePostsByAuthor: %v", err)
	}
	if len(public) != 1 || public[0].Title != "Public" {
		t.Errorf("public = %+v, want only the published post", public)
	}

	visible, err := q.CountVisiblePostsByAuthor(ctx, CountVisiblePostsByAuthorParams{
		AuthorID: author.ID,
		Now:      now,
	})
	if err != nil {
		t.Fatalf("CountVisiblePostsByAuthor: %v", err)
	}
	if visible != 1 {
		t.Errorf("CountVisiblePostsByAuthor = %d, want 1", visible)
	}
}

func TestGetPostWithMeta_CommentCount(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	author := createTestUser(t, q, "writer")
	reader := createTestUser(t, q, "reader")
	cat := createTestCategory(t, q, "general", true)

	now := time.Now()
	post := createTestPost(t, q, "Commented", author.ID, cat.ID, now.Add(-time.Hour), true)
	otherPost := createTestPost(t, q, "Quiet", author.ID, cat.ID, now.Add(-time.Hour), true)

	for i := 0; i < 3; i++ {
		_, err := q.CreateComment(ctx, CreateCommentParams{
			PostID:    post.ID,
			AuthorID:  reader.ID,
			Body:      "nice post",
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			t.Fatalf("CreateComment: %v", err)
		}
	}

	got, err := q.GetPostWithMeta(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPostWithMeta: %v", err)
	}
	if got.CommentCount != 3 {
		t.Errorf("CommentCount = %d, want 3", got.CommentCount)
	}

	quiet, err := q.GetPostWithMeta(ctx, otherPost.ID)
	if err != nil {
		t.Fatalf("GetPostWithMeta: %v", err)
	}
	if quiet.CommentCount != 0 {
		t.Errorf("CommentCount = %d, want 0", quiet.CommentCount)
	}
}

func TestListCommentsByPost(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	author := createTestUser(t, q, "writer")
	reader := createTestUser(t, q, "reader")
	cat := createTestCategory(t, q, "general", true)

	now := time.Now()
	post := createTestPost(t, q, "Post", author.ID, cat.ID, now, true)

	first, err := q.CreateComment(ctx, CreateCommentParams{
		PostID:    post.ID,
		AuthorID:  reader.ID,
		Body:      "first",
		CreatedAt: now.Add(-time.Minute),
		UpdatedAt: now.Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	second, err := q.CreateComment(ctx, CreateCommentParams{
		PostID:    post.ID,
		AuthorID:  reader.ID,
		Body:      "second",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}

	comments, err := q.ListCommentsByPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("ListCommentsByPost: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("len(comments) = %d, want 2", len(comments))
	}

	// Oldest first
	if comments[0].ID != first.ID || comments[1].ID != second.ID {
		t.Errorf("comments order = [%d, %d], want [%d, %d]",
			comments[0].ID, comments[1].ID, first.ID, second.ID)
	}
	if comments[0].AuthorUsername != "reader" {
		t.Errorf("AuthorUsername = %q, want %q", comments[0].AuthorUsername, "reader")
	}

	count, err := q.CountCommentsByPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("CountCommentsByPost: %v", err)
	}
	if count != 2 {
		t.Errorf("CountCommentsByPost = %d, want 2", count)
	}
}

func TestUpdateComment(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	author := createTestUser(t, q, "writer")
	cat := createTestCategory(t, q, "general", true)
	post := createTestPost(t, q, "Post", author.ID, cat.ID, time.Now(), true)

	now := time.Now()
	comment, err := q.CreateComment(ctx, CreateCommentParams{
		PostID:    post.ID,
		AuthorID:  author.ID,
		Body:      "typo here",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}

	updated, err := q.UpdateComment(ctx, UpdateCommentParams{
		ID:        comment.ID,
		Body:      "fixed",
		UpdatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("UpdateComment: %v", err)
	}
	if updated.Body != "fixed" {
		t.Errorf("Body = %q, want %q", updated.Body, "fixed")
	}

	if err := q.DeleteComment(ctx, comment.ID); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	_, err = q.GetCommentByID(ctx, comment.ID)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetCommentByID after delete error = %v, want sql.ErrNoRows", err)
	}
}

func TestCategorySlug(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	cat := createTestCategory(t, q, "nature", true)

	found, err := q.GetCategoryBySlug(ctx, "nature")
	if err != nil {
		t.Fatalf("GetCategoryBySlug: %v", err)
	}
	if found.ID != cat.ID {
		t.Errorf("ID = %d, want %d", found.ID, cat.ID)
	}

	count, err := q.CategorySlugExists(ctx, "nature")
	if err != nil {
		t.Fatalf("CategorySlugExists: %v", err)
	}
	if count != 1 {
		t.Errorf("CategorySlugExists = %d, want 1", count)
	}

	count, err = q.CategorySlugExistsExcluding(ctx, CategorySlugExistsExcludingParams{
		Slug: "nature",
		ID:   cat.ID,
	})
	if err != nil {
		t.Fatalf("CategorySlugExistsExcluding: %v", err)
	}
	if count != 0 {
		t.Errorf("CategorySlugExistsExcluding(self) = %d, want 0", count)
	}
}

func TestListPublishedCategories(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	createTestCategory(t, q, "alpha", true)
	createTestCategory(t, q, "beta", false)

	all, err := q.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len(all) = %d, want 2", len(all))
	}

	published, err := q.ListPublishedCategories(ctx)
	if err != nil {
		t.Fatalf("ListPublishedCategories: %v", err)
	}
	if len(published) != 1 || published[0].Slug != "alpha" {
		t.Errorf("published = %+v, want only alpha", published)
	}
}

func TestCountPostsInCategory(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	author := createTestUser(t, q, "writer")
	used := createTestCategory(t, q, "used", true)
	empty := createTestCategory(t, q, "empty", true)

	createTestPost(t, q, "One", author.ID, used.ID, time.Now(), true)
	createTestPost(t, q, "Two", author.ID, used.ID, time.Now(), false)

	count, err := q.CountPostsInCategory(ctx, used.ID)
	if err != nil {
		t.Fatalf("CountPostsInCategory: %v", err)
	}
	if count != 2 {
		t.Errorf("CountPostsInCategory(used) = %d, want 2", count)
	}

	count, err = q.CountPostsInCategory(ctx, empty.ID)
	if err != nil {
		t.Fatalf("CountPostsInCategory: %v", err)
	}
	if count != 0 {
		t.Errorf("CountPostsInCategory(empty) = %d, want 0", count)
	}
}

func TestLocations(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	now := time.Now()
	loc, err := q.CreateLocation(ctx, CreateLocationParams{
		Name:        "Mountains",
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateLocation: %v", err)
	}

	updated, err := q.UpdateLocation(ctx, UpdateLocationParams{
		ID:          loc.ID,
		Name:        "High Mountains",
		IsPublished: false,
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}
	if updated.Name != "High Mountains" {
		t.Errorf("Name = %q, want %q", updated.Name, "High Mountains")
	}

	published, err := q.ListPublishedLocations(ctx)
	if err != nil {
		t.Fatalf("ListPublishedLocations: %v", err)
	}
	if len(published) != 0 {
		t.Errorf("len(published) = %d, want 0 after unpublish", len(published))
	}

	if err := q.DeleteLocation(ctx, loc.ID); err != nil {
		t.Fatalf("DeleteLocation: %v", err)
	}
	_, err = q.GetLocationByID(ctx, loc.ID)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetLocationByID after delete error = %v, want sql.ErrNoRows", err)
	}
}

func TestPostLocationJoin(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	author := createTestUser(t, q, "writer")
	cat := createTestCategory(t, q, "general", true)

	now := time.Now()
	loc, err := q.CreateLocation(ctx, CreateLocationParams{
		Name:        "Seaside",
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateLocation: %v", err)
	}

	post, err := q.CreatePost(ctx, CreatePostParams{
		Title:       "Tagged",
		Body:        "body",
		PubDate:     now.Add(-time.Hour),
		IsPublished: true,
		AuthorID:    author.ID,
		CategoryID:  cat.ID,
		LocationID:  sql.NullInt64{Int64: loc.ID, Valid: true},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	got, err := q.GetPostWithMeta(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPostWithMeta: %v", err)
	}
	if !got.LocationName.Valid || got.LocationName.String != "Seaside" {
		t.Errorf("LocationName = %+v, want Seaside", got.LocationName)
	}
}

func TestUpdatePost(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	author := createTestUser(t, q, "writer")
	cat := createTestCategory(t, q, "general", true)
	other := createTestCategory(t, q, "other", true)

	now := time.Now()
	post := createTestPost(t, q, "Original", author.ID, cat.ID, now, true)

	updated, err := q.UpdatePost(ctx, UpdatePostParams{
		ID:          post.ID,
		Title:       "Revised",
		Body:        "new body",
		PubDate:     now.Add(24 * time.Hour),
		IsPublished: false,
		CategoryID:  other.ID,
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}

	if updated.Title != "Revised" {
		t.Errorf("Title = %q, want %q", updated.Title, "Revised")
	}
	if updated.CategoryID != other.ID {
		t.Errorf("CategoryID = %d, want %d", updated.CategoryID, other.ID)
	}
	if updated.IsPublished {
		t.Error("IsPublished = true, want false")
	}
	if updated.AuthorID != author.ID {
		t.Errorf("AuthorID = %d, want %d unchanged", updated.AuthorID, author.ID)
	}
}

func TestSetPostPublished(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	author := createTestUser(t, q, "writer")
	cat := createTestCategory(t, q, "general", true)
	post := createTestPost(t, q, "Moderated", author.ID, cat.ID, time.Now().Add(-time.Hour), true)

	err := q.SetPostPublished(ctx, SetPostPublishedParams{
		ID:          post.ID,
		IsPublished: false,
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("SetPostPublished: %v", err)
	}

	got, err := q.GetPostByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPostByID: %v", err)
	}
	if got.IsPublished {
		t.Error("IsPublished = true, want false after moderation")
	}
}

func TestPostVisibilityHelpers(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		post PostWithMeta
		want bool
	}{
		{
			name: "live post",
			post: PostWithMeta{
				Post:                Post{IsPublished: true, PubDate: now.Add(-time.Hour)},
				CategoryIsPublished: true,
			},
			want: true,
		},
		{
			name: "unpublished",
			post: PostWithMeta{
				Post:                Post{IsPublished: false, PubDate: now.Add(-time.Hour)},
				CategoryIsPublished: true,
			},
			want: false,
		},
		{
			name: "scheduled",
			post: PostWithMeta{
				Post:                Post{IsPublished: true, PubDate: now.Add(time.Hour)},
				CategoryIsPublished: true,
			},
			want: false,
		},
		{
			name: "hidden category",
			post: PostWithMeta{
				Post:                Post{IsPublished: true, PubDate: now.Add(-time.Hour)},
				CategoryIsPublished: false,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.post.IsVisible(now); got != tt.want {
				t.Errorf("IsVisible = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvents(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	now := time.Now()
	event, err := q.CreateEvent(ctx, CreateEventParams{
		Level:     EventLevelInfo,
		Category:  EventCategoryAuth,
		Message:   "user logged in",
		IPAddress: "127.0.0.1",
		Metadata:  "{}",
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if event.ID == 0 {
		t.Error("event.ID should not be 0")
	}

	_, err = q.CreateEvent(ctx, CreateEventParams{
		Level:     EventLevelWarning,
		Category:  EventCategorySystem,
		Message:   "old entry",
		Metadata:  "{}",
		CreatedAt: now.Add(-48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	count, err := q.CountEvents(ctx)
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if count != 2 {
		t.Errorf("CountEvents = %d, want 2", count)
	}

	events, err := q.ListEvents(ctx, ListEventsParams{Limit: 10, Offset: 0})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	// Newest first
	if events[0].ID != event.ID {
		t.Errorf("events[0].ID = %d, want %d", events[0].ID, event.ID)
	}

	deleted, err := q.DeleteEventsBefore(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteEventsBefore: %v", err)
	}
	if deleted != 1 {
		t.Errorf("DeleteEventsBefore = %d, want 1", deleted)
	}

	count, err = q.CountEvents(ctx)
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if count != 1 {
		t.Errorf("CountEvents = %d, want 1 after pruning", count)
	}
}

func TestConfig(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	now := time.Now()
	err := q.SetConfig(ctx, SetConfigParams{
		Key:       "site_name",
		Value:     "My Blog",
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("SetConfig: %v", err)
	}

	got, err := q.GetConfig(ctx, "site_name")
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if got.Value != "My Blog" {
		t.Errorf("Value = %q, want %q", got.Value, "My Blog")
	}

	// Upsert replaces the value
	err = q.SetConfig(ctx, SetConfigParams{
		Key:       "site_name",
		Value:     "Renamed Blog",
		UpdatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("SetConfig: %v", err)
	}

	got, err = q.GetConfig(ctx, "site_name")
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if got.Value != "Renamed Blog" {
		t.Errorf("Value = %q, want %q", got.Value, "Renamed Blog")
	}
}
