// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store provides database access for the application: connection
// setup, embedded migrations, and a hand-written query layer over
// database/sql in the style of generated query code.
package store

import (
	"database/sql"
	"time"
)

// User roles
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Event log levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event log categories
const (
	EventCategoryAuth    = "auth"
	EventCategoryPost    = "post"
	EventCategoryComment = "comment"
	EventCategoryUser    = "user"
	EventCategorySystem  = "system"
)

// User represents a registered user.
type User struct {
	ID           int64        `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Never expose in JSON
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Role         string       `json:"role"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	LastLoginAt  sql.NullTime `json:"last_login_at,omitempty"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FullName returns the user's display name, falling back to the username.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}

// Category represents a post category.
type Category struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Location represents a place a post can be tagged with.
type Location struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Post represents a blog post.
type Post struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Body        string         `json:"body"`
	PubDate     time.Time      `json:"pub_date"`
	IsPublished bool           `json:"is_published"`
	AuthorID    int64          `json:"author_id"`
	CategoryID  int64          `json:"category_id"`
	LocationID  sql.NullInt64  `json:"location_id,omitempty"`
	ImagePath   sql.NullString `json:"image_path,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// IsVisibleAt reports whether the post is publicly visible at the given
// time, ignoring the category gate which requires a join.
func (p *Post) IsVisibleAt(now time.Time) bool {
	return p.IsPublished && !p.PubDate.After(now)
}

// PostWithMeta is a post row joined with author, category, and location
// data plus a comment count. It is the shape every listing works with.
type PostWithMeta struct {
	Post
	AuthorUsername      string         `json:"author_username"`
	AuthorFirstName     string         `json:"author_first_name"`
	AuthorLastName      string         `json:"author_last_name"`
	CategoryTitle       string         `json:"category_title"`
	CategorySlug        string         `json:"category_slug"`
	CategoryIsPublished bool           `json:"category_is_published"`
	LocationName        sql.NullString `json:"location_name,omitempty"`
	CommentCount        int64          `json:"comment_count"`
}

// AuthorFullName returns the author's display name, falling back to the username.
func (p *PostWithMeta) AuthorFullName() string {
	switch {
	case p.AuthorFirstName != "" && p.AuthorLastName != "":
		return p.AuthorFirstName + " " + p.AuthorLastName
	case p.AuthorFirstName != "":
		return p.AuthorFirstName
	default:
		return p.AuthorUsername
	}
}

// IsVisible reports whether the post passes the full public visibility
// gate: published, pub date reached, and category published.
func (p *PostWithMeta) IsVisible(now time.Time) bool {
	return p.IsPublished && !p.PubDate.After(now) && p.CategoryIsPublished
}

// Comment represents a comment on a post.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	AuthorID  int64     `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentWithAuthor is a comment row joined with its author's names.
type CommentWithAuthor struct {
	Comment
	AuthorUsername  string `json:"author_username"`
	AuthorFirstName string `json:"author_first_name"`
	AuthorLastName  string `json:"author_last_name"`
}

// Event represents an event log entry.
type Event struct {
	ID          int64         `json:"id"`
	Level       string        `json:"level"`
	Category    string        `json:"category"`
	Message     string        `json:"message"`
	UserID      sql.NullInt64 `json:"user_id,omitempty"`
	IPAddress   string        `json:"ip_address"`
	RequestPath string        `json:"request_path"`
	Metadata    string        `json:"metadata"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Config represents a key/value configuration entry.
type Config struct {
	ID        int64     `json:"id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
