// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/blogicum-go/internal/cache"
	"github.com/olegiv/blogicum-go/internal/middleware"
	"github.com/olegiv/blogicum-go/internal/render"
	"github.com/olegiv/blogicum-go/internal/store"
)

// BlogHandler serves the public post listings: the homepage,
// category pages and author profiles.
type BlogHandler struct {
	queries      *store.Queries
	renderer     *render.Renderer
	cacheManager *cache.Manager
	pages        *PageHandler
}

// NewBlogHandler creates a new BlogHandler.
func NewBlogHandler(db *sql.DB, renderer *render.Renderer, cm *cache.Manager, pages *PageHandler) *BlogHandler {
	return &BlogHandler{
		queries:      store.New(db),
		renderer:     renderer,
		cacheManager: cm,
		pages:        pages,
	}
}

// postListData holds data for post listing templates.
type postListData struct {
	Posts      []store.PostWithMeta
	Pagination Pagination
	Categories []store.Category
	Category   *store.Category
	Profile    *store.User
	IsOwner    bool
}

// Index handles GET /. It lists published posts whose publication
// date is not in the future, newest first.
func (h *BlogHandler) Index(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	total, err := h.queries.CountVisiblePosts(r.Context(), now)
	if err != nil {
		logAndInternalError(w, "failed to count posts", "error", err)
		return
	}

	page := NormalizePage(ParsePageParam(r), total, PostsPerPage)
	posts, err := h.queries.ListVisiblePosts(r.Context(), store.ListVisiblePostsParams{
		Now:    now,
		Limit:  int64(PostsPerPage),
		Offset: int64((page - 1) * PostsPerPage),
	})
	if err != nil {
		logAndInternalError(w, "failed to list posts", "error", err)
		return
	}

	h.renderList(w, r, "blog/index", "Latest posts", postListData{
		Posts:      posts,
		Pagination: BuildPagination(page, total, PostsPerPage, RouteRoot, nil),
	})
}

// Category handles GET /category/{slug}. Posts in unpublished
// categories are hidden and the category page itself returns 404.
func (h *BlogHandler) Category(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	category, err := h.queries.GetCategoryBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.pages.NotFound(w, r)
			return
		}
		logAndInternalError(w, "failed to get category", "error", err, "slug", slug)
		return
	}
	if !category.IsPublished {
		h.pages.NotFound(w, r)
		return
	}

	now := time.Now()
	total, err := h.queries.CountVisiblePostsByCategory(r.Context(), store.CountVisiblePostsByCategoryParams{
		CategoryID: category.ID,
		Now:        now,
	})
	if err != nil {
		logAndInternalError(w, "failed to count category posts", "error", err)
		return
	}

	page := NormalizePage(ParsePageParam(r), total, PostsPerPage)
	posts, err := h.queries.ListVisiblePostsByCategory(r.Context(), store.ListVisiblePostsByCategoryParams{
		CategoryID: category.ID,
		Now:        now,
		Limit:      int64(PostsPerPage),
		Offset:     int64((page - 1) * PostsPerPage),
	})
	if err != nil {
		logAndInternalError(w, "failed to list category posts", "error", err)
		return
	}

	h.renderList(w, r, "blog/category", category.Title, postListData{
		Posts:      posts,
		Pagination: BuildPagination(page, total, PostsPerPage, "/category/"+category.Slug, nil),
		Category:   &category,
	})
}

// Profile handles GET /profile/{username}. The profile owner sees all
// of their posts including drafts and scheduled ones; everyone else
// sees only publicly visible posts.
func (h *BlogHandler) Profile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	profile, err := h.queries.GetUserByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.pages.NotFound(w, r)
			return
		}
		logAndInternalError(w, "failed to get user", "error", err, "username", username)
		return
	}

	viewer := middleware.GetUser(r)
	isOwner := viewer != nil && viewer.ID == profile.ID
	now := time.Now()

	var total int64
	if isOwner {
		total, err = h.queries.CountPostsByAuthor(r.Context(), profile.ID)
	} else {
		total, err = h.queries.CountVisiblePostsByAuthor(r.Context(), store.CountVisiblePostsByAuthorParams{
			AuthorID: profile.ID,
			Now:      now,
		})
	}
	if err != nil {
		logAndInternalError(w, "failed to count author posts", "error", err)
		return
	}

	page := NormalizePage(ParsePageParam(r), total, PostsPerPage)
	limit := int64(PostsPerPage)
	offset := int64((page - 1) * PostsPerPage)

	var posts []store.PostWithMeta
	if isOwner {
		posts, err = h.queries.ListPostsByAuthor(r.Context(), store.ListPostsByAuthorParams{
			AuthorID: profile.ID,
			Limit:    limit,
			Offset:   offset,
		})
	} else {
		posts, err = h.queries.ListVisiblePostsByAuthor(r.Context(), store.ListVisiblePostsByAuthorParams{
			AuthorID: profile.ID,
			Now:      now,
			Limit:    limit,
			Offset:   offset,
		})
	}
	if err != nil {
		logAndInternalError(w, "failed to list author posts", "error", err)
		return
	}

	title := profile.FullName()
	if title == "" {
		title = profile.Username
	}
	h.renderList(w, r, "blog/profile", title, postListData{
		Posts:      posts,
		Pagination: BuildPagination(page, total, PostsPerPage, "/profile/"+profile.Username, nil),
		Profile:    &profile,
		IsOwner:    isOwner,
	})
}

// renderList attaches the published category sidebar and renders a
// post listing template.
func (h *BlogHandler) renderList(w http.ResponseWriter, r *http.Request, name, title string, data postListData) {
	categories, err := h.cacheManager.PublishedCategories(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to load categories", "error", err)
		return
	}
	data.Categories = categories

	if err := h.renderer.Render(w, r, name, baseData(r, title, data)); err != nil {
		logAndInternalError(w, "failed to render post list", "error", err, "template", name)
	}
}
