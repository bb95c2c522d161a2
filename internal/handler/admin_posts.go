// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/blogicum-go/internal/middleware"
	"github.com/olegiv/blogicum-go/internal/render"
	"github.com/olegiv/blogicum-go/internal/service"
	"github.com/olegiv/blogicum-go/internal/store"
)

// AdminPostHandler handles post moderation in the admin area.
type AdminPostHandler struct {
	queries      *store.Queries
	renderer     *render.Renderer
	eventService *service.EventService
}

// NewAdminPostHandler creates a new AdminPostHandler.
func NewAdminPostHandler(db *sql.DB, renderer *render.Renderer) *AdminPostHandler {
	return &AdminPostHandler{
		queries:      store.New(db),
		renderer:     renderer,
		eventService: service.NewEventService(db),
	}
}

// adminPostListData holds data for the admin post list template.
type adminPostListData struct {
	Posts      []store.PostWithMeta
	Pagination Pagination
	Now        time.Time
}

// List handles GET /admin/posts. Unlike the public listings it shows
// every post regardless of publication state.
func (h *AdminPostHandler) List(w http.ResponseWriter, r *http.Request) {
	total, err := h.queries.CountPosts(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to count posts", "error", err)
		return
	}

	page := NormalizePage(ParsePageParam(r), total, AdminPostsPerPage)
	posts, err := h.queries.ListPosts(r.Context(), store.ListPostsParams{
		Limit:  int64(AdminPostsPerPage),
		Offset: int64((page - 1) * AdminPostsPerPage),
	})
	if err != nil {
		logAndInternalError(w, "failed to list posts", "error", err)
		return
	}

	data := adminPostListData{
		Posts:      posts,
		Pagination: BuildPagination(page, total, AdminPostsPerPage, RouteAdmin+RouteAdminPosts, nil),
		Now:        time.Now(),
	}
	if err := h.renderer.Render(w, r, "admin/posts", baseData(r, "Posts", data)); err != nil {
		logAndInternalError(w, "failed to render admin posts", "error", err)
	}
}

// TogglePublish handles POST /admin/posts/{id}/publish. It flips the
// publication flag of a post, hiding or restoring it everywhere.
func (h *AdminPostHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r, "id")
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminPosts, "Invalid post ID")
		return
	}

	post, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdminPosts, "post", id,
		func(id int64) (store.Post, error) {
			return h.queries.GetPostByID(r.Context(), id)
		})
	if !ok {
		return
	}

	newState := !post.IsPublished
	if err := h.queries.SetPostPublished(r.Context(), store.SetPostPublishedParams{
		ID:          post.ID,
		IsPublished: newState,
		UpdatedAt:   time.Now(),
	}); err != nil {
		logAndInternalError(w, "failed to toggle post publication", "error", err, "post_id", post.ID)
		return
	}

	admin := middleware.GetUser(r)
	var adminID *int64
	if admin != nil {
		adminID = &admin.ID
	}

	message := "Post unpublished by moderator"
	flash := "Post unpublished"
	if newState {
		message = "Post published by moderator"
		flash = "Post published"
	}
	slog.Info("post publication toggled", "post_id", post.ID, "is_published", newState)
	_ = h.eventService.LogPostEvent(r.Context(), store.EventLevelInfo,
		message, adminID, middleware.GetClientIP(r), r.URL.Path,
		map[string]any{"post_id": post.ID, "title": post.Title})

	flashSuccess(w, r, h.renderer, redirectAdminPosts, flash)
}
