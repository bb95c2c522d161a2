// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/blogicum-go/internal/middleware"
	"github.com/olegiv/blogicum-go/internal/render"
	"github.com/olegiv/blogicum-go/internal/service"
	"github.com/olegiv/blogicum-go/internal/store"
)

// CommentHandler handles comment creation, editing and deletion.
// All comment routes require login.
type CommentHandler struct {
	queries      *store.Queries
	renderer     *render.Renderer
	eventService *service.EventService
	pages        *PageHandler
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(db *sql.DB, renderer *render.Renderer, pages *PageHandler) *CommentHandler {
	return &CommentHandler{
		queries:      store.New(db),
		renderer:     renderer,
		eventService: service.NewEventService(db),
		pages:        pages,
	}
}

// commentFormData holds data for the comment edit and delete templates.
type commentFormData struct {
	Comment store.Comment
	Errors  map[string]string
	Delete  bool
}

// Add handles POST /posts/{postID}/comment.
func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return
	}

	post, ok := h.requireVisiblePost(w, r, user)
	if !ok {
		return
	}

	if !parseFormOrRedirect(w, r, h.renderer, postDetailURL(post.ID)) {
		return
	}

	body := strings.TrimSpace(r.FormValue("body"))
	if body == "" {
		flashError(w, r, h.renderer, postDetailURL(post.ID), "Comment text is required")
		return
	}

	now := time.Now()
	comment, err := h.queries.CreateComment(r.Context(), store.CreateCommentParams{
		PostID:    post.ID,
		AuthorID:  user.ID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		logAndInternalError(w, "failed to create comment", "error", err, "post_id", post.ID)
		return
	}

	slog.Info("comment created", "comment_id", comment.ID, "post_id", post.ID, "author_id", user.ID)
	_ = h.eventService.LogCommentEvent(r.Context(), store.EventLevelInfo,
		"Comment created", &user.ID, middleware.GetClientIP(r), r.URL.Path,
		map[string]any{"comment_id": comment.ID, "post_id": post.ID})

	flashSuccess(w, r, h.renderer, postDetailURL(post.ID), "Comment added")
}

// EditForm handles GET /posts/{postID}/edit_comment/{commentID}.
func (h *CommentHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	comment, ok := h.requireOwnComment(w, r)
	if !ok {
		return
	}

	h.renderCommentForm(w, r, "Edit comment", commentFormData{
		Comment: comment,
		Errors:  make(map[string]string),
	})
}

// Edit handles POST /posts/{postID}/edit_comment/{commentID}.
func (h *CommentHandler) Edit(w http.ResponseWriter, r *http.Request) {
	comment, ok := h.requireOwnComment(w, r)
	if !ok {
		return
	}

	if !parseFormOrRedirect(w, r, h.renderer, postDetailURL(comment.PostID)) {
		return
	}

	body := strings.TrimSpace(r.FormValue("body"))
	if body == "" {
		comment.Body = body
		h.renderCommentForm(w, r, "Edit comment", commentFormData{
			Comment: comment,
			Errors:  map[string]string{"body": "Comment text is required"},
		})
		return
	}

	updated, err := h.queries.UpdateComment(r.Context(), store.UpdateCommentParams{
		ID:        comment.ID,
		Body:      body,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		logAndInternalError(w, "failed to update comment", "error", err, "comment_id", comment.ID)
		return
	}

	slog.Info("comment updated", "comment_id", updated.ID, "author_id", comment.AuthorID)
	_ = h.eventService.LogCommentEvent(r.Context(), store.EventLevelInfo,
		"Comment updated", &comment.AuthorID, middleware.GetClientIP(r), r.URL.Path,
		map[string]any{"comment_id": updated.ID, "post_id": comment.PostID})

	flashSuccess(w, r, h.renderer, postDetailURL(comment.PostID), "Comment updated")
}

// DeleteForm handles GET /posts/{postID}/delete_comment/{commentID}.
// Shows a confirmation page before deleting.
func (h *CommentHandler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	comment, ok := h.requireOwnComment(w, r)
	if !ok {
		return
	}

	h.renderCommentForm(w, r, "Delete comment", commentFormData{
		Comment: comment,
		Errors:  make(map[string]string),
		Delete:  true,
	})
}

// Delete handles POST /posts/{postID}/delete_comment/{commentID}.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	comment, ok := h.requireOwnComment(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeleteComment(r.Context(), comment.ID); err != nil {
		logAndInternalError(w, "failed to delete comment", "error", err, "comment_id", comment.ID)
		return
	}

	slog.Info("comment deleted", "comment_id", comment.ID, "author_id", comment.AuthorID)
	_ = h.eventService.LogCommentEvent(r.Context(), store.EventLevelInfo,
		"Comment deleted", &comment.AuthorID, middleware.GetClientIP(r), r.URL.Path,
		map[string]any{"comment_id": comment.ID, "post_id": comment.PostID})

	flashSuccess(w, r, h.renderer, postDetailURL(comment.PostID), "Comment deleted")
}

// requireVisiblePost loads the post from the URL and checks the user
// may see it. Commenting on an invisible post is a 404 unless the
// user is the post's author.
func (h *CommentHandler) requireVisiblePost(w http.ResponseWriter, r *http.Request, user *store.User) (store.Post, bool) {
	var zero store.Post

	id, err := ParseIDParam(r, "postID")
	if err != nil {
		h.pages.NotFound(w, r)
		return zero, false
	}

	post, err := h.queries.GetPostWithMeta(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.pages.NotFound(w, r)
			return zero, false
		}
		logAndInternalError(w, "failed to get post", "error", err, "post_id", id)
		return zero, false
	}

	if user.ID != post.AuthorID && !post.IsVisible(time.Now()) {
		h.pages.NotFound(w, r)
		return zero, false
	}
	return post.Post, true
}

// requireOwnComment loads the comment from the URL and checks it
// belongs to the post in the URL and to the current user. Non-authors
// are redirected to the post detail page.
func (h *CommentHandler) requireOwnComment(w http.ResponseWriter, r *http.Request) (store.Comment, bool) {
	var zero store.Comment

	postID, err := ParseIDParam(r, "postID")
	if err != nil {
		h.pages.NotFound(w, r)
		return zero, false
	}
	commentID, err := ParseIDParam(r, "commentID")
	if err != nil {
		h.pages.NotFound(w, r)
		return zero, false
	}

	comment, err := h.queries.GetCommentByID(r.Context(), commentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.pages.NotFound(w, r)
			return zero, false
		}
		logAndInternalError(w, "failed to get comment", "error", err, "comment_id", commentID)
		return zero, false
	}
	if comment.PostID != postID {
		h.pages.NotFound(w, r)
		return zero, false
	}

	user := middleware.GetUser(r)
	if user == nil || user.ID != comment.AuthorID {
		http.Redirect(w, r, postDetailURL(postID), http.StatusSeeOther)
		return zero, false
	}
	return comment, true
}

func (h *CommentHandler) renderCommentForm(w http.ResponseWriter, r *http.Request, title string, data commentFormData) {
	if err := h.renderer.Render(w, r, "blog/comment_form", baseData(r, title, data)); err != nil {
		logAndInternalError(w, "failed to render comment form", "error", err)
	}
}
