// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/blogicum-go/internal/cache"
	"github.com/olegiv/blogicum-go/internal/imaging"
	"github.com/olegiv/blogicum-go/internal/middleware"
	"github.com/olegiv/blogicum-go/internal/render"
	"github.com/olegiv/blogicum-go/internal/service"
	"github.com/olegiv/blogicum-go/internal/store"
	"github.com/olegiv/blogicum-go/internal/util"
)

// pubDateLayout matches the datetime-local input format.
const pubDateLayout = "2006-01-02T15:04"

// maxTitleLength caps post titles.
const maxTitleLength = 256

// PostHandler handles post detail pages and authoring.
type PostHandler struct {
	queries      *store.Queries
	renderer     *render.Renderer
	cacheManager *cache.Manager
	processor    *imaging.Processor
	eventService *service.EventService
	pages        *PageHandler
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(db *sql.DB, renderer *render.Renderer, cm *cache.Manager, processor *imaging.Processor, pages *PageHandler) *PostHandler {
	return &PostHandler{
		queries:      store.New(db),
		renderer:     renderer,
		cacheManager: cm,
		processor:    processor,
		eventService: service.NewEventService(db),
		pages:        pages,
	}
}

// postDetailData holds data for the post detail template.
type postDetailData struct {
	Post     store.PostWithMeta
	Comments []store.CommentWithAuthor
	IsAuthor bool
}

// postFormData holds data for the post create/edit form.
type postFormData struct {
	Errors     map[string]string
	FormValues map[string]string
	Categories []store.Category
	Locations  []store.Location
	Post       *store.Post
	IsEdit     bool
}

// Detail handles GET /posts/{postID}. Posts that are unpublished,
// scheduled in the future or in an unpublished category are visible
// only to their author.
func (h *PostHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r, "postID")
	if err != nil {
		h.pages.NotFound(w, r)
		return
	}

	post, err := h.queries.GetPostWithMeta(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.pages.NotFound(w, r)
			return
		}
		logAndInternalError(w, "failed to get post", "error", err, "post_id", id)
		return
	}

	viewer := middleware.GetUser(r)
	isAuthor := viewer != nil && viewer.ID == post.AuthorID
	if !isAuthor && !post.IsVisible(time.Now()) {
		h.pages.NotFound(w, r)
		return
	}

	comments, err := h.queries.ListCommentsByPost(r.Context(), post.ID)
	if err != nil {
		logAndInternalError(w, "failed to list comments", "error", err, "post_id", post.ID)
		return
	}

	h.render(w, r, "blog/detail", post.Title, postDetailData{
		Post:     post,
		Comments: comments,
		IsAuthor: isAuthor,
	})
}

// CreateForm handles GET /posts/create (login required).
func (h *PostHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, "New post", postFormData{
		Errors: make(map[string]string),
		FormValues: map[string]string{
			"pub_date":     time.Now().Format(pubDateLayout),
			"is_published": "on",
		},
	})
}

// Create handles POST /posts/create (login required).
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return
	}

	form, validationErrors, ok := h.parsePostForm(w, r)
	if !ok {
		return
	}
	if len(validationErrors) > 0 {
		h.renderForm(w, r, "New post", postFormData{
			Errors:     validationErrors,
			FormValues: form.values,
		})
		return
	}

	imagePath := sql.NullString{}
	if form.imageResult != nil {
		imagePath = sql.NullString{String: form.imageResult.ImagePath, Valid: true}
	}

	now := time.Now()
	post, err := h.queries.CreatePost(r.Context(), store.CreatePostParams{
		Title:       form.title,
		Body:        form.body,
		PubDate:     form.pubDate,
		IsPublished: form.isPublished,
		AuthorID:    user.ID,
		CategoryID:  form.categoryID,
		LocationID:  form.locationID,
		ImagePath:   imagePath,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		h.cleanupImage(form.imageResult)
		logAndInternalError(w, "failed to create post", "error", err)
		return
	}

	slog.Info("post created", "post_id", post.ID, "author_id", user.ID)
	_ = h.eventService.LogPostEvent(r.Context(), store.EventLevelInfo,
		"Post created", &user.ID, middleware.GetClientIP(r), r.URL.Path,
		map[string]any{"post_id": post.ID, "title": post.Title})

	flashSuccess(w, r, h.renderer, "/profile/"+user.Username, "Post created")
}

// EditForm handles GET /posts/{postID}/edit (author only).
func (h *PostHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requireOwnPost(w, r)
	if !ok {
		return
	}

	locationID := ""
	if post.LocationID.Valid {
		locationID = fmt.Sprintf("%d", post.LocationID.Int64)
	}
	isPublished := ""
	if post.IsPublished {
		isPublished = "on"
	}

	h.renderForm(w, r, "Edit post", postFormData{
		Errors: make(map[string]string),
		FormValues: map[string]string{
			"title":        post.Title,
			"body":         post.Body,
			"pub_date":     post.PubDate.Format(pubDateLayout),
			"category_id":  fmt.Sprintf("%d", post.CategoryID),
			"location_id":  locationID,
			"is_published": isPublished,
		},
		Post:   &post,
		IsEdit: true,
	})
}

// Edit handles POST /posts/{postID}/edit (author only).
func (h *PostHandler) Edit(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requireOwnPost(w, r)
	if !ok {
		return
	}

	form, validationErrors, ok := h.parsePostForm(w, r)
	if !ok {
		return
	}
	if len(validationErrors) > 0 {
		h.renderForm(w, r, "Edit post", postFormData{
			Errors:     validationErrors,
			FormValues: form.values,
			Post:       &post,
			IsEdit:     true,
		})
		return
	}

	imagePath := post.ImagePath
	if form.imageResult != nil {
		// Replace the previous image files on disk
		if post.ImagePath.Valid {
			if err := h.processor.DeletePostImage(post.ImagePath.String); err != nil {
				slog.Error("failed to delete old post image", "error", err, "post_id", post.ID)
			}
		}
		imagePath = sql.NullString{String: form.imageResult.ImagePath, Valid: true}
	}

	updated, err := h.queries.UpdatePost(r.Context(), store.UpdatePostParams{
		ID:          post.ID,
		Title:       form.title,
		Body:        form.body,
		PubDate:     form.pubDate,
		IsPublished: form.isPublished,
		CategoryID:  form.categoryID,
		LocationID:  form.locationID,
		ImagePath:   imagePath,
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		h.cleanupImage(form.imageResult)
		logAndInternalError(w, "failed to update post", "error", err, "post_id", post.ID)
		return
	}

	slog.Info("post updated", "post_id", updated.ID, "author_id", post.AuthorID)
	_ = h.eventService.LogPostEvent(r.Context(), store.EventLevelInfo,
		"Post updated", &post.AuthorID, middleware.GetClientIP(r), r.URL.Path,
		map[string]any{"post_id": updated.ID, "title": updated.Title})

	flashSuccess(w, r, h.renderer, postDetailURL(updated.ID), "Post updated")
}

// DeleteForm handles GET /posts/{postID}/delete (author only).
// Shows a confirmation page before deleting.
func (h *PostHandler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requireOwnPost(w, r)
	if !ok {
		return
	}

	h.render(w, r, "blog/post_confirm_delete", "Delete post", postDetailData{
		Post: store.PostWithMeta{Post: post},
	})
}

// Delete handles POST /posts/{postID}/delete (author only).
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requireOwnPost(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeletePost(r.Context(), post.ID); err != nil {
		logAndInternalError(w, "failed to delete post", "error", err, "post_id", post.ID)
		return
	}

	if post.ImagePath.Valid {
		if err := h.processor.DeletePostImage(post.ImagePath.String); err != nil {
			slog.Error("failed to delete post image", "error", err, "post_id", post.ID)
		}
	}

	user := middleware.GetUser(r)
	slog.Info("post deleted", "post_id", post.ID, "author_id", post.AuthorID)
	_ = h.eventService.LogPostEvent(r.Context(), store.EventLevelInfo,
		"Post deleted", &post.AuthorID, middleware.GetClientIP(r), r.URL.Path,
		map[string]any{"post_id": post.ID, "title": post.Title})

	flashSuccess(w, r, h.renderer, "/profile/"+user.Username, "Post deleted")
}

// requireOwnPost loads the post from the URL and checks the current
// user is its author. Non-authors are redirected to the post detail
// page instead of receiving an error.
func (h *PostHandler) requireOwnPost(w http.ResponseWriter, r *http.Request) (store.Post, bool) {
	var zero store.Post

	id, err := ParseIDParam(r, "postID")
	if err != nil {
		h.pages.NotFound(w, r)
		return zero, false
	}

	post, err := h.queries.GetPostByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.pages.NotFound(w, r)
			return zero, false
		}
		logAndInternalError(w, "failed to get post", "error", err, "post_id", id)
		return zero, false
	}

	user := middleware.GetUser(r)
	if user == nil || user.ID != post.AuthorID {
		http.Redirect(w, r, postDetailURL(post.ID), http.StatusSeeOther)
		return zero, false
	}
	return post, true
}

// parsedPostForm holds validated post form fields.
type parsedPostForm struct {
	title       string
	body        string
	pubDate     time.Time
	isPublished bool
	categoryID  int64
	locationID  sql.NullInt64
	imageResult *imaging.ProcessResult
	values      map[string]string
}

// parsePostForm parses and validates the post form, including an
// optional image upload. A false third return means the response has
// already been written.
func (h *PostHandler) parsePostForm(w http.ResponseWriter, r *http.Request) (parsedPostForm, map[string]string, bool) {
	var form parsedPostForm

	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		flashError(w, r, h.renderer, r.URL.Path, "Invalid form data or file too large")
		return form, nil, false
	}

	form.title = strings.TrimSpace(r.FormValue("title"))
	form.body = strings.TrimSpace(r.FormValue("body"))
	form.isPublished = r.FormValue("is_published") == "on"
	pubDateRaw := strings.TrimSpace(r.FormValue("pub_date"))
	categoryRaw := r.FormValue("category_id")
	locationRaw := r.FormValue("location_id")

	form.values = map[string]string{
		"title":       form.title,
		"body":        form.body,
		"pub_date":    pubDateRaw,
		"category_id": categoryRaw,
		"location_id": locationRaw,
	}
	if form.isPublished {
		form.values["is_published"] = "on"
	}

	validationErrors := make(map[string]string)
	if form.title == "" {
		validationErrors["title"] = "Title is required"
	} else if len(form.title) > maxTitleLength {
		validationErrors["title"] = fmt.Sprintf("Title must be at most %d characters", maxTitleLength)
	}
	if form.body == "" {
		validationErrors["body"] = "Text is required"
	}

	if pubDateRaw == "" {
		form.pubDate = time.Now()
	} else if parsed, err := time.ParseInLocation(pubDateLayout, pubDateRaw, time.Local); err != nil {
		validationErrors["pub_date"] = "Enter a valid date and time"
	} else {
		form.pubDate = parsed
	}

	if categoryID := util.ParseNullInt64Positive(categoryRaw); !categoryID.Valid {
		validationErrors["category_id"] = "Category is required"
	} else if _, err := h.queries.GetCategoryByID(r.Context(), categoryID.Int64); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			validationErrors["category_id"] = "Category not found"
		} else {
			logAndInternalError(w, "failed to check category", "error", err)
			return form, nil, false
		}
	} else {
		form.categoryID = categoryID.Int64
	}

	form.locationID = util.ParseNullInt64Positive(locationRaw)
	if form.locationID.Valid {
		if _, err := h.queries.GetLocationByID(r.Context(), form.locationID.Int64); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				validationErrors["location_id"] = "Location not found"
			} else {
				logAndInternalError(w, "failed to check location", "error", err)
				return form, nil, false
			}
		}
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// No image uploaded
	case err != nil:
		validationErrors["image"] = "Error reading uploaded file"
	default:
		defer file.Close()
		if ct := header.Header.Get("Content-Type"); ct != "" && !h.processor.IsSupportedType(ct) {
			validationErrors["image"] = "Unsupported image type (use JPEG, PNG, GIF or WebP)"
		} else if len(validationErrors) == 0 {
			result, err := h.processor.ProcessPostImage(file)
			if err != nil {
				slog.Error("image processing failed", "error", err, "filename", header.Filename)
				validationErrors["image"] = "Could not process the uploaded image"
			} else {
				form.imageResult = result
			}
		}
	}

	return form, validationErrors, true
}

// cleanupImage removes processed image files after a failed save.
func (h *PostHandler) cleanupImage(result *imaging.ProcessResult) {
	if result == nil {
		return
	}
	if err := h.processor.DeletePostImage(result.ImagePath); err != nil {
		slog.Error("failed to clean up image", "error", err, "path", result.ImagePath)
	}
}

// renderForm loads form choices and renders the post form template.
func (h *PostHandler) renderForm(w http.ResponseWriter, r *http.Request, title string, data postFormData) {
	categories, err := h.queries.ListPublishedCategories(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list categories", "error", err)
		return
	}
	locations, err := h.queries.ListPublishedLocations(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list locations", "error", err)
		return
	}
	data.Categories = categories
	data.Locations = locations

	h.render(w, r, "blog/post_form", title, data)
}

func (h *PostHandler) render(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	if err := h.renderer.Render(w, r, name, baseData(r, title, data)); err != nil {
		logAndInternalError(w, "failed to render post page", "error", err, "template", name)
	}
}

// postDetailURL builds the canonical URL of a post detail page.
func postDetailURL(id int64) string {
	return fmt.Sprintf("/posts/%d", id)
}
