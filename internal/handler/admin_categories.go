// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/blogicum-go/internal/cache"
	"github.com/olegiv/blogicum-go/internal/render"
	"github.com/olegiv/blogicum-go/internal/store"
	"github.com/olegiv/blogicum-go/internal/util"
)

// AdminCategoryHandler handles category management in the admin area.
type AdminCategoryHandler struct {
	queries      *store.Queries
	renderer     *render.Renderer
	cacheManager *cache.Manager
}

// NewAdminCategoryHandler creates a new AdminCategoryHandler.
func NewAdminCategoryHandler(db *sql.DB, renderer *render.Renderer, cm *cache.Manager) *AdminCategoryHandler {
	return &AdminCategoryHandler{
		queries:      store.New(db),
		renderer:     renderer,
		cacheManager: cm,
	}
}

// categoryListItem pairs a category with its post count.
type categoryListItem struct {
	Category  store.Category
	PostCount int64
}

// categoryFormData holds data for the category form template.
type categoryFormData struct {
	Category   *store.Category
	Errors     map[string]string
	FormValues map[string]string
	IsEdit     bool
}

// List handles GET /admin/categories.
func (h *AdminCategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.queries.ListCategories(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list categories", "error", err)
		return
	}

	items := make([]categoryListItem, 0, len(categories))
	for _, c := range categories {
		count, err := h.queries.CountPostsInCategory(r.Context(), c.ID)
		if err != nil {
			slog.Error("failed to count posts in category", "error", err, "category_id", c.ID)
		}
		items = append(items, categoryListItem{Category: c, PostCount: count})
	}

	if err := h.renderer.Render(w, r, "admin/categories", baseData(r, "Categories", items)); err != nil {
		logAndInternalError(w, "failed to render categories", "error", err)
	}
}

// NewForm handles GET /admin/categories/new.
func (h *AdminCategoryHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, "New category", categoryFormData{
		Errors: make(map[string]string),
		FormValues: map[string]string{
			"is_published": "on",
		},
	})
}

// Create handles POST /admin/categories/new.
func (h *AdminCategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminCategories) {
		return
	}

	form, validationErrors := h.parseCategoryForm(r, 0)
	if len(validationErrors) > 0 {
		h.renderForm(w, r, "New category", categoryFormData{
			Errors:     validationErrors,
			FormValues: form,
		})
		return
	}

	now := time.Now()
	category, err := h.queries.CreateCategory(r.Context(), store.CreateCategoryParams{
		Title:       form["title"],
		Slug:        form["slug"],
		Description: form["description"],
		IsPublished: form["is_published"] == "on",
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		logAndInternalError(w, "failed to create category", "error", err)
		return
	}

	h.cacheManager.InvalidateCategories(r.Context())
	slog.Info("category created", "category_id", category.ID, "slug", category.Slug)
	flashSuccess(w, r, h.renderer, redirectAdminCategories, "Category created")
}

// EditForm handles GET /admin/categories/{id}.
func (h *AdminCategoryHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	category, ok := h.requireCategory(w, r)
	if !ok {
		return
	}

	isPublished := ""
	if category.IsPublished {
		isPublished = "on"
	}
	h.renderForm(w, r, "Edit category", categoryFormData{
		Category: &category,
		Errors:   make(map[string]string),
		FormValues: map[string]string{
			"title":        category.Title,
			"slug":         category.Slug,
			"description":  category.Description,
			"is_published": isPublished,
		},
		IsEdit: true,
	})
}

// Update handles POST /admin/categories/{id}.
func (h *AdminCategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	category, ok := h.requireCategory(w, r)
	if !ok {
		return
	}

	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminCategories) {
		return
	}

	form, validationErrors := h.parseCategoryForm(r, category.ID)
	if len(validationErrors) > 0 {
		h.renderForm(w, r, "Edit category", categoryFormData{
			Category:   &category,
			Errors:     validationErrors,
			FormValues: form,
			IsEdit:     true,
		})
		return
	}

	updated, err := h.queries.UpdateCategory(r.Context(), store.UpdateCategoryParams{
		ID:          category.ID,
		Title:       form["title"],
		Slug:        form["slug"],
		Description: form["description"],
		IsPublished: form["is_published"] == "on",
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		logAndInternalError(w, "failed to update category", "error", err, "category_id", category.ID)
		return
	}

	h.cacheManager.InvalidateCategories(r.Context())
	slog.Info("category updated", "category_id", updated.ID, "slug", updated.Slug)
	flashSuccess(w, r, h.renderer, redirectAdminCategories, "Category updated")
}

// Delete handles POST /admin/categories/{id}/delete. A category that
// still has posts cannot be deleted.
func (h *AdminCategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	category, ok := h.requireCategory(w, r)
	if !ok {
		return
	}

	count, err := h.queries.CountPostsInCategory(r.Context(), category.ID)
	if err != nil {
		logAndInternalError(w, "failed to count posts in category", "error", err, "category_id", category.ID)
		return
	}
	if count > 0 {
		flashError(w, r, h.renderer, redirectAdminCategories,
			"Cannot delete a category that still has posts")
		return
	}

	if err := h.queries.DeleteCategory(r.Context(), category.ID); err != nil {
		logAndInternalError(w, "failed to delete category", "error", err, "category_id", category.ID)
		return
	}

	h.cacheManager.InvalidateCategories(r.Context())
	slog.Info("category deleted", "category_id", category.ID, "slug", category.Slug)
	flashSuccess(w, r, h.renderer, redirectAdminCategories, "Category deleted")
}

// parseCategoryForm validates the category form. An excludeID of zero
// means a new category, otherwise slug uniqueness excludes that row.
func (h *AdminCategoryHandler) parseCategoryForm(r *http.Request, excludeID int64) (map[string]string, map[string]string) {
	title := strings.TrimSpace(r.FormValue("title"))
	slug := strings.TrimSpace(r.FormValue("slug"))
	description := strings.TrimSpace(r.FormValue("description"))
	isPublished := r.FormValue("is_published")

	if slug == "" && title != "" {
		slug = util.Slugify(title)
	}

	form := map[string]string{
		"title":        title,
		"slug":         slug,
		"description":  description,
		"is_published": isPublished,
	}

	validationErrors := make(map[string]string)
	if title == "" {
		validationErrors["title"] = "Title is required"
	}
	if !util.IsValidSlug(slug) {
		validationErrors["slug"] = "Slug must contain only lowercase letters, digits and dashes"
	} else {
		var count int64
		var err error
		if excludeID > 0 {
			count, err = h.queries.CategorySlugExistsExcluding(r.Context(), store.CategorySlugExistsExcludingParams{
				Slug: slug,
				ID:   excludeID,
			})
		} else {
			count, err = h.queries.CategorySlugExists(r.Context(), slug)
		}
		if err != nil {
			slog.Error("failed to check category slug", "error", err)
			validationErrors["slug"] = "Error checking slug"
		} else if count > 0 {
			validationErrors["slug"] = "Slug is already in use"
		}
	}

	return form, validationErrors
}

// requireCategory loads the category from the URL id parameter.
func (h *AdminCategoryHandler) requireCategory(w http.ResponseWriter, r *http.Request) (store.Category, bool) {
	id, err := ParseIDParam(r, "id")
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminCategories, "Invalid category ID")
		return store.Category{}, false
	}
	return requireEntityWithRedirect(w, r, h.renderer, redirectAdminCategories, "category", id,
		func(id int64) (store.Category, error) {
			return h.queries.GetCategoryByID(r.Context(), id)
		})
}

func (h *AdminCategoryHandler) renderForm(w http.ResponseWriter, r *http.Request, title string, data categoryFormData) {
	if err := h.renderer.Render(w, r, "admin/category_form", baseData(r, title, data)); err != nil {
		logAndInternalError(w, "failed to render category form", "error", err)
	}
}
