// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/blogicum-go/internal/render"
	"github.com/olegiv/blogicum-go/internal/store"
)

// maxLocationNameLength caps location names.
const maxLocationNameLength = 256

// AdminLocationHandler handles location management in the admin area.
type AdminLocationHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewAdminLocationHandler creates a new AdminLocationHandler.
func NewAdminLocationHandler(db *sql.DB, renderer *render.Renderer) *AdminLocationHandler {
	return &AdminLocationHandler{
		queries:  store.New(db),
		renderer: renderer,
	}
}

// locationFormData holds data for the location form template.
type locationFormData struct {
	Location   *store.Location
	Errors     map[string]string
	FormValues map[string]string
	IsEdit     bool
}

// List handles GET /admin/locations.
func (h *AdminLocationHandler) List(w http.ResponseWriter, r *http.Request) {
	locations, err := h.queries.ListLocations(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list locations", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "admin/locations", baseData(r, "Locations", locations)); err != nil {
		logAndInternalError(w, "failed to render locations", "error", err)
	}
}

// NewForm handles GET /admin/locations/new.
func (h *AdminLocationHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, "New location", locationFormData{
		Errors: make(map[string]string),
		FormValues: map[string]string{
			"is_published": "on",
		},
	})
}

// Create handles POST /admin/locations/new.
func (h *AdminLocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminLocations) {
		return
	}

	form, validationErrors := parseLocationForm(r)
	if len(validationErrors) > 0 {
		h.renderForm(w, r, "New location", locationFormData{
			Errors:     validationErrors,
			FormValues: form,
		})
		return
	}

	now := time.Now()
	location, err := h.queries.CreateLocation(r.Context(), store.CreateLocationParams{
		Name:        form["name"],
		IsPublished: form["is_published"] == "on",
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		logAndInternalError(w, "failed to create location", "error", err)
		return
	}

	slog.Info("location created", "location_id", location.ID, "name", location.Name)
	flashSuccess(w, r, h.renderer, redirectAdminLocations, "Location created")
}

// EditForm handles GET /admin/locations/{id}.
func (h *AdminLocationHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	location, ok := h.requireLocation(w, r)
	if !ok {
		return
	}

	isPublished := ""
	if location.IsPublished {
		isPublished = "on"
	}
	h.renderForm(w, r, "Edit location", locationFormData{
		Location: &location,
		Errors:   make(map[string]string),
		FormValues: map[string]string{
			"name":         location.Name,
			"is_published": isPublished,
		},
		IsEdit: true,
	})
}

// Update handles POST /admin/locations/{id}.
func (h *AdminLocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	location, ok := h.requireLocation(w, r)
	if !ok {
		return
	}

	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminLocations) {
		return
	}

	form, validationErrors := parseLocationForm(r)
	if len(validationErrors) > 0 {
		h.renderForm(w, r, "Edit location", locationFormData{
			Location:   &location,
			Errors:     validationErrors,
			FormValues: form,
			IsEdit:     true,
		})
		return
	}

	updated, err := h.queries.UpdateLocation(r.Context(), store.UpdateLocationParams{
		ID:          location.ID,
		Name:        form["name"],
		IsPublished: form["is_published"] == "on",
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		logAndInternalError(w, "failed to update location", "error", err, "location_id", location.ID)
		return
	}

	slog.Info("location updated", "location_id", updated.ID, "name", updated.Name)
	flashSuccess(w, r, h.renderer, redirectAdminLocations, "Location updated")
}

// Delete handles POST /admin/locations/{id}/delete. Posts tagged with
// the location keep existing, their location is simply cleared.
func (h *AdminLocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	location, ok := h.requireLocation(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeleteLocation(r.Context(), location.ID); err != nil {
		logAndInternalError(w, "failed to delete location", "error", err, "location_id", location.ID)
		return
	}

	slog.Info("location deleted", "location_id", location.ID, "name", location.Name)
	flashSuccess(w, r, h.renderer, redirectAdminLocations, "Location deleted")
}

// parseLocationForm validates the location form.
func parseLocationForm(r *http.Request) (map[string]string, map[string]string) {
	name := strings.TrimSpace(r.FormValue("name"))
	isPublished := r.FormValue("is_published")

	form := map[string]string{
		"name":         name,
		"is_published": isPublished,
	}

	validationErrors := make(map[string]string)
	if name == "" {
		validationErrors["name"] = "Name is required"
	} else if len(name) > maxLocationNameLength {
		validationErrors["name"] = "Name is too long"
	}

	return form, validationErrors
}

// requireLocation loads the location from the URL id parameter.
func (h *AdminLocationHandler) requireLocation(w http.ResponseWriter, r *http.Request) (store.Location, bool) {
	id, err := ParseIDParam(r, "id")
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminLocations, "Invalid location ID")
		return store.Location{}, false
	}
	return requireEntityWithRedirect(w, r, h.renderer, redirectAdminLocations, "location", id,
		func(id int64) (store.Location, error) {
			return h.queries.GetLocationByID(r.Context(), id)
		})
}

func (h *AdminLocationHandler) renderForm(w http.ResponseWriter, r *http.Request, title string, data locationFormData) {
	if err := h.renderer.Render(w, r, "admin/location_form", baseData(r, title, data)); err != nil {
		logAndInternalError(w, "failed to render location form", "error", err)
	}
}
