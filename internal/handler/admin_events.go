// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"

	"github.com/olegiv/blogicum-go/internal/render"
	"github.com/olegiv/blogicum-go/internal/store"
)

// AdminEventHandler shows the event log in the admin area.
type AdminEventHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewAdminEventHandler creates a new AdminEventHandler.
func NewAdminEventHandler(db *sql.DB, renderer *render.Renderer) *AdminEventHandler {
	return &AdminEventHandler{
		queries:  store.New(db),
		renderer: renderer,
	}
}

// adminEventListData holds data for the event log template.
type adminEventListData struct {
	Events     []store.Event
	Pagination Pagination
}

// List handles GET /admin/events.
func (h *AdminEventHandler) List(w http.ResponseWriter, r *http.Request) {
	totalCount, err := h.queries.CountEvents(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to count events", "error", err)
		return
	}

	page := NormalizePage(ParsePageParam(r), totalCount, AdminEventsPerPage)
	rows, err := h.queries.ListEvents(r.Context(), store.ListEventsParams{
		Limit:  int64(AdminEventsPerPage),
		Offset: int64((page - 1) * AdminEventsPerPage),
	})
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}

	data := adminEventListData{
		Events:     rows,
		Pagination: BuildPagination(page, totalCount, AdminEventsPerPage, RouteAdmin+RouteAdminEvents, nil),
	}
	if err := h.renderer.Render(w, r, "admin/events", baseData(r, "Event log", data)); err != nil {
		logAndInternalError(w, "failed to render event log", "error", err)
	}
}
