// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/blogicum-go/internal/cache"
	"github.com/olegiv/blogicum-go/internal/render"
	"github.com/olegiv/blogicum-go/internal/store"
)

// DashboardStats holds the statistics displayed on the admin dashboard.
type DashboardStats struct {
	TotalPosts      int64
	VisiblePosts    int64
	TotalUsers      int64
	TotalComments   int64
	TotalCategories int64
	TotalEvents     int64
}

// DashboardData holds all dashboard data including stats and recent activity.
type DashboardData struct {
	Stats        DashboardStats
	RecentEvents []store.Event
	CacheStats   *cache.Stats
}

// AdminHandler handles the admin dashboard.
type AdminHandler struct {
	queries      *store.Queries
	renderer     *render.Renderer
	cacheManager *cache.Manager
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *sql.DB, renderer *render.Renderer, cm *cache.Manager) *AdminHandler {
	return &AdminHandler{
		queries:      store.New(db),
		renderer:     renderer,
		cacheManager: cm,
	}
}

// Dashboard renders the admin dashboard with stats and recent activity.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := DashboardStats{}

	if count, err := h.queries.CountPosts(ctx); err != nil {
		slog.Error("failed to count posts", "error", err)
	} else {
		stats.TotalPosts = count
	}

	if count, err := h.queries.CountVisiblePosts(ctx, time.Now()); err != nil {
		slog.Error("failed to count visible posts", "error", err)
	} else {
		stats.VisiblePosts = count
	}

	if count, err := h.queries.CountUsers(ctx); err != nil {
		slog.Error("failed to count users", "error", err)
	} else {
		stats.TotalUsers = count
	}

	if count, err := h.queries.CountComments(ctx); err != nil {
		slog.Error("failed to count comments", "error", err)
	} else {
		stats.TotalComments = count
	}

	if categories, err := h.queries.ListCategories(ctx); err != nil {
		slog.Error("failed to list categories", "error", err)
	} else {
		stats.TotalCategories = int64(len(categories))
	}

	if count, err := h.queries.CountEvents(ctx); err != nil {
		slog.Error("failed to count events", "error", err)
	} else {
		stats.TotalEvents = count
	}

	data := DashboardData{Stats: stats}

	if events, err := h.queries.ListEvents(ctx, store.ListEventsParams{Limit: 5, Offset: 0}); err != nil {
		slog.Error("failed to list recent events", "error", err)
	} else {
		data.RecentEvents = events
	}

	if cacheStats, ok := h.cacheManager.Stats(); ok {
		data.CacheStats = &cacheStats
	}

	if err := h.renderer.Render(w, r, "admin/dashboard", baseData(r, "Dashboard", data)); err != nil {
		logAndInternalError(w, "failed to render dashboard", "error", err)
	}
}
