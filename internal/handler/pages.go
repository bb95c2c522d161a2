// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides HTTP handlers for the application.
package handler

import (
	"net/http"

	"github.com/olegiv/blogicum-go/internal/middleware"
	"github.com/olegiv/blogicum-go/internal/render"
)

// PageHandler serves the static pages and the error pages.
type PageHandler struct {
	renderer *render.Renderer
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(renderer *render.Renderer) *PageHandler {
	return &PageHandler{renderer: renderer}
}

// About handles GET /pages/about.
func (h *PageHandler) About(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, "pages/about", "About")
}

// Rules handles GET /pages/rules.
func (h *PageHandler) Rules(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, "pages/rules", "Rules")
}

// NotFound renders the custom 404 page.
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusNotFound, "pages/404", "Page not found")
}

// Forbidden renders the custom 403 page. It is also wired as the CSRF
// failure handler.
func (h *PageHandler) Forbidden(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusForbidden, "pages/403", "Forbidden")
}

// InternalError renders the custom 500 page.
func (h *PageHandler) InternalError(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusInternalServerError, "pages/500", "Server error")
}

func (h *PageHandler) renderPage(w http.ResponseWriter, r *http.Request, status int, name, title string) {
	err := h.renderer.RenderStatus(w, r, status, name, render.TemplateData{
		Title:    title,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
	})
	if err != nil {
		logAndInternalError(w, "failed to render page", "error", err, "template", name)
	}
}
