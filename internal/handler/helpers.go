// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/mileusna/useragent"

	"github.com/olegiv/blogicum-go/internal/middleware"
	"github.com/olegiv/blogicum-go/internal/render"
)

// baseData builds the common template data for a request.
func baseData(r *http.Request, title string, data any) render.TemplateData {
	return render.TemplateData{
		Title:    title,
		SiteName: middleware.GetSiteName(r),
		User:     middleware.GetUser(r),
		Data:     data,
	}
}

// clientMetadata extracts client details for auth event logging.
func clientMetadata(r *http.Request) map[string]any {
	ua := useragent.Parse(r.UserAgent())
	md := map[string]any{
		"browser": ua.Name,
		"os":      ua.OS,
	}
	if ua.Version != "" {
		md["browser_version"] = ua.Version
	}
	if ua.Device != "" {
		md["device"] = ua.Device
	}
	switch {
	case ua.Mobile:
		md["device_type"] = "mobile"
	case ua.Tablet:
		md["device_type"] = "tablet"
	case ua.Bot:
		md["device_type"] = "bot"
	default:
		md["device_type"] = "desktop"
	}
	return md
}
