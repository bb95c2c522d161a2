// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/blogicum-go/internal/middleware"
	"github.com/olegiv/blogicum-go/internal/render"
	"github.com/olegiv/blogicum-go/internal/service"
	"github.com/olegiv/blogicum-go/internal/store"
	"github.com/olegiv/blogicum-go/internal/util"
)

// ProfileHandler lets a logged-in user edit their own profile.
type ProfileHandler struct {
	queries      *store.Queries
	renderer     *render.Renderer
	eventService *service.EventService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(db *sql.DB, renderer *render.Renderer) *ProfileHandler {
	return &ProfileHandler{
		queries:      store.New(db),
		renderer:     renderer,
		eventService: service.NewEventService(db),
	}
}

// EditForm handles GET /profile/edit (login required).
func (h *ProfileHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return
	}

	h.renderForm(w, r, authFormData{
		Errors: make(map[string]string),
		FormValues: map[string]string{
			"username":   user.Username,
			"email":      user.Email,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
		},
	})
}

// Edit handles POST /profile/edit (login required).
func (h *ProfileHandler) Edit(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return
	}

	if !parseFormOrRedirect(w, r, h.renderer, RouteProfileEdit) {
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(r.FormValue("email"))
	firstName := strings.TrimSpace(r.FormValue("first_name"))
	lastName := strings.TrimSpace(r.FormValue("last_name"))

	formValues := map[string]string{
		"username":   username,
		"email":      email,
		"first_name": firstName,
		"last_name":  lastName,
	}

	validationErrors := make(map[string]string)
	if !util.IsValidUsername(username) {
		validationErrors["username"] = "Username must be 2-64 characters: letters, digits, dots, dashes or underscores"
	} else if count, err := h.queries.UsernameExistsExcluding(r.Context(), store.UsernameExistsExcludingParams{
		Username: username,
		ID:       user.ID,
	}); err != nil {
		logAndInternalError(w, "failed to check username", "error", err)
		return
	} else if count > 0 {
		validationErrors["username"] = "Username is already taken"
	}

	if !emailPattern.MatchString(email) {
		validationErrors["email"] = "Enter a valid email address"
	} else if count, err := h.queries.EmailExistsExcluding(r.Context(), store.EmailExistsExcludingParams{
		Email: email,
		ID:    user.ID,
	}); err != nil {
		logAndInternalError(w, "failed to check email", "error", err)
		return
	} else if count > 0 {
		validationErrors["email"] = "Email is already registered"
	}

	if len(validationErrors) > 0 {
		h.renderForm(w, r, authFormData{
			Errors:     validationErrors,
			FormValues: formValues,
		})
		return
	}

	updated, err := h.queries.UpdateUserProfile(r.Context(), store.UpdateUserProfileParams{
		ID:        user.ID,
		Username:  username,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		logAndInternalError(w, "failed to update profile", "error", err, "user_id", user.ID)
		return
	}

	slog.Info("profile updated", "user_id", updated.ID, "username", updated.Username)
	_ = h.eventService.LogUserEvent(r.Context(), store.EventLevelInfo,
		"Profile updated", &updated.ID, middleware.GetClientIP(r), r.URL.Path, nil)

	flashSuccess(w, r, h.renderer, "/profile/"+updated.Username, "Profile updated")
}

func (h *ProfileHandler) renderForm(w http.ResponseWriter, r *http.Request, data authFormData) {
	if err := h.renderer.Render(w, r, "auth/profile_edit", baseData(r, "Edit profile", data)); err != nil {
		logAndInternalError(w, "failed to render profile form", "error", err)
	}
}
