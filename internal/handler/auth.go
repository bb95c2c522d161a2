// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/blogicum-go/internal/auth"
	"github.com/olegiv/blogicum-go/internal/middleware"
	"github.com/olegiv/blogicum-go/internal/render"
	"github.com/olegiv/blogicum-go/internal/service"
	"github.com/olegiv/blogicum-go/internal/store"
	"github.com/olegiv/blogicum-go/internal/util"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// AuthHandler handles authentication routes.
type AuthHandler struct {
	queries         *store.Queries
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	eventService    *service.EventService
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		queries:         store.New(db),
		renderer:        renderer,
		sessionManager:  sm,
		eventService:    service.NewEventService(db),
		loginProtection: lp,
	}
}

// authFormData holds data for the login and registration templates.
type authFormData struct {
	Errors     map[string]string
	FormValues map[string]string
}

// LoginForm handles GET /auth/login.
// Already-authenticated users are sent to the homepage.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID); userID > 0 {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}

	h.renderAuthForm(w, r, "auth/login", "Log in", authFormData{
		Errors:     make(map[string]string),
		FormValues: make(map[string]string),
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectLogin) {
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if username == "" || password == "" {
		flashError(w, r, h.renderer, redirectLogin, "Username and password are required")
		return
	}

	clientIP := middleware.GetClientIP(r)

	// Check if account is locked
	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(username); locked {
			_ = h.eventService.LogAuthEvent(r.Context(), store.EventLevelWarning,
				"Login attempt on locked account", nil, clientIP, r.URL.Path,
				map[string]any{"username": username})
			flashError(w, r, h.renderer, redirectLogin,
				"Account temporarily locked, try again in "+formatDuration(remaining))
			return
		}
	}

	user, err := h.queries.GetUserByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Debug("login attempt for non-existent user", "username", username)
			_ = h.eventService.LogAuthEvent(r.Context(), store.EventLevelWarning,
				"Login failed: user not found", nil, clientIP, r.URL.Path,
				map[string]any{"username": username})
		} else {
			slog.Error("database error during login", "error", err)
		}
		// Record failed attempt even for non-existent users to prevent enumeration
		h.handleFailedLogin(w, r, username)
		return
	}

	valid, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err)
		flashError(w, r, h.renderer, redirectLogin, "Invalid username or password")
		return
	}

	if !valid {
		slog.Debug("invalid password attempt", "username", username)
		_ = h.eventService.LogAuthEvent(r.Context(), store.EventLevelWarning,
			"Login failed: invalid password", &user.ID, clientIP, r.URL.Path,
			map[string]any{"username": username})
		h.handleFailedLogin(w, r, username)
		return
	}

	// Clear failed attempts on successful login
	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(username)
	}

	// Re-hash password if it uses outdated parameters
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			if err := h.queries.UpdateUserPassword(r.Context(), store.UpdateUserPasswordParams{
				PasswordHash: newHash,
				UpdatedAt:    time.Now(),
				ID:           user.ID,
			}); err != nil {
				slog.Error("failed to re-hash password", "error", err, "user_id", user.ID)
			} else {
				slog.Info("password re-hashed with updated parameters", "user_id", user.ID)
			}
		}
	}

	if err := h.queries.UpdateUserLastLogin(r.Context(), store.UpdateUserLastLoginParams{
		LastLoginAt: sql.NullTime{Time: time.Now(), Valid: true},
		ID:          user.ID,
	}); err != nil {
		// Don't block login on this error
		slog.Error("failed to update last login time", "error", err, "user_id", user.ID)
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}

	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	slog.Info("user logged in", "user_id", user.ID, "username", user.Username)
	_ = h.eventService.LogAuthEvent(r.Context(), store.EventLevelInfo,
		"User logged in", &user.ID, clientIP, r.URL.Path, clientMetadata(r))

	flashSuccess(w, r, h.renderer, "/profile/"+user.Username, "Welcome back, "+user.FullName())
}

// handleFailedLogin records the failed attempt and redirects with an
// appropriate flash message.
func (h *AuthHandler) handleFailedLogin(w http.ResponseWriter, r *http.Request, username string) {
	if h.loginProtection != nil {
		if locked, lockDuration := h.loginProtection.RecordFailedAttempt(username); locked {
			flashError(w, r, h.renderer, redirectLogin,
				"Too many failed attempts, account locked for "+formatDuration(lockDuration))
			return
		}
		remaining := h.loginProtection.GetRemainingAttempts(username)
		if remaining <= 3 && remaining > 0 {
			flashError(w, r, h.renderer, redirectLogin,
				fmt.Sprintf("Invalid username or password (%d attempts remaining)", remaining))
			return
		}
	}
	flashError(w, r, h.renderer, redirectLogin, "Invalid username or password")
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID)

	// Log the event before destroying the session
	if userID > 0 {
		_ = h.eventService.LogAuthEvent(r.Context(), store.EventLevelInfo,
			"User logged out", &userID, middleware.GetClientIP(r), r.URL.Path, nil)
	}

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	slog.Info("user logged out", "user_id", userID)
	flashAndRedirect(w, r, h.renderer, RouteRoot, "You have been logged out", "info")
}

// RegistrationForm handles GET /auth/registration.
func (h *AuthHandler) RegistrationForm(w http.ResponseWriter, r *http.Request) {
	if userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID); userID > 0 {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}

	h.renderAuthForm(w, r, "auth/registration", "Registration", authFormData{
		Errors:     make(map[string]string),
		FormValues: make(map[string]string),
	})
}

// Register handles POST /auth/registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectRegistration) {
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(r.FormValue("email"))
	firstName := strings.TrimSpace(r.FormValue("first_name"))
	lastName := strings.TrimSpace(r.FormValue("last_name"))
	password := r.FormValue("password")
	passwordConfirm := r.FormValue("password_confirm")

	formValues := map[string]string{
		"username":   username,
		"email":      email,
		"first_name": firstName,
		"last_name":  lastName,
	}

	validationErrors := make(map[string]string)
	if !util.IsValidUsername(username) {
		validationErrors["username"] = "Username must be 2-64 characters: letters, digits, dots, dashes or underscores"
	} else if count, err := h.queries.UsernameExists(r.Context(), username); err != nil {
		logAndInternalError(w, "failed to check username", "error", err)
		return
	} else if count > 0 {
		validationErrors["username"] = "Username is already taken"
	}

	if !emailPattern.MatchString(email) {
		validationErrors["email"] = "Enter a valid email address"
	} else if count, err := h.queries.EmailExists(r.Context(), email); err != nil {
		logAndInternalError(w, "failed to check email", "error", err)
		return
	} else if count > 0 {
		validationErrors["email"] = "Email is already registered"
	}

	if len(password) < MinPasswordLength {
		validationErrors["password"] = fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)
	} else if password != passwordConfirm {
		validationErrors["password_confirm"] = "Passwords do not match"
	}

	if len(validationErrors) > 0 {
		h.renderAuthForm(w, r, "auth/registration", "Registration", authFormData{
			Errors:     validationErrors,
			FormValues: formValues,
		})
		return
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		logAndInternalError(w, "failed to hash password", "error", err)
		return
	}

	now := time.Now()
	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         store.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		slog.Error("failed to create user", "error", err)
		flashError(w, r, h.renderer, redirectRegistration, "Error creating account")
		return
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	_ = h.eventService.LogUserEvent(r.Context(), store.EventLevelInfo,
		"User registered", &user.ID, middleware.GetClientIP(r), r.URL.Path, clientMetadata(r))

	flashSuccess(w, r, h.renderer, redirectLogin, "Account created, you can now log in")
}

// PasswordChangeForm handles GET /auth/password_change (login required).
func (h *AuthHandler) PasswordChangeForm(w http.ResponseWriter, r *http.Request) {
	h.renderAuthForm(w, r, "auth/password_change", "Change password", authFormData{
		Errors:     make(map[string]string),
		FormValues: make(map[string]string),
	})
}

// PasswordChange handles POST /auth/password_change (login required).
func (h *AuthHandler) PasswordChange(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return
	}

	if !parseFormOrRedirect(w, r, h.renderer, RoutePasswordChange) {
		return
	}

	oldPassword := r.FormValue("old_password")
	newPassword := r.FormValue("new_password")
	newPasswordConfirm := r.FormValue("new_password_confirm")

	validationErrors := make(map[string]string)

	valid, err := auth.CheckPassword(oldPassword, user.PasswordHash)
	if err != nil || !valid {
		validationErrors["old_password"] = "Current password is incorrect"
	}
	if len(newPassword) < MinPasswordLength {
		validationErrors["new_password"] = fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)
	} else if newPassword != newPasswordConfirm {
		validationErrors["new_password_confirm"] = "Passwords do not match"
	}

	if len(validationErrors) > 0 {
		h.renderAuthForm(w, r, "auth/password_change", "Change password", authFormData{
			Errors:     validationErrors,
			FormValues: make(map[string]string),
		})
		return
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		logAndInternalError(w, "failed to hash password", "error", err)
		return
	}

	if err := h.queries.UpdateUserPassword(r.Context(), store.UpdateUserPasswordParams{
		PasswordHash: passwordHash,
		UpdatedAt:    time.Now(),
		ID:           user.ID,
	}); err != nil {
		logAndInternalError(w, "failed to update password", "error", err, "user_id", user.ID)
		return
	}

	// Invalidate other sessions by rotating this one
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		slog.Error("session renewal error after password change", "error", err)
	}

	slog.Info("password changed", "user_id", user.ID)
	_ = h.eventService.LogAuthEvent(r.Context(), store.EventLevelInfo,
		"Password changed", &user.ID, middleware.GetClientIP(r), r.URL.Path, nil)

	flashSuccess(w, r, h.renderer, "/profile/"+user.Username, "Password updated")
}

func (h *AuthHandler) renderAuthForm(w http.ResponseWriter, r *http.Request, name, title string, data authFormData) {
	if err := h.renderer.Render(w, r, name, baseData(r, title, data)); err != nil {
		logAndInternalError(w, "failed to render auth form", "error", err, "template", name)
	}
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
