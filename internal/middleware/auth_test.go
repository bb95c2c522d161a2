// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/olegiv/blogicum-go/internal/store"
)

func requestWithUser(user store.User) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(r.Context(), ContextKeyUser, user)
	return r.WithContext(ctx)
}

func TestGetUser(t *testing.T) {
	// No user in context
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetUser(r); got != nil {
		t.Errorf("GetUser = %+v, want nil", got)
	}

	// User in context
	user := store.User{ID: 7, Username: "alice", Role: store.RoleUser}
	got := GetUser(requestWithUser(user))
	if got == nil {
		t.Fatal("GetUser = nil, want user")
	}
	if got.ID != 7 || got.Username != "alice" {
		t.Errorf("GetUser = %+v, want ID 7 alice", got)
	}
}

func TestGetUserID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetUserID(r); got != 0 {
		t.Errorf("GetUserID = %d, want 0 without user", got)
	}
	if got := GetUserIDPtr(r); got != nil {
		t.Errorf("GetUserIDPtr = %v, want nil without user", got)
	}

	user := store.User{ID: 42, Username: "bob"}
	r = requestWithUser(user)
	if got := GetUserID(r); got != 42 {
		t.Errorf("GetUserID = %d, want 42", got)
	}
	ptr := GetUserIDPtr(r)
	if ptr == nil || *ptr != 42 {
		t.Errorf("GetUserIDPtr = %v, want 42", ptr)
	}
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("anonymous redirects to login", func(t *testing.T) {
		handler := RequireAdmin(nil)(next)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

		if rec.Code != http.StatusSeeOther {
			t.Errorf("status = %d, want 303", rec.Code)
		}
		if got := rec.Header().Get("Location"); got != "/auth/login" {
			t.Errorf("Location = %q, want /auth/login", got)
		}
	})

	t.Run("non-admin gets 403", func(t *testing.T) {
		handler := RequireAdmin(nil)(next)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestWithUser(store.User{ID: 1, Role: store.RoleUser}))

		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("non-admin uses custom forbidden handler", func(t *testing.T) {
		called := false
		forbidden := func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusForbidden)
		}
		handler := RequireAdmin(forbidden)(next)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestWithUser(store.User{ID: 1, Role: store.RoleUser}))

		if !called {
			t.Error("custom forbidden handler not called")
		}
	})

	t.Run("admin passes through", func(t *testing.T) {
		handler := RequireAdmin(nil)(next)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestWithUser(store.User{ID: 1, Role: store.RoleAdmin}))

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestGetSiteName(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetSiteName(r); got != "Blogicum" {
		t.Errorf("GetSiteName = %q, want default Blogicum", got)
	}

	ctx := context.WithValue(r.Context(), ContextKeySiteName, "My Blog")
	if got := GetSiteName(r.WithContext(ctx)); got != "My Blog" {
		t.Errorf("GetSiteName = %q, want My Blog", got)
	}
}

func TestLoadSiteConfig_NilManager(t *testing.T) {
	var siteName string
	handler := LoadSiteConfig(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siteName = GetSiteName(r)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if siteName != "Blogicum" {
		t.Errorf("site name = %q, want default Blogicum", siteName)
	}
}

func TestRequestPath(t *testing.T) {
	var path string
	handler := RequestPath(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = GetRequestPath(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/7", nil))

	if path != "/posts/7" {
		t.Errorf("request path = %q, want /posts/7", path)
	}

	if got := GetRequestPath(context.Background()); got != "" {
		t.Errorf("GetRequestPath empty ctx = %q, want empty", got)
	}
}
