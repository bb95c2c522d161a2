// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// testLoginProtectionConfig returns a config suitable for fast testing.
func testLoginProtectionConfig(maxAttempts int, lockoutDuration, attemptWindow time.Duration) LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       10,  // High rate for testing
		IPBurst:           100, // High burst for testing
		MaxFailedAttempts: maxAttempts,
		LockoutDuration:   lockoutDuration,
		AttemptWindow:     attemptWindow,
	}
}

func TestDefaultLoginProtectionConfig(t *testing.T) {
	cfg := DefaultLoginProtectionConfig()

	if cfg.IPRateLimit != 0.5 {
		t.Errorf("IPRateLimit = %v, want 0.5", cfg.IPRateLimit)
	}
	if cfg.IPBurst != 5 {
		t.Errorf("IPBurst = %d, want 5", cfg.IPBurst)
	}
	if cfg.MaxFailedAttempts != 5 {
		t.Errorf("MaxFailedAttempts = %d, want 5", cfg.MaxFailedAttempts)
	}
	if cfg.LockoutDuration != 15*time.Minute {
		t.Errorf("LockoutDuration = %v, want 15m", cfg.LockoutDuration)
	}
	if cfg.AttemptWindow != 15*time.Minute {
		t.Errorf("AttemptWindow = %v, want 15m", cfg.AttemptWindow)
	}
}

func TestNewLoginProtectionDefaultValues(t *testing.T) {
	// Zero config values fall back to defaults
	lp := NewLoginProtection(LoginProtectionConfig{})

	if lp.maxFailedAttempts != 5 {
		t.Errorf("maxFailedAttempts = %d, want 5 (default)", lp.maxFailedAttempts)
	}
	if lp.lockoutDuration != 15*time.Minute {
		t.Errorf("lockoutDuration = %v, want 15m (default)", lp.lockoutDuration)
	}
}

func TestLoginProtectionIsAccountLocked(t *testing.T) {
	cfg := testLoginProtectionConfig(3, 1*time.Second, 1*time.Minute)
	lp := NewLoginProtection(cfg)
	username := "alice"

	// Initially not locked
	locked, _ := lp.IsAccountLocked(username)
	if locked {
		t.Error("Account should not be locked initially")
	}

	// Record failed attempts until locked
	for i := 0; i < cfg.MaxFailedAttempts; i++ {
		lp.RecordFailedAttempt(username)
	}

	// Now should be locked
	locked, remaining := lp.IsAccountLocked(username)
	if !locked {
		t.Error("Account should be locked after max failed attempts")
	}
	if remaining <= 0 {
		t.Error("Remaining lockout time should be positive")
	}

	// Wait for lockout to expire
	time.Sleep(cfg.LockoutDuration + 100*time.Millisecond)

	locked, _ = lp.IsAccountLocked(username)
	if locked {
		t.Error("Account should be unlocked after lockout expires")
	}
}

func TestLoginProtectionRecordFailedAttempt(t *testing.T) {
	cfg := testLoginProtectionConfig(3, 1*time.Second, 1*time.Minute)
	lp := NewLoginProtection(cfg)
	username := "bob"

	// Attempts below the threshold do not lock
	locked, _ := lp.RecordFailedAttempt(username)
	if locked {
		t.Error("First attempt should not lock account")
	}
	locked, _ = lp.RecordFailedAttempt(username)
	if locked {
		t.Error("Second attempt should not lock account")
	}

	// Third attempt reaches the threshold
	locked, duration := lp.RecordFailedAttempt(username)
	if !locked {
		t.Error("Third attempt should lock account")
	}
	if duration != cfg.LockoutDuration {
		t.Errorf("lock duration = %v, want %v", duration, cfg.LockoutDuration)
	}
}

func TestLoginProtectionRecordSuccessfulLogin(t *testing.T) {
	cfg := testLoginProtectionConfig(3, 1*time.Minute, 1*time.Minute)
	lp := NewLoginProtection(cfg)
	username := "carol"

	lp.RecordFailedAttempt(username)
	lp.RecordFailedAttempt(username)

	if got := lp.GetRemainingAttempts(username); got != 1 {
		t.Errorf("GetRemainingAttempts = %d, want 1", got)
	}

	// A successful login clears the tracking
	lp.RecordSuccessfulLogin(username)

	if got := lp.GetRemainingAttempts(username); got != cfg.MaxFailedAttempts {
		t.Errorf("GetRemainingAttempts = %d, want %d after success", got, cfg.MaxFailedAttempts)
	}
}

func TestLoginProtectionGetRemainingAttempts(t *testing.T) {
	cfg := testLoginProtectionConfig(5, 1*time.Minute, 1*time.Minute)
	lp := NewLoginProtection(cfg)
	username := "dave"

	if got := lp.GetRemainingAttempts(username); got != 5 {
		t.Errorf("GetRemainingAttempts = %d, want 5 for unknown account", got)
	}

	lp.RecordFailedAttempt(username)
	lp.RecordFailedAttempt(username)

	if got := lp.GetRemainingAttempts(username); got != 3 {
		t.Errorf("GetRemainingAttempts = %d, want 3", got)
	}
}

func TestLoginProtectionExponentialBackoff(t *testing.T) {
	cfg := testLoginProtectionConfig(2, 100*time.Millisecond, 1*time.Minute)
	lp := NewLoginProtection(cfg)
	username := "erin"

	// First lockout uses the base duration
	lp.RecordFailedAttempt(username)
	locked, first := lp.RecordFailedAttempt(username)
	if !locked {
		t.Fatal("expected first lockout")
	}
	if first != cfg.LockoutDuration {
		t.Errorf("first lockout = %v, want %v", first, cfg.LockoutDuration)
	}

	time.Sleep(cfg.LockoutDuration + 50*time.Millisecond)

	// Second lockout doubles
	lp.RecordFailedAttempt(username)
	locked, second := lp.RecordFailedAttempt(username)
	if !locked {
		t.Fatal("expected second lockout")
	}
	if second != 2*cfg.LockoutDuration {
		t.Errorf("second lockout = %v, want %v", second, 2*cfg.LockoutDuration)
	}
}

func TestLoginProtectionMiddleware(t *testing.T) {
	// One request allowed, no refill within the test
	cfg := LoginProtectionConfig{
		IPRateLimit:       0.001,
		IPBurst:           1,
		MaxFailedAttempts: 5,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	}
	lp := NewLoginProtection(cfg)

	handler := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// GET requests are never rate limited
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET status = %d, want 200", rec.Code)
		}
	}

	// First POST passes, second is limited
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first POST status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second POST status = %d, want 429", rec.Code)
	}

	// A different IP has its own limiter
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other IP POST status = %d, want 200", rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		realIP     string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{"x-real-ip wins", "203.0.113.7", "198.51.100.1", "10.0.0.1:1234", "203.0.113.7"},
		{"x-forwarded-for", "", "198.51.100.1", "10.0.0.1:1234", "198.51.100.1"},
		{"remote addr fallback", "", "", "10.0.0.1:1234", "10.0.0.1:1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := GetClientIP(req); got != tt.want {
				t.Errorf("GetClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
