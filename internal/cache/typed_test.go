// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testProfile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func newTestMemoryCache() *MemoryCache {
	return NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour})
}

func TestTypedCache_BasicOperations(t *testing.T) {
	memCache := newTestMemoryCache()
	defer func() { _ = memCache.Close() }()

	cache := NewTypedCache[testProfile](memCache, time.Hour)
	ctx := context.Background()

	profile := &testProfile{ID: 1, Username: "alice", Email: "alice@example.com"}

	// Test Set and Get
	err := cache.Set(ctx, "profile:1", profile)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, found := cache.Get(ctx, "profile:1")
	if !found {
		t.Fatal("expected to find profile:1")
	}
	if got.ID != profile.ID || got.Username != profile.Username || got.Email != profile.Email {
		t.Errorf("got %+v, want %+v", got, profile)
	}
}

func TestTypedCache_CacheMiss(t *testing.T) {
	memCache := newTestMemoryCache()
	defer func() { _ = memCache.Close() }()

	cache := NewTypedCache[testProfile](memCache, time.Hour)
	ctx := context.Background()

	_, found := cache.Get(ctx, "nonexistent")
	if found {
		t.Error("expected not to find nonexistent key")
	}
}

func TestTypedCache_Delete(t *testing.T) {
	memCache := newTestMemoryCache()
	defer func() { _ = memCache.Close() }()

	cache := NewTypedCache[testProfile](memCache, time.Hour)
	ctx := context.Background()

	profile := &testProfile{ID: 2, Username: "bob"}
	if err := cache.Set(ctx, "profile:2", profile); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := cache.Delete(ctx, "profile:2"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, found := cache.Get(ctx, "profile:2")
	if found {
		t.Error("expected profile:2 to be deleted")
	}
}

func TestTypedCache_GetOrSet(t *testing.T) {
	memCache := newTestMemoryCache()
	defer func() { _ = memCache.Close() }()

	cache := NewTypedCache[testProfile](memCache, time.Hour)
	ctx := context.Background()

	calls := 0
	loader := func() (*testProfile, error) {
		calls++
		return &testProfile{ID: 3, Username: "carol"}, nil
	}

	// First call computes and stores
	got, err := cache.GetOrSet(ctx, "profile:3", loader)
	if err != nil {
		t.Fatalf("GetOrSet failed: %v", err)
	}
	if got.Username != "carol" {
		t.Errorf("Username = %q, want %q", got.Username, "carol")
	}
	if calls != 1 {
		t.Errorf("loader calls = %d, want 1", calls)
	}

	// Second call hits the cache
	got, err = cache.GetOrSet(ctx, "profile:3", loader)
	if err != nil {
		t.Fatalf("GetOrSet failed: %v", err)
	}
	if got.Username != "carol" {
		t.Errorf("Username = %q, want %q", got.Username, "carol")
	}
	if calls != 1 {
		t.Errorf("loader calls = %d, want 1 after cache hit", calls)
	}
}

func TestTypedCache_GetOrSet_LoaderError(t *testing.T) {
	memCache := newTestMemoryCache()
	defer func() { _ = memCache.Close() }()

	cache := NewTypedCache[testProfile](memCache, time.Hour)
	ctx := context.Background()

	wantErr := errors.New("database down")
	_, err := cache.GetOrSet(ctx, "profile:4", func() (*testProfile, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("GetOrSet error = %v, want %v", err, wantErr)
	}

	// The failed loader must not poison the cache
	_, found := cache.Get(ctx, "profile:4")
	if found {
		t.Error("expected nothing cached after loader error")
	}
}

func TestTypedCache_Corrupted(t *testing.T) {
	memCache := newTestMemoryCache()
	defer func() { _ = memCache.Close() }()

	cache := NewTypedCache[testProfile](memCache, time.Hour)
	ctx := context.Background()

	// A value that does not unmarshal into the type behaves like a miss
	if err := memCache.Set(ctx, "profile:5", []byte("not json"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	_, found := cache.Get(ctx, "profile:5")
	if found {
		t.Error("expected corrupted entry to behave like a miss")
	}
}
