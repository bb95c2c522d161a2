package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/olegiv/blogicum-go/internal/config"
	"github.com/olegiv/blogicum-go/internal/store"
)

// Cache keys.
const (
	keySiteConfig          = "site_config"
	keyPublishedCategories = "categories_published"
)

// Manager wraps the cache backend and exposes typed caches for data that is
// read on nearly every request: site configuration and the published category
// list rendered in the sidebar.
type Manager struct {
	backend Cache

	siteConfig *TypedCache[map[string]string]
	categories *TypedCache[[]store.Category]

	queries *store.Queries
}

// NewManager creates a cache manager using Redis when configured and an
// in-memory cache otherwise. A Redis connection failure falls back to memory
// so the application still starts.
func NewManager(cfg *config.Config, queries *store.Queries) *Manager {
	ttl := time.Duration(cfg.CacheTTL) * time.Second

	var backend Cache
	if cfg.UseRedisCache() {
		rc, err := NewRedisCache(RedisCacheOptions{
			URL:        cfg.RedisURL,
			Prefix:     cfg.CachePrefix,
			DefaultTTL: ttl,
		})
		if err != nil {
			slog.Warn("redis cache unavailable, falling back to memory cache", "error", err)
		} else {
			slog.Info("using redis cache", "prefix", cfg.CachePrefix)
			backend = rc
		}
	}
	if backend == nil {
		backend = NewMemoryCache(MemoryCacheOptions{
			DefaultTTL:      ttl,
			MaxSize:         cfg.CacheMaxSize,
			CleanupInterval: time.Minute,
		})
	}

	return &Manager{
		backend:    backend,
		siteConfig: NewTypedCache[map[string]string](backend, ttl),
		categories: NewTypedCache[[]store.Category](backend, ttl),
		queries:    queries,
	}
}

// SiteConfig returns the site configuration map, loading it from the database
// on a cache miss.
func (m *Manager) SiteConfig(ctx context.Context) (map[string]string, error) {
	cfg, err := m.siteConfig.GetOrSet(ctx, keySiteConfig, func() (*map[string]string, error) {
		entries, err := m.queries.ListConfig(ctx)
		if err != nil {
			return nil, err
		}
		values := make(map[string]string, len(entries))
		for _, e := range entries {
			values[e.Key] = e.Value
		}
		return &values, nil
	})
	if err != nil {
		return nil, err
	}
	return *cfg, nil
}

// PublishedCategories returns the published categories, loading them from the
// database on a cache miss.
func (m *Manager) PublishedCategories(ctx context.Context) ([]store.Category, error) {
	cats, err := m.categories.GetOrSet(ctx, keyPublishedCategories, func() (*[]store.Category, error) {
		list, err := m.queries.ListPublishedCategories(ctx)
		if err != nil {
			return nil, err
		}
		return &list, nil
	})
	if err != nil {
		return nil, err
	}
	return *cats, nil
}

// InvalidateSiteConfig drops the cached site configuration.
// Call after writing to the config table.
func (m *Manager) InvalidateSiteConfig(ctx context.Context) {
	if err := m.siteConfig.Delete(ctx, keySiteConfig); err != nil {
		slog.Warn("failed to invalidate site config cache", "error", err)
	}
}

// InvalidateCategories drops the cached category list.
// Call after creating, updating or deleting a category.
func (m *Manager) InvalidateCategories(ctx context.Context) {
	if err := m.categories.Delete(ctx, keyPublishedCategories); err != nil {
		slog.Warn("failed to invalidate category cache", "error", err)
	}
}

// Stats returns backend statistics when the backend supports them.
func (m *Manager) Stats() (Stats, bool) {
	if sp, ok := m.backend.(StatsProvider); ok {
		return sp.Stats(), true
	}
	return Stats{}, false
}

// Close releases the cache backend.
func (m *Manager) Close() error {
	return m.backend.Close()
}
