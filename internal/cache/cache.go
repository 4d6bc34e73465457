// Package cache provides caching for tile bytes and annotation queries of the dev platform.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/allegro/bigcache/v3"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/boucaud/sample-intensity-worker/internal/annotation"
)

// Config contains cache configuration.
type Config struct {
	TileCacheSizeMB int
	TileTTL         time.Duration
	QueryCacheSize  int
}

// Manager manages tile and query caches.
type Manager struct {
	tileCache  *bigcache.BigCache
	queryCache *lru.Cache[string, []byte]
}

// NewManager creates a new cache manager.
func NewManager(cfg Config) (*Manager, error) {
	tileCacheConfig := bigcache.Config{
		Shards:             64,
		LifeWindow:         cfg.TileTTL,
		CleanWindow:        cfg.TileTTL / 2,
		MaxEntriesInWindow: 1000,
		MaxEntrySize:       512 * 1024, // raw 16-bit planes are large
		HardMaxCacheSize:   cfg.TileCacheSizeMB,
		Verbose:            false,
	}

	tileCache, err := bigcache.New(context.Background(), tileCacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create tile cache: %w", err)
	}

	queryCache, err := lru.New[string, []byte](cfg.QueryCacheSize)
	if err != nil {
		tileCache.Close()
		return nil, fmt.Errorf("failed to create query cache: %w", err)
	}

	return &Manager{
		tileCache:  tileCache,
		queryCache: queryCache,
	}, nil
}

// GetTile retrieves a tile from cache.
func (m *Manager) GetTile(key string) ([]byte, bool) {
	data, err := m.tileCache.Get(key)
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetTile stores a tile in cache.
func (m *Manager) SetTile(key string, data []byte) error {
	return m.tileCache.Set(key, data)
}

// GetQuery retrieves a query result from cache.
func (m *Manager) GetQuery(key string) ([]byte, bool) {
	return m.queryCache.Get(key)
}

// SetQuery stores a query result in cache.
func (m *Manager) SetQuery(key string, data []byte) {
	m.queryCache.Add(key, data)
}

// PurgeDataset drops every cached query of a dataset. Called after writes.
func (m *Manager) PurgeDataset(datasetID string) {
	prefix := "ann:" + datasetID + ":"
	for _, key := range m.queryCache.Keys() {
		if strings.HasPrefix(key, prefix) {
			m.queryCache.Remove(key)
		}
	}
}

// TileKey generates a cache key for a raw tile.
func TileKey(datasetID string, loc annotation.Location, channel int) string {
	return fmt.Sprintf("tile:%s:xy%d/z%d/t%d/c%d", datasetID, loc.XY, loc.Z, loc.Time, channel)
}

// AnnotationsKey generates a cache key for an annotation list query.
func AnnotationsKey(datasetID, shape string) string {
	return "ann:" + datasetID + ":" + shape
}

// Stats returns cache statistics.
func (m *Manager) Stats() map[string]interface{} {
	return map[string]interface{}{
		"tile_cache_len":  m.tileCache.Len(),
		"tile_cache_cap":  m.tileCache.Capacity(),
		"query_cache_len": m.queryCache.Len(),
	}
}

// Close closes the cache manager.
func (m *Manager) Close() error {
	return m.tileCache.Close()
}
