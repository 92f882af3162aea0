package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/observability"
)

// cacheEnvelope wraps every cached value with its capture time.
type cacheEnvelope struct {
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// DiskCache persists advisory snapshots as one JSON file per key. Values
// are replaced whole; concurrent writers race benignly because the last
// whole-file write wins and every write is idempotent per key.
type DiskCache struct {
	dir    string
	logger zerolog.Logger
}

// NewDiskCache roots the cache at dir, creating it on first save.
func NewDiskCache(dir string, logger zerolog.Logger) *DiskCache {
	return &DiskCache{
		dir:    dir,
		logger: logger.With().Str("component", "disk_cache").Logger(),
	}
}

// Load decodes the cached value for key into dest, returning its capture
// time. Any read or decode failure is a plain miss; the cache never fails a
// caller that can fetch live data instead.
func (c *DiskCache) Load(key string, dest any) (time.Time, bool) {
	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		observability.CacheReads().WithLabelValues("miss").Inc()
		return time.Time{}, false
	}

	var envelope cacheEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache entry unreadable, treating as miss")
		observability.CacheReads().WithLabelValues("miss").Inc()
		return time.Time{}, false
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache entry shape mismatch, treating as miss")
		observability.CacheReads().WithLabelValues("miss").Inc()
		return time.Time{}, false
	}

	observability.CacheReads().WithLabelValues("hit").Inc()
	return envelope.Timestamp, true
}

// Save replaces the cached value for key.
func (c *DiskCache) Save(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value %s: %w", key, err)
	}
	content, err := json.Marshal(cacheEnvelope{Timestamp: time.Now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("encode cache envelope %s: %w", key, err)
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(c.path(key), content, 0o644); err != nil {
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	return nil
}

// Clear removes one cached value. Clearing an absent key is a no-op.
func (c *DiskCache) Clear(key string) error {
	err := os.Remove(c.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear cache entry %s: %w", key, err)
	}
	return nil
}

// ClearAll removes every cached value.
func (c *DiskCache) ClearAll() error {
	entries, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("list cache dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			return fmt.Errorf("clear cache entry %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func (c *DiskCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}
