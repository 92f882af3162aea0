package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TieredStore reads hot-then-disk and writes through both tiers. The hot
// tier is optional; without it the store degrades to plain disk caching.
type TieredStore struct {
	hot    *RedisStore
	disk   *DiskCache
	logger zerolog.Logger
}

// NewTieredStore stacks the optional redis tier on the disk cache. hot may
// be nil.
func NewTieredStore(hot *RedisStore, disk *DiskCache, logger zerolog.Logger) *TieredStore {
	return &TieredStore{
		hot:    hot,
		disk:   disk,
		logger: logger.With().Str("component", "tiered_store").Logger(),
	}
}

// Load reads the freshest available copy of key. A disk hit after a hot
// miss backfills the hot tier with the disk copy's capture time intact.
func (s *TieredStore) Load(ctx context.Context, key string, dest any) (time.Time, bool) {
	if s.hot != nil {
		if at, ok := s.hot.Load(ctx, key, dest); ok {
			return at, true
		}
	}

	at, ok := s.disk.Load(key, dest)
	if !ok {
		return time.Time{}, false
	}
	if s.hot != nil {
		s.hot.saveAt(ctx, key, dest, at)
	}
	return at, true
}

// Save writes the value through both tiers. The disk write is the one that
// must succeed; the hot tier degrades silently.
func (s *TieredStore) Save(ctx context.Context, key string, value any) error {
	if err := s.disk.Save(key, value); err != nil {
		return err
	}
	if s.hot != nil {
		s.hot.Save(ctx, key, value)
	}
	return nil
}

// Clear removes the value from both tiers.
func (s *TieredStore) Clear(ctx context.Context, key string) error {
	if s.hot != nil {
		s.hot.Clear(ctx, key)
	}
	return s.disk.Clear(key)
}
