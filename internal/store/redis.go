package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const redisKeyPrefix = "paatshala:cache:"

// RedisStore is the optional hot tier in front of the disk cache. Every
// failure degrades to a miss or a skipped write; redis being down never
// breaks a flow that disk alone can serve.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisStore wraps a connected client. ttl bounds how long hot entries
// outlive their disk counterparts.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "redis_cache").Logger(),
	}
}

// Load decodes the hot entry for key into dest, returning its capture time.
func (s *RedisStore) Load(ctx context.Context, key string, dest any) (time.Time, bool) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("key", key).Msg("hot cache read failed")
		}
		return time.Time{}, false
	}

	var envelope cacheEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return time.Time{}, false
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		return time.Time{}, false
	}
	return envelope.Timestamp, true
}

// Save stores the hot entry for key with the configured TTL.
func (s *RedisStore) Save(ctx context.Context, key string, value any) {
	s.saveAt(ctx, key, value, time.Now().UTC())
}

func (s *RedisStore) saveAt(ctx context.Context, key string, value any, at time.Time) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("hot cache value not encodable")
		return
	}
	content, err := json.Marshal(cacheEnvelope{Timestamp: at, Data: data})
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, content, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("hot cache write failed")
	}
}

// Clear removes the hot entry for key.
func (s *RedisStore) Clear(ctx context.Context, key string) {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("hot cache clear failed")
	}
}
