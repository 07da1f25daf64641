package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"fxgate/pkg/domain"
)

// RedisStore is the shared cache tier, backed by Redis with JSON-marshalled
// snapshots.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisStore wraps an existing Redis client. Keys are namespaced with
// prefix.
func NewRedisStore(client *redis.Client, prefix string, logger *slog.Logger) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, logger: logger}
}

func (s *RedisStore) key(base string) string {
	return s.prefix + base
}

// Get returns the cached snapshot, (nil, nil) on a miss, or a CacheError on
// a backend fault.
func (s *RedisStore) Get(ctx context.Context, base string) (*domain.RateSnapshot, error) {
	val, err := s.client.Get(ctx, s.key(base)).Result()
	if errors.Is(err, redis.Nil) {
		s.logger.Debug("Shared cache miss", "base", base)
		return nil, nil
	}
	if err != nil {
		return nil, &domain.CacheError{Op: "get", Key: s.key(base), Err: err}
	}

	var snap domain.RateSnapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return nil, &domain.CacheError{Op: "decode", Key: s.key(base), Err: err}
	}
	s.logger.Debug("Shared cache hit", "base", base, "as_of", snap.AsOf)
	return &snap, nil
}

// Set stores a snapshot with the given TTL.
func (s *RedisStore) Set(ctx context.Context, base string, snap *domain.RateSnapshot, ttl time.Duration) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return &domain.CacheError{Op: "encode", Key: s.key(base), Err: err}
	}
	if err := s.client.Set(ctx, s.key(base), data, ttl).Err(); err != nil {
		return &domain.CacheError{Op: "set", Key: s.key(base), Err: err}
	}
	s.logger.Debug("Shared cache set", "base", base, "ttl", ttl)
	return nil
}

var _ Store = (*RedisStore)(nil)
