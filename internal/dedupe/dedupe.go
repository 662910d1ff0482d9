// Package dedupe remembers inbound message ids so a message redelivered after
// a reconnect is answered only once.
package dedupe

import (
	"context"
	"time"

	"stock-bot/internal/common/database"
	apperrors "stock-bot/internal/common/errors"
)

// Store reports whether a message id was already processed.
type Store interface {
	Seen(ctx context.Context, id string) (bool, error)
}

// RedisStore marks ids with SET NX so the first writer wins across restarts
// and replicas.
type RedisStore struct {
	redis  *database.RedisClient
	ttl    time.Duration
	prefix string
}

func NewRedisStore(redis *database.RedisClient, ttl time.Duration, prefix string) *RedisStore {
	return &RedisStore{redis: redis, ttl: ttl, prefix: prefix}
}

// Seen marks id and reports whether it was marked before. On a Redis failure
// it returns false with a DEDUPE_UNAVAILABLE error; callers should answer the
// message anyway.
func (s *RedisStore) Seen(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	set, err := s.redis.SetNX(ctx, s.prefix+id, 1, s.ttl)
	if err != nil {
		return false, apperrors.NewDedupeUnavailableError(err)
	}
	return !set, nil
}

// Noop never reports a duplicate.
type Noop struct{}

func (Noop) Seen(context.Context, string) (bool, error) { return false, nil }
