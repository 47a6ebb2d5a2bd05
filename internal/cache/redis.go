package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"payoff/internal/log"
)

// RedisCache stores JSON-encoded values under a key prefix so several
// instances can share simulation results.
type RedisCache[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *log.Logger
}

var _ Cache[int] = (*RedisCache[int])(nil)

func NewRedisCache[T any](client *redis.Client, prefix string, ttl time.Duration, logger *log.Logger) *RedisCache[T] {
	if logger == nil {
		logger = log.Discard()
	}
	if prefix == "" {
		prefix = "payoff:"
	}
	return &RedisCache[T]{client: client, prefix: prefix, ttl: ttl, logger: logger.WithComponent(log.ComponentCache)}
}

func (r *RedisCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false
	}
	if err != nil {
		r.logger.WarnContext(ctx, "Redis get failed", log.FieldError, err)
		return zero, false
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		r.logger.WarnContext(ctx, "Dropping undecodable cache entry", "key", key, log.FieldError, err)
		_ = r.client.Del(ctx, r.prefix+key).Err()
		return zero, false
	}
	return v, true
}

func (r *RedisCache[T]) Set(ctx context.Context, key string, data T) {
	b, err := json.Marshal(data)
	if err != nil {
		r.logger.WarnContext(ctx, "Cache value not encodable", log.FieldError, err)
		return
	}
	if err := r.client.Set(ctx, r.prefix+key, b, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "Redis set failed", log.FieldError, err)
	}
}

func (r *RedisCache[T]) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		r.logger.WarnContext(ctx, "Redis delete failed", log.FieldError, err)
	}
}

// Ping reports whether Redis is reachable.
func (r *RedisCache[T]) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *RedisCache[T]) Close() error {
	return r.client.Close()
}
