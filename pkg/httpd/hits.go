package httpd

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// HitCounter records one hit per served route.
type HitCounter interface {
	Incr(ctx context.Context, key string) error
}

// RedisHitCounter keeps per-route hit counts in Redis under
// "<prefix>:hits:<route>", so several server instances share totals.
type RedisHitCounter struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisHitCounter creates a hit counter backed by client.
func NewRedisHitCounter(client redis.UniversalClient, prefix string) *RedisHitCounter {
	if prefix == "" {
		prefix = "webpool"
	}
	return &RedisHitCounter{client: client, prefix: prefix}
}

// Key returns the Redis key used for route.
func (r *RedisHitCounter) Key(route string) string {
	return r.prefix + ":hits:" + route
}

// Incr increments the counter for route.
func (r *RedisHitCounter) Incr(ctx context.Context, route string) error {
	if err := r.client.Incr(ctx, r.Key(route)).Err(); err != nil {
		return &RedisError{Operation: "incr", Err: err}
	}
	return nil
}

// Hits returns the current count for route; a route never hit has zero.
func (r *RedisHitCounter) Hits(ctx context.Context, route string) (int64, error) {
	n, err := r.client.Get(ctx, r.Key(route)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, &RedisError{Operation: "get", Err: err}
	}
	return n, nil
}

// Ping checks that Redis is reachable.
func (r *RedisHitCounter) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return &RedisError{Operation: "ping", Err: err}
	}
	return nil
}

// RedisError wraps a failed Redis command.
type RedisError struct {
	Operation string
	Err       error
}

func (e *RedisError) Error() string {
	return "redis " + e.Operation + ": " + e.Err.Error()
}

func (e *RedisError) Unwrap() error {
	return e.Err
}
