package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"go-recruitchat/internal/infrastructure/cache/port"
)

const dialTimeout = 3 * time.Second

// RedisCache satisfies port.Cache on top of a go-redis v9 client. Every key
// is stored under an optional namespace so several services can share one
// Redis database.
type RedisCache struct {
	client    *redis.Client
	namespace string
}

// RedisOption tunes a RedisCache.
type RedisOption func(*RedisCache)

// WithNamespace prefixes every key with ns followed by a colon.
func WithNamespace(ns string) RedisOption {
	return func(r *RedisCache) {
		if ns != "" {
			r.namespace = ns + ":"
		}
	}
}

// NewRedisAdapter connects to the redis:// URL and checks it answers.
func NewRedisAdapter(ctx context.Context, url string, opts ...RedisOption) (*RedisCache, error) {
	if url == "" {
		return nil, errors.New("redis: url is empty")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}

	r := &RedisCache{client: redis.NewClient(opt)}
	for _, o := range opts {
		o(r)
	}

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := r.Ping(ctx); err != nil {
		_ = r.client.Close()
		return nil, err
	}
	return r, nil
}

var _ port.Cache = (*RedisCache)(nil)

func (r *RedisCache) key(k string) string {
	return r.namespace + k
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	res, err := r.client.Get(ctx, r.key(key)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", port.ErrMiss
	case err != nil:
		return "", fmt.Errorf("redis: get %s: %w", key, err)
	}
	return res, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
