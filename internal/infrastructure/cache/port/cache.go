package port

import (
	"context"
	"time"
)

// Cache is a string key/value store with expiry. Implementations must be
// safe for concurrent use; values are opaque to the cache.
type Cache interface {
	// Get returns ErrMiss for an absent or expired key. Any other error is a
	// backend failure.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key. ttl <= 0 keeps it until evicted.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	Ping(ctx context.Context) error
	Close() error
}

// ErrMiss reports a key that is not in the cache.
var ErrMiss = errMiss{}

type errMiss struct{}

func (errMiss) Error() string { return "cache: miss" }
