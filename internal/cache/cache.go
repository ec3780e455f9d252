// Package cache defines a small string cache port used for read-through
// profile caching, with a Redis adapter as the only real implementation.
package cache

import (
	"context"
	"time"
)

// Cache is a minimal get/set interface with TTL semantics. A miss is not
// an error; implementations return ok=false.
type Cache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
