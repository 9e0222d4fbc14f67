// internal/core/ports/cache.go
package ports

import (
	"context"
	"time"
)

// CacheRepository defines the interface for cache operations. The POS
// uses it for dashboard aggregates and hot barcode lookups; every write
// carries a TTL so a cold cache is always safe.
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
	Exists(ctx context.Context, keys ...string) (bool, error)

	// GetOrSet returns the cached value when present, otherwise runs
	// fetch, stores the result under ttl and unmarshals it into dest.
	GetOrSet(ctx context.Context, key string, dest interface{},
		fetch func() (interface{}, error), ttl time.Duration) error

	Increment(ctx context.Context, key string) (int64, error)
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)

	TTL(ctx context.Context, key string) (time.Duration, error)
	Flush(ctx context.Context) error
	Ping(ctx context.Context) error
}
