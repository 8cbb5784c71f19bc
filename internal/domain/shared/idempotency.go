package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys for a bounded time
type IdempotencyStore interface {
	// Claim records key for ttl. It returns false when the key is already held.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release forgets key so a failed request can be retried
	Release(ctx context.Context, key string) error

	// Close releases resources held by the store
	Close() error
}
