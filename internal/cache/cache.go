// Package cache provides the response cache used by the gateway: opaque
// serialized values keyed by string, with per-key expiration. Two backends are
// available, an in-memory store for single-instance deployments and a Redis
// store for shared deployments.
package cache

import (
	"context"
	"time"
)

// Store is the response cache contract. Get never returns an expired entry.
// Set overwrites unconditionally and is a no-op when ttl <= 0; writes are
// best-effort and concurrent writes to the same key are last-write-wins.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Stop()
}
