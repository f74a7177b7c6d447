package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"btc-data-api/internal/logger"
)

// RedisStore is a Store backed by a shared Redis instance, for deployments
// running more than one gateway process. Expiration is delegated to Redis.
type RedisStore struct {
	client *redis.Client
	logger logger.Logger
}

// NewRedisStore creates a Redis-backed response cache
func NewRedisStore(client *redis.Client, logger logger.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: logger,
	}
}

// Get returns the cached value for key; backend errors are reported as misses
func (store *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := store.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			cacheErrors.WithLabelValues("redis", "get").Inc()
			store.logger.Warnf("redis get failed for key %s: %v", key, err)
		}
		cacheMisses.WithLabelValues("redis").Inc()
		return nil, false
	}

	cacheHits.WithLabelValues("redis").Inc()
	return value, true
}

// Set stores value under key for ttl; ttl <= 0 stores nothing. A failed write
// is logged and dropped, it never fails the request that produced the value.
func (store *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	if err := store.client.Set(ctx, key, value, ttl).Err(); err != nil {
		cacheErrors.WithLabelValues("redis", "set").Inc()
		store.logger.Warnf("redis set failed for key %s: %v", key, err)
	}
}

// Stop closes the Redis connection
func (store *RedisStore) Stop() {
	if err := store.client.Close(); err != nil {
		store.logger.Warnf("redis close failed: %v", err)
	}
}
