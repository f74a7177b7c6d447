package cache

import (
	"context"
	"sync"
	"time"
)

const memoryCleanupInterval = time.Minute

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store backed by a map with passive expiration.
// A janitor goroutine prunes expired entries so short-TTL keys do not pile up.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

// NewMemoryStore creates an in-memory response cache
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		entries:       make(map[string]memoryEntry),
		cleanupTicker: time.NewTicker(memoryCleanupInterval),
		stopCleanup:   make(chan struct{}),
	}

	go store.cleanup()

	return store
}

// Get returns the cached value for key, treating expired entries as misses
func (store *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	store.mu.RLock()
	entry, exists := store.entries[key]
	store.mu.RUnlock()

	if !exists || time.Now().After(entry.expiresAt) {
		cacheMisses.WithLabelValues("memory").Inc()
		return nil, false
	}

	cacheHits.WithLabelValues("memory").Inc()
	return entry.value, true
}

// Set stores value under key for ttl; ttl <= 0 stores nothing
func (store *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	store.mu.Lock()
	store.entries[key] = memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	store.mu.Unlock()
}

// Size returns the number of entries currently held, expired ones included
func (store *MemoryStore) Size() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.entries)
}

// cleanup removes expired entries until Stop is called
func (store *MemoryStore) cleanup() {
	for {
		select {
		case <-store.cleanupTicker.C:
			now := time.Now()
			store.mu.Lock()
			for key, entry := range store.entries {
				if now.After(entry.expiresAt) {
					delete(store.entries, key)
				}
			}
			store.mu.Unlock()
		case <-store.stopCleanup:
			store.cleanupTicker.Stop()
			return
		}
	}
}

// Stop stops the janitor goroutine
func (store *MemoryStore) Stop() {
	store.stopOnce.Do(func() {
		close(store.stopCleanup)
	})
}
