package cache

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestMemoryStore_SetGet(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()

	ctx := context.Background()
	store.Set(ctx, "price:usd", []byte(`{"price_usd":64000}`), time.Minute)

	value, ok := store.Get(ctx, "price:usd")
	if !ok {
		t.Fatal("Get() miss, want hit")
	}
	if !bytes.Equal(value, []byte(`{"price_usd":64000}`)) {
		t.Errorf("Get() = %s, want stored value", value)
	}
}

func TestMemoryStore_MissOnUnknownKey(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()

	if _, ok := store.Get(context.Background(), "stats"); ok {
		t.Error("Get() hit for unknown key, want miss")
	}
}

func TestMemoryStore_Expiration(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()

	ctx := context.Background()
	store.Set(ctx, "mempool", []byte(`{}`), 20*time.Millisecond)

	if _, ok := store.Get(ctx, "mempool"); !ok {
		t.Fatal("Get() miss before expiry, want hit")
	}

	time.Sleep(30 * time.Millisecond)

	if _, ok := store.Get(ctx, "mempool"); ok {
		t.Error("Get() hit after expiry, want miss")
	}
}

func TestMemoryStore_ZeroTTLIsNoop(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()

	ctx := context.Background()
	store.Set(ctx, "balance:addr", []byte(`{}`), 0)
	store.Set(ctx, "tx:id", []byte(`{}`), -time.Second)

	if store.Size() != 0 {
		t.Errorf("Size() = %d after zero-TTL sets, want 0", store.Size())
	}
}

func TestMemoryStore_Overwrite(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()

	ctx := context.Background()
	store.Set(ctx, "fees", []byte(`first`), time.Minute)
	store.Set(ctx, "fees", []byte(`second`), time.Minute)

	value, ok := store.Get(ctx, "fees")
	if !ok {
		t.Fatal("Get() miss, want hit")
	}
	if string(value) != "second" {
		t.Errorf("Get() = %s, want last written value", value)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()

	ctx := context.Background()
	done := make(chan struct{})

	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				store.Set(ctx, "stats", []byte(`{}`), time.Minute)
				store.Get(ctx, "stats")
			}
		}()
	}

	for i := 0; i < 8; i++ {
		<-done
	}
}
