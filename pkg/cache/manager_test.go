package cache

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Sternrassler/openbrewery-elt/internal/testutil"
	"github.com/redis/go-redis/v9"
)

func TestNewManager(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	manager := NewManager(client, 0)
	if manager.redis != client {
		t.Error("Manager redis client not set correctly")
	}
	if manager.DefaultTTL() != DefaultTTL {
		t.Errorf("DefaultTTL() = %v, want %v", manager.DefaultTTL(), DefaultTTL)
	}
}

func TestNewManager_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewManager should panic with nil redis client")
		}
	}()
	NewManager(nil, time.Minute)
}

func TestManager_SetGetDelete(t *testing.T) {
	manager := NewManager(testutil.StartRedis(t), time.Minute)
	ctx := context.Background()
	key := NewKey(http.MethodGet, "https://api.example.com/v1/breweries", nil)

	entry := &CacheEntry{
		Data:       []byte(`[{"id":"1"}]`),
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
		Expires:    time.Now().Add(5 * time.Minute),
		CachedAt:   time.Now(),
	}

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got.Data) != string(entry.Data) {
		t.Errorf("Data mismatch: got %s, want %s", got.Data, entry.Data)
	}
	if got.Headers.Get("Content-Type") != "application/json" {
		t.Errorf("Headers not preserved: %v", got.Headers)
	}

	if err := manager.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after Delete, got %v", err)
	}
}

func TestManager_ExpiredEntryNotStored(t *testing.T) {
	manager := NewManager(testutil.StartRedis(t), time.Minute)
	ctx := context.Background()
	key := NewKey(http.MethodGet, "https://api.example.com/expired", nil)

	entry := &CacheEntry{Data: []byte(`[]`), Expires: time.Now().Add(-time.Hour)}
	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestManager_InvalidEntry(t *testing.T) {
	client := testutil.StartRedis(t)
	manager := NewManager(client, time.Minute)
	ctx := context.Background()
	key := NewKey(http.MethodGet, "https://api.example.com/garbage", nil)

	if err := client.Set(ctx, key.String(), "not json", time.Minute).Err(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("Expected ErrInvalidEntry, got %v", err)
	}
}

func TestManager_Set_NilEntry(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	manager := NewManager(client, time.Minute)
	if err := manager.Set(context.Background(), CacheKey{}, nil); err == nil {
		t.Error("Set with nil entry should return error")
	}
}
