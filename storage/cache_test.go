package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type stubStore struct {
	loadFn func(ctx context.Context, userID, key string) (string, error)
	saveFn func(ctx context.Context, userID, key, value string) error
}

func (s *stubStore) Load(ctx context.Context, userID, key string) (string, error) {
	if s.loadFn == nil {
		return "", errors.New("unexpected Load call")
	}
	return s.loadFn(ctx, userID, key)
}

func (s *stubStore) Save(ctx context.Context, userID, key, value string) error {
	if s.saveFn == nil {
		return errors.New("unexpected Save call")
	}
	return s.saveFn(ctx, userID, key, value)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCacheLoadMissThenHit(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()

	var calls int
	cache := NewCache(&stubStore{
		loadFn: func(ctx context.Context, userID, key string) (string, error) {
			calls++
			if userID != "user-1" || key != "boardId" {
				t.Fatalf("unexpected lookup %s/%s", userID, key)
			}
			return "b1", nil
		},
	}, client, time.Minute)

	v, err := cache.Load(ctx, "user-1", "boardId")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if v != "b1" || calls != 1 {
		t.Fatalf("unexpected value %q after %d calls", v, calls)
	}
	if ttl := mr.TTL(selectionCacheKey("user-1", "boardId")); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected TTL: %v", ttl)
	}

	v, err = cache.Load(ctx, "user-1", "boardId")
	if err != nil {
		t.Fatalf("cached load: %v", err)
	}
	if v != "b1" || calls != 1 {
		t.Fatalf("expected cached load to avoid base store, value=%q calls=%d", v, calls)
	}
}

func TestCacheSaveEvicts(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()

	backing := NewMemory()
	cache := NewCache(backing, client, time.Minute)

	if err := backing.Save(ctx, "u", "columnId", "c1"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := cache.Load(ctx, "u", "columnId"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !mr.Exists(selectionCacheKey("u", "columnId")) {
		t.Fatalf("expected cache entry after load")
	}

	if err := cache.Save(ctx, "u", "columnId", "c2"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if mr.Exists(selectionCacheKey("u", "columnId")) {
		t.Fatalf("expected cache entry to be evicted")
	}
	v, err := cache.Load(ctx, "u", "columnId")
	if err != nil || v != "c2" {
		t.Fatalf("expected fresh value c2, got %q err=%v", v, err)
	}
}

func TestCacheSaveFailureKeepsCache(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()
	mr.Set(selectionCacheKey("u", "boardId"), "b1")

	cache := NewCache(&stubStore{
		saveFn: func(context.Context, string, string, string) error { return errors.New("table down") },
	}, client, time.Minute)

	if err := cache.Save(ctx, "u", "boardId", "b2"); err == nil {
		t.Fatalf("expected save error")
	}
	if got, _ := mr.Get(selectionCacheKey("u", "boardId")); got != "b1" {
		t.Fatalf("expected cached value untouched, got %q", got)
	}
}

func TestCacheWithoutRedisUsesBase(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(NewMemory(), nil, time.Minute)
	if err := cache.Save(ctx, "u", "k", "v"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if v, err := cache.Load(ctx, "u", "k"); err != nil || v != "v" {
		t.Fatalf("unexpected load %q err=%v", v, err)
	}
}

func TestCacheZeroTTLDoesNotStore(t *testing.T) {
	mr, client := newRedis(t)
	cache := NewCache(&stubStore{
		loadFn: func(context.Context, string, string) (string, error) { return "b1", nil },
	}, client, 0)

	if _, err := cache.Load(context.Background(), "u", "boardId"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if mr.Exists(selectionCacheKey("u", "boardId")) {
		t.Fatalf("expected nothing cached with zero ttl")
	}
}
