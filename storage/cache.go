package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Cache wraps a Store with a Redis read-through cache. Saves go to the base
// store first and then evict the cached value.
type Cache struct {
	base  Store
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Store using the provided Redis client and TTL.
func NewCache(base Store, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) Load(ctx context.Context, userID, key string) (string, error) {
	if v, ok := c.loadFromCache(ctx, userID, key); ok {
		return v, nil
	}

	v, err := c.base.Load(ctx, userID, key)
	if err != nil {
		return "", err
	}

	c.store(ctx, userID, key, v)
	return v, nil
}

func (c *Cache) Save(ctx context.Context, userID, key, value string) error {
	if err := c.base.Save(ctx, userID, key, value); err != nil {
		return err
	}

	c.evict(ctx, userID, key)
	return nil
}

func (c *Cache) loadFromCache(ctx context.Context, userID, key string) (string, bool) {
	if c.redis == nil {
		return "", false
	}
	v, err := c.redis.Get(ctx, selectionCacheKey(userID, key)).Result()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			log.WithError(err).WithField("user", userID).Debug("selection cache read failed")
			_ = c.redis.Del(ctx, selectionCacheKey(userID, key)).Err()
		}
		return "", false
	}
	return v, true
}

func (c *Cache) store(ctx context.Context, userID, key, value string) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	_ = c.redis.Set(ctx, selectionCacheKey(userID, key), value, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, userID, key string) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, selectionCacheKey(userID, key)).Err()
}

func selectionCacheKey(userID, key string) string {
	return "sel:" + userID + ":" + key
}
