package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key namespaces. Everything this service writes to redis is prefixed so a
// shared instance can be inspected and flushed per concern.
const (
	cachePrefix       = "hisab:cache:"
	idempotencyPrefix = "hisab:idem:"
)

// Cache implements usecase.Cache on redis. Reconciliation results are its
// main tenant; mutations delete the touched accounts' keys.
type Cache struct {
	client *redis.Client
}

// NewCache creates a new Cache.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) key(k string) string {
	return cachePrefix + k
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, c.key(key)).Result()
}

// Set stores a value with a TTL.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(key), value, ttl).Err()
}

// SetNX stores a value only when the key is absent.
func (c *Cache) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, c.key(key), value, ttl).Result()
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}
