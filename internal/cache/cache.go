// Package cache provides a small read-through cache over redis for hot
// lookups. A nil *Cache is valid and disables caching.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache stores JSON-encoded values with a fixed TTL.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to redis. An empty addr returns nil, disabling the cache.
func New(addr, password string, db int, ttl time.Duration) *Cache {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Cache{rdb: rdb, ttl: ttl}
}

// GetJSON loads a cached value into dst. Returns false on miss or any
// redis/decoding error; the caller falls through to the source of truth.
func (c *Cache) GetJSON(ctx context.Context, key string, dst interface{}) bool {
	if c == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// SetJSON stores a value. Errors are ignored; the cache is best effort.
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, key, raw, c.ttl)
}

// Delete drops keys after a mutation.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	c.rdb.Del(ctx, keys...)
}

// Close releases the redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
