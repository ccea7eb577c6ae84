package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores JSON-encoded values in Redis with a TTL. It is used
// when several processes share one derived-stats cache; invalidation from
// any process is then visible to all of them.
type RedisCache[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClient connects to Redis, accepting either a redis:// URL or a
// bare host:port address.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	opt, err := redis.ParseURL(addr)
	if err != nil {
		opt = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisCache wraps a Redis client as a Cache. Keys are namespaced with
// the given prefix.
func NewRedisCache[T any](client *redis.Client, prefix string, ttl time.Duration) *RedisCache[T] {
	return &RedisCache[T]{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache[T]) key(k string) string {
	return c.prefix + ":" + k
}

// Get retrieves a value. Any Redis or decode failure counts as a miss;
// a broken cache must never break reads.
func (c *RedisCache[T]) Get(key string) (T, bool) {
	var zero T
	raw, err := c.client.Get(context.Background(), c.key(key)).Result()
	if err != nil {
		return zero, false
	}
	var data T
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return zero, false
	}
	return data, true
}

// Set stores a value. Failures are ignored for the same reason.
func (c *RedisCache[T]) Set(key string, data T) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	c.client.Set(context.Background(), c.key(key), raw, c.ttl)
}

// Delete removes a key.
func (c *RedisCache[T]) Delete(key string) {
	c.client.Del(context.Background(), c.key(key))
}

// Size returns the number of keys under this cache's prefix.
func (c *RedisCache[T]) Size() int {
	keys, err := c.client.Keys(context.Background(), c.prefix+":*").Result()
	if err != nil {
		return 0
	}
	return len(keys)
}
