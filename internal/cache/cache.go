package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskboard/backend/internal/logger"
)

// Cache is a thin Redis wrapper. It is an optimization layer only:
// every caller must behave correctly when a lookup misses.
type Cache struct {
	client *redis.Client
	log    *logger.Logger
}

func New(addr string, log *logger.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Cache{client: client, log: log.WithComponent("cache")}, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Client exposes the underlying client for health checks.
func (c *Cache) Client() *redis.Client {
	return c.client
}

func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		c.log.Warn(ctx, "cache get failed", map[string]interface{}{
			"cache_key": key,
			"reason":    err.Error(),
		})
		return "", false
	}
	return val, true
}

func (c *Cache) Set(ctx context.Context, key string, value string, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Warn(ctx, "cache set failed", map[string]interface{}{
			"cache_key": key,
			"reason":    err.Error(),
		})
	}
}
