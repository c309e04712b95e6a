package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisClient implementa Client usando Redis.
// Recibe un *redis.Client ya construido: el wiring comparte la misma
// conexión entre cache y rate limiter.
type redisClient struct {
	client *redis.Client
	prefix string
}

// NewRedis crea un cliente de cache sobre una conexión Redis existente.
func NewRedis(client *redis.Client, prefix string) Client {
	return &redisClient{client: client, prefix: prefix}
}

func (c *redisClient) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *redisClient) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, c.key(key)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (c *redisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(key), value, ttl).Err()
}

func (c *redisClient) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}

func (c *redisClient) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *redisClient) Close() error {
	return c.client.Close()
}
