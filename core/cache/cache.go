package cache

import (
	"context"
	"fmt"

	"go-event-roster/core/constants"
	"go-event-roster/core/logger"

	"github.com/redis/go-redis/v9"
)

type Cache interface {
	Client() redis.UniversalClient
	Ping(ctx context.Context) error
	Del(ctx context.Context, keys ...string) error
	Close() error
}

type RedisCache struct {
	client redis.UniversalClient
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisCache connects and pings Redis.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  constants.DefaultTimeout,
		ReadTimeout:  constants.DefaultTimeout,
		WriteTimeout: constants.DefaultTimeout,
	})

	c := &RedisCache{client: client}
	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	logger.Info("Redis connected", "addr", cfg.Addr, "db", cfg.DB)
	return c, nil
}

// NewFromClient wraps an existing client, e.g. one pointed at miniredis in tests.
func NewFromClient(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Client() redis.UniversalClient {
	return c.client
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
