package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fourinarow/engine/pkg/logger"
)

const searchKeyPrefix = "fourinarow:search:"

// NewClient connects and pings. The caller decides whether a failure is fatal.
func NewClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", addr, err)
	}

	logger.Info("redis", "connected successfully")
	return client, nil
}

// SearchCache keeps chosen columns in redis with an expiry, shared by every
// server process pointing at the same instance.
type SearchCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSearchCache(client *redis.Client, ttl time.Duration) *SearchCache {
	return &SearchCache{client: client, ttl: ttl}
}

func (c *SearchCache) Get(ctx context.Context, key string) (int, bool, error) {
	value, err := c.client.Get(ctx, searchKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	column, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt cache entry %q: %w", value, err)
	}
	return column, true, nil
}

func (c *SearchCache) Set(ctx context.Context, key string, column int) error {
	return c.client.Set(ctx, searchKeyPrefix+key, column, c.ttl).Err()
}

func (c *SearchCache) Close() error {
	return c.client.Close()
}
