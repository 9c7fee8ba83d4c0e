package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const tableCacheKey = "pricing:effective_table"

// TableCache stores the merged price list between requests.
type TableCache interface {
	Get(ctx context.Context) (Table, bool, error)
	Set(ctx context.Context, table Table, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// RedisTableCache keeps the table as JSON under a single key.
type RedisTableCache struct {
	rdb redis.UniversalClient
}

// NewRedisTableCache wraps a go-redis client.
func NewRedisTableCache(rdb redis.UniversalClient) *RedisTableCache {
	return &RedisTableCache{rdb: rdb}
}

func (c *RedisTableCache) Get(ctx context.Context) (Table, bool, error) {
	data, err := c.rdb.Get(ctx, tableCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return Table{}, false, nil
	}
	if err != nil {
		return Table{}, false, fmt.Errorf("read pricing cache: %w", err)
	}

	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return Table{}, false, fmt.Errorf("decode pricing cache: %w", err)
	}
	return table, true, nil
}

func (c *RedisTableCache) Set(ctx context.Context, table Table, ttl time.Duration) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode pricing cache: %w", err)
	}
	if err := c.rdb.Set(ctx, tableCacheKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("write pricing cache: %w", err)
	}
	return nil
}

func (c *RedisTableCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, tableCacheKey).Err(); err != nil {
		return fmt.Errorf("invalidate pricing cache: %w", err)
	}
	return nil
}

// NoopTableCache is used when Redis is not configured.
type NoopTableCache struct{}

func (NoopTableCache) Get(context.Context) (Table, bool, error)        { return Table{}, false, nil }
func (NoopTableCache) Set(context.Context, Table, time.Duration) error { return nil }
func (NoopTableCache) Invalidate(context.Context) error                { return nil }
