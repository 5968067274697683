package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"freight-assignment-service/internal/domain"
	"freight-assignment-service/internal/ports"

	redis "github.com/redis/go-redis/v9"
)

// RedisPlanCache keeps finished plans around for repeated identical
// requests. Entries expire on their own; the cache is never the source
// of truth.
type RedisPlanCache struct {
	rdb *redis.Client
}

// NewRedisPlanCache connects to the redis instance at url
// (e.g. "redis://localhost:6379/0") and verifies it answers.
func NewRedisPlanCache(url string) (*RedisPlanCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("plan cache: parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("plan cache: ping redis: %w", err)
	}
	return &RedisPlanCache{rdb: rdb}, nil
}

func (c *RedisPlanCache) Get(ctx context.Context, key string) (*domain.Plan, error) {
	payload, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("plan cache: get %s: %w", key, err)
	}

	var p domain.Plan
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("plan cache: decode %s: %w", key, err)
	}
	return &p, nil
}

func (c *RedisPlanCache) Put(ctx context.Context, key string, p *domain.Plan, ttl time.Duration) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("plan cache: encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("plan cache: set %s: %w", key, err)
	}
	return nil
}

func (c *RedisPlanCache) Close() error {
	return c.rdb.Close()
}
