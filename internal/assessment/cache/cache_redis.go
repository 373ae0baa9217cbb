package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"caregate/internal/domain"
)

const keyPrefix = "assessment:result:"

// RedisCache shares assessment results across instances. Values are JSON
// snapshots of the record at completion time.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*domain.DecisionRecord, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var rec domain.DecisionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		// Treat undecodable entries as a miss; the computation is cheap
		// to redo relative to failing the request.
		return nil, false, nil
	}
	return &rec, true, nil
}

func (c *RedisCache) Put(ctx context.Context, key string, rec *domain.DecisionRecord, ttl time.Duration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}
