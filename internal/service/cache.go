package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProfileCache stores unified profiles keyed by normalized identifier.
// Get returns nil without error on a miss.
type ProfileCache interface {
	Get(ctx context.Context, key string) (*UnifiedCustomer, error)
	Set(ctx context.Context, key string, profile *UnifiedCustomer) error
}

const profileKeyPrefix = "travel-crm:profile:"

type RedisProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProfileCache(client *redis.Client, ttl time.Duration) *RedisProfileCache {
	return &RedisProfileCache{client: client, ttl: ttl}
}

func (c *RedisProfileCache) Get(ctx context.Context, key string) (*UnifiedCustomer, error) {
	raw, err := c.client.Get(ctx, profileKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached profile: %w", err)
	}

	var profile UnifiedCustomer
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode cached profile: %w", err)
	}
	return &profile, nil
}

func (c *RedisProfileCache) Set(ctx context.Context, key string, profile *UnifiedCustomer) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := c.client.Set(ctx, profileKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache profile: %w", err)
	}
	return nil
}
