package db

import (
	"context"
	"fmt"
	"time"

	"travel-crm/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to a single-node Redis used for the profile cache
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("no Redis address provided")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// RedisHealth adapts a Redis client to the health checker
type RedisHealth struct {
	Client *redis.Client
}

func (r RedisHealth) HealthCheck(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}
