package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/EliranNovik/Leadify-sub026/pkg/config"
)

// NewRedisClient creates a Redis client and verifies connectivity
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// RedisCoordinator backs the dedup window and per-resource leases with Redis
// so multiple instances share them.
type RedisCoordinator struct {
	client *redis.Client
	prefix string
}

// NewRedisCoordinator creates a coordinator on an existing client
func NewRedisCoordinator(client *redis.Client) *RedisCoordinator {
	return &RedisCoordinator{client: client, prefix: "graphsync"}
}

// FirstSeen marks the dedup key inside the window. Returns true when this is
// the first sighting, false when the key was already claimed.
func (rc *RedisCoordinator) FirstSeen(ctx context.Context, dedupKey string, window time.Duration) (bool, error) {
	return rc.client.SetNX(ctx, rc.prefix+":dedup:"+dedupKey, 1, window).Result()
}

// Forget releases a dedup key so a failed notification can be redelivered
// before the window lapses.
func (rc *RedisCoordinator) Forget(ctx context.Context, dedupKey string) error {
	return rc.client.Del(ctx, rc.prefix+":dedup:"+dedupKey).Err()
}

// AcquireLease takes the per-resource processing lease. Notifications for the
// same resource serialize behind it; the TTL bounds how long a crashed worker
// can hold the resource.
func (rc *RedisCoordinator) AcquireLease(ctx context.Context, resource string, ttl time.Duration) (bool, error) {
	return rc.client.SetNX(ctx, rc.prefix+":lease:"+resource, 1, ttl).Result()
}

// ReleaseLease releases the per-resource lease
func (rc *RedisCoordinator) ReleaseLease(ctx context.Context, resource string) error {
	return rc.client.Del(ctx, rc.prefix+":lease:"+resource).Err()
}
