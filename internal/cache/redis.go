package cache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionCountKeyPrefix = "active_sessions:"

// RedisSessionCountCache keeps the counts in redis so that multiple server
// instances share one staleness window. Redis errors degrade to cache
// misses; they never surface to callers.
type RedisSessionCountCache struct {
	client *redis.Client
}

func NewRedisSessionCountCache(client *redis.Client) *RedisSessionCountCache {
	return &RedisSessionCountCache{client: client}
}

func (c *RedisSessionCountCache) Get(ctx context.Context, userID uuid.UUID) (int64, bool) {
	val, err := c.client.Get(ctx, sessionCountKeyPrefix+userID.String()).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("session count cache read failed", slog.String("error", err.Error()))
		}
		return 0, false
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return count, true
}

func (c *RedisSessionCountCache) Set(ctx context.Context, userID uuid.UUID, count int64, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := c.client.Set(ctx, sessionCountKeyPrefix+userID.String(), count, ttl).Err(); err != nil {
		slog.Warn("session count cache write failed", slog.String("error", err.Error()))
	}
}

func (c *RedisSessionCountCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := c.client.Del(ctx, sessionCountKeyPrefix+userID.String()).Err(); err != nil {
		slog.Warn("session count cache invalidation failed", slog.String("error", err.Error()))
	}
}
