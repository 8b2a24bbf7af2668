package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func TestRedisCacheRoundTrip(t *testing.T) {
	_, client := newTestRedis(t)
	c := NewRedisSessionCountCache(client)
	ctx := context.Background()
	userID := uuid.New()

	if _, ok := c.Get(ctx, userID); ok {
		t.Fatalf("hit on empty cache")
	}

	c.Set(ctx, userID, 2, time.Minute)
	count, ok := c.Get(ctx, userID)
	if !ok || count != 2 {
		t.Fatalf("Get = (%d, %v), want (2, true)", count, ok)
	}

	c.Invalidate(ctx, userID)
	if _, ok := c.Get(ctx, userID); ok {
		t.Errorf("hit after invalidation")
	}
}

func TestRedisCacheExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewRedisSessionCountCache(client)
	ctx := context.Background()
	userID := uuid.New()

	c.Set(ctx, userID, 1, time.Second)
	mr.FastForward(2 * time.Second)

	if _, ok := c.Get(ctx, userID); ok {
		t.Errorf("hit after ttl elapsed")
	}
}

func TestRedisCacheDegradesToMiss(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewRedisSessionCountCache(client)
	ctx := context.Background()
	userID := uuid.New()

	mr.Close()

	// A dead redis must behave like an empty cache, not an error.
	if _, ok := c.Get(ctx, userID); ok {
		t.Errorf("hit from unreachable redis")
	}
	c.Set(ctx, userID, 1, time.Minute)
}
