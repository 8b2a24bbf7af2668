package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemorySessionCountCache()
	ctx := context.Background()
	userID := uuid.New()

	if _, ok := c.Get(ctx, userID); ok {
		t.Fatalf("hit on empty cache")
	}

	c.Set(ctx, userID, 3, time.Minute)
	count, ok := c.Get(ctx, userID)
	if !ok || count != 3 {
		t.Fatalf("Get = (%d, %v), want (3, true)", count, ok)
	}

	c.Invalidate(ctx, userID)
	if _, ok := c.Get(ctx, userID); ok {
		t.Errorf("hit after invalidation")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemorySessionCountCache()
	ctx := context.Background()
	userID := uuid.New()

	c.Set(ctx, userID, 1, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get(ctx, userID); ok {
		t.Errorf("hit after ttl elapsed")
	}
}

func TestMemoryCacheIgnoresNonPositiveTTL(t *testing.T) {
	c := NewMemorySessionCountCache()
	ctx := context.Background()
	userID := uuid.New()

	c.Set(ctx, userID, 5, 0)
	if _, ok := c.Get(ctx, userID); ok {
		t.Errorf("entry stored with zero ttl")
	}
}
