package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

// MemorySessionCountCache is the in-process implementation, used when no
// redis instance is configured.
type MemorySessionCountCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]memoryEntry
}

func NewMemorySessionCountCache() *MemorySessionCountCache {
	return &MemorySessionCountCache{
		entries: make(map[uuid.UUID]memoryEntry),
	}
}

func (c *MemorySessionCountCache) Get(_ context.Context, userID uuid.UUID) (int64, bool) {
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()

	if !ok {
		return 0, false
	}
	if time.Now().After(entry.expiresAt) {
		c.Invalidate(context.Background(), userID)
		return 0, false
	}
	return entry.count, true
}

func (c *MemorySessionCountCache) Set(_ context.Context, userID uuid.UUID, count int64, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[userID] = memoryEntry{count: count, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

func (c *MemorySessionCountCache) Invalidate(_ context.Context, userID uuid.UUID) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}
