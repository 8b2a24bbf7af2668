package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionCountCache is a short-lived read cache for active-session counts,
// keyed by account id. It is a pure performance optimization: callers must
// never treat it as authoritative, and every session mutation path must
// call Invalidate for the affected account.
type SessionCountCache interface {
	Get(ctx context.Context, userID uuid.UUID) (int64, bool)
	Set(ctx context.Context, userID uuid.UUID, count int64, ttl time.Duration)
	Invalidate(ctx context.Context, userID uuid.UUID)
}
