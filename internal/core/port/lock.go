package port

import (
	"context"
	"time"
)

// CycleLock keeps two reminder sweeps from running at the same time. A false
// result with a nil error means somebody else holds the lock.
type CycleLock interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}
