package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// LocalLock serializes reminder sweeps inside one process. Entries expire
// after their TTL so a crashed sweep cannot hold the lock forever.
type LocalLock struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewLocalLock() *LocalLock {
	return &LocalLock{
		cache: cache.New(time.Minute, 5*time.Minute),
	}
}

func (l *LocalLock) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()

	l.mu.Lock()
	err := l.cache.Add(key, token, ttl)
	l.mu.Unlock()

	if err != nil {
		return nil, false, nil
	}

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()

		if current, found := l.cache.Get(key); found && current == token {
			l.cache.Delete(key)
		}
	}

	return release, true, nil
}
