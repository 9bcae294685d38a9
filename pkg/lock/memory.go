package lock

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryLocker is a single-process Locker. go-cache's Add is atomic and
// fails while an unexpired item exists, which is exactly a lease.
type MemoryLocker struct {
	cache *cache.Cache
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{cache: cache.New(cache.NoExpiration, time.Minute)}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if err := l.cache.Add(key, struct{}{}, ttl); err != nil {
		return nil, false, nil
	}
	return func() { l.cache.Delete(key) }, true, nil
}
