package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Only delete the key if we still own it; the lease may have expired and
// been taken by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisLocker(rdb redis.UniversalClient, prefix string) *RedisLocker {
	if prefix == "" {
		prefix = "lock:"
	}
	return &RedisLocker{rdb: rdb, prefix: prefix}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, redisKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", redisKey, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// The caller's ctx may already be done; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.rdb, []string{redisKey}, token).Err()
	}
	return release, true, nil
}
