package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisLocker is a per-key distributed lock (SET NX PX, compare-and-delete).
type RedisLocker struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisLocker(rdb *redis.Client, prefix string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, prefix: prefix, ttl: ttl}
}

// TryLock returns a token when the lock was acquired, ok=false when another
// holder has it.
func (l *RedisLocker) TryLock(ctx context.Context, key string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.prefix+key, token, l.ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Unlock reports false when the lock had expired or changed hands.
func (l *RedisLocker) Unlock(ctx context.Context, key, token string) (bool, error) {
	deleted, err := releaseScript.Run(ctx, l.rdb, []string{l.prefix + key}, token).Int64()
	if err != nil {
		return false, err
	}
	return deleted == 1, nil
}
