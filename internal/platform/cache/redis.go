package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cfstats/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// Redis keeps JSON-encoded snapshots under prefix+handle with a TTL.
type Redis struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedis(rdb *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, handle string) (*model.Snapshot, error) {
	raw, err := r.rdb.Get(ctx, r.prefix+Key(handle)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("cache.Redis.Get: %w", err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// Drop entries written by an older layout.
		_ = r.rdb.Del(ctx, r.prefix+Key(handle)).Err()
		return nil, ErrMiss
	}
	return &snap, nil
}

func (r *Redis) Set(ctx context.Context, snap *model.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("cache.Redis.Set: %w", err)
	}
	if err := r.rdb.Set(ctx, r.prefix+Key(snap.Handle), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache.Redis.Set: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, handle string) error {
	if err := r.rdb.Del(ctx, r.prefix+Key(handle)).Err(); err != nil {
		return fmt.Errorf("cache.Redis.Delete: %w", err)
	}
	return nil
}
