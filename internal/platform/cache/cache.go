// Package cache stores the latest snapshot per handle.
package cache

import (
	"context"
	"errors"
	"strings"

	"cfstats/internal/domain/model"
)

// ErrMiss is returned by Get when nothing fresh is cached for the handle.
var ErrMiss = errors.New("cache: miss")

type SnapshotCache interface {
	Get(ctx context.Context, handle string) (*model.Snapshot, error)
	Set(ctx context.Context, snap *model.Snapshot) error
	Delete(ctx context.Context, handle string) error
}

// Key normalizes a handle; Codeforces handles are case-insensitive.
func Key(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}
