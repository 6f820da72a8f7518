package cache

import (
	"context"
	"errors"

	"cfstats/internal/domain/model"

	"go.uber.org/zap"
)

// Tiered reads through a short-lived local cache in front of a shared one.
// Errors from the shared tier are logged and treated as misses so a Redis
// outage only costs an upstream fetch.
type Tiered struct {
	local  SnapshotCache
	shared SnapshotCache
	logger *zap.Logger
}

func NewTiered(local, shared SnapshotCache, logger *zap.Logger) *Tiered {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tiered{local: local, shared: shared, logger: logger}
}

func (t *Tiered) Get(ctx context.Context, handle string) (*model.Snapshot, error) {
	if snap, err := t.local.Get(ctx, handle); err == nil {
		return snap, nil
	}
	snap, err := t.shared.Get(ctx, handle)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			t.logger.Warn("shared cache read failed", zap.String("handle", handle), zap.Error(err))
		}
		return nil, ErrMiss
	}
	_ = t.local.Set(ctx, snap)
	return snap, nil
}

func (t *Tiered) Set(ctx context.Context, snap *model.Snapshot) error {
	_ = t.local.Set(ctx, snap)
	if err := t.shared.Set(ctx, snap); err != nil {
		t.logger.Warn("shared cache write failed", zap.String("handle", snap.Handle), zap.Error(err))
	}
	return nil
}

func (t *Tiered) Delete(ctx context.Context, handle string) error {
	_ = t.local.Delete(ctx, handle)
	return t.shared.Delete(ctx, handle)
}
