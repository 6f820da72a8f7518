package cache

import (
	"context"
	"time"

	"cfstats/internal/domain/model"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process cache with per-entry expiry.
type Memory struct {
	c *gocache.Cache
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{c: gocache.New(ttl, 2*ttl)}
}

func (m *Memory) Get(_ context.Context, handle string) (*model.Snapshot, error) {
	v, ok := m.c.Get(Key(handle))
	if !ok {
		return nil, ErrMiss
	}
	return v.(*model.Snapshot), nil
}

func (m *Memory) Set(_ context.Context, snap *model.Snapshot) error {
	m.c.SetDefault(Key(snap.Handle), snap)
	return nil
}

func (m *Memory) Delete(_ context.Context, handle string) error {
	m.c.Delete(Key(handle))
	return nil
}

// Len reports the number of entries, expired ones included until the janitor runs.
func (m *Memory) Len() int {
	return m.c.ItemCount()
}
