package worker

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Locker guards a handle so only one refresh of it runs at a time.
// queue.RedisLocker satisfies it across processes, LocalLocker within one.
type Locker interface {
	TryLock(ctx context.Context, key string) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) (bool, error)
}

type LocalLocker struct {
	mu   sync.Mutex
	held map[string]string
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]string)}
}

func (l *LocalLocker) TryLock(_ context.Context, key string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return "", false, nil
	}
	token := uuid.NewString()
	l.held[key] = token
	return token, true, nil
}

func (l *LocalLocker) Unlock(_ context.Context, key, token string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] != token {
		return false, nil
	}
	delete(l.held, key)
	return true, nil
}

func lockKey(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}
