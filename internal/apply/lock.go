package apply

import (
	"context"
	"fmt"
	"sync"
)

// schemaLocks serializes applies per schema name within a process.
// Applies to different schemas proceed independently. Each lock is a
// one-slot channel so waiters can give up when their context ends.
type schemaLocks struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newSchemaLocks() *schemaLocks {
	return &schemaLocks{locks: make(map[string]chan struct{})}
}

// Acquire blocks until the lock for key is held or ctx is done. The
// returned release function must be called exactly once.
func (l *schemaLocks) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("acquire lock for %s: %w", key, err)
	}

	l.mu.Lock()
	slot, ok := l.locks[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.locks[key] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire lock for %s: %w", key, ctx.Err())
	}
}
