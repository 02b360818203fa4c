// Package lock serializes work per conversation key.
package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/moby/locker"
)

// Local is an in-process keyed mutex. Waiters give up when their context ends.
type Local struct {
	locks *locker.Locker
}

func NewLocal() *Local {
	return &Local{locks: locker.New()}
}

// Lock blocks until key is free or ctx is done. The returned func releases the lock
// and may be called more than once.
func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	acquired := make(chan struct{})
	go func() {
		l.locks.Lock(key)
		close(acquired)
	}()

	select {
	case <-acquired:
		var once sync.Once
		return func() {
			once.Do(func() { _ = l.locks.Unlock(key) })
		}, nil
	case <-ctx.Done():
		// The waiter still gets the lock eventually; hand it straight back.
		go func() {
			<-acquired
			_ = l.locks.Unlock(key)
		}()
		return nil, fmt.Errorf("lock: %s: %w", key, ctx.Err())
	}
}
