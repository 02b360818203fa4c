package lock

import (
	"context"
	"log/slog"
	"time"
)

// renewFunc extends a held lease. It reports false once the lease is no longer ours.
type renewFunc func(ctx context.Context) (bool, error)

// lease keeps a lock alive in the background until stop is called.
type lease struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// keepAlive renews the lease every third of ttl. Renewal stops when the lease is lost.
func keepAlive(key string, ttl time.Duration, renew renewFunc, logger *slog.Logger) *lease {
	every := max(ttl/3, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	l := &lease{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(l.done)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			rctx, rcancel := context.WithTimeout(ctx, every)
			held, err := renew(rctx)
			rcancel()
			switch {
			case ctx.Err() != nil:
				return
			case err != nil:
				logger.Warn("lock renewal failed", "key", key, "err", err)
			case !held:
				logger.Warn("lock lease lost", "key", key)
				return
			}
		}
	}()
	return l
}

// stop ends renewal and waits for an in-flight renewal to finish.
func (l *lease) stop() {
	l.cancel()
	<-l.done
}
