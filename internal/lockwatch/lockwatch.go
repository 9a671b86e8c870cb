// Package lockwatch keeps a distributed lock alive while its holder works.
package lockwatch

import (
	"context"
	"errors"
	"time"
)

const minInterval = time.Millisecond

// RenewFunc extends the lock. It reports false when the lock is no longer held
// by the caller. An error is treated as transient and retried on the next tick.
type RenewFunc func(ctx context.Context) (bool, error)

// Start calls renew every interval until the returned stop function is
// called. The returned context is cancelled with lostErr as its cause as soon
// as renew reports the lock gone. Stop waits for the renewal goroutine to
// exit; afterwards Lost tells whether the lock was lost.
func Start(ctx context.Context, interval time.Duration, renew RenewFunc, lostErr error) (context.Context, func()) {
	if interval < minInterval {
		interval = minInterval
	}

	workCtx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-workCtx.Done():
				return
			case <-ticker.C:
			}

			held, err := renew(workCtx)
			if err != nil {
				continue
			}

			if !held {
				cancel(lostErr)

				return
			}
		}
	}()

	return workCtx, func() {
		close(done)
		<-stopped
		cancel(nil)
	}
}

// Lost reports whether ctx, as returned by Start, was cancelled because the
// lock was lost.
func Lost(ctx context.Context, lostErr error) bool {
	return errors.Is(context.Cause(ctx), lostErr)
}
