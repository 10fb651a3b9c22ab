package context

import (
	"context"
	"time"

	wperrors "github.com/vnykmshr/webpool/pkg/common/errors"
)

// WithTimeoutOrCancel creates a context that is canceled either when the parent
// is canceled or when the timeout duration elapses, whichever comes first.
// A zero timeout returns a context that is only canceled with its parent.
func WithTimeoutOrCancel(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

// IsCanceled returns true if the context has been canceled
func IsCanceled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// IsTimedOut returns true if the context was canceled due to a timeout
func IsTimedOut(ctx context.Context) bool {
	return ctx.Err() == context.DeadlineExceeded
}

// Wait runs fn in its own goroutine and waits for it to return or for ctx to
// be done. fn keeps running after a timeout; Wait only stops waiting for it.
func Wait(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		if IsTimedOut(ctx) {
			return wperrors.ErrTimeout
		}
		return ctx.Err()
	}
}
