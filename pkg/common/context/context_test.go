package context

import (
	"context"
	"errors"
	"testing"
	"time"

	wperrors "github.com/vnykmshr/webpool/pkg/common/errors"
)

func TestWithTimeoutOrCancel(t *testing.T) {
	ctx, cancel := WithTimeoutOrCancel(context.Background(), 10*time.Millisecond)
	defer cancel()

	<-ctx.Done()
	if !IsTimedOut(ctx) {
		t.Errorf("expected deadline exceeded, got %v", ctx.Err())
	}
}

func TestWithTimeoutOrCancelZeroTimeout(t *testing.T) {
	ctx, cancel := WithTimeoutOrCancel(context.Background(), 0)
	if _, ok := ctx.Deadline(); ok {
		t.Error("zero timeout should not set a deadline")
	}
	cancel()
	if !IsCanceled(ctx) {
		t.Error("context should be canceled")
	}
	if IsTimedOut(ctx) {
		t.Error("canceled context should not report a timeout")
	}
}

func TestWaitCompletes(t *testing.T) {
	ran := false
	err := Wait(context.Background(), func() { ran = true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Error("fn did not run")
	}
}

func TestWaitTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := Wait(ctx, func() { <-release })
	if !errors.Is(err, wperrors.ErrTimeout) {
		t.Errorf("got %v, want ErrTimeout", err)
	}
}

func TestWaitCanceled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Wait(ctx, func() { <-release })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
