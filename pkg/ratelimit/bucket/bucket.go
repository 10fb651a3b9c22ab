// Package bucket provides a token bucket used to pace how fast the server
// accepts connections.
package bucket

import (
	"context"
	"math"
	"sync"
	"time"

	wperrors "github.com/vnykmshr/webpool/pkg/common/errors"
)

// Limit is a rate in tokens per second.
type Limit float64

// Inf never limits.
var Inf = Limit(math.Inf(1))

// Every converts an interval between tokens into a Limit.
func Every(interval time.Duration) Limit {
	if interval <= 0 {
		return Inf
	}
	return Limit(time.Second) / Limit(interval)
}

// Limiter paces events to a rate with a burst allowance.
type Limiter interface {
	// Allow takes a token if one is available right now.
	Allow() bool

	// Wait blocks until a token is available or ctx is done.
	Wait(ctx context.Context) error

	Limit() Limit
	Burst() int
	Tokens() float64
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Config configures a Limiter.
type Config struct {
	Rate  Limit
	Burst int

	// Clock defaults to SystemClock.
	Clock Clock
}

type tokenBucket struct {
	mu         sync.Mutex
	limit      Limit
	burst      int
	tokens     float64
	lastUpdate time.Time
	clock      Clock
}

// New creates a full bucket. It returns a validation error for a negative
// rate or a burst below one.
func New(rate Limit, burst int) (Limiter, error) {
	return NewWithConfig(Config{Rate: rate, Burst: burst})
}

// NewWithConfig creates a full bucket from config.
func NewWithConfig(config Config) (Limiter, error) {
	if config.Rate < 0 {
		return nil, wperrors.NewValidationError("bucket", "rate", config.Rate, "must be non-negative")
	}
	if config.Burst <= 0 {
		return nil, wperrors.NewValidationError("bucket", "burst", config.Burst, "must be positive").
			WithHint("a burst of 1 allows no bursting")
	}
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}
	return &tokenBucket{
		limit:      config.Rate,
		burst:      config.Burst,
		tokens:     float64(config.Burst),
		lastUpdate: config.Clock.Now(),
		clock:      config.Clock,
	}, nil
}

func (tb *tokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(tb.clock.Now())
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

func (tb *tokenBucket) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		delay, ok := tb.take()
		if ok {
			return nil
		}
		if delay < 0 {
			// Zero rate with an empty bucket never refills.
			<-ctx.Done()
			return ctx.Err()
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// take consumes a token or reports how long until one is due. A negative
// delay means none ever will be.
func (tb *tokenBucket) take() (time.Duration, bool) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(tb.clock.Now())
	if tb.tokens >= 1 {
		tb.tokens--
		return 0, true
	}
	if tb.limit == 0 {
		return -1, false
	}
	missing := 1 - tb.tokens
	return time.Duration(float64(time.Second) * missing / float64(tb.limit)), false
}

func (tb *tokenBucket) Limit() Limit {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.limit
}

func (tb *tokenBucket) Burst() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.burst
}

func (tb *tokenBucket) Tokens() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill(tb.clock.Now())
	return tb.tokens
}

func (tb *tokenBucket) refill(now time.Time) {
	if tb.limit == Inf {
		tb.tokens = float64(tb.burst)
		tb.lastUpdate = now
		return
	}
	elapsed := now.Sub(tb.lastUpdate)
	if elapsed <= 0 {
		return
	}
	tb.tokens = math.Min(tb.tokens+elapsed.Seconds()*float64(tb.limit), float64(tb.burst))
	tb.lastUpdate = now
}
