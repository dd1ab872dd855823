// Package retry provides a small generic retry helper with error
// classification and exponential backoff. The clock is injected so tests can
// drive backoff deterministically.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"
)

type Action int

const (
	Stop  Action = iota // permanent error, abort immediately
	Retry               // transient error, use exponential backoff
)

type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	// MaxJitter adds a uniformly random delay in [0, MaxJitter) to each
	// backoff so sibling processes retrying against the same quota do not
	// synchronize. Zero disables jitter.
	MaxJitter time.Duration
	Clock     clockwork.Clock
	OnRetry   func(attempt int, err error, backoff time.Duration)
}

type Classify func(err error) Action
type Operation[T any] func() (T, error)
type VoidOperation func() error

// Do runs op until it succeeds, classify returns Stop, or MaxAttempts is
// exhausted. Backoff doubles per attempt starting at InitialBackoff.
func Do[T any](ctx context.Context, p Policy, classify Classify, op Operation[T]) (T, error) {
	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	backoff := p.InitialBackoff

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		val, err := op()
		if err == nil {
			return val, nil
		}

		if classify(err) == Stop {
			var zero T
			return zero, &PermanentError{Err: err}
		}

		if attempt == p.MaxAttempts {
			var zero T
			return zero, fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, err)
		}

		delay := backoff
		if p.MaxJitter > 0 {
			delay += time.Duration(rand.Int63n(int64(p.MaxJitter)))
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}

		select {
		case <-clock.After(delay):
			backoff *= 2
		case <-ctx.Done():
			var zero T
			return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		}
	}

	panic("unreachable: MaxAttempts must be >= 1")
}

// DoVoid is Do for operations without a result value.
func DoVoid(ctx context.Context, p Policy, classify Classify, op VoidOperation) error {
	_, err := Do(ctx, p, classify, func() (struct{}, error) { return struct{}{}, op() })
	return err
}

// PermanentError wraps an error that classify judged non-retryable.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }
