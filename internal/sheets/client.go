package sheets

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/jonboulle/clockwork"
	"github.com/linepulse/linepulse/internal/domain"
	"github.com/linepulse/linepulse/internal/metrics"
	"github.com/linepulse/linepulse/internal/platform/retry"
	"golang.org/x/time/rate"
)

// quotaCooldown is how long the client stays in degraded mode after
// exhausting retries on quota errors. Callers should serve last-known-good
// data during this window instead of compounding the outage.
const quotaCooldown = 90 * time.Second

// Options tune the client; zero values fall back to the defaults below.
type Options struct {
	MinRequestSpacing time.Duration
	MaxAttempts       int
	BaseDelay         time.Duration
	MaxJitter         time.Duration
	ReadTimeout       time.Duration
}

func (o *Options) withDefaults() {
	if o.MinRequestSpacing <= 0 {
		o.MinRequestSpacing = 100 * time.Millisecond
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = time.Second
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 15 * time.Second
	}
}

// Client wraps a RangeReader with the process-wide request discipline:
// every caller funnels through one limiter, quota errors are retried with
// exponential backoff and jitter, and exhausted retries flip the degraded
// flag instead of surfacing an error. Read never fails; an empty grid
// means "no data" and callers must treat it that way.
type Client struct {
	reader  domain.RangeReader
	limiter *rate.Limiter
	clock   clockwork.Clock
	opts    Options
	breaker circuitbreaker.CircuitBreaker[any]

	mu                 sync.Mutex
	quotaExceededUntil time.Time
}

func NewClient(reader domain.RangeReader, clock clockwork.Clock, opts Options) *Client {
	opts.withDefaults()

	cb := circuitbreaker.NewBuilder[any]().
		WithFailureRateThreshold(0.6, 5, 30*time.Second).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", "sheets",
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
			metrics.CircuitBreakerStateChanges.WithLabelValues("sheets", e.NewState.String()).Inc()
		}).
		Build()

	return &Client{
		reader:  reader,
		limiter: rate.NewLimiter(rate.Every(opts.MinRequestSpacing), 1),
		clock:   clock,
		opts:    opts,
		breaker: cb,
	}
}

// Read fetches one range, throttled and retried. On any terminal failure it
// logs and returns an empty grid.
func (c *Client) Read(ctx context.Context, sheetID, rangeSpec string) [][]string {
	if err := c.limiter.Wait(ctx); err != nil {
		slog.WarnContext(ctx, "Throttle wait aborted", "range", rangeSpec, "error", err)
		return nil
	}

	if !c.breaker.TryAcquirePermit() {
		slog.WarnContext(ctx, "Sheets circuit open, skipping read", "range", rangeSpec)
		metrics.SheetReadsTotal.WithLabelValues("empty").Inc()
		return nil
	}

	policy := retry.Policy{
		MaxAttempts:    c.opts.MaxAttempts,
		InitialBackoff: c.opts.BaseDelay,
		MaxJitter:      c.opts.MaxJitter,
		Clock:          c.clock,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			metrics.SheetRetriesTotal.Inc()
			slog.WarnContext(ctx, "Retrying range read",
				"range", rangeSpec, "attempt", attempt, "backoff", backoff, "error", err)
		},
	}

	classify := func(err error) retry.Action {
		if errors.Is(err, domain.ErrQuotaExceeded) {
			metrics.QuotaExceededTotal.Inc()
			return retry.Retry
		}
		return retry.Stop
	}

	start := c.clock.Now()
	grid, err := retry.Do(ctx, policy, classify, func() ([][]string, error) {
		readCtx, cancel := context.WithTimeout(ctx, c.opts.ReadTimeout)
		defer cancel()
		return c.reader.ReadRange(readCtx, sheetID, rangeSpec)
	})
	metrics.SheetReadDuration.Observe(c.clock.Since(start).Seconds())

	if err != nil {
		c.breaker.RecordError(err)
		if errors.Is(err, domain.ErrQuotaExceeded) {
			c.markQuotaExceeded()
			metrics.SheetReadsTotal.WithLabelValues("quota").Inc()
			slog.ErrorContext(ctx, "Quota retries exhausted, serving empty grid",
				"range", rangeSpec, "error", err)
		} else {
			metrics.SheetReadsTotal.WithLabelValues("permanent").Inc()
			slog.ErrorContext(ctx, "Permanent read failure, serving empty grid",
				"range", rangeSpec, "error", err)
		}
		return nil
	}

	c.breaker.RecordSuccess()
	c.clearQuotaExceeded()
	metrics.SheetReadsTotal.WithLabelValues("ok").Inc()
	return grid
}

// QuotaExceeded reports whether the client is inside its quota cooldown
// window. Callers should prefer their last-known-good cache while this
// holds.
func (c *Client) QuotaExceeded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clock.Now().Before(c.quotaExceededUntil)
}

func (c *Client) markQuotaExceeded() {
	c.mu.Lock()
	c.quotaExceededUntil = c.clock.Now().Add(quotaCooldown)
	c.mu.Unlock()
	metrics.QuotaDegradedMode.Set(1)
}

func (c *Client) clearQuotaExceeded() {
	c.mu.Lock()
	cleared := !c.quotaExceededUntil.IsZero()
	c.quotaExceededUntil = time.Time{}
	c.mu.Unlock()
	if cleared {
		metrics.QuotaDegradedMode.Set(0)
	}
}
