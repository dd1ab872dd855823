// Package poller owns the scheduled poll loop: the time gates deciding when
// a cycle may run, and the cycle itself (fetch, normalize, diff, broadcast)
// with per-unit pacing against the shared upstream quota.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/linepulse/linepulse/internal/domain"
	"github.com/linepulse/linepulse/internal/metrics"
	"github.com/linepulse/linepulse/internal/normalize"
	"github.com/linepulse/linepulse/internal/platform/correlation"
	"github.com/linepulse/linepulse/internal/sheets"
	"github.com/linepulse/linepulse/internal/snapshot"
)

// tickInterval is how often the gates are evaluated. The actual cycle
// cadence is governed by the gates, not by this ticker.
const tickInterval = 30 * time.Second

// FamilySource binds one sheet family to its configured ranges. SheetID may
// be empty to use the reader's default spreadsheet.
type FamilySource struct {
	Family      domain.SchemaFamily
	SheetID     string
	MainRange   string
	DetailRange string // production only
}

// Options carries the gate configuration.
type Options struct {
	Factory          string
	Windows          Windows
	MinCycleInterval time.Duration
	// StaggerPeriod/StaggerOffset give this process its minute phase. With
	// period 2 and offsets 0/1, two sibling processes poll on even and odd
	// minutes respectively. The stagger is static configuration only, with
	// no cross-process coordination, so occasional coincident minutes are
	// tolerated and smoothed by the per-unit pacing inside the cycle.
	StaggerPeriod  int
	StaggerOffset  int
	InterUnitDelay time.Duration
	// BypassCache controls whether scheduled cycles skip the TTL cache.
	// Scheduled polls want fresh data; the HTTP read path decides per call.
	BypassCache bool
}

// Scheduler runs poll cycles. All cycle execution funnels through a
// semaphore of size one: exactly one fetch/parse/diff sequence runs at a
// time in the process, whether triggered by the ticker or manually.
type Scheduler struct {
	cache      *sheets.Cache
	normalizer *normalize.Normalizer
	differ     *snapshot.Differ
	publisher  domain.EventPublisher
	clock      clockwork.Clock
	sources    []FamilySource
	opts       Options

	sem chan struct{}

	mu             sync.Mutex
	lastCycleStart time.Time
}

func NewScheduler(cache *sheets.Cache, normalizer *normalize.Normalizer, differ *snapshot.Differ, publisher domain.EventPublisher, clock clockwork.Clock, sources []FamilySource, opts Options) *Scheduler {
	return &Scheduler{
		cache:      cache,
		normalizer: normalizer,
		differ:     differ,
		publisher:  publisher,
		clock:      clock,
		sources:    sources,
		opts:       opts,
		sem:        make(chan struct{}, 1),
	}
}

// Run evaluates the gates on every tick and runs a full cycle when all of
// them pass. It blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.clock.Now()

	if outcome := s.gate(now); outcome != "" {
		for _, src := range s.sources {
			metrics.CyclesTotal.WithLabelValues(string(src.Family), outcome).Inc()
		}
		return
	}

	select {
	case s.sem <- struct{}{}:
	default:
		// A manual trigger is mid-cycle; the ticker never queues behind it.
		return
	}
	defer func() { <-s.sem }()

	s.markCycleStart(now)
	cycleCtx := correlation.WithID(ctx, correlation.NewID())
	s.runCycle(cycleCtx, s.sources)
}

// gate returns "" when a cycle may run, or the skip outcome label.
func (s *Scheduler) gate(now time.Time) string {
	if !s.opts.Windows.Contains(now) {
		return "skipped_window"
	}
	if s.opts.StaggerPeriod > 1 && now.Minute()%s.opts.StaggerPeriod != s.opts.StaggerOffset {
		return "skipped_phase"
	}
	if !s.spacingElapsed(now) {
		return "skipped_spacing"
	}
	return ""
}

// spacingElapsed enforces the minimum spacing between cycle starts,
// independent of the nominal tick cadence.
func (s *Scheduler) spacingElapsed(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCycleStart.IsZero() || now.Sub(s.lastCycleStart) >= s.opts.MinCycleInterval
}

func (s *Scheduler) markCycleStart(now time.Time) {
	s.mu.Lock()
	s.lastCycleStart = now
	s.mu.Unlock()
}

// TriggerNow runs an out-of-band cycle for one family ("" means all),
// bypassing the window and phase gates. The spacing floor still applies
// unless force is set. The call blocks until the cycle completes and
// returns its summary.
func (s *Scheduler) TriggerNow(ctx context.Context, family domain.SchemaFamily, force bool) (*domain.CycleSummary, error) {
	sources := s.sources
	if family != "" {
		sources = nil
		for _, src := range s.sources {
			if src.Family == family {
				sources = []FamilySource{src}
			}
		}
		if sources == nil {
			return nil, domain.ErrUnknownFamily
		}
	}

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.sem }()

	now := s.clock.Now()
	if !force && !s.spacingElapsed(now) {
		return nil, domain.ErrCycleThrottled
	}
	s.markCycleStart(now)

	cycleCtx := correlation.WithID(ctx, correlation.NewID())
	summaries := s.runCycle(cycleCtx, sources)

	total := &domain.CycleSummary{
		Factory:   s.opts.Factory,
		Family:    family,
		Timestamp: s.clock.Now(),
	}
	for _, sum := range summaries {
		total.CycleID = sum.CycleID
		total.Entities += sum.Entities
		total.Changes += sum.Changes
	}
	return total, nil
}

var _ domain.CycleTrigger = (*Scheduler)(nil)
