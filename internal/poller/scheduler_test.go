package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/linepulse/linepulse/internal/domain"
	"github.com/linepulse/linepulse/internal/normalize"
	"github.com/linepulse/linepulse/internal/sheets"
	"github.com/linepulse/linepulse/internal/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gridReader serves a mutable in-memory grid per range.
type gridReader struct {
	mu    sync.Mutex
	grids map[string][][]string
}

func newGridReader() *gridReader {
	return &gridReader{grids: make(map[string][][]string)}
}

func (r *gridReader) set(rangeSpec string, grid [][]string) {
	r.mu.Lock()
	r.grids[rangeSpec] = grid
	r.mu.Unlock()
}

func (r *gridReader) ReadRange(_ context.Context, _, rangeSpec string) ([][]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.grids[rangeSpec], nil
}

type fakePublisher struct {
	mu        sync.Mutex
	events    []domain.ChangeEvent
	summaries []domain.CycleSummary
}

func (p *fakePublisher) PublishChange(_ context.Context, ev domain.ChangeEvent) error {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) PublishCycleSummary(_ context.Context, summary domain.CycleSummary) error {
	p.mu.Lock()
	p.summaries = append(p.summaries, summary)
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) changeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fixture struct {
	reader    *gridReader
	clock     *clockwork.FakeClock
	publisher *fakePublisher
	store     *snapshot.Store
	scheduler *Scheduler
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	reader := newGridReader()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))
	client := sheets.NewClient(reader, clock, sheets.Options{
		MinRequestSpacing: time.Nanosecond,
		MaxAttempts:       1,
		BaseDelay:         time.Second,
	})
	cache := sheets.NewCache(client, 20*time.Second, clock)

	store := snapshot.NewStore()
	publisher := &fakePublisher{}

	windows, err := ParseWindows("07:30-21:30")
	require.NoError(t, err)
	if opts.Windows == nil {
		opts.Windows = windows
	}
	if opts.Factory == "" {
		opts.Factory = "F1"
	}
	opts.BypassCache = true

	sources := []FamilySource{
		{Family: domain.FamilyProduction, MainRange: "Production!A3:R60", DetailRange: "Checkpoints!A3:AZ200"},
	}

	scheduler := NewScheduler(cache,
		normalize.New(opts.Factory, nil, nil, "SAMPLE"),
		snapshot.NewDiffer(store, clock),
		publisher, clock, sources, opts)

	return &fixture{
		reader:    reader,
		clock:     clock,
		publisher: publisher,
		store:     store,
		scheduler: scheduler,
	}
}

func productionRow(code, actual string) []string {
	return []string{"F1", code, "Line " + code, "Jacket", "100", actual, "0", "85", "95", "40", ""}
}

func TestTriggerNow_FullPipeline(t *testing.T) {
	f := newFixture(t, Options{MinCycleInterval: 75 * time.Second})
	f.reader.set("Production!A3:R60", [][]string{
		productionRow("L1", "10"),
		productionRow("L2", "20"),
	})

	summary, err := f.scheduler.TriggerNow(context.Background(), domain.FamilyProduction, false)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Entities)
	assert.Equal(t, 2, summary.Changes)
	assert.Equal(t, "F1", summary.Factory)
	assert.Equal(t, 2, f.publisher.changeCount())
	assert.Equal(t, 2, f.store.Len())
}

func TestTriggerNow_UnchangedDataIsSilent(t *testing.T) {
	f := newFixture(t, Options{MinCycleInterval: 75 * time.Second})
	f.reader.set("Production!A3:R60", [][]string{productionRow("L1", "10")})

	_, err := f.scheduler.TriggerNow(context.Background(), domain.FamilyProduction, false)
	require.NoError(t, err)

	summary, err := f.scheduler.TriggerNow(context.Background(), domain.FamilyProduction, true)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Entities)
	assert.Equal(t, 0, summary.Changes)
	assert.Equal(t, 1, f.publisher.changeCount(), "no new events on an unchanged cycle")
	assert.Len(t, f.publisher.summaries, 2, "the summary still goes out every cycle")
}

func TestTriggerNow_DetectsUpdateAndDeletion(t *testing.T) {
	f := newFixture(t, Options{MinCycleInterval: 75 * time.Second})
	f.reader.set("Production!A3:R60", [][]string{
		productionRow("L1", "10"),
		productionRow("L2", "20"),
	})
	_, err := f.scheduler.TriggerNow(context.Background(), domain.FamilyProduction, false)
	require.NoError(t, err)

	f.reader.set("Production!A3:R60", [][]string{productionRow("L1", "15")})
	summary, err := f.scheduler.TriggerNow(context.Background(), domain.FamilyProduction, true)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Changes, "one update plus one deletion")

	types := map[domain.ChangeType]string{}
	for _, ev := range f.publisher.events[2:] {
		types[ev.Type] = ev.EntityKey
	}
	assert.Equal(t, "L1", types[domain.ChangeUpdated])
	assert.Equal(t, "L2", types[domain.ChangeDeleted])
}

func TestTriggerNow_EmptyGridDoesNotMassDelete(t *testing.T) {
	f := newFixture(t, Options{MinCycleInterval: 75 * time.Second})
	f.reader.set("Production!A3:R60", [][]string{
		productionRow("L1", "10"),
		productionRow("L2", "20"),
	})
	_, err := f.scheduler.TriggerNow(context.Background(), domain.FamilyProduction, false)
	require.NoError(t, err)

	// Upstream degrades to an empty grid. The tracked entities must sit the
	// cycle out instead of being reported deleted.
	f.reader.set("Production!A3:R60", nil)
	summary, err := f.scheduler.TriggerNow(context.Background(), domain.FamilyProduction, true)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Entities)
	assert.Equal(t, 0, summary.Changes)
	assert.Equal(t, 2, f.store.Len(), "snapshot survives a degraded fetch")
	assert.Equal(t, 2, f.publisher.changeCount())
}

func TestTriggerNow_SpacingFloor(t *testing.T) {
	f := newFixture(t, Options{MinCycleInterval: 75 * time.Second})
	f.reader.set("Production!A3:R60", [][]string{productionRow("L1", "10")})

	_, err := f.scheduler.TriggerNow(context.Background(), domain.FamilyProduction, false)
	require.NoError(t, err)

	_, err = f.scheduler.TriggerNow(context.Background(), domain.FamilyProduction, false)
	assert.ErrorIs(t, err, domain.ErrCycleThrottled)

	_, err = f.scheduler.TriggerNow(context.Background(), domain.FamilyProduction, true)
	assert.NoError(t, err, "force skips the spacing floor")

	f.clock.Advance(76 * time.Second)
	_, err = f.scheduler.TriggerNow(context.Background(), domain.FamilyProduction, false)
	assert.NoError(t, err, "spacing satisfied after the interval elapses")
}

func TestTriggerNow_UnknownFamily(t *testing.T) {
	f := newFixture(t, Options{MinCycleInterval: 75 * time.Second})

	_, err := f.scheduler.TriggerNow(context.Background(), domain.FamilyTeams, false)
	assert.ErrorIs(t, err, domain.ErrUnknownFamily)
}

func TestGate_OutsideWindow(t *testing.T) {
	f := newFixture(t, Options{MinCycleInterval: 75 * time.Second, StaggerPeriod: 1})

	inside := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	outside := time.Date(2026, 8, 28, 23, 0, 0, 0, time.UTC)

	assert.Equal(t, "", f.scheduler.gate(inside))
	assert.Equal(t, "skipped_window", f.scheduler.gate(outside))
}

func TestGate_StaggerPhase(t *testing.T) {
	f := newFixture(t, Options{MinCycleInterval: 75 * time.Second, StaggerPeriod: 2, StaggerOffset: 1})

	evenMinute := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	oddMinute := time.Date(2026, 8, 28, 10, 1, 0, 0, time.UTC)

	assert.Equal(t, "skipped_phase", f.scheduler.gate(evenMinute))
	assert.Equal(t, "", f.scheduler.gate(oddMinute))
}

func TestGate_Spacing(t *testing.T) {
	f := newFixture(t, Options{MinCycleInterval: 75 * time.Second})

	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	require.Equal(t, "", f.scheduler.gate(now))

	f.scheduler.markCycleStart(now)
	assert.Equal(t, "skipped_spacing", f.scheduler.gate(now.Add(30*time.Second)))
	assert.Equal(t, "", f.scheduler.gate(now.Add(75*time.Second)))
}

func TestLookup_FindsEntityAndPublishesChange(t *testing.T) {
	f := newFixture(t, Options{MinCycleInterval: 75 * time.Second})
	f.reader.set("Production!A3:R60", [][]string{productionRow("L1", "10")})

	rec, err := f.scheduler.Lookup(context.Background(), domain.FamilyProduction, "L1", false)
	require.NoError(t, err)
	assert.Equal(t, "L1", rec.Key)
	assert.Equal(t, 10.0, rec.ActualQty)
	assert.Equal(t, 1, f.publisher.changeCount(), "a fresh sighting is broadcast immediately")

	_, tracked := f.store.Get("L1")
	assert.True(t, tracked, "interactive lookups feed the snapshot")
}

func TestLookup_MissingEntity(t *testing.T) {
	f := newFixture(t, Options{MinCycleInterval: 75 * time.Second})
	f.reader.set("Production!A3:R60", [][]string{productionRow("L1", "10")})

	_, err := f.scheduler.Lookup(context.Background(), domain.FamilyProduction, "L99", false)
	assert.ErrorIs(t, err, domain.ErrLineNotFound)
}

func TestLookup_DoesNotDeleteOtherEntities(t *testing.T) {
	f := newFixture(t, Options{MinCycleInterval: 75 * time.Second})
	f.reader.set("Production!A3:R60", [][]string{
		productionRow("L1", "10"),
		productionRow("L2", "20"),
	})
	_, err := f.scheduler.TriggerNow(context.Background(), domain.FamilyProduction, false)
	require.NoError(t, err)

	// The single-entity read path must never be mistaken for a full
	// enumeration.
	_, err = f.scheduler.Lookup(context.Background(), domain.FamilyProduction, "L1", false)
	require.NoError(t, err)

	_, tracked := f.store.Get("L2")
	assert.True(t, tracked)
}

func TestFactoryLines(t *testing.T) {
	f := newFixture(t, Options{MinCycleInterval: 75 * time.Second})
	f.reader.set("Production!A3:R60", [][]string{
		productionRow("L1", "10"),
		productionRow("L2", "20"),
	})

	records, err := f.scheduler.FactoryLines(context.Background(), domain.FamilyProduction, false)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 0, f.store.Len(), "group listings do not touch the snapshot")
}
