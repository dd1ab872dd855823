package snapshot

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/linepulse/linepulse/internal/domain"
	"github.com/linepulse/linepulse/internal/fingerprint"
	"github.com/linepulse/linepulse/internal/metrics"
)

// Differ classifies each cycle's records as new, updated, unchanged, or
// deleted relative to the store. It never holds its own copy of the
// snapshot; all state lives in the Store.
type Differ struct {
	store *Store
	clock clockwork.Clock
}

func NewDiffer(store *Store, clock clockwork.Clock) *Differ {
	return &Differ{store: store, clock: clock}
}

// DiffCycle compares current against the stored snapshot and updates the
// store in place. Deletion detection runs only when full is true, i.e. when
// current is the complete entity population for family: an entity missing
// from a partial (lazily tracked) poll does not mean it no longer exists.
func (d *Differ) DiffCycle(ctx context.Context, family domain.SchemaFamily, current []domain.LineRecord, full bool) []domain.ChangeEvent {
	now := d.clock.Now()
	var events []domain.ChangeEvent

	seen := make(map[string]bool, len(current))
	for i := range current {
		rec := current[i]
		seen[rec.Key] = true

		fp := fingerprint.Token(&rec)
		prior, ok := d.store.Get(rec.Key)

		switch {
		case !ok:
			d.store.Put(rec.Key, rec, fp, now)
			events = append(events, d.event(rec.Key, &rec, domain.ChangeNew, now))
			slog.DebugContext(ctx, "Entity tracked", "key", rec.Key, "family", family)
		case prior.Fingerprint != fp:
			d.store.Put(rec.Key, rec, fp, now)
			events = append(events, d.event(rec.Key, &rec, domain.ChangeUpdated, now))
		default:
			// Unchanged: the stored entry stays untouched so ObservedAt
			// still marks the last actual change.
		}
	}

	if full {
		for _, key := range d.store.Keys(family) {
			if seen[key] {
				continue
			}
			prior, ok := d.store.Get(key)
			if !ok {
				continue
			}
			d.store.Delete(key)
			rec := prior.Record
			ev := d.event(key, nil, domain.ChangeDeleted, now)
			ev.Factory = rec.Factory
			ev.Family = rec.Family
			ev.SubKey = rec.SubKey
			events = append(events, ev)
			slog.InfoContext(ctx, "Entity disappeared from upstream", "key", key, "family", family)
		}
	}

	for _, ev := range events {
		metrics.ChangesTotal.WithLabelValues(string(family), string(ev.Type)).Inc()
	}
	return events
}

// TrackedKeys returns the keys currently tracked for family.
func (d *Differ) TrackedKeys(family domain.SchemaFamily) []string {
	return d.store.Keys(family)
}

func (d *Differ) event(key string, rec *domain.LineRecord, typ domain.ChangeType, now time.Time) domain.ChangeEvent {
	ev := domain.ChangeEvent{
		ID:        uuid.New(),
		EntityKey: key,
		Type:      typ,
		Timestamp: now,
	}
	if rec != nil {
		ev.Factory = rec.Factory
		ev.Family = rec.Family
		ev.SubKey = rec.SubKey
		recCopy := *rec
		ev.Record = &recCopy
	}
	return ev
}
