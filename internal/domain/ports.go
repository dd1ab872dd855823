package domain

import "context"

// RangeReader is the boundary to the upstream spreadsheet source: a
// key-range read returning a rectangular grid of cell values. Implementations
// must return ErrQuotaExceeded (possibly wrapped) when the upstream signals
// its request-rate quota, so callers can distinguish transient from permanent
// failures.
type RangeReader interface {
	ReadRange(ctx context.Context, sheetID, rangeSpec string) ([][]string, error)
}

// EventPublisher fans change events out to subscriber rooms.
type EventPublisher interface {
	PublishChange(ctx context.Context, ev ChangeEvent) error
	PublishCycleSummary(ctx context.Context, summary CycleSummary) error
}

// CycleTrigger starts an out-of-band poll cycle, used by the manual check
// endpoints. The returned summary reflects the completed cycle.
type CycleTrigger interface {
	TriggerNow(ctx context.Context, family SchemaFamily, force bool) (*CycleSummary, error)
}
