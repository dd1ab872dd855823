package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChangeType classifies a detected change relative to the prior snapshot.
type ChangeType string

const (
	ChangeNew     ChangeType = "new"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// ChangeEvent is emitted by the differ for every entity whose fingerprint
// differs from the stored snapshot. It is consumed immediately by the
// broadcaster and never persisted.
type ChangeEvent struct {
	ID        uuid.UUID    `json:"id"`
	EntityKey string       `json:"entityKey"`
	Factory   string       `json:"factory"`
	Family    SchemaFamily `json:"family"`
	SubKey    string       `json:"subKey,omitempty"`
	Type      ChangeType   `json:"type"`
	// Record is nil for ChangeDeleted events.
	Record    *LineRecord `json:"record,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// CycleSummary is published to the system channel after every poll cycle,
// whether or not anything changed. It exists so dashboards can distinguish
// "no changes" from "no polling".
type CycleSummary struct {
	CycleID   string       `json:"cycleId"`
	Factory   string       `json:"factory"`
	Family    SchemaFamily `json:"family"`
	Entities  int          `json:"entities"`
	Changes   int          `json:"changes"`
	Timestamp time.Time    `json:"timestamp"`
}
