package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch Client Metrics
var (
	// SheetReadsTotal tracks upstream range reads by result
	SheetReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheet_reads_total",
			Help: "Total upstream range reads by result (ok/quota/permanent/empty)",
		},
		[]string{"result"},
	)

	// SheetReadDuration tracks upstream read latency in seconds
	SheetReadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sheet_read_duration_seconds",
			Help:    "Upstream range read duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		},
	)

	// SheetRetriesTotal tracks retry attempts against the upstream source
	SheetRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sheet_retries_total",
			Help: "Total retry attempts against the upstream source",
		},
	)

	// QuotaExceededTotal tracks quota-exceeded responses from upstream
	QuotaExceededTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sheet_quota_exceeded_total",
			Help: "Total quota-exceeded responses from the upstream source",
		},
	)

	// QuotaDegradedMode tracks whether the client is in quota-degraded mode (0/1)
	QuotaDegradedMode = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sheet_quota_degraded_mode",
			Help: "1 while the client considers the upstream quota exceeded, 0 otherwise",
		},
	)

	// RangeCacheHits tracks read-through cache hits
	RangeCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "range_cache_hits_total",
			Help: "Total read-through range cache hits",
		},
	)

	// RangeCacheMisses tracks read-through cache misses
	RangeCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "range_cache_misses_total",
			Help: "Total read-through range cache misses",
		},
	)

	// RangeCacheBypasses tracks deliberate cache bypasses on real-time paths
	RangeCacheBypasses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "range_cache_bypasses_total",
			Help: "Total deliberate range cache bypasses",
		},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)
)

// Poll Cycle Metrics
var (
	// CyclesTotal tracks poll cycles by family and outcome
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_cycles_total",
			Help: "Total poll cycles by family and outcome (ok/skipped_window/skipped_spacing/skipped_phase/error)",
		},
		[]string{"family", "outcome"},
	)

	// CycleDuration tracks full-cycle duration in seconds
	CycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poll_cycle_duration_seconds",
			Help:    "Poll cycle duration in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"family"},
	)

	// EntitiesSkippedTotal tracks entities skipped within a cycle due to errors
	EntitiesSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cycle_entities_skipped_total",
			Help: "Entities skipped within a cycle due to fetch or normalize failures",
		},
		[]string{"family", "reason"},
	)

	// ChangesTotal tracks detected changes by family and type
	ChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "changes_detected_total",
			Help: "Detected entity changes by family and change type",
		},
		[]string{"family", "type"},
	)

	// SnapshotEntries tracks the current snapshot store size
	SnapshotEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_entries",
			Help: "Current number of entities in the snapshot store",
		},
	)
)

// Normalizer Metrics
var (
	// RowsParsedTotal tracks parsed rows by family
	RowsParsedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rows_parsed_total",
			Help: "Total sheet rows parsed by family",
		},
		[]string{"family"},
	)

	// MalformedRowsTotal tracks rows rejected during normalization
	MalformedRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "malformed_rows_total",
			Help: "Rows rejected during normalization by family",
		},
		[]string{"family"},
	)

	// SubrowMismatchesTotal tracks parent groups whose sub-row count differed
	// from the statically configured expectation
	SubrowMismatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subrow_mismatches_total",
			Help: "Parent groups whose actual sub-row count differed from configuration",
		},
	)
)

// Broadcast Metrics
var (
	// PublishesTotal tracks room publishes by room class
	PublishesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_publishes_total",
			Help: "Total room publishes by room class (entity/factory/family/system)",
		},
		[]string{"room_class"},
	)

	// EmptyRoomPublishesTotal tracks publishes to rooms with zero subscribers
	EmptyRoomPublishesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_empty_room_publishes_total",
			Help: "Publishes to rooms with zero current subscribers by room class",
		},
		[]string{"room_class"},
	)

	// PublishErrorsTotal tracks failed publishes
	PublishErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_publish_errors_total",
			Help: "Total failed room publishes",
		},
	)

	// ActiveSubscribers tracks currently connected real-time clients
	ActiveSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcast_active_subscribers",
			Help: "Currently connected real-time clients",
		},
	)
)

// Build Information Metrics
var (
	// BuildInfo is a gauge that always returns 1, with build metadata as labels
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build information with version, commit, build_time, and go_version labels (value is always 1)",
		},
		[]string{"version", "commit", "build_time", "go_version"},
	)
)
