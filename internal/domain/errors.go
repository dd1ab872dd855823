package domain

import "errors"

var (
	// ErrQuotaExceeded marks a transient upstream quota rejection. The fetch
	// client retries these with backoff; everything else is permanent.
	ErrQuotaExceeded = errors.New("upstream quota exceeded")

	// ErrLineNotFound is returned by read paths when an entity key is not in
	// the snapshot store and cannot be fetched.
	ErrLineNotFound = errors.New("line not found")

	// ErrMalformedRow marks a grid that does not match its schema family
	// (missing marker, unexpected shape). The affected entity is skipped for
	// the cycle.
	ErrMalformedRow = errors.New("malformed row")

	// ErrCycleThrottled is returned by the manual trigger when the minimum
	// inter-cycle spacing has not yet elapsed.
	ErrCycleThrottled = errors.New("cycle throttled: minimum spacing not elapsed")

	// ErrUnknownFamily is returned for a family with no configured ranges.
	ErrUnknownFamily = errors.New("unknown sheet family")
)
