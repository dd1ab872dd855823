// Package sheets is the boundary to the upstream spreadsheet source. It
// wraps a black-box key-range reader with a global request throttle,
// quota-aware retries, a degraded mode flag, and an optional TTL
// read-through cache. Callers never see upstream errors: a failed read
// degrades to an empty grid so one bad range cannot cascade into a failed
// cycle.
package sheets
