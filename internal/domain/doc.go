// Package domain holds the core types and ports of the change-detection
// pipeline: normalized entity records, change events, and the interfaces
// implemented by the sheets, snapshot, and broadcast adapters.
package domain
