// Package snapshot holds the last-known fingerprint and payload per entity
// and classifies each poll cycle's records against it.
package snapshot

import (
	"sync"
	"time"

	"github.com/linepulse/linepulse/internal/domain"
	"github.com/linepulse/linepulse/internal/metrics"
)

// Entry is one tracked entity's last observed state. Entries are replaced
// wholesale when the fingerprint changes, never mutated.
type Entry struct {
	Record      domain.LineRecord
	Fingerprint string
	ObservedAt  time.Time
}

// Store is the in-memory snapshot map. The poll cycle and the HTTP read
// path touch it from different goroutines, so every access goes through the
// mutex.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewStore() *Store {
	return &Store{entries: make(map[string]Entry)}
}

// Get returns the entry for key, if tracked.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok
}

// Put overwrites the entry for key unconditionally.
func (s *Store) Put(key string, rec domain.LineRecord, fp string, observedAt time.Time) {
	s.mu.Lock()
	s.entries[key] = Entry{Record: rec, Fingerprint: fp, ObservedAt: observedAt}
	size := len(s.entries)
	s.mu.Unlock()
	metrics.SnapshotEntries.Set(float64(size))
}

// Delete removes the entry for key.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	size := len(s.entries)
	s.mu.Unlock()
	metrics.SnapshotEntries.Set(float64(size))
}

// Keys returns the tracked keys for the given family. An empty family
// matches everything.
func (s *Store) Keys(family domain.SchemaFamily) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k, e := range s.entries {
		if family != "" && e.Record.Family != family {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of tracked entities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
