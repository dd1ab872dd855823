package sheets

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/linepulse/linepulse/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// rangeKey identifies one cached grid.
type rangeKey struct {
	SheetID   string
	RangeSpec string
}

type cacheEntry struct {
	grid      [][]string
	expiresAt time.Time
}

// Cache is a TTL read-through layer over Client. Interactive paths that
// cannot tolerate staleness bypass it explicitly, accepting the higher
// request rate as a deliberate tradeoff. While the client reports quota
// degradation, the cache serves last-known-good grids even past their TTL.
type Cache struct {
	client *Client
	ttl    time.Duration
	clock  clockwork.Clock

	mu      sync.RWMutex
	entries map[rangeKey]*cacheEntry
	group   singleflight.Group
}

func NewCache(client *Client, ttl time.Duration, clock clockwork.Clock) *Cache {
	return &Cache{
		client:  client,
		ttl:     ttl,
		clock:   clock,
		entries: make(map[rangeKey]*cacheEntry),
	}
}

// Read returns the grid for (sheetID, rangeSpec). With bypass set the cache
// is skipped for reading but still refreshed, so it keeps a last-known-good
// copy for degraded mode.
func (c *Cache) Read(ctx context.Context, sheetID, rangeSpec string, bypass bool) [][]string {
	key := rangeKey{SheetID: sheetID, RangeSpec: rangeSpec}

	if bypass {
		metrics.RangeCacheBypasses.Inc()
		grid := c.client.Read(ctx, sheetID, rangeSpec)
		if len(grid) > 0 {
			c.store(key, grid)
		}
		return grid
	}

	if grid, ok := c.lookup(key, c.client.QuotaExceeded()); ok {
		metrics.RangeCacheHits.Inc()
		return grid
	}
	metrics.RangeCacheMisses.Inc()

	// Collapse concurrent reads of the same range into one upstream request.
	v, _, _ := c.group.Do(sheetID+"!"+rangeSpec, func() (any, error) {
		if grid, ok := c.lookup(key, c.client.QuotaExceeded()); ok {
			return grid, nil
		}
		grid := c.client.Read(ctx, sheetID, rangeSpec)
		if len(grid) > 0 {
			c.store(key, grid)
		} else if stale, ok := c.lookup(key, true); ok {
			// Upstream degraded to empty: fall back to the stale copy.
			slog.WarnContext(ctx, "Serving stale grid after failed refresh",
				"sheet", sheetID, "range", rangeSpec)
			return stale, nil
		}
		return grid, nil
	})
	grid, _ := v.([][]string)
	return grid
}

// lookup returns the cached grid. With allowStale it ignores expiry, which
// is how degraded mode serves last-known-good data.
func (c *Cache) lookup(key rangeKey, allowStale bool) ([][]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !allowStale && c.clock.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.grid, true
}

func (c *Cache) store(key rangeKey, grid [][]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &cacheEntry{grid: grid, expiresAt: c.clock.Now().Add(c.ttl)}
}

// EvictExpired removes expired entries and returns the count evicted.
// During quota degradation nothing is evicted: stale entries are the
// last-known-good data the degraded mode serves.
func (c *Cache) EvictExpired() int {
	if c.client.QuotaExceeded() {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	evicted := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

// StartEvictionTimer starts a background goroutine that periodically evicts
// expired entries. Returns a stop function.
func (c *Cache) StartEvictionTimer(interval time.Duration) func() {
	ticker := c.clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.Chan():
				if evicted := c.EvictExpired(); evicted > 0 {
					slog.Debug("Evicted expired range cache entries", "count", evicted)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}
