// Package cache holds the single freshness-bounded snapshot of the latest
// aggregation. One slot, overwritten wholesale: readers always see a
// fully-formed job list (or none), never a partial write.
package cache

import (
	"sync"
	"time"

	"jobfeed-engine/internal/domain"
)

// DefaultTTL bounds how stale a served snapshot may be.
const DefaultTTL = 5 * time.Minute

type Snapshot struct {
	Jobs       []domain.NormalizedJob `json:"jobs"`
	CapturedAt time.Time              `json:"captured_at"`
}

type Cache struct {
	mu   sync.RWMutex
	snap *Snapshot
	ttl  time.Duration
	now  func() time.Time
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{ttl: ttl, now: time.Now}
}

// Get returns the current snapshot regardless of age. ok is false only
// when nothing has ever been stored.
func (c *Cache) Get() (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return Snapshot{}, false
	}
	return *c.snap, true
}

// Put replaces the snapshot wholesale. Last writer wins; snapshots are
// self-contained and timestamped, so that is safe.
func (c *Cache) Put(jobs []domain.NormalizedJob) {
	snap := &Snapshot{Jobs: jobs, CapturedAt: c.now().UTC()}
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
}

// Valid reports whether the held snapshot is younger than the TTL.
func (c *Cache) Valid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return false
	}
	return c.now().Sub(c.snap.CapturedAt) < c.ttl
}

// TTL exposes the configured window (status endpoints).
func (c *Cache) TTL() time.Duration { return c.ttl }
