package metrics

import (
	"sync/atomic"

	"github.com/krisalay/operation-cache/types"
)

var _ types.Metrics = (*Counter)(nil)

// Counter counts cache events in memory.
type Counter struct {
	hits          atomic.Int64
	misses        atomic.Int64
	evictions     atomic.Int64
	expired       atomic.Int64
	invalidations atomic.Int64
}

// Snapshot is a copy of the counters at one instant.
type Snapshot struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Evictions     int64 `json:"evictions"`
	Expired       int64 `json:"expired"`
	Invalidations int64 `json:"invalidations"`
}

// HitRatio is hits / (hits + misses), or 0 before the first lookup.
func (s Snapshot) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (c *Counter) Hit()             { c.hits.Add(1) }
func (c *Counter) Miss()            { c.misses.Add(1) }
func (c *Counter) Eviction()        { c.evictions.Add(1) }
func (c *Counter) Expire()          { c.expired.Add(1) }
func (c *Counter) Invalidate(n int) { c.invalidations.Add(int64(n)) }

func (c *Counter) Snapshot() Snapshot {
	return Snapshot{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Evictions:     c.evictions.Load(),
		Expired:       c.expired.Load(),
		Invalidations: c.invalidations.Load(),
	}
}
