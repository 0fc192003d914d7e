package engine

import (
	"time"

	"github.com/apex/log"
	"github.com/jonboulle/clockwork"

	"github.com/krisalay/operation-cache/expiration"
	"github.com/krisalay/operation-cache/types"
)

/*
CacheEngine is the policy layer of the cache.
It owns the rules (what time it is, when an entry is stale, what gets
recorded) while the shards own the data and the locking.
*/
type CacheEngine struct {

	// Clock is the only source of "now". Tests swap in a fake clock to
	// step through TTL windows.
	Clock clockwork.Clock

	// Expiration decides entry lifetimes.
	Expiration expiration.Strategy

	// Metrics receives hit, miss, expiry, eviction and invalidation events.
	Metrics types.Metrics

	// Logger receives debug-level cache events.
	Logger log.Interface
}

/*
NewCacheEngine creates a CacheEngine, filling nil collaborators with
defaults: the real clock, fixed expiration, no-op metrics and the apex
global logger.
*/
func NewCacheEngine(
	clock clockwork.Clock,
	exp expiration.Strategy,
	metrics types.Metrics,
	logger log.Interface,
) *CacheEngine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if exp == nil {
		exp = expiration.Fixed{}
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if logger == nil {
		logger = log.Log
	}

	return &CacheEngine{
		Clock:      clock,
		Expiration: exp,
		Metrics:    metrics,
		Logger:     logger,
	}
}

// Now returns the current time of the engine clock.
func (e *CacheEngine) Now() time.Time {
	return e.Clock.Now()
}

// NewEntry builds an entry for key written now with the resolved ttl.
func (e *CacheEngine) NewEntry(key string, value any, ttl time.Duration) *types.CacheEntry {
	ent := &types.CacheEntry{Key: key, Value: value}
	e.Expiration.OnWrite(ent, e.Now(), ttl)
	return ent
}

// IsExpired reports whether ent is stale at the current time.
func (e *CacheEngine) IsExpired(ent *types.CacheEntry) bool {
	return e.IsExpiredAt(ent, e.Now())
}

// IsExpiredAt is IsExpired against a fixed instant, used by sweeps so every
// entry is judged against the same now.
func (e *CacheEngine) IsExpiredAt(ent *types.CacheEntry, now time.Time) bool {
	return e.Expiration.IsExpired(ent, now)
}

/*
OnRead is called for every hit while the owning shard is locked.
Sliding strategies extend the entry here.
*/
func (e *CacheEngine) OnRead(ent *types.CacheEntry) {
	e.Expiration.OnAccess(ent, e.Now())
	e.Metrics.Hit()
}
