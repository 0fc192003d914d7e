package cache

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"golang.org/x/sync/singleflight"

	"github.com/krisalay/operation-cache/api"
	"github.com/krisalay/operation-cache/engine"
	"github.com/krisalay/operation-cache/eviction"
	"github.com/krisalay/operation-cache/keys"
	"github.com/krisalay/operation-cache/shard"
	"github.com/krisalay/operation-cache/types"
)

// SerializationError is returned when params cannot be turned into a key.
type SerializationError = keys.SerializationError

// Stats is a point-in-time view of the store.
type Stats = api.Stats

var _ api.Cache = (*OperationCache)(nil)

/*
OperationCache memoizes the results of named operations.

A result is stored under a key derived from the operation name and its
params and stays valid for a TTL. The hosting application constructs one
instance, shares it with its handlers and calls Close on shutdown to stop the
housekeeping goroutine.
*/
type OperationCache struct {
	// shards hold the entries; each one has its own lock.
	shards []*shard.Shard

	// selector maps a key to its shard.
	selector shard.Selector

	// engine holds the clock, expiration, metrics and logger.
	engine *engine.CacheEngine

	// mu guards the runtime-configurable settings below.
	mu         sync.RWMutex
	defaultTTL time.Duration
	keyPrefix  string

	// singleFlight enables sf for ExecuteWithCache misses.
	singleFlight bool
	sf           singleflight.Group

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New builds an OperationCache and, unless disabled, starts its
// housekeeping goroutine.
func New(opts ...Option) (*OperationCache, error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	if s.shards <= 0 {
		return nil, fmt.Errorf("cache: shard count must be positive, got %d", s.shards)
	}
	if s.maxEntries < 0 {
		return nil, fmt.Errorf("cache: max entries must not be negative, got %d", s.maxEntries)
	}

	policy := eviction.None
	perShard := 0
	if s.maxEntries > 0 {
		policy = s.policy
		if policy == eviction.None {
			policy = eviction.LRU
		}
		perShard = (s.maxEntries + s.shards - 1) / s.shards
	}

	shards := make([]*shard.Shard, s.shards)
	for i := range shards {
		p, err := eviction.NewPolicy(policy)
		if err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
		shards[i] = shard.NewShard(p, perShard)
	}

	c := &OperationCache{
		shards:       shards,
		selector:     shard.HashSelector{},
		engine:       engine.NewCacheEngine(s.clock, s.expiration, s.metrics, s.logger),
		defaultTTL:   s.ttl,
		keyPrefix:    s.keyPrefix,
		singleFlight: s.singleFlight,
	}

	if s.sweepInterval > 0 {
		c.startJanitor(s.sweepInterval)
	}

	return c, nil
}

// Configure updates the default TTL and key prefix for later calls.
// Entries already stored keep their expiry.
func (c *OperationCache) Configure(opts Options) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if opts.TTL > 0 {
		c.defaultTTL = opts.TTL
	}
	if opts.KeyPrefix != "" {
		c.keyPrefix = opts.KeyPrefix
	}
}

func (c *OperationCache) settings() (time.Duration, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultTTL, c.keyPrefix
}

// DeriveKey returns the key operation and params are stored under.
func (c *OperationCache) DeriveKey(operation string, params any) (string, error) {
	_, prefix := c.settings()
	return keys.Derive(prefix, operation, params)
}

// Get returns the cached value for operation and params. A missing or
// expired entry is reported with ok == false; an expired one is removed.
func (c *OperationCache) Get(operation string, params any) (any, bool, error) {
	key, err := c.DeriveKey(operation, params)
	if err != nil {
		return nil, false, err
	}
	v, ok := c.lookup(key)
	return v, ok, nil
}

// Has reports whether a valid entry exists, with the same lazy eviction as
// Get.
func (c *OperationCache) Has(operation string, params any) (bool, error) {
	_, ok, err := c.Get(operation, params)
	return ok, err
}

// Set stores value for operation and params, replacing any existing entry.
// A ttl <= 0 uses the default TTL.
func (c *OperationCache) Set(operation string, params, value any, ttl time.Duration) error {
	key, err := c.DeriveKey(operation, params)
	if err != nil {
		return err
	}
	c.store(key, value, ttl)
	return nil
}

/*
ExecuteWithCache returns the cached result for operation and params or, on a
miss, runs compute, stores its result and returns it.

compute errors are returned unchanged and nothing is stored. Without
WithSingleFlight, concurrent misses on one key each run compute and the last
store wins.
*/
func (c *OperationCache) ExecuteWithCache(
	ctx context.Context,
	operation string,
	params any,
	compute func(context.Context) (any, error),
	ttl time.Duration,
) (any, error) {
	key, err := c.DeriveKey(operation, params)
	if err != nil {
		return nil, err
	}
	if v, ok := c.lookup(key); ok {
		return v, nil
	}
	return c.run(ctx, key, compute, ttl, true)
}

// Remove deletes the entry for operation and params, if any.
func (c *OperationCache) Remove(operation string, params any) error {
	key, err := c.DeriveKey(operation, params)
	if err != nil {
		return err
	}
	c.DeleteKey(key)
	return nil
}

// DeleteKey deletes an entry by its full key, as listed by Stats.
func (c *OperationCache) DeleteKey(key string) {
	sh := c.selector.Select(key, c.shards)

	sh.Mu.Lock()
	_, ok := sh.Store.Get(key)
	if ok {
		sh.Delete(key)
	}
	sh.Mu.Unlock()

	if ok {
		c.engine.Metrics.Invalidate(1)
		c.engine.Logger.WithField("key", key).Debug("cache entry removed")
	}
}

/*
Clear removes every entry when operationPrefix is empty. Otherwise it removes
the entries whose operation name starts with operationPrefix; the operation
name is the key segment between the key prefix and the first ':'.
It returns the number of entries removed.
*/
func (c *OperationCache) Clear(operationPrefix string) int {
	_, prefix := c.settings()

	removed := 0
	for _, sh := range c.shards {
		sh.Mu.Lock()
		if operationPrefix == "" {
			removed += sh.Reset()
		} else {
			removed += sh.DeleteFunc(func(k string, _ *types.CacheEntry) bool {
				return strings.HasPrefix(keys.Operation(prefix, k), operationPrefix)
			})
		}
		sh.Mu.Unlock()
	}

	if removed > 0 {
		c.engine.Metrics.Invalidate(removed)
	}
	c.engine.Logger.WithFields(log.Fields{"prefix": operationPrefix, "removed": removed}).Debug("cache cleared")
	return removed
}

// CleanExpired scans every shard once and removes the entries that expired
// before now. It returns the number of entries removed.
func (c *OperationCache) CleanExpired() int {
	now := c.engine.Now()

	removed := 0
	for _, sh := range c.shards {
		sh.Mu.Lock()
		removed += sh.DeleteFunc(func(_ string, ent *types.CacheEntry) bool {
			return c.engine.IsExpiredAt(ent, now)
		})
		sh.Mu.Unlock()
	}

	for i := 0; i < removed; i++ {
		c.engine.Metrics.Expire()
	}
	return removed
}

// Stats reports the entry count and the sorted list of stored keys,
// including expired entries that have not been swept yet.
func (c *OperationCache) Stats() Stats {
	var all []string
	for _, sh := range c.shards {
		sh.Mu.Lock()
		sh.Store.Range(func(k string, _ *types.CacheEntry) bool {
			all = append(all, k)
			return true
		})
		sh.Mu.Unlock()
	}
	sort.Strings(all)
	if all == nil {
		all = []string{}
	}
	return Stats{Size: len(all), Keys: all}
}

// Close stops the housekeeping goroutine and waits for it to exit. The
// cache stays usable afterwards; it just is no longer swept.
func (c *OperationCache) Close() {
	c.closeOnce.Do(func() {
		if c.stop == nil {
			return
		}
		close(c.stop)
		<-c.done
	})
}

// lookup returns the value stored under key, evicting it when expired.
func (c *OperationCache) lookup(key string) (any, bool) {
	sh := c.selector.Select(key, c.shards)

	sh.Mu.Lock()
	ent, ok := sh.Store.Get(key)
	if !ok {
		sh.Mu.Unlock()
		c.engine.Metrics.Miss()
		c.engine.Logger.WithField("key", key).Debug("cache miss")
		return nil, false
	}

	if c.engine.IsExpired(ent) {
		// The entry is removed under the same lock it was found with, so
		// a concurrent Set of a fresh entry cannot be lost here.
		sh.Delete(key)
		sh.Mu.Unlock()
		c.engine.Metrics.Expire()
		c.engine.Metrics.Miss()
		c.engine.Logger.WithField("key", key).Debug("cache entry expired")
		return nil, false
	}

	c.engine.OnRead(ent)
	sh.Eviction.OnGet(key)
	v := ent.Value
	sh.Mu.Unlock()

	c.engine.Logger.WithField("key", key).Debug("cache hit")
	return v, true
}

func (c *OperationCache) store(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl, _ = c.settings()
	}
	ent := c.engine.NewEntry(key, value, ttl)
	sh := c.selector.Select(key, c.shards)

	sh.Mu.Lock()
	evicted := sh.Put(key, ent)
	sh.Mu.Unlock()

	if evicted != "" {
		c.engine.Metrics.Eviction()
		c.engine.Logger.WithField("key", evicted).Debug("cache entry evicted")
	}
	c.engine.Logger.WithFields(log.Fields{"key": key, "ttl": ttl}).Debug("cache entry stored")
}

// run computes a missing key and stores the result, collapsing concurrent
// calls for the same key when single-flight is enabled. With recheck, a
// single-flight call first returns an entry stored since the caller's miss;
// callers replacing a present but unusable entry pass false.
func (c *OperationCache) run(
	ctx context.Context,
	key string,
	compute func(context.Context) (any, error),
	ttl time.Duration,
	recheck bool,
) (any, error) {
	do := func() (any, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, v, ttl)
		return v, nil
	}

	if !c.singleFlight {
		return do()
	}
	v, err, _ := c.sf.Do(key, func() (any, error) {
		// A flight that finished between our miss and this call has
		// already stored the value.
		if recheck {
			if v, ok := c.peek(key); ok {
				return v, nil
			}
		}
		return do()
	})
	return v, err
}

// peek returns a valid entry without touching metrics or access order.
func (c *OperationCache) peek(key string) (any, bool) {
	sh := c.selector.Select(key, c.shards)

	sh.Mu.Lock()
	defer sh.Mu.Unlock()
	ent, ok := sh.Store.Get(key)
	if !ok || c.engine.IsExpired(ent) {
		return nil, false
	}
	return ent.Value, true
}
