package shard

import (
	"sync"

	"github.com/krisalay/operation-cache/eviction"
	"github.com/krisalay/operation-cache/types"
)

/*
Shard is one independently locked slice of the cache.
Splitting the key space across shards lets unrelated keys be read and
written without contending on a single lock.
*/
type Shard struct {

	// Mu guards Store and Eviction. Reads take it too: a hit updates
	// eviction and expiration bookkeeping.
	Mu sync.Mutex

	Store Store

	// Eviction tracks keys for the capacity bound. It is a no-op policy
	// when the cache is unbounded.
	Eviction eviction.Policy

	// Capacity is the maximum number of entries; 0 means unbounded.
	Capacity int
}

func NewShard(policy eviction.Policy, capacity int) *Shard {
	return &Shard{
		Store:    NewMapStore(),
		Eviction: policy,
		Capacity: capacity,
	}
}

// Put stores ent, evicting one victim first if a new key would exceed the
// capacity. It returns the evicted key or "". Callers must hold Mu.
func (s *Shard) Put(key string, ent *types.CacheEntry) string {
	var evicted string
	if _, exists := s.Store.Get(key); !exists && s.Capacity > 0 && s.Store.Len() >= s.Capacity {
		if evicted = s.Eviction.Evict(); evicted != "" {
			s.Store.Delete(evicted)
		}
	}
	s.Store.Put(key, ent)
	s.Eviction.OnPut(key)
	return evicted
}

// Delete removes key from the store and the eviction bookkeeping.
// Callers must hold Mu.
func (s *Shard) Delete(key string) {
	s.Store.Delete(key)
	s.Eviction.Remove(key)
}

// DeleteFunc removes every entry for which match returns true and returns
// how many were removed. Callers must hold Mu.
func (s *Shard) DeleteFunc(match func(key string, ent *types.CacheEntry) bool) int {
	n := 0
	s.Store.Range(func(k string, ent *types.CacheEntry) bool {
		if match(k, ent) {
			s.Delete(k)
			n++
		}
		return true
	})
	return n
}

// Reset empties the shard and returns the number of entries dropped.
// Callers must hold Mu.
func (s *Shard) Reset() int {
	n := s.Store.Len()
	s.Store.Range(func(k string, _ *types.CacheEntry) bool {
		s.Eviction.Remove(k)
		return true
	})
	s.Store.Reset()
	return n
}
