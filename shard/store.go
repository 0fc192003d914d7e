package shard

import "github.com/krisalay/operation-cache/types"

// Store holds the key → entry data of one shard.
// Implementations are not goroutine-safe; the owning Shard's mutex guards
// every call.
type Store interface {
	Get(key string) (*types.CacheEntry, bool)
	Put(key string, ent *types.CacheEntry)
	Delete(key string)
	Len() int

	// Range calls fn for every entry until fn returns false. fn may delete
	// the entry it is visiting.
	Range(fn func(key string, ent *types.CacheEntry) bool)

	// Reset drops every entry.
	Reset()
}

type mapStore struct {
	data map[string]*types.CacheEntry
}

// NewMapStore returns a Store backed by a plain map.
func NewMapStore() Store {
	return &mapStore{data: make(map[string]*types.CacheEntry)}
}

func (s *mapStore) Get(key string) (*types.CacheEntry, bool) {
	ent, ok := s.data[key]
	return ent, ok
}

func (s *mapStore) Put(key string, ent *types.CacheEntry) {
	s.data[key] = ent
}

func (s *mapStore) Delete(key string) {
	delete(s.data, key)
}

func (s *mapStore) Len() int {
	return len(s.data)
}

func (s *mapStore) Range(fn func(key string, ent *types.CacheEntry) bool) {
	for k, v := range s.data {
		if !fn(k, v) {
			return
		}
	}
}

func (s *mapStore) Reset() {
	s.data = make(map[string]*types.CacheEntry)
}
