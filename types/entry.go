package types

import "time"

// CacheEntry is one memoized operation result.
//
// ExpiresAt is absolute: the entry may be returned while now <= ExpiresAt.
// Expiration strategies may move it forward on access, so entries are only
// mutated while the owning shard is locked.
type CacheEntry struct {
	Key            string
	Value          any
	CreatedAt      time.Time
	LastAccessedAt time.Time
	ExpiresAt      time.Time

	// TTL is the window the entry was written with. Sliding strategies
	// reuse it when pushing ExpiresAt forward.
	TTL time.Duration
}
