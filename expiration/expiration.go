// This file defines how cache entries expire over time.

package expiration

import (
	"time"

	"github.com/krisalay/operation-cache/types"
)

/*
Strategy decides when an entry stops being valid.
The cache consults it on every write and read, so the expiry rule can be
swapped without touching the storage code.
*/
type Strategy interface {

	// IsExpired reports whether the entry must no longer be returned at now.
	IsExpired(ent *types.CacheEntry, now time.Time) bool

	// OnAccess is called whenever a valid entry is returned.
	OnAccess(ent *types.CacheEntry, now time.Time)

	// OnWrite is called when the entry is stored with the resolved ttl.
	OnWrite(ent *types.CacheEntry, now time.Time, ttl time.Duration)
}

// expiredAt is shared by every strategy: an entry is valid while
// now <= ExpiresAt.
func expiredAt(ent *types.CacheEntry, now time.Time) bool {
	return now.After(ent.ExpiresAt)
}

/*
Fixed expires an entry a fixed ttl after it was written.
Reads never extend the lifetime, so a value is at most one ttl old.
This is the default strategy.
*/
type Fixed struct{}

func (Fixed) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	return expiredAt(ent, now)
}

func (Fixed) OnAccess(ent *types.CacheEntry, now time.Time) {
	ent.LastAccessedAt = now
}

func (Fixed) OnWrite(ent *types.CacheEntry, now time.Time, ttl time.Duration) {
	ent.CreatedAt = now
	ent.LastAccessedAt = now
	ent.TTL = ttl
	ent.ExpiresAt = now.Add(ttl)
}
