package expiration

import (
	"time"

	"github.com/krisalay/operation-cache/types"
)

/*
ExpireAfterAccess is a sliding TTL: every successful read pushes ExpiresAt
forward by the ttl the entry was written with. Entries that keep being used
stay alive; idle ones expire one window after their last read.
*/
type ExpireAfterAccess struct{}

func (ExpireAfterAccess) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	return expiredAt(ent, now)
}

func (ExpireAfterAccess) OnAccess(ent *types.CacheEntry, now time.Time) {
	ent.LastAccessedAt = now
	ent.ExpiresAt = now.Add(ent.TTL)
}

func (ExpireAfterAccess) OnWrite(ent *types.CacheEntry, now time.Time, ttl time.Duration) {
	ent.CreatedAt = now
	ent.LastAccessedAt = now
	ent.TTL = ttl
	ent.ExpiresAt = now.Add(ttl)
}

// Parse maps a configuration name to a Strategy. Unknown names yield false.
func Parse(name string) (Strategy, bool) {
	switch name {
	case "", "fixed":
		return Fixed{}, true
	case "access", "sliding":
		return ExpireAfterAccess{}, true
	}
	return nil, false
}
