package api

import (
	"context"
	"time"
)

/*
Cache is the public contract of the operation cache.

Results are addressed by an operation name (what kind of call) and params
(which call). Both feed a deterministic key, so callers never build keys by
hand. Storage, sharding, expiry and housekeeping stay behind this interface.
*/
type Cache interface {

	/*
		DeriveKey returns the key for operation and params without touching
		the store. Params that cannot be serialized yield a
		*keys.SerializationError.
	*/
	DeriveKey(operation string, params any) (string, error)

	/*
		Get returns the value stored for operation and params.

		- Valid entry: (value, true, nil).
		- Missing entry: (nil, false, nil). A miss is not an error.
		- Expired entry: removed from the store, then reported as a miss.
	*/
	Get(operation string, params any) (any, bool, error)

	/*
		Set stores value with expiry now + ttl, replacing any existing entry.
		A ttl <= 0 uses the configured default.
	*/
	Set(operation string, params, value any, ttl time.Duration) error

	/*
		ExecuteWithCache returns the cached value or runs compute, stores its
		result and returns it. compute errors pass through unchanged and are
		never cached.
	*/
	ExecuteWithCache(
		ctx context.Context,
		operation string,
		params any,
		compute func(context.Context) (any, error),
		ttl time.Duration,
	) (any, error)

	// Remove deletes one entry. Removing a missing entry is a no-op.
	Remove(operation string, params any) error

	// DeleteKey deletes one entry by its full key.
	DeleteKey(key string)

	/*
		Clear deletes all entries when operationPrefix is empty, otherwise
		the entries whose operation name starts with operationPrefix. It
		returns the number of entries removed.
	*/
	Clear(operationPrefix string) int

	// CleanExpired removes every expired entry and returns how many it removed.
	CleanExpired() int

	// Stats returns the entry count and stored keys, swept or not.
	Stats() Stats

	// Close stops background housekeeping.
	Close()
}

// Stats is a point-in-time view of the store, for diagnostics.
type Stats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}
