package eviction

import "fmt"

/*
Policy picks which key to drop when a shard is full.
The shard calls it under its own lock, so implementations are not
goroutine-safe on their own.
*/
type Policy interface {

	// OnGet records a read of a tracked key.
	OnGet(key string)

	// OnPut starts tracking key. Re-putting a tracked key is a no-op.
	OnPut(key string)

	// Remove stops tracking key after an explicit delete or expiry.
	Remove(key string)

	// Evict chooses a victim, stops tracking it and returns it.
	// It returns "" when nothing is tracked.
	Evict() string
}

// PolicyType names a supported eviction strategy.
type PolicyType string

const (
	// None keeps no bookkeeping; used when the cache is unbounded.
	None PolicyType = ""

	// LRU evicts the key that has gone unread the longest.
	LRU PolicyType = "LRU"

	// LFU evicts the key with the fewest reads.
	LFU PolicyType = "LFU"

	// FIFO evicts the oldest inserted key regardless of reads.
	FIFO PolicyType = "FIFO"
)

// NewPolicy builds a fresh policy instance for one shard.
func NewPolicy(t PolicyType) (Policy, error) {
	switch t {
	case None:
		return noop{}, nil
	case LRU:
		return newLRU(), nil
	case LFU:
		return newLFU(), nil
	case FIFO:
		return newFIFO(), nil
	}
	return nil, fmt.Errorf("unknown eviction policy %q", string(t))
}

type noop struct{}

func (noop) OnGet(string)  {}
func (noop) OnPut(string)  {}
func (noop) Remove(string) {}
func (noop) Evict() string { return "" }
