package cache

import (
	"time"

	"github.com/apex/log"
	"github.com/jonboulle/clockwork"

	"github.com/krisalay/operation-cache/eviction"
	"github.com/krisalay/operation-cache/expiration"
	"github.com/krisalay/operation-cache/types"
)

const (
	// DefaultTTL applies when neither the call nor Configure sets one.
	DefaultTTL = 5 * time.Minute

	// DefaultKeyPrefix namespaces every derived key.
	DefaultKeyPrefix = "agent-cache:"

	// DefaultShards is the number of independently locked store partitions.
	DefaultShards = 16

	// DefaultSweepInterval is how often the housekeeping goroutine drops
	// expired entries.
	DefaultSweepInterval = 5 * time.Minute
)

// Options are the runtime-mutable settings applied by Configure.
// Zero fields leave the current value unchanged.
type Options struct {
	TTL       time.Duration
	KeyPrefix string
}

type settings struct {
	ttl           time.Duration
	keyPrefix     string
	shards        int
	maxEntries    int
	policy        eviction.PolicyType
	sweepInterval time.Duration
	singleFlight  bool

	clock      clockwork.Clock
	expiration expiration.Strategy
	metrics    types.Metrics
	logger     log.Interface
}

func defaultSettings() settings {
	return settings{
		ttl:           DefaultTTL,
		keyPrefix:     DefaultKeyPrefix,
		shards:        DefaultShards,
		sweepInterval: DefaultSweepInterval,
	}
}

// Option customizes an OperationCache at construction.
type Option func(*settings)

// WithTTL sets the default TTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithKeyPrefix sets the namespace prepended to every key. An empty prefix
// is allowed here, unlike in Configure.
func WithKeyPrefix(prefix string) Option {
	return func(s *settings) { s.keyPrefix = prefix }
}

// WithShards sets the number of store partitions.
func WithShards(n int) Option {
	return func(s *settings) { s.shards = n }
}

// WithMaxEntries bounds the number of stored entries. The bound is split
// evenly across shards and enforced with policy (LRU when policy is None).
// Zero means unbounded.
func WithMaxEntries(n int, policy eviction.PolicyType) Option {
	return func(s *settings) {
		s.maxEntries = n
		s.policy = policy
	}
}

// WithSweepInterval sets how often expired entries are swept. Zero or a
// negative value disables the housekeeping goroutine.
func WithSweepInterval(d time.Duration) Option {
	return func(s *settings) { s.sweepInterval = d }
}

// WithSingleFlight makes concurrent ExecuteWithCache misses on the same key
// share one compute call.
func WithSingleFlight(enabled bool) Option {
	return func(s *settings) { s.singleFlight = enabled }
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(s *settings) { s.clock = c }
}

// WithExpiration replaces the fixed-TTL expiration strategy.
func WithExpiration(strategy expiration.Strategy) Option {
	return func(s *settings) { s.expiration = strategy }
}

// WithMetrics installs a metrics sink.
func WithMetrics(m types.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// WithLogger sets the logger; the apex global logger is used otherwise.
func WithLogger(l log.Interface) Option {
	return func(s *settings) { s.logger = l }
}
