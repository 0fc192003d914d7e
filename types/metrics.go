package types

/*
Metrics receives the events of the cache lifecycle.
The cache calls these hooks inline, so implementations must be cheap and
safe for concurrent use.
*/
type Metrics interface {

	// Hit is called when a valid entry is returned.
	Hit()

	// Miss is called when no valid entry exists for a key.
	Miss()

	// Eviction is called when a key is dropped to respect the capacity bound.
	Eviction()

	// Expire is called once for every expired entry removed, lazily on read
	// or by the housekeeping sweep.
	Expire()

	// Invalidate is called with the number of entries removed by an explicit
	// Remove, DeleteKey or Clear.
	Invalidate(n int)
}

/*
NoopMetrics ignores every event.
The engine falls back to it so the read and write paths never need nil checks.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()           {}
func (NoopMetrics) Miss()          {}
func (NoopMetrics) Eviction()      {}
func (NoopMetrics) Expire()        {}
func (NoopMetrics) Invalidate(int) {}
