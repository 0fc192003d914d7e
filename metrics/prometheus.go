package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/krisalay/operation-cache/types"
)

var _ types.Metrics = (*Prometheus)(nil)

// Prometheus exports cache events as counters. Several sinks can share one
// registry as long as each uses a distinct cache label.
type Prometheus struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	evictions     prometheus.Counter
	expired       prometheus.Counter
	invalidations prometheus.Counter
}

// NewPrometheus registers the cache counters on reg, labelled with name.
func NewPrometheus(reg prometheus.Registerer, name string) *Prometheus {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"cache": name}

	counter := func(metric, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "opcache",
			Name:        metric,
			Help:        help,
			ConstLabels: labels,
		})
	}

	return &Prometheus{
		hits:          counter("hits_total", "Lookups answered from the cache."),
		misses:        counter("misses_total", "Lookups that found no valid entry."),
		evictions:     counter("evictions_total", "Entries dropped to respect the capacity bound."),
		expired:       counter("expired_total", "Expired entries removed on read or by the sweep."),
		invalidations: counter("invalidations_total", "Entries removed by Remove, DeleteKey or Clear."),
	}
}

func (p *Prometheus) Hit()             { p.hits.Inc() }
func (p *Prometheus) Miss()            { p.misses.Inc() }
func (p *Prometheus) Eviction()        { p.evictions.Inc() }
func (p *Prometheus) Expire()          { p.expired.Inc() }
func (p *Prometheus) Invalidate(n int) { p.invalidations.Add(float64(n)) }
