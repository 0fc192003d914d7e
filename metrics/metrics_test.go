package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterSnapshot(t *testing.T) {
	c := &Counter{}
	c.Hit()
	c.Hit()
	c.Hit()
	c.Miss()
	c.Expire()
	c.Eviction()
	c.Invalidate(4)

	s := c.Snapshot()
	assert.Equal(t, Snapshot{Hits: 3, Misses: 1, Evictions: 1, Expired: 1, Invalidations: 4}, s)
	assert.InDelta(t, 0.75, s.HitRatio(), 1e-9)
	assert.Zero(t, Snapshot{}.HitRatio())
}

func TestPrometheusCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "catalog")

	p.Hit()
	p.Miss()
	p.Miss()
	p.Invalidate(3)

	expected := `
# HELP opcache_misses_total Lookups that found no valid entry.
# TYPE opcache_misses_total counter
opcache_misses_total{cache="catalog"} 2
# HELP opcache_invalidations_total Entries removed by Remove, DeleteKey or Clear.
# TYPE opcache_invalidations_total counter
opcache_invalidations_total{cache="catalog"} 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"opcache_misses_total", "opcache_invalidations_total"))
	assert.InDelta(t, 1, testutil.ToFloat64(p.hits), 1e-9)
}

func TestPrometheusDuplicateNamePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheus(reg, "catalog")
	assert.Panics(t, func() { NewPrometheus(reg, "catalog") })
}
