package admin

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cache "github.com/krisalay/operation-cache"
	"github.com/krisalay/operation-cache/metrics"
)

type fixture struct {
	cache  *cache.OperationCache
	clock  *clockwork.FakeClock
	server *Server
}

func setupTestServer(t *testing.T) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	c, err := cache.New(
		cache.WithClock(clock),
		cache.WithSweepInterval(0),
		cache.WithMetrics(metrics.NewPrometheus(reg, "admin_test")),
	)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	require.NoError(t, c.Set("products_get", "PC61", "tee", time.Minute))
	require.NoError(t, c.Set("products_search", map[string]any{"brand": "Port"}, []string{"PC61"}, time.Minute))
	require.NoError(t, c.Set("orders_search", "recent", 3, time.Hour))

	return fixture{cache: c, clock: clock, server: NewServer(":0", c, reg, nil)}
}

func (f fixture) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	f.server.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHealthz(t *testing.T) {
	f := setupTestServer(t)
	w := f.do(t, http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestStats(t *testing.T) {
	f := setupTestServer(t)
	w := f.do(t, http.MethodGet, "/stats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var stats cache.Stats
	decode(t, w, &stats)
	assert.Equal(t, 3, stats.Size)
	assert.Equal(t, []string{
		"agent-cache:orders_search:recent",
		"agent-cache:products_get:PC61",
		`agent-cache:products_search:{"brand":"Port"}`,
	}, stats.Keys)
}

func TestClearEntries(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		wantRemoved int
		wantLeft    int
	}{
		{name: "by prefix", target: "/entries?prefix=products_", wantRemoved: 2, wantLeft: 1},
		{name: "by exact operation", target: "/entries?prefix=orders_search", wantRemoved: 1, wantLeft: 2},
		{name: "unmatched prefix", target: "/entries?prefix=users_", wantRemoved: 0, wantLeft: 3},
		{name: "everything", target: "/entries", wantRemoved: 3, wantLeft: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestServer(t)
			w := f.do(t, http.MethodDelete, tt.target)
			require.Equal(t, http.StatusOK, w.Code)

			var body struct {
				Removed int `json:"removed"`
			}
			decode(t, w, &body)
			assert.Equal(t, tt.wantRemoved, body.Removed)
			assert.Equal(t, tt.wantLeft, f.cache.Stats().Size)
		})
	}
}

func TestDeleteKey(t *testing.T) {
	f := setupTestServer(t)

	w := f.do(t, http.MethodDelete, "/entries/key?key=agent-cache:products_get:PC61")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotContains(t, f.cache.Stats().Keys, "agent-cache:products_get:PC61")

	w = f.do(t, http.MethodDelete, "/entries/key")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSweep(t *testing.T) {
	f := setupTestServer(t)
	f.clock.Advance(2 * time.Minute)

	w := f.do(t, http.MethodPost, "/sweep")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Removed int `json:"removed"`
	}
	decode(t, w, &body)
	assert.Equal(t, 2, body.Removed)
	assert.Equal(t, []string{"agent-cache:orders_search:recent"}, f.cache.Stats().Keys)
}

func TestMetrics(t *testing.T) {
	f := setupTestServer(t)

	_, ok, err := f.cache.Get("products_get", "PC61")
	require.NoError(t, err)
	require.True(t, ok)

	w := f.do(t, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.True(t, strings.Contains(body, `opcache_hits_total{cache="admin_test"} 1`), body)
	assert.Contains(t, body, "opcache_misses_total")
}

func TestMetricsDisabledWithoutGatherer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, err := cache.New(cache.WithSweepInterval(0))
	require.NoError(t, err)
	t.Cleanup(c.Close)

	s := NewServer(":0", c, nil, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
