package command

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/operation-cache/internal/config"
	mylog "github.com/krisalay/operation-cache/internal/log"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "opcache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvPath, "")
	t.Setenv(mylog.EnvLevel, "")

	var out bytes.Buffer
	app := InitApp(&out)
	err := app.Run(ctx, append([]string{"opcache"}, args...))
	return out.String(), err
}

func TestDemo(t *testing.T) {
	out, err := run(t, context.Background(), "demo", "--latency", "0s", "--concurrency", "4")
	require.NoError(t, err)

	assert.Contains(t, out, "key: agent-cache:products_get:PC61")
	assert.Contains(t, out, "4 concurrent lookups, 1 source call(s)")
	assert.Contains(t, out, "entries before update: 4")
	assert.Contains(t, out, "cleared 3 products_* entries, 1 left")
	assert.Contains(t, out, "swept 1 expired entries")
	assert.Contains(t, out, `"agent-cache:orders_search:{\"status\":\"open\"}"`)
	assert.Contains(t, out, "hit ratio")
}

func TestDemoUsesConfigFile(t *testing.T) {
	path := writeConfig(t, "cache:\n  ttl: 30s\n  key_prefix: \"demo:\"\n")

	out, err := run(t, context.Background(), "--config", path, "demo", "--latency", "0s")
	require.NoError(t, err)
	assert.Contains(t, out, "key: demo:products_get:PC61")
	assert.Contains(t, out, "advanced clock by 31s")
}

func TestInvalidConfigFails(t *testing.T) {
	path := writeConfig(t, "cache:\n  shards: -1\n")

	_, err := run(t, context.Background(), "--config", path, "demo")
	assert.Error(t, err)
}

func TestLogLevelFlag(t *testing.T) {
	_, err := run(t, context.Background(), "--log-level", "warn", "demo", "--latency", "0s")
	require.NoError(t, err)

	logger, ok := log.Log.(*log.Logger)
	require.True(t, ok)
	assert.Equal(t, log.WarnLevel, logger.Level)
}

func TestBench(t *testing.T) {
	out, err := run(t, context.Background(), "--log-level", "error",
		"bench", "--workers", "2", "--keys", "10", "--duration", "50ms")
	require.NoError(t, err)

	assert.Contains(t, out, "workers 2  keys 30")
	assert.Contains(t, out, "throughput")
	assert.Contains(t, out, "errors 0")
}

func TestBenchRejectsBadParams(t *testing.T) {
	_, err := run(t, context.Background(), "bench", "--workers", "0")
	assert.Error(t, err)
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err := run(t, ctx, "--log-level", "error", "serve", "--addr", "127.0.0.1:0", "--seed")
	assert.NoError(t, err)
}
