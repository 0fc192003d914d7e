package engine

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"

	"github.com/krisalay/operation-cache/expiration"
	"github.com/krisalay/operation-cache/types"
)

func TestNewCacheEngineDefaults(t *testing.T) {
	e := NewCacheEngine(nil, nil, nil, nil)

	assert.NotNil(t, e.Clock)
	assert.IsType(t, expiration.Fixed{}, e.Expiration)
	assert.IsType(t, types.NoopMetrics{}, e.Metrics)
	assert.NotNil(t, e.Logger)
}

func TestEntryLifetimeFollowsClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	e := NewCacheEngine(clock, nil, nil, nil)

	ent := e.NewEntry("k", "v", 100*time.Millisecond)
	assert.Equal(t, clock.Now(), ent.CreatedAt)
	assert.False(t, e.IsExpired(ent))

	clock.Advance(100 * time.Millisecond)
	assert.False(t, e.IsExpired(ent))

	clock.Advance(time.Millisecond)
	assert.True(t, e.IsExpired(ent))
}
