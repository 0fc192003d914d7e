package eviction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPolicy(t *testing.T, pt PolicyType) Policy {
	t.Helper()
	p, err := NewPolicy(pt)
	require.NoError(t, err)
	return p
}

func TestLRUEvictsLeastRecentlyRead(t *testing.T) {
	p := mustPolicy(t, LRU)
	p.OnPut("a")
	p.OnPut("b")
	p.OnPut("c")
	p.OnGet("a")

	assert.Equal(t, "b", p.Evict())
	assert.Equal(t, "c", p.Evict())
	assert.Equal(t, "a", p.Evict())
	assert.Equal(t, "", p.Evict())
}

func TestFIFOIgnoresReads(t *testing.T) {
	p := mustPolicy(t, FIFO)
	p.OnPut("a")
	p.OnPut("b")
	p.OnGet("a")
	p.OnPut("a")

	assert.Equal(t, "a", p.Evict())
	assert.Equal(t, "b", p.Evict())
}

func TestLFUEvictsLeastRead(t *testing.T) {
	p := mustPolicy(t, LFU)
	p.OnPut("hot")
	p.OnPut("cold")
	p.OnGet("hot")
	p.OnGet("hot")

	assert.Equal(t, "cold", p.Evict())
	assert.Equal(t, "hot", p.Evict())
	assert.Equal(t, "", p.Evict())
}

func TestLFURemoveOfMinimumBucket(t *testing.T) {
	p := mustPolicy(t, LFU)
	p.OnPut("a")
	p.OnPut("b")
	p.OnGet("b")
	p.Remove("a")

	assert.Equal(t, "b", p.Evict())
}

func TestRemoveStopsTracking(t *testing.T) {
	for _, pt := range []PolicyType{LRU, LFU, FIFO} {
		t.Run(string(pt), func(t *testing.T) {
			p := mustPolicy(t, pt)
			p.OnPut("a")
			p.OnPut("b")
			p.Remove("a")
			p.Remove("missing")

			assert.Equal(t, "b", p.Evict())
			assert.Equal(t, "", p.Evict())
		})
	}
}

func TestNonePolicyNeverEvicts(t *testing.T) {
	p := mustPolicy(t, None)
	p.OnPut("a")
	assert.Equal(t, "", p.Evict())
}

func TestUnknownPolicy(t *testing.T) {
	_, err := NewPolicy("MRU")
	assert.Error(t, err)
}
