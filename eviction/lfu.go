// This file implements LFU eviction.

package eviction

// lfu groups keys into buckets by read count. minFreq points at the lowest
// non-empty bucket so eviction does not scan every key.
type lfu struct {
	freq    map[string]int
	buckets map[int]map[string]struct{}
	minFreq int
}

func newLFU() *lfu {
	return &lfu{
		freq:    make(map[string]int),
		buckets: make(map[int]map[string]struct{}),
	}
}

func (l *lfu) OnGet(k string) {
	f, ok := l.freq[k]
	if !ok {
		return
	}
	l.unlink(k, f)
	if l.minFreq == f && l.buckets[f] == nil {
		l.minFreq = f + 1
	}
	l.link(k, f+1)
}

func (l *lfu) OnPut(k string) {
	if _, ok := l.freq[k]; ok {
		return
	}
	l.link(k, 1)
	l.minFreq = 1
}

// Evict drops an arbitrary key from the least-read bucket.
func (l *lfu) Evict() string {
	if len(l.freq) == 0 {
		return ""
	}
	if l.buckets[l.minFreq] == nil {
		l.recomputeMin()
	}
	for k := range l.buckets[l.minFreq] {
		l.unlink(k, l.minFreq)
		delete(l.freq, k)
		return k
	}
	return ""
}

func (l *lfu) Remove(k string) {
	f, ok := l.freq[k]
	if !ok {
		return
	}
	l.unlink(k, f)
	delete(l.freq, k)
}

func (l *lfu) link(k string, f int) {
	l.freq[k] = f
	if l.buckets[f] == nil {
		l.buckets[f] = make(map[string]struct{})
	}
	l.buckets[f][k] = struct{}{}
}

func (l *lfu) unlink(k string, f int) {
	delete(l.buckets[f], k)
	if len(l.buckets[f]) == 0 {
		delete(l.buckets, f)
	}
}

// recomputeMin is needed after Remove emptied the minimum bucket.
func (l *lfu) recomputeMin() {
	l.minFreq = 0
	for f := range l.buckets {
		if l.minFreq == 0 || f < l.minFreq {
			l.minFreq = f
		}
	}
}
