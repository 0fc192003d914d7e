// This file implements LRU eviction.

package eviction

import "container/list"

// lru keeps keys in a recency list: front is the most recently used,
// back is the next victim.
type lru struct {
	order *list.List
	elems map[string]*list.Element
}

func newLRU() *lru {
	return &lru{order: list.New(), elems: make(map[string]*list.Element)}
}

func (l *lru) OnGet(k string) {
	if e, ok := l.elems[k]; ok {
		l.order.MoveToFront(e)
	}
}

// OnPut treats an overwrite as a use of the key.
func (l *lru) OnPut(k string) {
	if e, ok := l.elems[k]; ok {
		l.order.MoveToFront(e)
		return
	}
	l.elems[k] = l.order.PushFront(k)
}

func (l *lru) Evict() string {
	e := l.order.Back()
	if e == nil {
		return ""
	}
	k := l.order.Remove(e).(string)
	delete(l.elems, k)
	return k
}

func (l *lru) Remove(k string) {
	if e, ok := l.elems[k]; ok {
		l.order.Remove(e)
		delete(l.elems, k)
	}
}
