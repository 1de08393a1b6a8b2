package sim

import "container/heap"

// calendar is the global event queue: a min-heap on time, ties broken by
// insertion order so equal-time events pop first-in first-out.
type calendar struct {
	items entries
	seq   uint64
}

type entry struct {
	ev  Event
	seq uint64
}

type entries []entry

func (h entries) Len() int { return len(h) }
func (h entries) Less(i, j int) bool {
	if h[i].ev.Time != h[j].ev.Time {
		return h[i].ev.Time < h[j].ev.Time
	}
	return h[i].seq < h[j].seq
}
func (h entries) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *entries) Push(x any)   { *h = append(*h, x.(entry)) }
func (h *entries) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

func (c *calendar) Len() int { return len(c.items) }

func (c *calendar) push(ev Event) {
	c.seq++
	heap.Push(&c.items, entry{ev: ev, seq: c.seq})
}

func (c *calendar) pop() (Event, bool) {
	if len(c.items) == 0 {
		return Event{}, false
	}
	return heap.Pop(&c.items).(entry).ev, true
}

func (c *calendar) peek() (Event, bool) {
	if len(c.items) == 0 {
		return Event{}, false
	}
	return c.items[0].ev, true
}

// purge drops every pending event targeting agentID and returns how many were removed.
func (c *calendar) purge(agentID uint64) int {
	kept := c.items[:0]
	for _, e := range c.items {
		if e.ev.AgentID != agentID {
			kept = append(kept, e)
		}
	}
	removed := len(c.items) - len(kept)
	if removed > 0 {
		c.items = kept
		heap.Init(&c.items)
	}
	return removed
}

// pending returns how many queued events target agentID.
func (c *calendar) pending(agentID uint64) int {
	n := 0
	for _, e := range c.items {
		if e.ev.AgentID == agentID {
			n++
		}
	}
	return n
}
