package dedupe

import (
	"sync"
	"time"
)

type entry struct {
	id  string
	seq uint64
	ts  time.Time
}

type record struct {
	fingerprint string
	seq         uint64
	ts          time.Time
}

// Cache remembers the content fingerprint of recently indexed policies so a
// republished batch only re-indexes records whose content changed.
type Cache struct {
	mu       sync.Mutex
	items    map[string]record
	order    []entry
	seq      uint64
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// NewCache creates a cache with the provided capacity and ttl.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		items:    make(map[string]record, capacity),
		order:    make([]entry, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Unchanged reports whether id was recorded with the same fingerprint inside
// the ttl window. It does not record anything; use Mark after indexing.
func (c *Cache) Unchanged(id, fingerprint string) bool {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.items[id]
	if !ok || now.Sub(rec.ts) > c.ttl {
		return false
	}
	return rec.fingerprint == fingerprint
}

// Mark records the fingerprint indexed for id.
func (c *Cache) Mark(id, fingerprint string) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.items[id] = record{fingerprint: fingerprint, seq: c.seq, ts: now}
	c.order = append(c.order, entry{id: id, seq: c.seq, ts: now})
	c.compact(now)
}

// Len returns the number of tracked ids.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cache) compact(now time.Time) {
	cutoff := now.Add(-c.ttl)

	for len(c.order) > 0 && (len(c.items) > c.capacity || c.order[0].ts.Before(cutoff)) {
		oldest := c.order[0]
		c.order = c.order[1:]

		// a re-marked id has a newer entry further down the queue
		if rec, ok := c.items[oldest.id]; ok && rec.seq == oldest.seq {
			delete(c.items, oldest.id)
		}
	}
}
