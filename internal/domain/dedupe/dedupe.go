// Package dedupe tracks recently seen frame ids.
package dedupe

import (
	"context"
	"sync"
)

const defaultMaxSize = 10_000

// Deduper records seen frame ids so a frame is scored at most once.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a frame rejected downstream (e.g. queue
	// backpressure) can be resubmitted.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// ringDeduper remembers the last maxSize ids in insertion order.
// slots is a ring; next points at the oldest slot, which is overwritten on
// insert. Unrecorded ids leave an empty slot behind.
type ringDeduper struct {
	mu      sync.Mutex
	maxSize int
	seen    map[string]int // id -> slot index, -1 in unbounded mode
	slots   []string
	next    int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &ringDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.slots = make([]string, d.maxSize)
	}
	return d
}

func (d *ringDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if d.slots == nil {
		d.seen[id] = -1
		return false
	}

	if old := d.slots[d.next]; old != "" {
		delete(d.seen, old)
	}
	d.slots[d.next] = id
	d.seen[id] = d.next
	d.next = (d.next + 1) % len(d.slots)
	return false
}

func (d *ringDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, ok := d.seen[id]
	if !ok {
		return
	}
	delete(d.seen, id)
	if slot >= 0 {
		d.slots[slot] = ""
	}
}

func (d *ringDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
