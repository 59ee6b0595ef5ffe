// Package dedupe tracks reading IDs that have already been accepted so
// resubmissions can be acknowledged without reprocessing.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 50000

// Deduper records seen reading IDs so a resubmitted reading is
// acknowledged without being classified and stored twice.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen before and
	// records it if not. It returns true when id was already present.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets an ID so it can be submitted again. Used when a
	// reading was recorded but could not be enqueued.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// memoryDeduper keeps seen IDs in a map. In bounded mode a fixed-size
// ring of slots tracks insertion order; overwriting a slot evicts the
// oldest surviving entry, so the map never grows past maxSize. With
// maxSize <= 0 the map grows without bound and nothing is evicted.
type memoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // id to ring slot, -1 in unbounded mode
	slots   []string
	cursor  int
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a deduper holding up to 50000 IDs unless
// configured otherwise.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &memoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.slots = make([]string, d.maxSize)
	}
	return d
}

func (d *memoryDeduper) SeenAndRecord(ctx context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if d.maxSize > 0 {
		// Overwriting the cursor slot evicts whatever entry still lives
		// there. A slot whose ID was unrecorded, or re-recorded at a
		// newer slot, is stale and skipped.
		if old := d.slots[d.cursor]; old != "" {
			if slot, ok := d.seen[old]; ok && slot == d.cursor {
				delete(d.seen, old)
				d.size.Add(-1)
			}
		}
		d.slots[d.cursor] = id
		d.seen[id] = d.cursor
		d.cursor = (d.cursor + 1) % d.maxSize
	} else {
		d.seen[id] = -1
	}
	d.size.Add(1)
	return false
}

func (d *memoryDeduper) Unrecord(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		delete(d.seen, id)
		d.size.Add(-1)
	}
}

// Size returns the number of IDs currently recorded.
func (d *memoryDeduper) Size() int64 {
	return d.size.Load()
}
