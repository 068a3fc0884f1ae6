// Package dedupe tracks record identities so exact duplicates are dropped
// with first-occurrence-wins semantics.
package dedupe

import (
	"fmt"
	"time"
)

// Key identifies a visit by its parsed (arrival, start, finish) triple.
type Key struct {
	Arrival int64 // UnixNano
	Start   int64
	Finish  int64
}

// KeyOf builds the identity of a visit from its normalized timestamps.
func KeyOf(arrival, start, finish time.Time) Key {
	return Key{Arrival: arrival.UnixNano(), Start: start.UnixNano(), Finish: finish.UnixNano()}
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%d/%d", k.Arrival, k.Start, k.Finish)
}

// Deduper records seen keys.
type Deduper interface {
	// SeenAndRecord checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(key Key) bool

	Size() int
}

// inMemoryDeduper implements Deduper with an unbounded map, so duplicates
// are caught anywhere in the extract. It is not safe for concurrent use.
type inMemoryDeduper struct {
	seen map[Key]struct{}
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper() Deduper {
	return &inMemoryDeduper{seen: make(map[Key]struct{})}
}

func (d *inMemoryDeduper) SeenAndRecord(key Key) bool {
	if _, exists := d.seen[key]; exists {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Size() int { return len(d.seen) }
