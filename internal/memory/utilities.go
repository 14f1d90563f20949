// Package memory provides allocator selection and buffer accounting for
// colframe arrays, plus a tracker for the create/process/cleanup pattern
// used by table operations and serializers.
package memory

import (
	"fmt"
	"sync"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/colframe/internal/array"
)

// Allocator kinds accepted by NewAllocator.
const (
	KindGo      = "go"
	KindChecked = "checked"
)

// NewAllocator returns the allocator named by kind. The checked allocator
// wraps the Go allocator and records every outstanding byte; it is meant for
// tests and leak hunting.
func NewAllocator(kind string) (memory.Allocator, error) {
	switch kind {
	case KindGo, "":
		return memory.NewGoAllocator(), nil
	case KindChecked:
		return memory.NewCheckedAllocator(memory.NewGoAllocator()), nil
	}
	return nil, fmt.Errorf("unknown allocator %q", kind)
}

// BufferFootprint returns the bytes held by arr's buffers, including its
// children and dictionary. Each distinct buffer counts once, so a slice
// reports the footprint of the array it views.
func BufferFootprint(arr array.Array) int64 {
	seen := make(map[*memory.Buffer]struct{})
	return dataFootprint(arr.Data(), seen)
}

func dataFootprint(d *array.Data, seen map[*memory.Buffer]struct{}) int64 {
	if d == nil {
		return 0
	}
	var total int64
	for _, b := range d.Buffers() {
		if b == nil {
			continue
		}
		if _, dup := seen[b]; dup {
			continue
		}
		seen[b] = struct{}{}
		total += int64(b.Len())
	}
	for _, c := range d.Children() {
		total += dataFootprint(c, seen)
	}
	return total + dataFootprint(d.Dictionary(), seen)
}

// Releasable is anything holding reference-counted memory.
type Releasable interface {
	Release()
}

// Tracker collects intermediate results so a multi-step operation can
// release them in one place, whichever step fails.
type Tracker struct {
	mu        sync.Mutex
	resources []Releasable
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Track registers r. Nil values are ignored.
func (t *Tracker) Track(r Releasable) {
	if r == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resources = append(t.resources, r)
}

// ReleaseAll releases every tracked resource in reverse order and empties
// the tracker.
func (t *Tracker) ReleaseAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := len(t.resources) - 1; i >= 0; i-- {
		t.resources[i].Release()
	}
	t.resources = nil
}
