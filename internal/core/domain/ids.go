package domain

import "sync/atomic"

// DependencyID identifies a dependency inside a module graph. Ids are unique per process
// and are never reused, including across a cache recovery.
type DependencyID uint32

// IDAllocator hands out monotonically increasing dependency ids.
type IDAllocator struct {
	next atomic.Uint32
}

// DefaultDependencyIDs is the process-wide allocator used when none is injected.
var DefaultDependencyIDs = &IDAllocator{}

// NewIDAllocator creates an allocator whose first id is start.
func NewIDAllocator(start DependencyID) *IDAllocator {
	a := &IDAllocator{}
	a.next.Store(uint32(start))
	return a
}

// Next returns a fresh id.
func (a *IDAllocator) Next() DependencyID {
	return DependencyID(a.next.Add(1) - 1)
}

// Peek returns the id the next call to Next would return.
func (a *IDAllocator) Peek() DependencyID {
	return DependencyID(a.next.Load())
}

// Advance moves the counter forward to at least next. It never moves it backwards.
func (a *IDAllocator) Advance(next DependencyID) {
	for {
		cur := a.next.Load()
		if cur >= uint32(next) {
			return
		}
		if a.next.CompareAndSwap(cur, uint32(next)) {
			return
		}
	}
}
