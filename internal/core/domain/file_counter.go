package domain

import (
	"slices"

	"go.trai.ch/stow/internal/cacheable"
)

// FileCounter is a reference-counted set of paths. It also tracks which paths entered or
// left the set since the last ResetIncremental so the cache can update its snapshot.
type FileCounter struct {
	counts  map[string]uint32
	added   Set[string]
	removed Set[string]
}

// NewFileCounter creates an empty FileCounter.
func NewFileCounter() *FileCounter {
	return &FileCounter{
		counts:  make(map[string]uint32),
		added:   NewSet[string](),
		removed: NewSet[string](),
	}
}

// Add increments the reference count of each path.
func (c *FileCounter) Add(paths ...string) {
	for _, p := range paths {
		c.counts[p]++
		if c.counts[p] == 1 {
			c.added.Add(p)
			c.removed.Delete(p)
		}
	}
}

// Remove decrements the reference count of each path. Unknown paths are ignored.
func (c *FileCounter) Remove(paths ...string) {
	for _, p := range paths {
		n, ok := c.counts[p]
		if !ok {
			continue
		}
		if n > 1 {
			c.counts[p] = n - 1
			continue
		}
		delete(c.counts, p)
		c.removed.Add(p)
		c.added.Delete(p)
	}
}

// Contains reports whether path is referenced at least once.
func (c *FileCounter) Contains(path string) bool {
	_, ok := c.counts[path]
	return ok
}

// Len returns the number of distinct paths.
func (c *FileCounter) Len() int {
	return len(c.counts)
}

// Paths returns every referenced path in sorted order.
func (c *FileCounter) Paths() []string {
	out := make([]string, 0, len(c.counts))
	for p := range c.counts {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Added returns the paths that entered the set since the last reset.
func (c *FileCounter) Added() []string {
	return Sorted(c.added)
}

// Removed returns the paths that left the set since the last reset.
func (c *FileCounter) Removed() []string {
	return Sorted(c.removed)
}

// ResetIncremental forgets the added and removed tracking.
func (c *FileCounter) ResetIncremental() {
	c.added = NewSet[string]()
	c.removed = NewSet[string]()
}

// MarshalCache writes the reference counts. Incremental tracking is not persisted.
func (c *FileCounter) MarshalCache(e *cacheable.Encoder) error {
	return cacheable.EncodeSortedMap(e, c.counts, writeAtomString, func(e *cacheable.Encoder, n uint32) error {
		e.WriteUint32(n)
		return nil
	})
}

// UnmarshalCache implements cacheable.Unmarshaler.
func (c *FileCounter) UnmarshalCache(d *cacheable.Decoder) error {
	counts, err := cacheable.DecodeMap(d, readAtomString, cacheable.Uint32Reader)
	if err != nil {
		return err
	}
	c.counts = counts
	c.added = NewSet[string]()
	c.removed = NewSet[string]()
	return nil
}
