package domain

import (
	"cmp"
	"slices"
)

// Set is an unordered collection of unique values.
type Set[T comparable] map[T]struct{}

// NewSet creates a set holding items.
func NewSet[T comparable](items ...T) Set[T] {
	s := make(Set[T], len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Add inserts v.
func (s Set[T]) Add(v T) {
	s[v] = struct{}{}
}

// Has reports whether v is in the set.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Delete removes v.
func (s Set[T]) Delete(v T) {
	delete(s, v)
}

// Len returns the number of members.
func (s Set[T]) Len() int {
	return len(s)
}

// SortedFunc returns the members ordered by cmpFn.
func (s Set[T]) SortedFunc(cmpFn func(a, b T) int) []T {
	out := make([]T, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.SortFunc(out, cmpFn)
	return out
}

// Sorted returns the members of an ordered set in ascending order.
func Sorted[T cmp.Ordered](s Set[T]) []T {
	return s.SortedFunc(cmp.Compare[T])
}
