package cacheable

import (
	"fmt"
	"slices"
	"sync"

	"go.trai.ch/zerr"
)

// Kinded is a polymorphic value that knows its own kind tag.
type Kinded interface {
	Marshaler
	Unmarshaler
	Kind() string
}

// Registry maps kind tags to factories for an open set of types sharing the
// interface T. Values are written as their kind tag followed by their own fields.
type Registry[T Kinded] struct {
	name      string
	mu        sync.RWMutex
	factories map[string]func() T
}

// NewRegistry creates an empty registry. name only appears in error metadata.
func NewRegistry[T Kinded](name string) *Registry[T] {
	return &Registry[T]{
		name:      name,
		factories: make(map[string]func() T),
	}
}

// Register adds a factory for kind. Registering the same kind twice panics.
func (r *Registry[T]) Register(kind string, factory func() T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[kind]; ok {
		panic(fmt.Sprintf("cacheable: %s kind %q registered twice", r.name, kind))
	}
	r.factories[kind] = factory
}

// Kinds returns the registered kind tags in sorted order.
func (r *Registry[T]) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

func (r *Registry[T]) factory(kind string) (func() T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[kind]
	return f, ok
}

// EncodeDyn writes v with its kind tag. Kinds without a factory cannot be decoded
// later, so they fail here with ErrEncode.
func (r *Registry[T]) EncodeDyn(e *Encoder, v T) error {
	kind := v.Kind()
	if _, ok := r.factory(kind); !ok {
		err := zerr.With(zerr.Wrap(ErrEncode, "unregistered kind"), "kind", kind)
		return zerr.With(err, "registry", r.name)
	}
	e.WriteAtom(kind)
	if err := v.MarshalCache(e); err != nil {
		return zerr.With(wrapEncode(err, "encode "+r.name), "kind", kind)
	}
	return nil
}

// DecodeDyn reads a kind tag and the value that follows it.
func (r *Registry[T]) DecodeDyn(d *Decoder) (T, error) {
	var zero T
	kind, err := d.ReadAtom()
	if err != nil {
		return zero, err
	}
	f, ok := r.factory(kind)
	if !ok {
		err := zerr.With(d.Malformed("unknown kind"), "kind", kind)
		return zero, zerr.With(err, "registry", r.name)
	}
	v := f()
	if err := v.UnmarshalCache(d); err != nil {
		return zero, err
	}
	return v, nil
}
