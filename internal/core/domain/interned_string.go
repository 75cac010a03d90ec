package domain

import (
	"strings"
	"unique"

	"go.trai.ch/stow/internal/cacheable"
)

// InternedString is a value object that wraps a unique.Handle[string].
// It is used to reduce memory usage for frequently repeated strings like module identifiers
// and block ids. The zero value represents the empty string.
type InternedString struct {
	h unique.Handle[string]
}

// NewInternedString creates a new InternedString from a string.
// The empty string maps to the zero value.
func NewInternedString(s string) InternedString {
	if s == "" {
		return InternedString{}
	}
	return InternedString{
		h: unique.Make(s),
	}
}

// NewInternedStrings converts a slice of strings to InternedStrings.
func NewInternedStrings(ss []string) []InternedString {
	out := make([]InternedString, len(ss))
	for i, s := range ss {
		out[i] = NewInternedString(s)
	}
	return out
}

// String returns the underlying string value.
func (is InternedString) String() string {
	if is.IsZero() {
		return ""
	}
	return is.h.Value()
}

// IsZero reports whether is holds the empty string.
func (is InternedString) IsZero() bool {
	var zero unique.Handle[string]
	return is.h == zero
}

// Value returns the underlying unique.Handle[string].
func (is InternedString) Value() unique.Handle[string] {
	return is.h
}

// Compare orders interned strings by their string value.
func (is InternedString) Compare(other InternedString) int {
	return strings.Compare(is.String(), other.String())
}

// MarshalText implements encoding.TextMarshaler.
func (is InternedString) MarshalText() ([]byte, error) {
	return []byte(is.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (is *InternedString) UnmarshalText(text []byte) error {
	*is = NewInternedString(string(text))
	return nil
}

// MarshalCache writes the string through the message's atom table.
func (is InternedString) MarshalCache(e *cacheable.Encoder) error {
	e.WriteAtom(is.String())
	return nil
}

// UnmarshalCache reads a string written by MarshalCache and interns it again.
func (is *InternedString) UnmarshalCache(d *cacheable.Decoder) error {
	s, err := d.ReadAtom()
	if err != nil {
		return err
	}
	*is = NewInternedString(s)
	return nil
}

func writeInterned(e *cacheable.Encoder, is InternedString) error {
	return is.MarshalCache(e)
}

func readInterned(d *cacheable.Decoder) (InternedString, error) {
	var is InternedString
	err := is.UnmarshalCache(d)
	return is, err
}
