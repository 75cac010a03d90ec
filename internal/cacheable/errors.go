package cacheable

import "go.trai.ch/zerr"

var (
	// ErrEncode is returned when a value cannot be represented in bytes, for example a
	// polymorphic value whose kind was never registered or a converter that failed.
	ErrEncode = zerr.New("value is not cacheable")

	// ErrMalformed is returned when bytes do not match the expected layout.
	ErrMalformed = zerr.New("malformed cache data")

	// ErrIncompatible is returned when the schema marker does not match the current format.
	// It also matches ErrMalformed.
	ErrIncompatible = zerr.Wrap(ErrMalformed, "incompatible cache schema")

	// ErrMissingContext is returned when a converter-backed field needs a context value
	// that the supplied context does not carry.
	ErrMissingContext = zerr.New("missing cache context")
)
