// Package cacheable implements the positional binary format used to persist build
// artifacts, along with the converter and registry extension points for values that
// cannot be written as-is.
package cacheable

import (
	"errors"

	"go.trai.ch/zerr"
)

const (
	// Magic prefixes every encoded value.
	Magic = "stow"
	// FormatVersion is bumped whenever the layout of any persisted type changes.
	FormatVersion byte = 1
)

// Marshaler is implemented by values that can write themselves to an Encoder.
type Marshaler interface {
	MarshalCache(e *Encoder) error
}

// Unmarshaler is implemented by values that can read themselves from a Decoder.
type Unmarshaler interface {
	UnmarshalCache(d *Decoder) error
}

// Encode writes v into a fresh buffer prefixed with the schema marker. ctx is made
// available to every converter involved.
func Encode(v Marshaler, ctx any) ([]byte, error) {
	e := newEncoder(ctx)
	e.buf = append(e.buf, Magic...)
	e.buf = append(e.buf, FormatVersion)
	if err := v.MarshalCache(e); err != nil {
		if errors.Is(err, ErrEncode) {
			return nil, err
		}
		return nil, zerr.Wrap(errors.Join(ErrEncode, err), "encode")
	}
	return e.buf, nil
}

// Decode fills v from data written by Encode. The whole input must be consumed.
func Decode(data []byte, v Unmarshaler, ctx any) error {
	if len(data) < len(Magic)+1 || string(data[:len(Magic)]) != Magic {
		return zerr.Wrap(ErrMalformed, "missing schema marker")
	}
	if version := data[len(Magic)]; version != FormatVersion {
		err := zerr.With(zerr.Wrap(ErrIncompatible, "unsupported format version"), "version", int(version))
		return zerr.With(err, "expected", int(FormatVersion))
	}

	d := newDecoder(data, ctx)
	d.off = len(Magic) + 1
	if err := v.UnmarshalCache(d); err != nil {
		if errors.Is(err, ErrMalformed) || errors.Is(err, ErrMissingContext) {
			return err
		}
		return zerr.Wrap(errors.Join(ErrMalformed, err), "decode")
	}
	if d.Remaining() != 0 {
		return zerr.With(d.Malformed("trailing bytes"), "remaining", d.Remaining())
	}
	return nil
}
