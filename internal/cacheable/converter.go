package cacheable

import (
	"errors"

	"go.trai.ch/zerr"
)

// Converter maps a value that cannot be written directly to a surrogate that can, and
// back. Rehydrate typically pulls the real value out of the run-scoped context.
type Converter[T, S any] interface {
	Surrogate(value T, ctx any) (S, error)
	Rehydrate(surrogate S, ctx any) (T, error)
}

// EncodeWith writes v through its converter's surrogate.
func EncodeWith[T any, S Marshaler](e *Encoder, c Converter[T, S], v T) error {
	s, err := c.Surrogate(v, e.Context())
	if err != nil {
		return wrapEncode(err, "converter surrogate")
	}
	return s.MarshalCache(e)
}

// DecodeWith reads a surrogate and rehydrates it into the original type.
func DecodeWith[T, S any, PS interface {
	*S
	Unmarshaler
}](d *Decoder, c Converter[T, S]) (T, error) {
	var zero T
	var s S
	if err := PS(&s).UnmarshalCache(d); err != nil {
		return zero, err
	}
	v, err := c.Rehydrate(s, d.Context())
	if err != nil {
		return zero, err
	}
	return v, nil
}

func wrapEncode(err error, msg string) error {
	if errors.Is(err, ErrEncode) {
		return err
	}
	return zerr.Wrap(errors.Join(ErrEncode, err), msg)
}
