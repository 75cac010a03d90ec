package cacheable

import (
	"cmp"
	"slices"
)

// EncodeSlice writes the length of items followed by each item.
func EncodeSlice[T any](e *Encoder, items []T, write func(*Encoder, T) error) error {
	e.WriteUvarint(uint64(len(items)))
	for _, item := range items {
		if err := write(e, item); err != nil {
			return err
		}
	}
	return nil
}

// DecodeSlice reads a slice written by EncodeSlice. An empty slice decodes as nil.
func DecodeSlice[T any](d *Decoder, read func(*Decoder) (T, error)) ([]T, error) {
	n, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	// Every element occupies at least one byte.
	if n > uint64(d.Remaining()) {
		return nil, d.Malformed("slice length exceeds input")
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]T, 0, n)
	for range n {
		v, err := read(d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// EncodeSortedSet writes the members of a set in ascending order so equal sets
// produce equal bytes.
func EncodeSortedSet[K cmp.Ordered](e *Encoder, set map[K]struct{}, write func(*Encoder, K) error) error {
	keys := make([]K, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return EncodeSlice(e, keys, write)
}

// DecodeSet reads a set written by EncodeSortedSet. The result is never nil.
func DecodeSet[K comparable](d *Decoder, read func(*Decoder) (K, error)) (map[K]struct{}, error) {
	keys, err := DecodeSlice(d, read)
	if err != nil {
		return nil, err
	}
	set := make(map[K]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set, nil
}

// EncodeSortedMap writes map entries in ascending key order.
func EncodeSortedMap[K cmp.Ordered, V any](
	e *Encoder,
	m map[K]V,
	writeKey func(*Encoder, K) error,
	writeValue func(*Encoder, V) error,
) error {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	e.WriteUvarint(uint64(len(keys)))
	for _, k := range keys {
		if err := writeKey(e, k); err != nil {
			return err
		}
		if err := writeValue(e, m[k]); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMap reads a map written by EncodeSortedMap. The result is never nil.
func DecodeMap[K comparable, V any](
	d *Decoder,
	readKey func(*Decoder) (K, error),
	readValue func(*Decoder) (V, error),
) (map[K]V, error) {
	n, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(d.Remaining()) {
		return nil, d.Malformed("map length exceeds input")
	}
	m := make(map[K]V, n)
	for range n {
		k, err := readKey(d)
		if err != nil {
			return nil, err
		}
		v, err := readValue(d)
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}

// StringWriter writes s as a plain string.
func StringWriter(e *Encoder, s string) error {
	e.WriteString(s)
	return nil
}

// StringReader reads a plain string.
func StringReader(d *Decoder) (string, error) {
	return d.ReadString()
}

// Uint32Writer writes v as a varint.
func Uint32Writer(e *Encoder, v uint32) error {
	e.WriteUint32(v)
	return nil
}

// Uint32Reader reads a 32-bit varint.
func Uint32Reader(d *Decoder) (uint32, error) {
	return d.ReadUint32()
}
