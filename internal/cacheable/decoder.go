package cacheable

import (
	"encoding/binary"
	"math"

	"go.trai.ch/zerr"
)

// Decoder reads values written by an Encoder, in the same order.
type Decoder struct {
	data  []byte
	off   int
	ctx   any
	atoms []string
}

func newDecoder(data []byte, ctx any) *Decoder {
	return &Decoder{data: data, ctx: ctx}
}

// Context returns the run-scoped context supplied to Decode.
func (d *Decoder) Context() any {
	return d.ctx
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.data) - d.off
}

// Malformed builds an ErrMalformed error annotated with the current read offset.
func (d *Decoder) Malformed(reason string) error {
	return zerr.With(zerr.Wrap(ErrMalformed, reason), "offset", d.off)
}

// ReadUvarint reads an unsigned varint.
func (d *Decoder) ReadUvarint() (uint64, error) {
	v, n := binary.Uvarint(d.data[d.off:])
	if n <= 0 {
		return 0, d.Malformed("invalid uvarint")
	}
	d.off += n
	return v, nil
}

// ReadVarint reads a signed varint.
func (d *Decoder) ReadVarint() (int64, error) {
	v, n := binary.Varint(d.data[d.off:])
	if n <= 0 {
		return 0, d.Malformed("invalid varint")
	}
	d.off += n
	return v, nil
}

// ReadUint32 reads a varint that must fit in 32 bits.
func (d *Decoder) ReadUint32() (uint32, error) {
	v, err := d.ReadUvarint()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, d.Malformed("uint32 overflow")
	}
	return uint32(v), nil
}

// ReadBool reads a boolean byte. Any value other than 0 or 1 is malformed.
func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.readByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, d.Malformed("invalid bool")
	}
}

// ReadVariant reads a one-byte union discriminant.
func (d *Decoder) ReadVariant() (uint8, error) {
	return d.readByte()
}

// ReadFloat64 reads eight little-endian bytes as a float64.
func (d *Decoder) ReadFloat64() (float64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// ReadString reads a length-prefixed string.
func (d *Decoder) ReadString() (string, error) {
	b, err := d.readLengthPrefixed()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadBytes reads a length-prefixed byte slice. The result is a copy.
func (d *Decoder) ReadBytes() ([]byte, error) {
	b, err := d.readLengthPrefixed()
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// ReadAtom reads a string written with Encoder.WriteAtom.
func (d *Decoder) ReadAtom() (string, error) {
	ref, err := d.ReadUvarint()
	if err != nil {
		return "", err
	}
	if ref == 0 {
		s, err := d.ReadString()
		if err != nil {
			return "", err
		}
		d.atoms = append(d.atoms, s)
		return s, nil
	}
	if ref > uint64(len(d.atoms)) {
		return "", zerr.With(d.Malformed("atom reference out of range"), "atom", ref)
	}
	return d.atoms[ref-1], nil
}

func (d *Decoder) readLengthPrefixed() ([]byte, error) {
	n, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(d.Remaining()) {
		return nil, zerr.With(d.Malformed("length exceeds input"), "length", n)
	}
	return d.take(int(n))
}

func (d *Decoder) readByte() (byte, error) {
	if d.off >= len(d.data) {
		return 0, d.Malformed("unexpected end of input")
	}
	b := d.data[d.off]
	d.off++
	return b, nil
}

func (d *Decoder) take(n int) ([]byte, error) {
	if n > d.Remaining() {
		return nil, d.Malformed("unexpected end of input")
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b, nil
}
