package cacheable

import (
	"encoding/binary"
	"math"
)

// Encoder appends the positional representation of a value to a byte buffer.
// Fields carry no tags or names, so readers must consume them in exactly the order
// they were written.
type Encoder struct {
	buf   []byte
	ctx   any
	atoms map[string]uint64
}

func newEncoder(ctx any) *Encoder {
	return &Encoder{
		buf: make([]byte, 0, 256),
		ctx: ctx,
	}
}

// Context returns the run-scoped context the value is encoded with.
func (e *Encoder) Context() any {
	return e.ctx
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// WriteUvarint writes an unsigned integer in varint form.
func (e *Encoder) WriteUvarint(v uint64) {
	e.buf = binary.AppendUvarint(e.buf, v)
}

// WriteVarint writes a signed integer in zig-zag varint form.
func (e *Encoder) WriteVarint(v int64) {
	e.buf = binary.AppendVarint(e.buf, v)
}

// WriteUint32 writes v as a varint.
func (e *Encoder) WriteUint32(v uint32) {
	e.WriteUvarint(uint64(v))
}

// WriteBool writes a single byte, 1 for true.
func (e *Encoder) WriteBool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
		return
	}
	e.buf = append(e.buf, 0)
}

// WriteVariant writes the discriminant of a small closed union in one byte.
func (e *Encoder) WriteVariant(tag uint8) {
	e.buf = append(e.buf, tag)
}

// WriteFloat64 writes the IEEE-754 bits of v.
func (e *Encoder) WriteFloat64(v float64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(v))
}

// WriteString writes a length-prefixed string.
func (e *Encoder) WriteString(s string) {
	e.WriteUvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// WriteBytes writes a length-prefixed byte slice.
func (e *Encoder) WriteBytes(b []byte) {
	e.WriteUvarint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

// WriteAtom writes an interned string. The first occurrence of a string inside one
// message is written inline, every later occurrence as a back-reference into the
// message's atom table.
func (e *Encoder) WriteAtom(s string) {
	if idx, ok := e.atoms[s]; ok {
		e.WriteUvarint(idx + 1)
		return
	}
	if e.atoms == nil {
		e.atoms = make(map[string]uint64)
	}
	e.atoms[s] = uint64(len(e.atoms))
	e.WriteUvarint(0)
	e.WriteString(s)
}
