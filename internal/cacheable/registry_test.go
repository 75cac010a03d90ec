package cacheable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/stow/internal/cacheable"
)

type shape interface {
	cacheable.Kinded
	Area() uint32
}

type square struct{ Side uint32 }

func (*square) Kind() string   { return "square" }
func (s *square) Area() uint32 { return s.Side * s.Side }
func (s *square) MarshalCache(e *cacheable.Encoder) error {
	e.WriteUint32(s.Side)
	return nil
}

func (s *square) UnmarshalCache(d *cacheable.Decoder) error {
	var err error
	s.Side, err = d.ReadUint32()
	return err
}

type rect struct{ W, H uint32 }

func (*rect) Kind() string   { return "rect" }
func (r *rect) Area() uint32 { return r.W * r.H }
func (r *rect) MarshalCache(e *cacheable.Encoder) error {
	e.WriteUint32(r.W)
	e.WriteUint32(r.H)
	return nil
}

func (r *rect) UnmarshalCache(d *cacheable.Decoder) error {
	var err error
	if r.W, err = d.ReadUint32(); err != nil {
		return err
	}
	r.H, err = d.ReadUint32()
	return err
}

type shapes struct {
	reg   *cacheable.Registry[shape]
	items []shape
}

func (s *shapes) MarshalCache(e *cacheable.Encoder) error {
	return cacheable.EncodeSlice(e, s.items, s.reg.EncodeDyn)
}

func (s *shapes) UnmarshalCache(d *cacheable.Decoder) error {
	var err error
	s.items, err = cacheable.DecodeSlice(d, s.reg.DecodeDyn)
	return err
}

func TestRegistry_RoundTrip(t *testing.T) {
	reg := cacheable.NewRegistry[shape]("shape")
	reg.Register("square", func() shape { return &square{} })
	reg.Register("rect", func() shape { return &rect{} })

	data, err := cacheable.Encode(&shapes{reg: reg, items: []shape{&square{Side: 3}, &rect{W: 2, H: 5}}}, nil)
	require.NoError(t, err)

	out := &shapes{reg: reg}
	require.NoError(t, cacheable.Decode(data, out, nil))
	require.Len(t, out.items, 2)
	assert.Equal(t, uint32(9), out.items[0].Area())
	assert.Equal(t, uint32(10), out.items[1].Area())
	assert.Equal(t, []string{"rect", "square"}, reg.Kinds())
}

func TestRegistry_UnregisteredKindFailsEncode(t *testing.T) {
	reg := cacheable.NewRegistry[shape]("shape")
	reg.Register("square", func() shape { return &square{} })

	_, err := cacheable.Encode(&shapes{reg: reg, items: []shape{&rect{W: 1, H: 1}}}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, cacheable.ErrEncode)
}

func TestRegistry_UnknownKindIsMalformed(t *testing.T) {
	writer := cacheable.NewRegistry[shape]("shape")
	writer.Register("rect", func() shape { return &rect{} })
	data, err := cacheable.Encode(&shapes{reg: writer, items: []shape{&rect{W: 1, H: 2}}}, nil)
	require.NoError(t, err)

	reader := cacheable.NewRegistry[shape]("shape")
	reader.Register("square", func() shape { return &square{} })
	err = cacheable.Decode(data, &shapes{reg: reader}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, cacheable.ErrMalformed)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	reg := cacheable.NewRegistry[shape]("shape")
	reg.Register("square", func() shape { return &square{} })

	assert.Panics(t, func() {
		reg.Register("square", func() shape { return &square{} })
	})
}
