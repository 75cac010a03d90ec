package cacheable_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/stow/internal/cacheable"
)

type settings struct {
	root string
}

type runContext struct {
	settings *settings
}

// fromContext replaces a shared *settings with nothing and restores it from the run
// context.
type fromContext struct{}

type unit struct{}

func (unit) MarshalCache(*cacheable.Encoder) error    { return nil }
func (*unit) UnmarshalCache(*cacheable.Decoder) error { return nil }

func (fromContext) Surrogate(*settings, any) (unit, error) { return unit{}, nil }

func (fromContext) Rehydrate(_ unit, ctx any) (*settings, error) {
	rc, ok := ctx.(*runContext)
	if !ok || rc.settings == nil {
		return nil, cacheable.ErrMissingContext
	}
	return rc.settings, nil
}

type record struct {
	Name     string
	Tags     []string
	Count    uint32
	Offset   int64
	Enabled  bool
	Payload  []byte
	Settings *settings
	scratch  string
}

func (r *record) MarshalCache(e *cacheable.Encoder) error {
	e.WriteAtom(r.Name)
	if err := cacheable.EncodeSlice(e, r.Tags, func(e *cacheable.Encoder, s string) error {
		e.WriteAtom(s)
		return nil
	}); err != nil {
		return err
	}
	e.WriteUint32(r.Count)
	e.WriteVarint(r.Offset)
	e.WriteBool(r.Enabled)
	e.WriteBytes(r.Payload)
	return cacheable.EncodeWith(e, cacheable.Converter[*settings, unit](fromContext{}), r.Settings)
}

func (r *record) UnmarshalCache(d *cacheable.Decoder) error {
	var err error
	if r.Name, err = d.ReadAtom(); err != nil {
		return err
	}
	if r.Tags, err = cacheable.DecodeSlice(d, func(d *cacheable.Decoder) (string, error) {
		return d.ReadAtom()
	}); err != nil {
		return err
	}
	if r.Count, err = d.ReadUint32(); err != nil {
		return err
	}
	if r.Offset, err = d.ReadVarint(); err != nil {
		return err
	}
	if r.Enabled, err = d.ReadBool(); err != nil {
		return err
	}
	if r.Payload, err = d.ReadBytes(); err != nil {
		return err
	}
	r.Settings, err = cacheable.DecodeWith[*settings, unit](d, fromContext{})
	return err
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	shared := &settings{root: "/project"}
	ctx := &runContext{settings: shared}

	in := &record{
		Name:     "./src/index.js",
		Tags:     []string{"a", "./src/index.js", "a"},
		Count:    42,
		Offset:   -7,
		Enabled:  true,
		Payload:  []byte{0, 1, 2},
		Settings: shared,
		scratch:  "transient",
	}

	data, err := cacheable.Encode(in, ctx)
	require.NoError(t, err)

	out := &record{}
	require.NoError(t, cacheable.Decode(data, out, ctx))

	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.Tags, out.Tags)
	assert.Equal(t, in.Count, out.Count)
	assert.Equal(t, in.Offset, out.Offset)
	assert.True(t, out.Enabled)
	assert.Equal(t, in.Payload, out.Payload)
	assert.Same(t, shared, out.Settings, "converter field must resolve to the context value")
	assert.Empty(t, out.scratch)
}

func TestEncode_AtomsAreShared(t *testing.T) {
	repeated := &record{Name: "x", Tags: []string{"a-long-repeated-tag", "a-long-repeated-tag"}}
	single := &record{Name: "x", Tags: []string{"a-long-repeated-tag", "b"}}

	a, err := cacheable.Encode(repeated, nil)
	require.NoError(t, err)
	b, err := cacheable.Encode(single, nil)
	require.NoError(t, err)

	assert.Less(t, len(a), len(b))
}

func TestDecode_MissingContext(t *testing.T) {
	data, err := cacheable.Encode(&record{Name: "m"}, nil)
	require.NoError(t, err)

	err = cacheable.Decode(data, &record{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, cacheable.ErrMissingContext)
	assert.NotErrorIs(t, err, cacheable.ErrMalformed)

	err = cacheable.Decode(data, &record{}, &runContext{})
	assert.ErrorIs(t, err, cacheable.ErrMissingContext)
}

func TestDecode_Malformed(t *testing.T) {
	ctx := &runContext{settings: &settings{}}
	data, err := cacheable.Encode(&record{Name: "module", Tags: []string{"t"}, Payload: []byte("xyz")}, ctx)
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "bad magic", data: append([]byte("nope"), data[4:]...)},
		{name: "truncated", data: data[:len(data)-2]},
		{name: "trailing", data: append(append([]byte{}, data...), 0xff)},
		{name: "header only", data: data[:5]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cacheable.Decode(tt.data, &record{}, ctx)
			require.Error(t, err)
			assert.ErrorIs(t, err, cacheable.ErrMalformed)
		})
	}
}

func TestDecode_IncompatibleVersion(t *testing.T) {
	data, err := cacheable.Encode(&record{Name: "m"}, nil)
	require.NoError(t, err)

	data[len(cacheable.Magic)] = cacheable.FormatVersion + 1

	err = cacheable.Decode(data, &record{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, cacheable.ErrIncompatible)
	assert.ErrorIs(t, err, cacheable.ErrMalformed)
}

type failing struct{}

func (failing) MarshalCache(*cacheable.Encoder) error { return errors.New("boom") }

func TestEncode_FailureIsEncodeError(t *testing.T) {
	_, err := cacheable.Encode(failing{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, cacheable.ErrEncode)
	assert.Contains(t, err.Error(), "encode")
}

func TestDecoder_InvalidBool(t *testing.T) {
	data := append([]byte(cacheable.Magic), cacheable.FormatVersion, 2)
	err := cacheable.Decode(data, boolHolder{}, nil)
	assert.ErrorIs(t, err, cacheable.ErrMalformed)
}

type boolHolder struct{}

func (boolHolder) UnmarshalCache(d *cacheable.Decoder) error {
	_, err := d.ReadBool()
	return err
}

func TestCollections_SortedSetAndMap(t *testing.T) {
	set := map[string]struct{}{"b": {}, "a": {}, "c": {}}
	m := map[uint32]string{3: "three", 1: "one"}

	first := &collectionHolder{set: set, m: m}
	second := &collectionHolder{set: map[string]struct{}{"c": {}, "a": {}, "b": {}}, m: map[uint32]string{1: "one", 3: "three"}}

	a, err := cacheable.Encode(first, nil)
	require.NoError(t, err)
	b, err := cacheable.Encode(second, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b, "equal collections must encode identically")

	out := &collectionHolder{}
	require.NoError(t, cacheable.Decode(a, out, nil))
	assert.Equal(t, set, out.set)
	assert.Equal(t, m, out.m)
}

type collectionHolder struct {
	set map[string]struct{}
	m   map[uint32]string
}

func (c *collectionHolder) MarshalCache(e *cacheable.Encoder) error {
	if err := cacheable.EncodeSortedSet(e, c.set, cacheable.StringWriter); err != nil {
		return err
	}
	return cacheable.EncodeSortedMap(e, c.m, cacheable.Uint32Writer, cacheable.StringWriter)
}

func (c *collectionHolder) UnmarshalCache(d *cacheable.Decoder) error {
	var err error
	if c.set, err = cacheable.DecodeSet(d, cacheable.StringReader); err != nil {
		return err
	}
	c.m, err = cacheable.DecodeMap(d, cacheable.Uint32Reader, cacheable.StringReader)
	return err
}
