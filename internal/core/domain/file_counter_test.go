package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/stow/internal/cacheable"
	"go.trai.ch/stow/internal/core/domain"
)

func TestFileCounter_Incremental(t *testing.T) {
	c := domain.NewFileCounter()

	c.Add("/a", "/b", "/a")
	assert.Equal(t, []string{"/a", "/b"}, c.Paths())
	assert.Equal(t, []string{"/a", "/b"}, c.Added())

	c.ResetIncremental()
	c.Remove("/a")
	assert.True(t, c.Contains("/a"), "one reference is left")
	assert.Empty(t, c.Removed())

	c.Remove("/a", "/unknown")
	assert.False(t, c.Contains("/a"))
	assert.Equal(t, []string{"/a"}, c.Removed())

	c.Add("/a")
	assert.Empty(t, c.Removed())
	assert.Equal(t, []string{"/a"}, c.Added())
}

func TestFileCounter_RoundTrip(t *testing.T) {
	c := domain.NewFileCounter()
	c.Add("/b", "/a", "/b")

	data, err := cacheable.Encode(c, nil)
	require.NoError(t, err)

	out := domain.NewFileCounter()
	require.NoError(t, cacheable.Decode(data, out, nil))
	assert.Equal(t, []string{"/a", "/b"}, out.Paths())
	assert.Empty(t, out.Added())

	out.Remove("/b")
	assert.True(t, out.Contains("/b"), "reference counts survive a round trip")
}
