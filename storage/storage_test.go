package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/arrayhandle/errors"
	"github.com/wippyai/arrayhandle/portal"
)

func TestNew_ZeroValues(t *testing.T) {
	s := New[float32](4)
	assert.Equal(t, 4, s.NumberOfValues())
	assert.Equal(t, 4, s.Capacity())
	assert.Equal(t, []float32{0, 0, 0, 0}, s.Slice())

	neg := New[float32](-1)
	assert.Equal(t, 0, neg.NumberOfValues())
}

func TestFromValues_Copies(t *testing.T) {
	src := []int64{1, 2, 3}
	s := FromValues(src)
	src[0] = 100
	assert.Equal(t, []int64{1, 2, 3}, s.Slice())
	assert.False(t, s.IsUserMemory())
}

func TestFromUser_Adopts(t *testing.T) {
	src := []int64{1, 2, 3}
	s := FromUser(src)
	assert.True(t, s.IsUserMemory())

	p, err := s.Portal()
	require.NoError(t, err)
	p.Set(0, 9)
	assert.Equal(t, int64(9), src[0])

	require.NoError(t, s.Allocate(2))
	assert.False(t, s.IsUserMemory())
	p2, _ := s.Portal()
	p2.Set(0, 5)
	assert.Equal(t, int64(9), src[0], "reallocated storage must not write into user memory")
}

func TestAllocate_ReplacesBuffer(t *testing.T) {
	s := FromValues([]int32{1, 2, 3})
	old := s.PortalConst()

	require.NoError(t, s.Allocate(5))
	assert.Equal(t, 5, s.NumberOfValues())
	assert.Equal(t, []int32{0, 0, 0, 0, 0}, s.Slice())
	assert.Equal(t, int32(1), old.Get(0), "old portal views the old buffer")

	err := s.Allocate(-1)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValue))
}

func TestShrink(t *testing.T) {
	s := FromValues([]float64{1, 2, 3, 4})

	require.NoError(t, s.Shrink(2))
	assert.Equal(t, 2, s.NumberOfValues())
	assert.Equal(t, 4, s.Capacity())
	assert.Equal(t, []float64{1, 2}, portal.Values(s.PortalConst()))

	err := s.Shrink(3)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValue))
	assert.Equal(t, 2, s.NumberOfValues(), "failed shrink leaves the size unchanged")

	require.Error(t, s.Shrink(-1))
	require.NoError(t, s.Shrink(0))
	assert.Equal(t, 0, s.NumberOfValues())
}

func TestReleaseResources_Idempotent(t *testing.T) {
	s := FromValues([]float64{1, 2})
	s.ReleaseResources()
	s.ReleaseResources()
	assert.Equal(t, 0, s.NumberOfValues())
	assert.Equal(t, 0, s.Capacity())
}

func TestReadOnly_RejectsWrites(t *testing.T) {
	s := NewReadOnly[int64](portal.NewCounting[int64](0, 2, 5))
	assert.Equal(t, 5, s.NumberOfValues())
	assert.Equal(t, []int64{0, 2, 4, 6, 8}, portal.Values(s.PortalConst()))

	for name, err := range map[string]error{
		"allocate": s.Allocate(3),
		"shrink":   s.Shrink(1),
	} {
		require.Error(t, err, name)
		assert.True(t, errors.IsKind(err, errors.KindUnsupported), name)
	}
	_, err := s.Portal()
	assert.True(t, errors.IsKind(err, errors.KindUnsupported))

	s.ReleaseResources()
	assert.Equal(t, 5, s.NumberOfValues(), "source is not owned")

	empty := NewReadOnly[int64](nil)
	assert.Zero(t, empty.NumberOfValues())
	assert.Zero(t, empty.PortalConst().NumberOfValues())
}
