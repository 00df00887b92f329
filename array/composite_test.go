package array

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/arrayhandle/device"
	"github.com/wippyai/arrayhandle/errors"
	"github.com/wippyai/arrayhandle/portal"
	"github.com/wippyai/arrayhandle/value"
)

func TestCompositeVector_LengthCheck(t *testing.T) {
	tr := newTracker(t)
	ten := Counting[float64](0, 1, 10, WithTracker(tr))
	eleven := Counting[float64](0, 1, 11, WithTracker(tr))

	_, err := CompositeVector[value.Vector2](Source[float64](ten, 0), Source[float64](eleven, 0))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValue))

	other := FromValues(testValues(10), WithTracker(tr))
	h, err := CompositeVector[value.Vector2](Source[float64](ten, 0), Source[float64](other, 0))
	require.NoError(t, err)
	n, err := h.NumberOfValues()
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, ReadOnly, h.Capability())
}

func TestCompositeVector_Validation(t *testing.T) {
	a := FromValues([]float32{1, 2, 3})
	vecs := FromValues([]value.Vec3[float32]{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})

	tests := []struct {
		name  string
		build func() error
		kind  errors.Kind
	}{
		{"no sources", func() error {
			_, err := CompositeVector[value.Vec2[float32], float32]()
			return err
		}, errors.KindValue},
		{"too many sources", func() error {
			s := Source[float32](a, 0)
			_, err := CompositeVector[value.Vec4[float32]](s, s, s, s, s)
			return err
		}, errors.KindValue},
		{"component count does not match value type", func() error {
			_, err := CompositeVector[value.Vec3[float32]](Source[float32](a, 0), Source[float32](a, 0))
			return err
		}, errors.KindValue},
		{"component index out of range", func() error {
			_, err := CompositeVector[value.Vec2[float32]](Source[float32](vecs, 3), Source[float32](a, 0))
			return err
		}, errors.KindOutOfBounds},
		{"unconstructed source", func() error {
			_, err := CompositeVector[value.Vec2[float32]](Source[float32](&Handle[float32]{}, 0), Source[float32](a, 0))
			return err
		}, errors.KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build()
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, tt.kind), err.Error())
		})
	}
}

func TestCompositeVector_Values(t *testing.T) {
	forEachDevice(t, func(t *testing.T, tr *device.Tracker, tag device.Tag) {
		xs := FromValues([]float64{1, 2, 3, 4}, WithTracker(tr))
		ys := Counting[int32](10, 10, 4, WithTracker(tr))
		vecs := FromValues([]value.Vector3{{0, 0, 5}, {0, 0, 6}, {0, 0, 7}, {0, 0, 8}}, WithTracker(tr))

		h, err := CompositeVector[value.Vector3](
			Source[float64](xs, 0),
			Source[float64](ys, 0),
			Source[float64](vecs, 2),
		)
		require.NoError(t, err)

		want := []value.Vector3{{1, 10, 5}, {2, 20, 6}, {3, 30, 7}, {4, 40, 8}}
		ctl, err := h.GetPortalConstControl()
		require.NoError(t, err)
		assert.Equal(t, want, portal.Values(ctl))

		dev, err := h.PrepareForInput(tag)
		require.NoError(t, err)
		assert.Equal(t, want, portal.Values(dev))

		// Sources are prepared on the same device and copied once.
		_, err = h.PrepareForInput(tag)
		require.NoError(t, err)
		stats, ok := xs.TransferStats(tag)
		require.True(t, ok)
		assert.Equal(t, 1, stats.ToDevice)
		assert.True(t, vecs.Fresh(tag))
	})
}

func TestCompositeVector_SeesSourceChanges(t *testing.T) {
	xs := FromValues([]float64{1, 2})
	ys := FromValues([]float64{3, 4})
	h, err := CompositeVector[value.Vector2](Source[float64](xs, 0), Source[float64](ys, 0))
	require.NoError(t, err)

	p, err := xs.GetPortalControl()
	require.NoError(t, err)
	p.Set(0, 100)

	values, err := h.Values()
	require.NoError(t, err)
	assert.Equal(t, []value.Vector2{{100, 3}, {2, 4}}, values)

	require.NoError(t, ys.Shrink(1))
	_, err = h.NumberOfValues()
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindInternal))
}

func TestReadOnly_RejectsWrites(t *testing.T) {
	xs := FromValues([]float64{1, 2})
	composite, err := CompositeVector[value.Vector2](Source[float64](xs, 0), Source[float64](xs, 0))
	require.NoError(t, err)

	handles := map[string]*Handle[float64]{
		"counting": Counting[float64](0, 1, 4),
		"implicit": Implicit(4, func(i int) float64 { return float64(i * i) }),
	}
	for name, h := range handles {
		t.Run(name, func(t *testing.T) {
			checkReadOnly(t, h)
		})
	}
	t.Run("composite", func(t *testing.T) {
		checkReadOnly(t, composite)
	})
}

func checkReadOnly[T any](t *testing.T, h *Handle[T]) {
	t.Helper()
	assert.Equal(t, ReadOnly, h.Capability())

	_, err := h.PrepareForInPlace(device.Serial)
	assert.True(t, errors.IsKind(err, errors.KindUnsupported))
	_, err = h.PrepareForOutput(device.Serial, 2)
	assert.True(t, errors.IsKind(err, errors.KindUnsupported))
	_, err = h.GetPortalControl()
	assert.True(t, errors.IsKind(err, errors.KindUnsupported))
	assert.True(t, errors.IsKind(h.Shrink(1), errors.KindUnsupported))

	_, err = h.PrepareForInput(device.Serial)
	assert.NoError(t, err)
	assert.NoError(t, h.ReleaseResources())
}

func TestComputedArrays(t *testing.T) {
	forEachDevice(t, func(t *testing.T, tr *device.Tracker, tag device.Tag) {
		c := Counting[int64](5, 3, 4, WithTracker(tr))
		p, err := c.PrepareForInput(tag)
		require.NoError(t, err)
		assert.Equal(t, []int64{5, 8, 11, 14}, portal.Values(p))

		stats, _ := c.TransferStats(tag)
		assert.Zero(t, stats.ToDevice, "computed values are never copied")

		sq := Implicit(5, func(i int) float64 { return float64(i * i) }, WithTracker(tr))
		n, err := sq.NumberOfValues()
		require.NoError(t, err)
		assert.Equal(t, 5, n)
		values, err := sq.Values()
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 1, 4, 9, 16}, values)
	})
}

func TestCompositeVector_ReleaseKeepsSources(t *testing.T) {
	tr := newTracker(t)
	xs := FromValues([]float64{1, 2}, WithTracker(tr))
	h, err := CompositeVector[value.Vec2[float64]](Source[float64](xs, 0), Source[float64](xs, 0))
	require.NoError(t, err)

	for _, tag := range []device.Tag{device.Serial, device.Wasm} {
		_, err = h.PrepareForInput(tag)
		require.NoError(t, err)
	}
	require.NoError(t, h.ReleaseResources())

	for _, tag := range []device.Tag{device.Serial, device.Wasm} {
		assert.True(t, xs.Fresh(tag), "source buffer on %s survives", tag)
		_, err = xs.PrepareForInput(tag)
		require.NoError(t, err)
		stats, ok := xs.TransferStats(tag)
		require.True(t, ok)
		assert.Equal(t, 1, stats.ToDevice, "source on %s is not copied again", tag)
	}

	// The composite itself can be prepared again after release.
	p, err := h.PrepareForInput(device.Serial)
	require.NoError(t, err)
	assert.Equal(t, []value.Vec2[float64]{{1, 1}, {2, 2}}, portal.Values(p))
}
