package normalize

import (
	"testing"

	"brats-viewer/internal/volume"
	"brats-viewer/internal/volume/volumetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeConstantSliceIsZero(t *testing.T) {
	for _, value := range []float32{0, 1, -42.5, 1e6} {
		raw := volumetest.Constant(7, 5, 1, value).Plane(0)

		img := Normalize(raw)
		require.NotNil(t, img)
		defer img.Close()

		assert.Equal(t, 7, img.Cols())
		assert.Equal(t, 5, img.Rows())
		assert.Equal(t, 1, img.Channels())
		assert.Equal(t, make([]byte, 35), img.Bytes(), "value %v", value)
	}
}

func TestNormalizeSpansFullRange(t *testing.T) {
	vol := volumetest.Gradient(9, 4, 6)
	for z := 0; z < vol.Depth; z++ {
		img := Normalize(vol.Plane(z))
		require.NotNil(t, img)

		minV, maxV := byte(255), byte(0)
		for _, b := range img.Bytes() {
			minV = min(minV, b)
			maxV = max(maxV, b)
		}
		assert.EqualValues(t, 0, minV, "slice %d", z)
		assert.EqualValues(t, 255, maxV, "slice %d", z)
		img.Close()
	}
}

func TestNormalizeRoundsAffineMap(t *testing.T) {
	raw := volume.RawSlice{Width: 4, Height: 1, Data: []float32{-1, 0, 1, 3}}

	img := Normalize(raw)
	require.NotNil(t, img)
	defer img.Close()

	// (v+1)*255/4 = 0, 63.75, 127.5, 255
	assert.Equal(t, []byte{0, 64, 128, 255}, img.Bytes())
}

func TestNormalizeIsPerSlice(t *testing.T) {
	low := volume.RawSlice{Width: 2, Height: 1, Data: []float32{0, 10}}
	high := volume.RawSlice{Width: 2, Height: 1, Data: []float32{1000, 5000}}

	a := Normalize(low)
	b := Normalize(high)
	defer a.Close()
	defer b.Close()

	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestNormalizeEmptySlice(t *testing.T) {
	assert.Nil(t, Normalize(volume.RawSlice{}))
	assert.Nil(t, Normalize(volume.RawSlice{Width: 3, Height: 3}))
}
