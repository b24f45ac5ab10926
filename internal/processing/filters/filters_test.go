package filters

import (
	"testing"

	"brats-viewer/internal/opencv/safe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func matOf(t *testing.T, rows, cols int, mt gocv.MatType, data []byte) *safe.Mat {
	t.Helper()
	m, err := safe.FromBytes(rows, cols, mt, data)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func ramp(t *testing.T, rows, cols, channels int) *safe.Mat {
	t.Helper()
	data := make([]byte, rows*cols*channels)
	for i := range data {
		data[i] = byte((i * 37) % 251)
	}
	mt := gocv.MatTypeCV8UC1
	if channels == 3 {
		mt = gocv.MatTypeCV8UC3
	}
	return matOf(t, rows, cols, mt, data)
}

func bankWithMask(mask *safe.Mat) *Bank {
	return NewBank(MaskFunc(func() *safe.Mat { return mask }))
}

func TestOddKernel(t *testing.T) {
	tests := []struct {
		size, minimum, want int
	}{
		{5, 1, 5},
		{4, 1, 5},
		{0, 1, 1},
		{-3, 1, 1},
		{2, 3, 3},
		{1, 3, 3},
		{8, 3, 9},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OddKernel(tt.size, tt.minimum), "OddKernel(%d, %d)", tt.size, tt.minimum)
	}
}

func TestEmptyInputGivesEmptyOutput(t *testing.T) {
	b := NewBank(nil)

	ops := map[string]func() *safe.Mat{
		"Threshold":         func() *safe.Mat { return b.Threshold(nil, DefaultThreshold()) },
		"ContrastStretch":   func() *safe.Mat { return b.ContrastStretch(nil) },
		"UmbralBinary":      func() *safe.Mat { return b.UmbralBinary() },
		"BitwiseAND":        func() *safe.Mat { return b.BitwiseAND(nil) },
		"BitwiseOR":         func() *safe.Mat { return b.BitwiseOR(nil) },
		"BitwiseXOR":        func() *safe.Mat { return b.BitwiseXOR(nil) },
		"BitwiseNOT":        func() *safe.Mat { return b.BitwiseNOT(nil) },
		"Canny":             func() *safe.Mat { return b.Canny(nil, DefaultCanny()) },
		"Brightness":        func() *safe.Mat { return b.Brightness(nil, DefaultBrightness()) },
		"Mean":              func() *safe.Mat { return b.Mean(nil, DefaultMean()) },
		"Gaussian":          func() *safe.Mat { return b.Gaussian(nil, DefaultGaussian()) },
		"Median":            func() *safe.Mat { return b.Median(nil, DefaultMedian()) },
		"Bilateral":         func() *safe.Mat { return b.Bilateral(nil, DefaultBilateral()) },
		"Erode":             func() *safe.Mat { return b.Erode(nil, DefaultMorphology()) },
		"Dilate":            func() *safe.Mat { return b.Dilate(nil, DefaultMorphology()) },
		"Open":              func() *safe.Mat { return b.Open(nil, DefaultMorphology()) },
		"Close":             func() *safe.Mat { return b.Close(nil, DefaultMorphology()) },
		"EqualizeHistogram": func() *safe.Mat { return b.EqualizeHistogram(nil) },
		"Emboss":            func() *safe.Mat { return b.Emboss(nil) },
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Nil(t, op())
			})
		})
	}
}

func TestThresholdIsBinary(t *testing.T) {
	b := NewBank(nil)

	for _, channels := range []int{1, 3} {
		out := b.Threshold(ramp(t, 8, 9, channels), DefaultThreshold())
		require.NotNil(t, out)

		assert.Equal(t, 1, out.Channels())
		for _, v := range out.Bytes() {
			assert.True(t, v == 0 || v == 255, "value %d", v)
		}
		out.Close()
	}

	out := b.Threshold(matOf(t, 1, 3, gocv.MatTypeCV8UC1, []byte{55, 56, 10}), ThresholdParams{Value: 55})
	require.NotNil(t, out)
	defer out.Close()
	assert.Equal(t, []byte{0, 255, 0}, out.Bytes())
}

func TestContrastStretch(t *testing.T) {
	b := NewBank(nil)

	out := b.ContrastStretch(matOf(t, 1, 3, gocv.MatTypeCV8UC1, []byte{50, 100, 150}))
	require.NotNil(t, out)
	defer out.Close()
	px := out.Bytes()
	assert.EqualValues(t, 0, px[0])
	assert.EqualValues(t, 255, px[2])

	again := b.ContrastStretch(out)
	require.NotNil(t, again)
	defer again.Close()
	assert.Equal(t, px, again.Bytes())
}

func TestContrastStretchLeavesConstantChannel(t *testing.T) {
	b := NewBank(nil)

	// blue constant at 7, green 10..20, red 0..255
	src := matOf(t, 1, 2, gocv.MatTypeCV8UC3, []byte{7, 10, 0, 7, 20, 255})
	out := b.ContrastStretch(src)
	require.NotNil(t, out)
	defer out.Close()

	assert.Equal(t, []byte{7, 0, 0, 7, 255, 255}, out.Bytes())
}

func TestUmbralBinaryReadsMask(t *testing.T) {
	mask := matOf(t, 1, 4, gocv.MatTypeCV8UC1, []byte{0, 60, 65, 100})
	b := bankWithMask(mask)

	out := b.UmbralBinary()
	require.NotNil(t, out)
	defer out.Close()

	assert.Equal(t, 1, out.Channels())
	assert.Equal(t, []byte{0, 255, 255, 0}, out.Bytes())
}

func TestBitwiseWithMask(t *testing.T) {
	img := matOf(t, 1, 3, gocv.MatTypeCV8UC1, []byte{0xF0, 0x0F, 0xFF})
	mask := matOf(t, 1, 3, gocv.MatTypeCV8UC1, []byte{0xFF, 0x00, 0x3C})
	b := bankWithMask(mask)

	and := b.BitwiseAND(img)
	or := b.BitwiseOR(img)
	xor := b.BitwiseXOR(img)
	not := b.BitwiseNOT(img)
	for _, m := range []*safe.Mat{and, or, xor, not} {
		require.NotNil(t, m)
		defer m.Close()
	}

	assert.Equal(t, []byte{0xF0, 0x00, 0x3C}, and.Bytes())
	assert.Equal(t, []byte{0xFF, 0x0F, 0xFF}, or.Bytes())
	assert.Equal(t, []byte{0x0F, 0x0F, 0xC3}, xor.Bytes())
	assert.Equal(t, []byte{0x0F, 0xF0, 0x00}, not.Bytes())
}

func TestBitwiseMatchesMaskChannels(t *testing.T) {
	img := matOf(t, 1, 1, gocv.MatTypeCV8UC3, []byte{0xFF, 0xFF, 0xFF})
	mask := matOf(t, 1, 1, gocv.MatTypeCV8UC1, []byte{0x0F})
	b := bankWithMask(mask)

	out := b.BitwiseAND(img)
	require.NotNil(t, out)
	defer out.Close()
	assert.Equal(t, []byte{0x0F, 0x0F, 0x0F}, out.Bytes())
}

func TestBitwiseRequiresMatchingMask(t *testing.T) {
	img := ramp(t, 4, 4, 1)

	assert.Nil(t, NewBank(nil).BitwiseAND(img))
	assert.Nil(t, bankWithMask(ramp(t, 3, 4, 1)).BitwiseXOR(img))

	not := NewBank(nil).BitwiseNOT(img)
	require.NotNil(t, not)
	not.Close()
}

func TestXORWithANDKeepsOutsideIntersection(t *testing.T) {
	img := ramp(t, 6, 7, 1)
	maskBytes := make([]byte, 42)
	for i := range maskBytes {
		if i%3 == 0 {
			maskBytes[i] = 0xAA
		}
	}
	mask := matOf(t, 6, 7, gocv.MatTypeCV8UC1, maskBytes)
	b := bankWithMask(mask)

	and := b.BitwiseAND(img)
	require.NotNil(t, and)
	defer and.Close()

	andBank := bankWithMask(and)
	xor := andBank.BitwiseXOR(img)
	require.NotNil(t, xor)
	defer xor.Close()

	src := img.Bytes()
	got := xor.Bytes()
	for i := range src {
		assert.Equal(t, src[i]&^maskBytes[i], got[i], "pixel %d", i)
	}
}

func TestBrightnessSaturates(t *testing.T) {
	out := NewBank(nil).Brightness(matOf(t, 1, 3, gocv.MatTypeCV8UC1, []byte{0, 100, 230}), DefaultBrightness())
	require.NotNil(t, out)
	defer out.Close()
	assert.Equal(t, []byte{50, 150, 255}, out.Bytes())
}

func TestEvenKernelMatchesNextOdd(t *testing.T) {
	b := NewBank(nil)
	img := ramp(t, 12, 10, 1)

	pairs := map[string][2]*safe.Mat{
		"Mean":     {b.Mean(img, KernelParams{Size: 4}), b.Mean(img, KernelParams{Size: 5})},
		"Gaussian": {b.Gaussian(img, GaussianParams{Size: 4, Sigma: 1}), b.Gaussian(img, GaussianParams{Size: 5, Sigma: 1})},
		"Median":   {b.Median(img, KernelParams{Size: 4}), b.Median(img, KernelParams{Size: 5})},
		"Erode":    {b.Erode(img, KernelParams{Size: 2}), b.Erode(img, KernelParams{Size: 3})},
		"Dilate":   {b.Dilate(img, KernelParams{Size: 2}), b.Dilate(img, KernelParams{Size: 3})},
		"Open":     {b.Open(img, KernelParams{Size: 4}), b.Open(img, KernelParams{Size: 5})},
		"Close":    {b.Close(img, KernelParams{Size: 4}), b.Close(img, KernelParams{Size: 5})},
	}

	for name, pair := range pairs {
		require.NotNil(t, pair[0], name)
		require.NotNil(t, pair[1], name)
		assert.Equal(t, pair[1].Bytes(), pair[0].Bytes(), name)
		pair[0].Close()
		pair[1].Close()
	}
}

func TestMorphologyOnBinaryImage(t *testing.T) {
	data := make([]byte, 7*7)
	data[3*7+3] = 255
	img := matOf(t, 7, 7, gocv.MatTypeCV8UC1, data)
	b := NewBank(nil)

	dilated := b.Dilate(img, KernelParams{Size: 3})
	require.NotNil(t, dilated)
	defer dilated.Close()
	assert.Equal(t, 9, countNonZero(dilated.Bytes()))

	eroded := b.Erode(dilated, KernelParams{Size: 3})
	require.NotNil(t, eroded)
	defer eroded.Close()
	assert.Equal(t, 1, countNonZero(eroded.Bytes()))

	opened := b.Open(img, KernelParams{Size: 3})
	require.NotNil(t, opened)
	defer opened.Close()
	assert.Zero(t, countNonZero(opened.Bytes()))
}

func TestShapePreservingFilters(t *testing.T) {
	b := NewBank(nil)

	for _, channels := range []int{1, 3} {
		img := ramp(t, 16, 12, channels)
		outputs := map[string]*safe.Mat{
			"Mean":              b.Mean(img, DefaultMean()),
			"Gaussian":          b.Gaussian(img, DefaultGaussian()),
			"Median":            b.Median(img, DefaultMedian()),
			"Bilateral":         b.Bilateral(img, DefaultBilateral()),
			"EqualizeHistogram": b.EqualizeHistogram(img),
			"Emboss":            b.Emboss(img),
		}
		for name, out := range outputs {
			require.NotNil(t, out, name)
			assert.Equal(t, 12, out.Cols(), name)
			assert.Equal(t, 16, out.Rows(), name)
			assert.Equal(t, channels, out.Channels(), name)
			out.Close()
		}
	}
}

func TestCannyIsSingleChannelEdges(t *testing.T) {
	data := make([]byte, 20*20*3)
	for y := 0; y < 20; y++ {
		for x := 10; x < 20; x++ {
			i := (y*20 + x) * 3
			data[i], data[i+1], data[i+2] = 255, 255, 255
		}
	}
	img := matOf(t, 20, 20, gocv.MatTypeCV8UC3, data)

	out := NewBank(nil).Canny(img, DefaultCanny())
	require.NotNil(t, out)
	defer out.Close()

	assert.Equal(t, 1, out.Channels())
	assert.Positive(t, countNonZero(out.Bytes()))
	for _, v := range out.Bytes() {
		assert.True(t, v == 0 || v == 255)
	}
}

func TestEmbossFlatImageKeepsValue(t *testing.T) {
	data := make([]byte, 25)
	for i := range data {
		data[i] = 100
	}
	out := NewBank(nil).Emboss(matOf(t, 5, 5, gocv.MatTypeCV8UC1, data))
	require.NotNil(t, out)
	defer out.Close()

	// kernel weights sum to 1
	assert.Equal(t, data, out.Bytes())
}

func countNonZero(data []byte) int {
	n := 0
	for _, v := range data {
		if v != 0 {
			n++
		}
	}
	return n
}
