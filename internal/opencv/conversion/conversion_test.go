package conversion

import (
	"image"
	"image/color"
	"testing"

	"brats-viewer/internal/opencv/safe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestGrayRoundTripThroughImage(t *testing.T) {
	src, err := safe.FromBytes(2, 2, gocv.MatTypeCV8UC1, []byte{0, 64, 128, 255})
	require.NoError(t, err)
	defer src.Close()

	img, err := MatToImage(src)
	require.NoError(t, err)
	gray, ok := img.(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, color.Gray{Y: 128}, gray.GrayAt(0, 1))

	back, err := ImageToMat(img)
	require.NoError(t, err)
	defer back.Close()
	assert.Equal(t, src.Bytes(), back.Bytes())
}

func TestBGRBecomesRGBA(t *testing.T) {
	src, err := safe.FromBytes(1, 1, gocv.MatTypeCV8UC3, []byte{10, 20, 30})
	require.NoError(t, err)
	defer src.Close()

	img, err := MatToImage(src)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 30, G: 20, B: 10, A: 255}, img.(*image.RGBA).RGBAAt(0, 0))

	back, err := ImageToMat(img)
	require.NoError(t, err)
	defer back.Close()
	assert.Equal(t, []byte{10, 20, 30}, back.Bytes())
}

func TestChannelConversions(t *testing.T) {
	gray, err := safe.FromBytes(1, 2, gocv.MatTypeCV8UC1, []byte{7, 200})
	require.NoError(t, err)
	defer gray.Close()

	bgr, err := ConvertToBGR(gray)
	require.NoError(t, err)
	defer bgr.Close()
	assert.Equal(t, 3, bgr.Channels())
	assert.Equal(t, []byte{7, 7, 7, 200, 200, 200}, bgr.Bytes())

	again, err := MatchChannels(bgr, 1)
	require.NoError(t, err)
	defer again.Close()
	assert.Equal(t, []byte{7, 200}, again.Bytes())

	_, err = ConvertToGrayscale(nil)
	assert.Error(t, err)
	_, err = MatchChannels(gray, 2)
	assert.Error(t, err)
}

func TestResizeMat(t *testing.T) {
	src, err := safe.NewZeros(4, 6, gocv.MatTypeCV8UC3)
	require.NoError(t, err)
	defer src.Close()

	dst, err := ResizeMat(src, 3, 2, gocv.InterpolationLinear)
	require.NoError(t, err)
	defer dst.Close()
	assert.Equal(t, 3, dst.Cols())
	assert.Equal(t, 2, dst.Rows())
	assert.Equal(t, 3, dst.Channels())

	_, err = ResizeMat(src, 0, 2, gocv.InterpolationLinear)
	assert.Error(t, err)
}

func TestFitWithin(t *testing.T) {
	w, h := FitWithin(1200, 400, 600, 400)
	assert.Equal(t, 600, w)
	assert.Equal(t, 200, h)

	w, h = FitWithin(300, 600, 600, 400)
	assert.Equal(t, 200, w)
	assert.Equal(t, 400, h)

	w, h = FitWithin(0, 10, 600, 400)
	assert.Zero(t, w+h)
}

func TestThumbnail(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 1200, 800))
	thumb, err := Thumbnail(src, 600, 400)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 600, 400), thumb.Bounds())

	_, err = Thumbnail(nil, 600, 400)
	assert.Error(t, err)
}

func TestConvertBGRToHSV(t *testing.T) {
	gray, err := safe.FromBytes(1, 1, gocv.MatTypeCV8UC1, []byte{100})
	require.NoError(t, err)
	defer gray.Close()

	hsv, err := ConvertBGRToHSV(gray)
	require.NoError(t, err)
	defer hsv.Close()
	// A gray pixel has zero hue and saturation, value equal to its intensity.
	assert.Equal(t, []byte{0, 0, 100}, hsv.Bytes())
}
