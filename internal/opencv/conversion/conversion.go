package conversion

import (
	"fmt"
	"image"

	"brats-viewer/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// ConvertToGrayscale converts multi-channel images to single-channel grayscale
func ConvertToGrayscale(src *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "grayscale conversion"); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if src.Channels() == 1 {
		return src.Clone()
	}

	dst := gocv.NewMat()
	switch src.Channels() {
	case 3:
		gocv.CvtColor(src.GetMat(), &dst, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(src.GetMat(), &dst, gocv.ColorBGRAToGray)
	default:
		dst.Close()
		return nil, fmt.Errorf("unsupported channel count: %d", src.Channels())
	}

	return take(dst, "grayscale conversion")
}

// ConvertToBGR returns a 3-channel copy of src. Single-channel input is
// replicated into all three channels.
func ConvertToBGR(src *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "BGR conversion"); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if src.Channels() == 3 {
		return src.Clone()
	}

	dst := gocv.NewMat()
	switch src.Channels() {
	case 1:
		gocv.CvtColor(src.GetMat(), &dst, gocv.ColorGrayToBGR)
	case 4:
		gocv.CvtColor(src.GetMat(), &dst, gocv.ColorBGRAToBGR)
	default:
		dst.Close()
		return nil, fmt.Errorf("unsupported channel count: %d", src.Channels())
	}

	return take(dst, "BGR conversion")
}

// MatchChannels converts src to the given channel count (1 or 3).
func MatchChannels(src *safe.Mat, channels int) (*safe.Mat, error) {
	switch channels {
	case 1:
		return ConvertToGrayscale(src)
	case 3:
		return ConvertToBGR(src)
	default:
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}
}

// MatToImage converts GoCV Mat to standard Go image
func MatToImage(src *safe.Mat) (image.Image, error) {
	if err := safe.ValidateMatForOperation(src, "Mat to image conversion"); err != nil {
		return nil, err
	}

	rows := src.Rows()
	cols := src.Cols()
	data := src.Bytes()

	switch src.Channels() {
	case 1:
		img := image.NewGray(image.Rect(0, 0, cols, rows))
		copy(img.Pix, data)
		return img, nil
	case 3:
		img := image.NewRGBA(image.Rect(0, 0, cols, rows))
		for i, j := 0, 0; i+2 < len(data); i, j = i+3, j+4 {
			img.Pix[j] = data[i+2]
			img.Pix[j+1] = data[i+1]
			img.Pix[j+2] = data[i]
			img.Pix[j+3] = 255
		}
		return img, nil
	case 4:
		img := image.NewRGBA(image.Rect(0, 0, cols, rows))
		for i := 0; i+3 < len(data); i += 4 {
			img.Pix[i] = data[i+2]
			img.Pix[i+1] = data[i+1]
			img.Pix[i+2] = data[i]
			img.Pix[i+3] = data[i+3]
		}
		return img, nil
	default:
		return nil, fmt.Errorf("unsupported channel count: %d", src.Channels())
	}
}

// ImageToMat converts standard Go image to GoCV Mat. Gray images stay
// single-channel, everything else becomes BGR.
func ImageToMat(img image.Image) (*safe.Mat, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if err := safe.ValidateDimensions(width, height, "image to Mat conversion"); err != nil {
		return nil, err
	}

	if gray, ok := img.(*image.Gray); ok {
		data := make([]byte, 0, width*height)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			start := gray.PixOffset(bounds.Min.X, y)
			data = append(data, gray.Pix[start:start+width]...)
		}
		return safe.FromBytes(height, width, gocv.MatTypeCV8UC1, data)
	}

	data := make([]byte, 0, width*height*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// Convert from 16-bit to 8-bit
			data = append(data, uint8(b>>8), uint8(g>>8), uint8(r>>8))
		}
	}

	return safe.FromBytes(height, width, gocv.MatTypeCV8UC3, data)
}

func take(dst gocv.Mat, operation string) (*safe.Mat, error) {
	out := safe.Take(dst)
	if out == nil {
		return nil, fmt.Errorf("%s produced an empty Mat", operation)
	}
	return out, nil
}
