package conversion

import (
	"fmt"
	"image"

	"brats-viewer/internal/opencv/safe"

	"gocv.io/x/gocv"
	"golang.org/x/image/draw"
)

// ResizeMat resizes Mat to new dimensions using specified interpolation
func ResizeMat(src *safe.Mat, newWidth, newHeight int, interpolation gocv.InterpolationFlags) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "Mat resizing"); err != nil {
		return nil, err
	}

	if err := safe.ValidateDimensions(newWidth, newHeight, "Mat resizing"); err != nil {
		return nil, err
	}

	if src.Cols() == newWidth && src.Rows() == newHeight {
		return src.Clone()
	}

	dst := gocv.NewMat()
	gocv.Resize(src.GetMat(), &dst, image.Point{X: newWidth, Y: newHeight}, 0, 0, interpolation)

	return take(dst, "Mat resizing")
}

// FitWithin returns the largest size with the aspect ratio of (w, h) that fits
// inside (maxW, maxH).
func FitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return 0, 0
	}
	if w*maxH > h*maxW {
		nh := h * maxW / w
		if nh < 1 {
			nh = 1
		}
		return maxW, nh
	}
	nw := w * maxH / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxH
}

// Thumbnail scales img to fit within maxW x maxH, keeping its aspect ratio.
func Thumbnail(img image.Image, maxW, maxH int) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	b := img.Bounds()
	w, h := FitWithin(b.Dx(), b.Dy(), maxW, maxH)
	if w == 0 {
		return nil, fmt.Errorf("cannot scale %dx%d image into %dx%d", b.Dx(), b.Dy(), maxW, maxH)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst, nil
}
