package filters

import (
	"image"

	"brats-viewer/internal/opencv/conversion"
	"brats-viewer/internal/opencv/safe"

	"gocv.io/x/gocv"
)

var embossKernel = [9]float32{
	-2, -1, 0,
	-1, 1, 1,
	0, 1, 2,
}

// Canny blurs the gray image before edge detection.
func (b *Bank) Canny(img *safe.Mat, p CannyParams) *safe.Mat {
	if img.Empty() {
		return nil
	}

	gray, err := conversion.ConvertToGrayscale(img)
	if err != nil {
		return nil
	}
	defer gray.Close()

	k := OddKernel(p.Kernel, 1)
	return apply(gray, func(src gocv.Mat, dst *gocv.Mat) {
		blurred := gocv.NewMat()
		defer blurred.Close()

		gocv.GaussianBlur(src, &blurred, image.Point{X: k, Y: k}, p.Sigma, p.Sigma, gocv.BorderDefault)
		gocv.Canny(blurred, dst, float32(p.Low), float32(p.High))
	})
}

// Brightness adds Delta to every channel with saturation.
func (b *Bank) Brightness(img *safe.Mat, p BrightnessParams) *safe.Mat {
	return apply(img, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.AddWeighted(src, 1, src, 0, p.Delta, dst)
	})
}

// EqualizeHistogram equalizes gray images directly and colour images per channel.
func (b *Bank) EqualizeHistogram(img *safe.Mat) *safe.Mat {
	if img.Channels() == 4 {
		bgr, err := conversion.ConvertToBGR(img)
		if err != nil {
			return nil
		}
		defer bgr.Close()
		img = bgr
	}

	return perChannel(img, func(ch gocv.Mat, dst *gocv.Mat) {
		gocv.EqualizeHist(ch, dst)
	})
}

func (b *Bank) Emboss(img *safe.Mat) *safe.Mat {
	if img.Empty() {
		return nil
	}

	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	defer kernel.Close()
	for i, v := range embossKernel {
		kernel.SetFloatAt(i/3, i%3, v)
	}

	return apply(img, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.Filter2D(src, dst, -1, kernel, image.Point{X: -1, Y: -1}, 0, gocv.BorderDefault)
	})
}
