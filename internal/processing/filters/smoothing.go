package filters

import (
	"image"

	"brats-viewer/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// Mean is a k x k box blur.
func (b *Bank) Mean(img *safe.Mat, p KernelParams) *safe.Mat {
	k := OddKernel(p.Size, 1)
	return apply(img, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.Blur(src, dst, image.Point{X: k, Y: k})
	})
}

func (b *Bank) Gaussian(img *safe.Mat, p GaussianParams) *safe.Mat {
	k := OddKernel(p.Size, 1)
	return apply(img, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.GaussianBlur(src, dst, image.Point{X: k, Y: k}, p.Sigma, p.Sigma, gocv.BorderDefault)
	})
}

// Median uses a kernel of at least 3.
func (b *Bank) Median(img *safe.Mat, p KernelParams) *safe.Mat {
	k := OddKernel(p.Size, 3)
	return apply(img, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.MedianBlur(src, dst, k)
	})
}

func (b *Bank) Bilateral(img *safe.Mat, p BilateralParams) *safe.Mat {
	return apply(img, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.BilateralFilter(src, dst, p.Diameter, p.SigmaColor, p.SigmaSpace)
	})
}
