package filters

import (
	"image"

	"brats-viewer/internal/opencv/safe"

	"gocv.io/x/gocv"
)

func (b *Bank) Erode(img *safe.Mat, p KernelParams) *safe.Mat {
	return morph(img, p, func(src gocv.Mat, dst *gocv.Mat, kernel gocv.Mat) {
		gocv.Erode(src, dst, kernel)
	})
}

func (b *Bank) Dilate(img *safe.Mat, p KernelParams) *safe.Mat {
	return morph(img, p, func(src gocv.Mat, dst *gocv.Mat, kernel gocv.Mat) {
		gocv.Dilate(src, dst, kernel)
	})
}

func (b *Bank) Open(img *safe.Mat, p KernelParams) *safe.Mat {
	return morph(img, p, func(src gocv.Mat, dst *gocv.Mat, kernel gocv.Mat) {
		gocv.MorphologyEx(src, dst, gocv.MorphOpen, kernel)
	})
}

func (b *Bank) Close(img *safe.Mat, p KernelParams) *safe.Mat {
	return morph(img, p, func(src gocv.Mat, dst *gocv.Mat, kernel gocv.Mat) {
		gocv.MorphologyEx(src, dst, gocv.MorphClose, kernel)
	})
}

func morph(img *safe.Mat, p KernelParams, op func(src gocv.Mat, dst *gocv.Mat, kernel gocv.Mat)) *safe.Mat {
	if img.Empty() {
		return nil
	}

	k := OddKernel(p.Size, 1)
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: k, Y: k})
	defer kernel.Close()

	return apply(img, func(src gocv.Mat, dst *gocv.Mat) {
		op(src, dst, kernel)
	})
}
