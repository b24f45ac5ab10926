package filters

import (
	"brats-viewer/internal/opencv/conversion"
	"brats-viewer/internal/opencv/safe"

	"gocv.io/x/gocv"
)

func (b *Bank) BitwiseAND(img *safe.Mat) *safe.Mat {
	return b.combine(img, func(a, m gocv.Mat, dst *gocv.Mat) { gocv.BitwiseAnd(a, m, dst) })
}

func (b *Bank) BitwiseOR(img *safe.Mat) *safe.Mat {
	return b.combine(img, func(a, m gocv.Mat, dst *gocv.Mat) { gocv.BitwiseOr(a, m, dst) })
}

func (b *Bank) BitwiseXOR(img *safe.Mat) *safe.Mat {
	return b.combine(img, func(a, m gocv.Mat, dst *gocv.Mat) { gocv.BitwiseXor(a, m, dst) })
}

// BitwiseNOT inverts img; the mask is not used.
func (b *Bank) BitwiseNOT(img *safe.Mat) *safe.Mat {
	return apply(img, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.BitwiseNot(src, dst)
	})
}

// combine brings the mask to img's channel count before op. A missing or
// differently sized mask gives nil.
func (b *Bank) combine(img *safe.Mat, op func(a, m gocv.Mat, dst *gocv.Mat)) *safe.Mat {
	mask := b.mask()
	if img.Empty() || !img.SameSize(mask) {
		return nil
	}

	matched, err := conversion.MatchChannels(mask, img.Channels())
	if err != nil {
		return nil
	}
	defer matched.Close()

	return apply(img, func(src gocv.Mat, dst *gocv.Mat) {
		op(src, matched.GetMat(), dst)
	})
}
