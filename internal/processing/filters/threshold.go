package filters

import (
	"brats-viewer/internal/opencv/conversion"
	"brats-viewer/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// Threshold converts to gray and binarises: 255 where gray > Value, else 0.
func (b *Bank) Threshold(img *safe.Mat, p ThresholdParams) *safe.Mat {
	if img.Empty() {
		return nil
	}

	gray, err := conversion.ConvertToGrayscale(img)
	if err != nil {
		return nil
	}
	defer gray.Close()

	return apply(gray, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.Threshold(src, dst, float32(p.Value), 255, gocv.ThresholdBinary)
	})
}

// ContrastStretch stretches each channel to [0, 255] on its own. Constant
// channels are left as they are.
func (b *Bank) ContrastStretch(img *safe.Mat) *safe.Mat {
	return perChannel(img, func(ch gocv.Mat, dst *gocv.Mat) {
		minVal, maxVal, _, _ := gocv.MinMaxLoc(ch)
		if minVal == maxVal {
			ch.CopyTo(dst)
			return
		}
		gocv.Normalize(ch, dst, 0, 255, gocv.NormMinMax)
	})
}

// UmbralBinary isolates the default tissue band in the current mask slice.
func (b *Bank) UmbralBinary() *safe.Mat {
	return b.UmbralBinaryRange(DefaultTissueRange())
}

// UmbralBinaryRange converts the current mask slice to HSV and keeps pixels
// inside r as 255. The result is single channel and may be all black.
func (b *Bank) UmbralBinaryRange(r HSVRange) *safe.Mat {
	mask := b.mask()
	if mask.Empty() {
		return nil
	}

	hsv, err := conversion.ConvertBGRToHSV(mask)
	if err != nil {
		return nil
	}
	defer hsv.Close()

	lower := gocv.NewScalar(r.Lower[0], r.Lower[1], r.Lower[2], 0)
	upper := gocv.NewScalar(r.Upper[0], r.Upper[1], r.Upper[2], 0)

	return apply(hsv, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.InRangeWithScalar(src, lower, upper, dst)
	})
}
