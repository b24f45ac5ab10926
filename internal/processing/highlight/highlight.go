// Package highlight overlays a segmentation mask onto a slice as a red tint.
package highlight

import (
	"math"

	"brats-viewer/internal/opencv/conversion"
	"brats-viewer/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// Highlight blends the red channel of base toward 255 in proportion to
// mask/255. Blue and green are kept, and pixels where the mask is zero are
// copied untouched. The result is always BGR. It is nil when either input is
// empty or the sizes differ.
func Highlight(base, mask *safe.Mat) *safe.Mat {
	if base.Empty() || mask.Empty() || !base.SameSize(mask) {
		return nil
	}

	color, err := conversion.ConvertToBGR(base)
	if err != nil {
		return nil
	}
	defer color.Close()

	alpha, err := conversion.ConvertToGrayscale(mask)
	if err != nil {
		return nil
	}
	defer alpha.Close()

	pixels := color.Bytes()
	weights := alpha.Bytes()
	for i, m := range weights {
		if m == 0 {
			continue
		}
		a := float64(m) / 255
		r := &pixels[i*3+2]
		*r = byte(math.Min(255, math.Round((1-a)*float64(*r)+a*255)))
	}

	out, err := safe.FromBytes(color.Rows(), color.Cols(), gocv.MatTypeCV8UC3, pixels)
	if err != nil {
		return nil
	}
	return out
}

// Reddened counts pixels whose red channel differs between base and the
// highlighted result.
func Reddened(base, highlighted *safe.Mat) int {
	if !base.SameSize(highlighted) {
		return 0
	}

	color, err := conversion.ConvertToBGR(base)
	if err != nil {
		return 0
	}
	defer color.Close()

	before := color.Bytes()
	after := highlighted.Bytes()
	count := 0
	for i := 2; i < len(before) && i < len(after); i += 3 {
		if before[i] != after[i] {
			count++
		}
	}
	return count
}
