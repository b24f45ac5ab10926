// Package normalize maps floating-point slices onto the 8-bit range.
package normalize

import (
	"math"

	"brats-viewer/internal/opencv/safe"
	"brats-viewer/internal/volume"

	"gocv.io/x/gocv"
)

// Normalize rescales one slice with its own min and max:
// round((v-min)*255/(max-min)), clamped to [0, 255]. A constant slice becomes
// all zeros. An empty slice yields nil.
func Normalize(raw volume.RawSlice) *safe.Mat {
	if raw.Empty() {
		return nil
	}

	minV, maxV := bounds(raw.Data)
	span := float64(maxV) - float64(minV)

	if span <= 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		out, err := safe.NewZeros(raw.Height, raw.Width, gocv.MatTypeCV8UC1)
		if err != nil {
			return nil
		}
		return out
	}

	pixels := make([]byte, len(raw.Data))
	scale := 255 / span
	for i, v := range raw.Data {
		pixels[i] = clamp8(math.Round((float64(v) - float64(minV)) * scale))
	}

	out, err := safe.FromBytes(raw.Height, raw.Width, gocv.MatTypeCV8UC1, pixels)
	if err != nil {
		return nil
	}
	return out
}

func bounds(data []float32) (float32, float32) {
	minV, maxV := data[0], data[0]
	for _, v := range data[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return minV, maxV
}

func clamp8(v float64) byte {
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= 255:
		return 255
	default:
		return byte(v)
	}
}
