package conversion

import (
	"fmt"

	"brats-viewer/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// ConvertBGRToHSV converts a BGR image to HSV. Gray input is promoted to BGR first.
func ConvertBGRToHSV(src *safe.Mat) (*safe.Mat, error) {
	bgr, err := ConvertToBGR(src)
	if err != nil {
		return nil, fmt.Errorf("HSV conversion: %w", err)
	}
	defer bgr.Close()

	dst := gocv.NewMat()
	gocv.CvtColor(bgr.GetMat(), &dst, gocv.ColorBGRToHSV)

	return take(dst, "HSV conversion")
}
