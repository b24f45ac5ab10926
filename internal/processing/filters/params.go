package filters

// ThresholdParams configures Threshold. Pixels strictly above Value become 255.
type ThresholdParams struct {
	Value float64
}

// KernelParams carries a square kernel size for box, median and morphology ops.
type KernelParams struct {
	Size int
}

type GaussianParams struct {
	Size  int
	Sigma float64
}

type BilateralParams struct {
	Diameter   int
	SigmaColor float64
	SigmaSpace float64
}

// CannyParams sets the pre-blur kernel and sigma and the hysteresis thresholds.
type CannyParams struct {
	Kernel int
	Sigma  float64
	Low    float64
	High   float64
}

type BrightnessParams struct {
	Delta float64
}

// HSVRange is an inclusive HSV box in OpenCV units (H 0-180, S and V 0-255).
type HSVRange struct {
	Lower [3]float64
	Upper [3]float64
}

func DefaultThreshold() ThresholdParams {
	return ThresholdParams{Value: 55}
}

func DefaultMean() KernelParams {
	return KernelParams{Size: 5}
}

func DefaultGaussian() GaussianParams {
	return GaussianParams{Size: 5, Sigma: 1.0}
}

func DefaultMedian() KernelParams {
	return KernelParams{Size: 5}
}

func DefaultBilateral() BilateralParams {
	return BilateralParams{Diameter: 9, SigmaColor: 75, SigmaSpace: 75}
}

func DefaultMorphology() KernelParams {
	return KernelParams{Size: 5}
}

func DefaultCanny() CannyParams {
	return CannyParams{Kernel: 5, Sigma: 1.5, Low: 50, High: 150}
}

func DefaultBrightness() BrightnessParams {
	return BrightnessParams{Delta: 50}
}

// DefaultTissueRange is the low-saturation, dim band used by UmbralBinary.
func DefaultTissueRange() HSVRange {
	return HSVRange{
		Lower: [3]float64{0, 0, 60},
		Upper: [3]float64{180, 30, 70},
	}
}

// OddKernel bumps an even size to the next odd value and enforces a floor.
func OddKernel(size, minimum int) int {
	if size%2 == 0 {
		size++
	}
	if size < minimum {
		size = minimum
	}
	return size
}
