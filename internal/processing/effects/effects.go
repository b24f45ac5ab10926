// Package effects maps the effect names shown in the viewer onto filter
// operations.
package effects

import (
	"brats-viewer/internal/config"
	"brats-viewer/internal/opencv/safe"
	"brats-viewer/internal/processing/filters"
)

// Name is an entry of the effect vocabulary.
type Name string

const (
	None                  Name = "Ninguno"
	Threshold             Name = "Threshold"
	ContrastStretch       Name = "ContrastStretch"
	UmbralBinary          Name = "UmbralBinary"
	BitwiseAND            Name = "BitwiseAND"
	BitwiseOR             Name = "BitwiseOR"
	BitwiseXOR            Name = "BitwiseXOR"
	Canny                 Name = "Canny"
	Brightness            Name = "Brightness"
	MeanFilter            Name = "MeanFilter"
	GaussianFilter        Name = "GaussianFilter"
	MedianFilter          Name = "MedianFilter"
	BilateralFilter       Name = "BilateralFilter"
	Erosion               Name = "Erosion"
	Dilation              Name = "Dilation"
	Opening               Name = "Opening"
	Closing               Name = "Closing"
	HistogramEqualization Name = "HistogramEqualization"
	Emboss                Name = "Emboss"
)

var vocabulary = []Name{
	None,
	Threshold,
	ContrastStretch,
	UmbralBinary,
	BitwiseAND,
	BitwiseOR,
	BitwiseXOR,
	Canny,
	Brightness,
	MeanFilter,
	GaussianFilter,
	MedianFilter,
	BilateralFilter,
	Erosion,
	Dilation,
	Opening,
	Closing,
	HistogramEqualization,
	Emboss,
}

// Names lists the vocabulary in menu order, None first.
func Names() []Name {
	out := make([]Name, len(vocabulary))
	copy(out, vocabulary)
	return out
}

func Known(name Name) bool {
	for _, n := range vocabulary {
		if n == name {
			return true
		}
	}
	return false
}

// Params holds the parameter record each effect is dispatched with.
type Params struct {
	Threshold  filters.ThresholdParams
	Brightness filters.BrightnessParams
	Canny      filters.CannyParams
	Mean       filters.KernelParams
	Gaussian   filters.GaussianParams
	Median     filters.KernelParams
	Bilateral  filters.BilateralParams
	Morphology filters.KernelParams
	Tissue     filters.HSVRange
}

// DefaultParams uses the filter defaults except for morphology, which the
// viewer has always run with a 3x3 element.
func DefaultParams() Params {
	return Params{
		Threshold:  filters.DefaultThreshold(),
		Brightness: filters.DefaultBrightness(),
		Canny:      filters.DefaultCanny(),
		Mean:       filters.DefaultMean(),
		Gaussian:   filters.DefaultGaussian(),
		Median:     filters.DefaultMedian(),
		Bilateral:  filters.DefaultBilateral(),
		Morphology: filters.KernelParams{Size: 3},
		Tissue:     filters.DefaultTissueRange(),
	}
}

func ParamsFromConfig(cfg config.Effects) Params {
	p := DefaultParams()
	p.Threshold.Value = cfg.Threshold
	p.Brightness.Delta = cfg.BrightnessDelta
	p.Mean.Size = cfg.MeanKernel
	p.Gaussian = filters.GaussianParams{Size: cfg.GaussianKernel, Sigma: cfg.GaussianSigma}
	p.Median.Size = cfg.MedianKernel
	p.Bilateral = filters.BilateralParams{
		Diameter:   cfg.BilateralDiameter,
		SigmaColor: cfg.BilateralSigma,
		SigmaSpace: cfg.BilateralSigma,
	}
	p.Morphology.Size = cfg.MorphKernel
	return p
}

type Dispatcher struct {
	Bank     *filters.Bank
	Defaults Params
}

func NewDispatcher(bank *filters.Bank, defaults Params) *Dispatcher {
	return &Dispatcher{Bank: bank, Defaults: defaults}
}

// Apply runs the named effect on img. None and unknown names return img
// itself; every other effect returns a new Mat owned by the caller, or nil
// when the effect has nothing to show.
func (d *Dispatcher) Apply(img *safe.Mat, name Name) *safe.Mat {
	b := d.Bank
	p := d.Defaults

	switch name {
	case Threshold:
		return b.Threshold(img, p.Threshold)
	case ContrastStretch:
		return b.ContrastStretch(img)
	case UmbralBinary:
		return b.UmbralBinaryRange(p.Tissue)
	case BitwiseAND:
		return b.BitwiseAND(img)
	case BitwiseOR:
		return b.BitwiseOR(img)
	case BitwiseXOR:
		return b.BitwiseXOR(img)
	case Canny:
		return b.Canny(img, p.Canny)
	case Brightness:
		return b.Brightness(img, p.Brightness)
	case MeanFilter:
		return b.Mean(img, p.Mean)
	case GaussianFilter:
		return b.Gaussian(img, p.Gaussian)
	case MedianFilter:
		return b.Median(img, p.Median)
	case BilateralFilter:
		return b.Bilateral(img, p.Bilateral)
	case Erosion:
		return b.Erode(img, p.Morphology)
	case Dilation:
		return b.Dilate(img, p.Morphology)
	case Opening:
		return b.Open(img, p.Morphology)
	case Closing:
		return b.Close(img, p.Morphology)
	case HistogramEqualization:
		return b.EqualizeHistogram(img)
	case Emboss:
		return b.Emboss(img)
	default:
		return img
	}
}
