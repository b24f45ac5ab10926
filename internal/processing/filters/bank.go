// Package filters implements the slice effects. Every operation is pure and
// returns nil for an empty input instead of failing.
package filters

import (
	"brats-viewer/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// MaskSource yields the mask slice currently on screen. The bank never closes it.
type MaskSource interface {
	CurrentMask() *safe.Mat
}

// MaskFunc adapts a function to MaskSource.
type MaskFunc func() *safe.Mat

func (f MaskFunc) CurrentMask() *safe.Mat {
	return f()
}

type Bank struct {
	masks MaskSource
}

func NewBank(masks MaskSource) *Bank {
	if masks == nil {
		masks = MaskFunc(func() *safe.Mat { return nil })
	}
	return &Bank{masks: masks}
}

func (b *Bank) mask() *safe.Mat {
	return b.masks.CurrentMask()
}

// apply runs op into a fresh destination and hands ownership to the caller.
func apply(src *safe.Mat, op func(src gocv.Mat, dst *gocv.Mat)) *safe.Mat {
	if src.Empty() {
		return nil
	}

	dst := gocv.NewMat()
	op(src.GetMat(), &dst)
	return safe.Take(dst)
}

// perChannel applies op to every channel separately and merges the result.
func perChannel(src *safe.Mat, op func(ch gocv.Mat, dst *gocv.Mat)) *safe.Mat {
	if src.Empty() {
		return nil
	}
	if src.Channels() == 1 {
		return apply(src, op)
	}

	channels := gocv.Split(src.GetMat())
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()

	outputs := make([]gocv.Mat, len(channels))
	for i := range channels {
		outputs[i] = gocv.NewMat()
		op(channels[i], &outputs[i])
	}
	defer func() {
		for i := range outputs {
			outputs[i].Close()
		}
	}()

	dst := gocv.NewMat()
	gocv.Merge(outputs, &dst)
	return safe.Take(dst)
}
