package models

import (
	"time"

	"brats-viewer/internal/opencv/safe"
	"brats-viewer/internal/processing/effects"
)

// SlicePair is the normalized base slice and the mask slice at one index.
// Either image may be nil.
type SlicePair struct {
	Index int
	Base  *safe.Mat
	Mask  *safe.Mat
}

func (p *SlicePair) Empty() bool {
	return p == nil || p.Base.Empty()
}

func (p *SlicePair) HasMask() bool {
	return p != nil && !p.Mask.Empty()
}

func (p *SlicePair) Close() {
	if p == nil {
		return
	}
	p.Base.Close()
	p.Mask.Close()
}

// ProcessedSlice is the image shown for an index after highlight and effect.
// Image is owned by the ProcessedSlice and never aliases the pair it came from.
type ProcessedSlice struct {
	Index       int
	Image       *safe.Mat
	Effect      effects.Name
	Highlighted bool
	ProcessTime time.Duration
}

func (p *ProcessedSlice) Empty() bool {
	return p == nil || p.Image.Empty()
}

func (p *ProcessedSlice) Close() {
	if p == nil {
		return
	}
	p.Image.Close()
}
