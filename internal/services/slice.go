package services

import (
	"fmt"
	"time"

	"brats-viewer/internal/logger"
	"brats-viewer/internal/models"
	"brats-viewer/internal/opencv/safe"
	"brats-viewer/internal/processing/effects"
	"brats-viewer/internal/processing/filters"
	"brats-viewer/internal/processing/highlight"
	"brats-viewer/internal/processing/normalize"
	"brats-viewer/internal/volume"
)

// SliceService runs extraction, normalization, highlight and effect for one
// index at a time.
type SliceService struct {
	store      *volume.Store
	dispatcher *effects.Dispatcher
	log        logger.Logger

	// mask slice the filter bank reads while Process runs
	mask *safe.Mat
}

func NewSliceService(store *volume.Store, params effects.Params, log logger.Logger) *SliceService {
	s := &SliceService{
		store: store,
		log:   log,
	}
	s.dispatcher = effects.NewDispatcher(filters.NewBank(s), params)
	return s
}

// CurrentMask implements filters.MaskSource.
func (s *SliceService) CurrentMask() *safe.Mat {
	return s.mask
}

func (s *SliceService) Dispatcher() *effects.Dispatcher {
	return s.dispatcher
}

func (s *SliceService) Store() *volume.Store {
	return s.store
}

// Pair extracts and normalizes both volumes at index. A missing mask volume
// leaves Mask nil; a failing base extraction is an error.
func (s *SliceService) Pair(index int) (*models.SlicePair, error) {
	raw, err := s.store.ExtractSlice(volume.RoleStandard, index)
	if err != nil {
		return nil, fmt.Errorf("extract slice %d: %w", index, err)
	}

	pair := &models.SlicePair{
		Index: index,
		Base:  normalize.Normalize(raw),
	}

	if s.store.Depth(volume.RoleMask) > 0 {
		rawMask, err := s.store.ExtractSlice(volume.RoleMask, index)
		if err == nil {
			pair.Mask = normalize.Normalize(rawMask)
		}
	}

	return pair, nil
}

// Process builds the processed slice for pair. With highlight on and a mask
// present the effect runs on the highlighted image, otherwise on the base.
// The result never shares a Mat with pair.
func (s *SliceService) Process(pair *models.SlicePair, effect effects.Name, highlightOn bool) *models.ProcessedSlice {
	start := time.Now()
	out := &models.ProcessedSlice{Effect: effect}
	if pair == nil {
		return out
	}
	out.Index = pair.Index

	if pair.Empty() {
		return out
	}

	input := pair.Base
	var composed *safe.Mat
	if highlightOn && pair.HasMask() {
		composed = highlight.Highlight(pair.Base, pair.Mask)
		if composed != nil {
			input = composed
			out.Highlighted = true
		}
	}

	s.mask = pair.Mask
	result := s.dispatcher.Apply(input, effect)
	s.mask = nil

	switch {
	case result == nil:
		composed.Close()
	case result == composed:
		// identity effect on the composed image: keep it
	case result == pair.Base:
		clone, err := result.Clone()
		if err != nil {
			s.log.Error("SliceService", err, map[string]interface{}{"index": pair.Index})
		}
		result = clone
	default:
		composed.Close()
	}

	out.Image = result
	out.ProcessTime = time.Since(start)

	if out.Empty() {
		s.log.Debug("SliceService", "effect produced no image", map[string]interface{}{
			"index":  pair.Index,
			"effect": string(effect),
		})
	}
	return out
}

// Render extracts index and processes it according to state.
func (s *SliceService) Render(state models.ViewState) (*models.SlicePair, *models.ProcessedSlice, error) {
	pair, err := s.Pair(state.Index)
	if err != nil {
		return nil, nil, err
	}

	return pair, s.Process(pair, state.Effect, state.Highlight), nil
}

// Frame renders index and returns only the processed image, owned by the caller.
func (s *SliceService) Frame(index int, effect effects.Name, highlightOn bool) (*safe.Mat, error) {
	pair, err := s.Pair(index)
	if err != nil {
		return nil, err
	}
	defer pair.Close()

	processed := s.Process(pair, effect, highlightOn)
	if processed.Empty() {
		return nil, fmt.Errorf("slice %d: effect %q produced no image", index, effect)
	}
	return processed.Image, nil
}
