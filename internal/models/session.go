package models

import (
	"sync"

	"brats-viewer/internal/config"
	"brats-viewer/internal/processing/effects"
)

// ViewState is what the user has selected. Every pipeline call receives it
// explicitly.
type ViewState struct {
	DatasetID string
	Modality  config.Modality
	Index     int
	Effect    effects.Name
	Highlight bool
}

// SessionRepository owns the slices currently on screen. Replacing them
// closes the previous ones.
type SessionRepository struct {
	mu        sync.RWMutex
	state     ViewState
	pair      *SlicePair
	processed *ProcessedSlice
}

func NewSessionRepository(initial ViewState) *SessionRepository {
	return &SessionRepository{state: initial}
}

func (r *SessionRepository) State() ViewState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *SessionRepository) SetState(state ViewState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
}

// Update applies fn to a copy of the state and stores the result.
func (r *SessionRepository) Update(fn func(*ViewState)) ViewState {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.state
	fn(&state)
	r.state = state
	return state
}

// SetSlices stores a new pair and processed slice, closing the old ones.
func (r *SessionRepository) SetSlices(pair *SlicePair, processed *ProcessedSlice) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pair != pair {
		r.pair.Close()
	}
	if r.processed != processed {
		r.processed.Close()
	}
	r.pair = pair
	r.processed = processed
}

// Pair returns the current pair. The caller must not close it.
func (r *SessionRepository) Pair() *SlicePair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pair
}

// Processed returns the current processed slice. The caller must not close it.
func (r *SessionRepository) Processed() *ProcessedSlice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.processed
}

// Clear drops the slices but keeps the state.
func (r *SessionRepository) Clear() {
	r.SetSlices(nil, nil)
}

func (r *SessionRepository) Close() error {
	r.Clear()
	return nil
}

func (r *SessionRepository) Name() string {
	return "SessionRepository"
}
