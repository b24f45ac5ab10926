package safe

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"
)

// Mat owns a gocv.Mat. A nil *Mat is a valid empty image: every accessor is
// nil-safe so pipeline stages can pass "no image" along without branching.
type Mat struct {
	mat     gocv.Mat
	isValid int32
	mu      sync.RWMutex
	id      uint64
}

var nextMatID uint64

// NewZeros returns a zero-filled Mat.
func NewZeros(rows, cols int, matType gocv.MatType) (*Mat, error) {
	if err := ValidateDimensions(cols, rows, "NewZeros"); err != nil {
		return nil, err
	}

	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, matType)
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("failed to create zero Mat with size %dx%d", cols, rows)
	}

	return wrap(mat), nil
}

// NewMatFromMat clones srcMat; the caller keeps ownership of srcMat.
func NewMatFromMat(srcMat gocv.Mat) (*Mat, error) {
	if srcMat.Empty() {
		return nil, fmt.Errorf("source Mat is empty")
	}

	if srcMat.Rows() <= 0 || srcMat.Cols() <= 0 {
		return nil, fmt.Errorf("source Mat has invalid dimensions: %dx%d", srcMat.Cols(), srcMat.Rows())
	}

	clonedMat := srcMat.Clone()
	if clonedMat.Empty() {
		clonedMat.Close()
		return nil, fmt.Errorf("failed to clone Mat")
	}

	return wrap(clonedMat), nil
}

// Take wraps mat without copying. Ownership moves to the returned Mat; an empty
// mat is closed and nil is returned.
func Take(mat gocv.Mat) *Mat {
	if mat.Empty() {
		mat.Close()
		return nil
	}
	return wrap(mat)
}

// FromBytes builds a Mat from interleaved 8-bit pixel data (BGR order for
// 3 channels). The bytes are copied.
func FromBytes(rows, cols int, matType gocv.MatType, data []byte) (*Mat, error) {
	if err := ValidateDimensions(cols, rows, "FromBytes"); err != nil {
		return nil, err
	}

	want := rows * cols * getMatTypeSize(matType)
	if len(data) != want {
		return nil, fmt.Errorf("pixel buffer has %d bytes, want %d for %dx%d", len(data), want, cols, rows)
	}

	view, err := gocv.NewMatFromBytes(rows, cols, matType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to create Mat from bytes: %w", err)
	}
	defer view.Close()

	return NewMatFromMat(view)
}

func wrap(mat gocv.Mat) *Mat {
	safeMat := &Mat{
		mat:     mat,
		isValid: 1,
		id:      atomic.AddUint64(&nextMatID, 1),
	}

	// Set finalizer for cleanup if Close() is not called
	runtime.SetFinalizer(safeMat, (*Mat).finalize)

	return safeMat
}

func (sm *Mat) IsValid() bool {
	return sm != nil && atomic.LoadInt32(&sm.isValid) == 1
}

func (sm *Mat) Empty() bool {
	if !sm.IsValid() {
		return true
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.mat.Empty()
}

func (sm *Mat) Rows() int {
	if !sm.IsValid() {
		return 0
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.mat.Rows()
}

func (sm *Mat) Cols() int {
	if !sm.IsValid() {
		return 0
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.mat.Cols()
}

func (sm *Mat) Channels() int {
	if !sm.IsValid() {
		return 0
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.mat.Channels()
}

func (sm *Mat) Type() gocv.MatType {
	if !sm.IsValid() {
		return gocv.MatTypeCV8UC1
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.mat.Type()
}

// SameSize reports whether both Mats are non-empty with equal width and height.
func (sm *Mat) SameSize(other *Mat) bool {
	if sm.Empty() || other.Empty() {
		return false
	}
	return sm.Rows() == other.Rows() && sm.Cols() == other.Cols()
}

func (sm *Mat) Clone() (*Mat, error) {
	if sm.Empty() {
		return nil, fmt.Errorf("cannot clone empty Mat")
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return NewMatFromMat(sm.mat)
}

// Bytes returns a copy of the pixel data, row-major and channel-interleaved.
func (sm *Mat) Bytes() []byte {
	if sm.Empty() {
		return nil
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if sm.mat.IsContinuous() {
		return sm.mat.ToBytes()
	}

	cont := sm.mat.Clone()
	defer cont.Close()
	return cont.ToBytes()
}

// GetMat exposes the underlying gocv.Mat for read-only use by OpenCV calls.
// It stays owned by sm.
func (sm *Mat) GetMat() gocv.Mat {
	if !sm.IsValid() {
		return gocv.NewMat()
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.mat
}

func (sm *Mat) ID() uint64 {
	if sm == nil {
		return 0
	}
	return sm.id
}

func (sm *Mat) Close() {
	if sm == nil {
		return
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if atomic.CompareAndSwapInt32(&sm.isValid, 1, 0) {
		sm.mat.Close()

		// Clear finalizer since we're cleaning up manually
		runtime.SetFinalizer(sm, nil)
	}
}

// finalize is called by Go's garbage collector as last resort cleanup
func (sm *Mat) finalize() {
	if atomic.LoadInt32(&sm.isValid) == 1 {
		sm.Close()
	}
}

func getMatTypeSize(matType gocv.MatType) int {
	switch matType {
	case gocv.MatTypeCV8UC1:
		return 1
	case gocv.MatTypeCV8UC3:
		return 3
	case gocv.MatTypeCV8UC4:
		return 4
	case gocv.MatTypeCV32FC1:
		return 4
	default:
		return 1
	}
}
