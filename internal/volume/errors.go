package volume

import (
	"errors"
	"fmt"
)

var (
	ErrNoVolume        = errors.New("no volume loaded")
	ErrIndexOutOfRange = errors.New("slice index out of range")
	ErrUnsupported     = errors.New("unsupported volume source")
)

// LoadError reports a volume that could not be read. The store keeps the
// previously loaded volume for the role.
type LoadError struct {
	Path string
	Role Role
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s volume %q: %v", e.Role, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

type IndexError struct {
	Index int
	Depth int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("slice index %d outside [0, %d]", e.Index, e.Depth-1)
}

func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}
