// Package volume holds 3D scalar volumes and cuts axial slices out of them.
package volume

import "fmt"

// Role selects which of the two co-registered volumes an operation targets.
type Role int

const (
	RoleStandard Role = iota
	RoleMask
)

func (r Role) String() string {
	switch r {
	case RoleStandard:
		return "standard"
	case RoleMask:
		return "mask"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Volume is a 3D scalar image stored x-fastest: voxel (x, y, z) lives at
// z*Width*Height + y*Width + x. It is not modified after construction.
type Volume struct {
	Width   int
	Height  int
	Depth   int
	Voxels  []float32
	Spacing [3]float64
	Source  string
}

// New allocates a zero-filled volume with unit spacing.
func New(width, height, depth int) *Volume {
	return &Volume{
		Width:   width,
		Height:  height,
		Depth:   depth,
		Voxels:  make([]float32, width*height*depth),
		Spacing: [3]float64{1, 1, 1},
	}
}

func (v *Volume) Validate() error {
	if v == nil {
		return fmt.Errorf("volume is nil")
	}
	if v.Width <= 0 || v.Height <= 0 || v.Depth <= 0 {
		return fmt.Errorf("invalid volume dimensions %dx%dx%d", v.Width, v.Height, v.Depth)
	}
	if len(v.Voxels) != v.Width*v.Height*v.Depth {
		return fmt.Errorf("volume has %d voxels, want %d", len(v.Voxels), v.Width*v.Height*v.Depth)
	}
	return nil
}

func (v *Volume) At(x, y, z int) float32 {
	return v.Voxels[z*v.Width*v.Height+y*v.Width+x]
}

func (v *Volume) Set(x, y, z int, value float32) {
	v.Voxels[z*v.Width*v.Height+y*v.Width+x] = value
}

// Plane copies the axial plane at z. The caller checks bounds.
func (v *Volume) Plane(z int) RawSlice {
	n := v.Width * v.Height
	data := make([]float32, n)
	copy(data, v.Voxels[z*n:(z+1)*n])
	return RawSlice{Width: v.Width, Height: v.Height, Data: data, Index: z}
}

// RawSlice is one floating-point axial plane. The zero value means "no slice".
type RawSlice struct {
	Width  int
	Height int
	Data   []float32
	Index  int
}

func (s RawSlice) Empty() bool {
	return s.Width <= 0 || s.Height <= 0 || len(s.Data) == 0
}

func (s RawSlice) At(x, y int) float32 {
	return s.Data[y*s.Width+x]
}
