package volume

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"brats-viewer/internal/logger"
)

// Reader turns a path into a Volume.
type Reader interface {
	Read(path string) (*Volume, error)
}

// Store binds at most one volume to each Role.
type Store struct {
	volumes map[Role]*Volume
	nifti   Reader
	dicom   Reader
	log     logger.Logger
	mu      sync.RWMutex
}

func NewStore(log logger.Logger) *Store {
	return &Store{
		volumes: make(map[Role]*Volume),
		nifti:   &NIfTIReader{},
		dicom:   &DICOMReader{},
		log:     log,
	}
}

// ReaderFor picks a reader by path: directories are DICOM series, .nii and
// .nii.gz files are NIfTI-1.
func (s *Store) ReaderFor(path string) (Reader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return s.dicom, nil
	}

	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".nii") || strings.HasSuffix(lower, ".nii.gz") {
		return s.nifti, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
}

// Load reads path and binds the result to role. On failure the previous
// volume stays bound and a *LoadError is returned.
func (s *Store) Load(path string, role Role) error {
	reader, err := s.ReaderFor(path)
	if err != nil {
		return s.loadFailed(path, role, err)
	}

	vol, err := reader.Read(path)
	if err != nil {
		return s.loadFailed(path, role, err)
	}
	if err := vol.Validate(); err != nil {
		return s.loadFailed(path, role, err)
	}
	vol.Source = path

	s.Set(role, vol)

	s.log.Info("VolumeStore", "volume loaded", map[string]interface{}{
		"role":   role.String(),
		"path":   path,
		"width":  vol.Width,
		"height": vol.Height,
		"depth":  vol.Depth,
	})
	return nil
}

func (s *Store) loadFailed(path string, role Role, err error) error {
	loadErr := &LoadError{Path: path, Role: role, Err: err}
	s.log.Error("VolumeStore", loadErr, map[string]interface{}{
		"role": role.String(),
		"path": path,
	})
	return loadErr
}

// Set replaces the volume bound to role. A nil volume unbinds it.
func (s *Store) Set(role Role, vol *Volume) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vol == nil {
		delete(s.volumes, role)
		return
	}
	s.volumes[role] = vol
}

func (s *Store) Volume(role Role) (*Volume, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vol, ok := s.volumes[role]
	return vol, ok
}

// Depth returns the Z extent of the volume bound to role, or 0.
func (s *Store) Depth(role Role) int {
	vol, ok := s.Volume(role)
	if !ok {
		return 0
	}
	return vol.Depth
}

func (s *Store) Dimensions(role Role) (width, height, depth int) {
	vol, ok := s.Volume(role)
	if !ok {
		return 0, 0, 0
	}
	return vol.Width, vol.Height, vol.Depth
}

// ExtractSlice copies the axial plane at index. Out-of-range indexes are
// reported, never clamped.
func (s *Store) ExtractSlice(role Role, index int) (RawSlice, error) {
	vol, ok := s.Volume(role)
	if !ok {
		s.log.Warning("VolumeStore", "slice requested without a volume", map[string]interface{}{
			"role":  role.String(),
			"index": index,
		})
		return RawSlice{}, ErrNoVolume
	}

	if index < 0 || index >= vol.Depth {
		err := &IndexError{Index: index, Depth: vol.Depth}
		s.log.Warning("VolumeStore", "slice index out of range", map[string]interface{}{
			"role":  role.String(),
			"index": index,
			"depth": vol.Depth,
		})
		return RawSlice{}, err
	}

	return vol.Plane(index), nil
}

// Close drops every bound volume.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.volumes = make(map[Role]*Volume)
	return nil
}

func (s *Store) Name() string {
	return "VolumeStore"
}
