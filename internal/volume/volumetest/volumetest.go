// Package volumetest builds synthetic volumes and writes them in the formats
// the volume package reads.
package volumetest

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"brats-viewer/internal/volume"

	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Gradient returns a volume whose every axial plane is non-constant:
// v(x, y, z) = x + y*width + z.
func Gradient(width, height, depth int) *volume.Volume {
	vol := volume.New(width, height, depth)
	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				vol.Set(x, y, z, float32(x+y*width+z))
			}
		}
	}
	return vol
}

func Constant(width, height, depth int, value float32) *volume.Volume {
	vol := volume.New(width, height, depth)
	for i := range vol.Voxels {
		vol.Voxels[i] = value
	}
	return vol
}

// Sphere returns a label mask: label inside the sphere, 0 elsewhere.
func Sphere(width, height, depth, cx, cy, cz, radius int, label float32) *volume.Volume {
	vol := volume.New(width, height, depth)
	r2 := radius * radius
	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				dx, dy, dz := x-cx, y-cy, z-cz
				if dx*dx+dy*dy+dz*dz <= r2 {
					vol.Set(x, y, z, label)
				}
			}
		}
	}
	return vol
}

type niftiOptions struct {
	gzip     bool
	datatype int16
	order    binary.ByteOrder
}

type Option func(*niftiOptions)

func Gzip() Option {
	return func(o *niftiOptions) { o.gzip = true }
}

func Datatype(dt int16) Option {
	return func(o *niftiOptions) { o.datatype = dt }
}

func BigEndian() Option {
	return func(o *niftiOptions) { o.order = binary.BigEndian }
}

// EncodeNIfTI encodes vol as a NIfTI-1 stream. Defaults: float32, little
// endian, uncompressed.
func EncodeNIfTI(vol *volume.Volume, opts ...Option) ([]byte, error) {
	o := niftiOptions{datatype: volume.DTFloat32, order: binary.LittleEndian}
	for _, opt := range opts {
		opt(&o)
	}

	var raw bytes.Buffer
	if err := volume.EncodeNIfTI(&raw, vol, o.datatype, o.order); err != nil {
		return nil, err
	}
	if !o.gzip {
		return raw.Bytes(), nil
	}

	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	if _, err := gz.Write(raw.Bytes()); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return compressed.Bytes(), nil
}

// SaveNIfTI writes vol to path.
func SaveNIfTI(path string, vol *volume.Volume, opts ...Option) error {
	data, err := EncodeNIfTI(vol, opts...)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func NIfTIBytes(tb testing.TB, vol *volume.Volume, opts ...Option) []byte {
	tb.Helper()

	data, err := EncodeNIfTI(vol, opts...)
	require.NoError(tb, err)
	return data
}

// WriteNIfTI writes vol to dir/name and returns the path.
func WriteNIfTI(tb testing.TB, dir, name string, vol *volume.Volume, opts ...Option) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	require.NoError(tb, SaveNIfTI(path, vol, opts...))
	return path
}

// SaveDICOMSeries writes one 16-bit MONOCHROME2 file per plane into dir/series
// and returns that directory. File names run opposite to InstanceNumber so
// readers cannot rely on directory order. Voxels are clamped to [0, 65535].
func SaveDICOMSeries(dir string, vol *volume.Volume) (string, error) {
	return saveDICOMSeries(dir, vol, false)
}

// SaveSignedDICOMSeries is SaveDICOMSeries with PixelRepresentation 1:
// voxels are stored as two's complement and clamped to [-32768, 32767].
func SaveSignedDICOMSeries(dir string, vol *volume.Volume) (string, error) {
	return saveDICOMSeries(dir, vol, true)
}

func saveDICOMSeries(dir string, vol *volume.Volume, signed bool) (string, error) {
	seriesDir := filepath.Join(dir, "series")
	if err := os.MkdirAll(seriesDir, 0o755); err != nil {
		return "", err
	}

	n := vol.Width * vol.Height
	for z := 0; z < vol.Depth; z++ {
		nf := frame.NewNativeFrame[uint16](16, vol.Height, vol.Width, n, 1)
		for i, v := range vol.Voxels[z*n : (z+1)*n] {
			if signed {
				nf.RawData[i] = uint16(int16(math.Max(-32768, math.Min(32767, math.Round(float64(v))))))
				continue
			}
			switch {
			case v < 0:
				nf.RawData[i] = 0
			case v > 65535:
				nf.RawData[i] = 65535
			default:
				nf.RawData[i] = uint16(v + 0.5)
			}
		}

		pixels := dicom.PixelDataInfo{
			Frames: []*frame.Frame{{Encapsulated: false, NativeData: nf}},
		}
		uid := fmt.Sprintf("1.2.826.0.1.3680043.9.%d", z+1)
		representation := 0
		if signed {
			representation = 1
		}

		var elems []*dicom.Element
		for _, e := range []struct {
			tag   tag.Tag
			value interface{}
		}{
			{tag.TransferSyntaxUID, []string{"1.2.840.10008.1.2.1"}},
			{tag.MediaStorageSOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}},
			{tag.MediaStorageSOPInstanceUID, []string{uid}},
			{tag.SOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}},
			{tag.SOPInstanceUID, []string{uid}},
			{tag.Modality, []string{"MR"}},
			{tag.InstanceNumber, []string{fmt.Sprintf("%d", z+1)}},
			{tag.Rows, []int{vol.Height}},
			{tag.Columns, []int{vol.Width}},
			{tag.BitsAllocated, []int{16}},
			{tag.BitsStored, []int{16}},
			{tag.HighBit, []int{15}},
			{tag.PixelRepresentation, []int{representation}},
			{tag.SamplesPerPixel, []int{1}},
			{tag.PhotometricInterpretation, []string{"MONOCHROME2"}},
			{tag.PixelData, pixels},
		} {
			elem, err := dicom.NewElement(e.tag, e.value)
			if err != nil {
				return "", fmt.Errorf("element %v: %w", e.tag, err)
			}
			elems = append(elems, elem)
		}

		path := filepath.Join(seriesDir, fmt.Sprintf("IM%04d.dcm", vol.Depth-z))
		if err := writeDataset(path, dicom.Dataset{Elements: elems}); err != nil {
			return "", err
		}
	}

	return seriesDir, nil
}

func writeDataset(path string, ds dicom.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := dicom.Write(f, ds); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func WriteDICOMSeries(tb testing.TB, dir string, vol *volume.Volume) string {
	tb.Helper()

	seriesDir, err := SaveDICOMSeries(dir, vol)
	require.NoError(tb, err)
	return seriesDir
}
