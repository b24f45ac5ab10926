package volume

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

const (
	niftiHeaderSize = 348
	niftiMinOffset  = 352
)

// NIfTI-1 datatype codes.
const (
	DTUint8   = 2
	DTInt16   = 4
	DTInt32   = 8
	DTFloat32 = 16
	DTFloat64 = 64
	DTInt8    = 256
	DTUint16  = 512
	DTUint32  = 768
)

// MaxVoxelBytes caps the voxel payload a header may declare.
const MaxVoxelBytes = 1 << 31

var niftiMagic = [4]byte{'n', '+', '1', 0}

// NIfTIHeader is the on-disk NIfTI-1 header, field for field.
type NIfTIHeader struct {
	SizeofHdr     int32
	DataType      [10]byte
	DBName        [18]byte
	Extents       int32
	SessionError  int16
	Regular       int8
	DimInfo       int8
	Dim           [8]int16
	IntentP1      float32
	IntentP2      float32
	IntentP3      float32
	IntentCode    int16
	Datatype      int16
	Bitpix        int16
	SliceStart    int16
	Pixdim        [8]float32
	VoxOffset     float32
	SclSlope      float32
	SclInter      float32
	SliceEnd      int16
	SliceCode     int8
	XyztUnits     int8
	CalMax        float32
	CalMin        float32
	SliceDuration float32
	Toffset       float32
	Glmax         int32
	Glmin         int32
	Descrip       [80]byte
	AuxFile       [24]byte
	QformCode     int16
	SformCode     int16
	QuaternB      float32
	QuaternC      float32
	QuaternD      float32
	QoffsetX      float32
	QoffsetY      float32
	QoffsetZ      float32
	SrowX         [4]float32
	SrowY         [4]float32
	SrowZ         [4]float32
	IntentName    [16]byte
	Magic         [4]byte
}

// NewNIfTIHeader fills the fields a single-file NIfTI-1 volume needs.
func NewNIfTIHeader(width, height, depth int, datatype int16) (NIfTIHeader, error) {
	size, err := datatypeSize(datatype)
	if err != nil {
		return NIfTIHeader{}, err
	}

	h := NIfTIHeader{
		SizeofHdr: niftiHeaderSize,
		Regular:   'r',
		Datatype:  datatype,
		Bitpix:    int16(size * 8),
		VoxOffset: niftiMinOffset,
		Magic:     niftiMagic,
	}
	h.Dim = [8]int16{3, int16(width), int16(height), int16(depth), 1, 1, 1, 1}
	h.Pixdim = [8]float32{1, 1, 1, 1, 1, 1, 1, 1}
	return h, nil
}

// NIfTIReader reads single-file NIfTI-1 volumes, plain or gzip-compressed.
type NIfTIReader struct{}

func (r *NIfTIReader) Read(path string) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeNIfTI(f)
}

// DecodeNIfTI parses a NIfTI-1 stream. Gzip is recognised by its magic bytes.
// Only the first 3D volume of higher-dimensional data is returned.
func DecodeNIfTI(r io.Reader) (*Volume, error) {
	br := bufio.NewReader(r)
	src := io.Reader(br)

	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip stream: %w", err)
		}
		defer gz.Close()
		src = gz
	}

	raw := make([]byte, niftiHeaderSize)
	if _, err := io.ReadFull(src, raw); err != nil {
		return nil, fmt.Errorf("read NIfTI header: %w", err)
	}

	order, err := niftiByteOrder(raw)
	if err != nil {
		return nil, err
	}

	var h NIfTIHeader
	if err := binary.Read(bytes.NewReader(raw), order, &h); err != nil {
		return nil, fmt.Errorf("decode NIfTI header: %w", err)
	}

	if h.Magic != niftiMagic {
		return nil, fmt.Errorf("unsupported NIfTI magic %q", h.Magic[:3])
	}

	width, height, depth, err := h.dimensions()
	if err != nil {
		return nil, err
	}

	size, err := datatypeSize(h.Datatype)
	if err != nil {
		return nil, err
	}

	offset := int64(h.VoxOffset)
	if offset < niftiMinOffset {
		return nil, fmt.Errorf("invalid vox_offset %v", h.VoxOffset)
	}
	if _, err := io.CopyN(io.Discard, src, offset-niftiHeaderSize); err != nil {
		return nil, fmt.Errorf("skip to voxel data: %w", err)
	}

	count := width * height * depth
	want := int64(count) * int64(size)
	if want > MaxVoxelBytes {
		return nil, fmt.Errorf("voxel data of %d bytes exceeds the %d byte limit", want, int64(MaxVoxelBytes))
	}

	// grows with the bytes present, not the declared size
	var buf bytes.Buffer
	n, err := buf.ReadFrom(io.LimitReader(src, want))
	if err != nil {
		return nil, fmt.Errorf("read voxel data: %w", err)
	}
	if n < want {
		return nil, fmt.Errorf("truncated voxel data: want %d bytes, got %d", want, n)
	}
	data := buf.Bytes()

	vol := &Volume{
		Width:   width,
		Height:  height,
		Depth:   depth,
		Voxels:  decodeVoxels(data, count, h.Datatype, order),
		Spacing: [3]float64{spacing(h.Pixdim[1]), spacing(h.Pixdim[2]), spacing(h.Pixdim[3])},
	}

	if h.SclSlope != 0 && !(h.SclSlope == 1 && h.SclInter == 0) {
		for i, v := range vol.Voxels {
			vol.Voxels[i] = v*h.SclSlope + h.SclInter
		}
	}

	return vol, nil
}

// EncodeNIfTI writes vol as an uncompressed single-file NIfTI-1 stream with
// the given datatype. Values are converted with a plain cast.
func EncodeNIfTI(w io.Writer, vol *Volume, datatype int16, order binary.ByteOrder) error {
	if err := vol.Validate(); err != nil {
		return err
	}

	h, err := NewNIfTIHeader(vol.Width, vol.Height, vol.Depth, datatype)
	if err != nil {
		return err
	}
	h.Pixdim[1] = float32(vol.Spacing[0])
	h.Pixdim[2] = float32(vol.Spacing[1])
	h.Pixdim[3] = float32(vol.Spacing[2])

	if err := binary.Write(w, order, &h); err != nil {
		return fmt.Errorf("write NIfTI header: %w", err)
	}
	// empty extension block
	if _, err := w.Write(make([]byte, niftiMinOffset-niftiHeaderSize)); err != nil {
		return err
	}

	return binary.Write(w, order, encodeVoxels(vol.Voxels, datatype))
}

func niftiByteOrder(raw []byte) (binary.ByteOrder, error) {
	switch {
	case int32(binary.LittleEndian.Uint32(raw)) == niftiHeaderSize:
		return binary.LittleEndian, nil
	case int32(binary.BigEndian.Uint32(raw)) == niftiHeaderSize:
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("not a NIfTI-1 file: sizeof_hdr is not %d", niftiHeaderSize)
	}
}

func (h *NIfTIHeader) dimensions() (int, int, int, error) {
	ndim := h.Dim[0]
	if ndim < 2 || ndim > 7 {
		return 0, 0, 0, fmt.Errorf("unsupported dimension count %d", ndim)
	}

	width, height, depth := int(h.Dim[1]), int(h.Dim[2]), 1
	if ndim >= 3 {
		depth = int(h.Dim[3])
	}
	if width <= 0 || height <= 0 || depth <= 0 {
		return 0, 0, 0, fmt.Errorf("invalid dimensions %dx%dx%d", width, height, depth)
	}
	return width, height, depth, nil
}

func datatypeSize(datatype int16) (int, error) {
	switch datatype {
	case DTUint8, DTInt8:
		return 1, nil
	case DTInt16, DTUint16:
		return 2, nil
	case DTInt32, DTUint32, DTFloat32:
		return 4, nil
	case DTFloat64:
		return 8, nil
	default:
		return 0, fmt.Errorf("unsupported NIfTI datatype %d", datatype)
	}
}

func decodeVoxels(data []byte, count int, datatype int16, order binary.ByteOrder) []float32 {
	out := make([]float32, count)
	for i := range out {
		switch datatype {
		case DTUint8:
			out[i] = float32(data[i])
		case DTInt8:
			out[i] = float32(int8(data[i]))
		case DTInt16:
			out[i] = float32(int16(order.Uint16(data[i*2:])))
		case DTUint16:
			out[i] = float32(order.Uint16(data[i*2:]))
		case DTInt32:
			out[i] = float32(int32(order.Uint32(data[i*4:])))
		case DTUint32:
			out[i] = float32(order.Uint32(data[i*4:]))
		case DTFloat32:
			out[i] = math.Float32frombits(order.Uint32(data[i*4:]))
		case DTFloat64:
			out[i] = float32(math.Float64frombits(order.Uint64(data[i*8:])))
		}
	}
	return out
}

func encodeVoxels(voxels []float32, datatype int16) interface{} {
	switch datatype {
	case DTUint8:
		out := make([]uint8, len(voxels))
		for i, v := range voxels {
			out[i] = uint8(v)
		}
		return out
	case DTInt8:
		out := make([]int8, len(voxels))
		for i, v := range voxels {
			out[i] = int8(v)
		}
		return out
	case DTInt16:
		out := make([]int16, len(voxels))
		for i, v := range voxels {
			out[i] = int16(v)
		}
		return out
	case DTUint16:
		out := make([]uint16, len(voxels))
		for i, v := range voxels {
			out[i] = uint16(v)
		}
		return out
	case DTInt32:
		out := make([]int32, len(voxels))
		for i, v := range voxels {
			out[i] = int32(v)
		}
		return out
	case DTUint32:
		out := make([]uint32, len(voxels))
		for i, v := range voxels {
			out[i] = uint32(v)
		}
		return out
	case DTFloat64:
		out := make([]float64, len(voxels))
		for i, v := range voxels {
			out[i] = float64(v)
		}
		return out
	default:
		return voxels
	}
}

func spacing(v float32) float64 {
	if v <= 0 || math.IsNaN(float64(v)) {
		return 1
	}
	return float64(v)
}
