package volume

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// DICOMReader reads a directory holding one single-frame DICOM series and
// stacks the planes by InstanceNumber.
type DICOMReader struct{}

type dicomPlane struct {
	name     string
	instance int
	width    int
	height   int
	data     []float32
	spacing  [2]float64
}

func (r *DICOMReader) Read(dir string) (*Volume, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var planes []dicomPlane
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		ds, err := dicom.ParseFile(path, nil)
		if err != nil {
			// not part of the series
			continue
		}

		plane, err := readPlane(ds)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		plane.name = entry.Name()
		planes = append(planes, plane)
	}

	if len(planes) == 0 {
		return nil, fmt.Errorf("no DICOM images in %s", dir)
	}

	sort.SliceStable(planes, func(i, j int) bool {
		if planes[i].instance != planes[j].instance {
			return planes[i].instance < planes[j].instance
		}
		return planes[i].name < planes[j].name
	})

	width, height := planes[0].width, planes[0].height
	vol := New(width, height, len(planes))
	vol.Spacing[0], vol.Spacing[1] = planes[0].spacing[0], planes[0].spacing[1]

	n := width * height
	for z, p := range planes {
		if p.width != width || p.height != height {
			return nil, fmt.Errorf("%s is %dx%d, series is %dx%d", p.name, p.width, p.height, width, height)
		}
		copy(vol.Voxels[z*n:(z+1)*n], p.data)
	}

	return vol, nil
}

func readPlane(ds dicom.Dataset) (dicomPlane, error) {
	elem, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return dicomPlane{}, fmt.Errorf("missing pixel data: %w", err)
	}

	info, ok := elem.Value.GetValue().(dicom.PixelDataInfo)
	if !ok || len(info.Frames) == 0 {
		return dicomPlane{}, fmt.Errorf("pixel data holds no frames")
	}

	img, err := info.Frames[0].GetImage()
	if err != nil {
		return dicomPlane{}, fmt.Errorf("decode frame: %w", err)
	}

	b := img.Bounds()
	plane := dicomPlane{
		instance: intValue(ds, tag.InstanceNumber),
		width:    b.Dx(),
		height:   b.Dy(),
		data:     make([]float32, b.Dx()*b.Dy()),
		spacing:  [2]float64{1, 1},
	}

	// PixelRepresentation 1 stores two's complement samples.
	signed := intValue(ds, tag.PixelRepresentation) == 1

	slope, intercept := 1.0, 0.0
	if v, ok := floatValue(ds, tag.RescaleSlope); ok && v != 0 {
		slope = v
	}
	if v, ok := floatValue(ds, tag.RescaleIntercept); ok {
		intercept = v
	}

	if elem, err := ds.FindElementByTag(tag.PixelSpacing); err == nil {
		if s, ok := elem.Value.GetValue().([]string); ok && len(s) == 2 {
			for i := range s {
				if v, err := strconv.ParseFloat(strings.TrimSpace(s[i]), 64); err == nil && v > 0 {
					plane.spacing[i] = v
				}
			}
		}
	}

	for y := 0; y < plane.height; y++ {
		for x := 0; x < plane.width; x++ {
			plane.data[y*plane.width+x] = float32(grayValue(img, b.Min.X+x, b.Min.Y+y, signed)*slope + intercept)
		}
	}

	return plane, nil
}

func grayValue(img image.Image, x, y int, signed bool) float64 {
	switch g := img.(type) {
	case *image.Gray16:
		return sample16(g.Gray16At(x, y).Y, signed)
	case *image.Gray:
		if signed {
			return float64(int8(g.GrayAt(x, y).Y))
		}
		return float64(g.GrayAt(x, y).Y)
	default:
		return sample16(color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y, signed)
	}
}

func sample16(v uint16, signed bool) float64 {
	if signed {
		return float64(int16(v))
	}
	return float64(v)
}

func intValue(ds dicom.Dataset, t tag.Tag) int {
	elem, err := ds.FindElementByTag(t)
	if err != nil {
		return 0
	}

	switch v := elem.Value.GetValue().(type) {
	case []int:
		if len(v) > 0 {
			return v[0]
		}
	case []string:
		if len(v) > 0 {
			n, _ := strconv.Atoi(strings.TrimSpace(v[0]))
			return n
		}
	}
	return 0
}

func floatValue(ds dicom.Dataset, t tag.Tag) (float64, bool) {
	elem, err := ds.FindElementByTag(t)
	if err != nil {
		return 0, false
	}

	s, ok := elem.Value.GetValue().([]string)
	if !ok || len(s) == 0 {
		return 0, false
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s[0]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
