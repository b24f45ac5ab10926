package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"brats-viewer/internal/config"
	"brats-viewer/internal/logger"
	"brats-viewer/internal/opencv/safe"
	"brats-viewer/internal/processing/effects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

type recordingSink struct {
	sizes  [][3]int
	failAt int
	closed bool
}

func (r *recordingSink) WriteFrame(frame *safe.Mat) error {
	if r.failAt > 0 && len(r.sizes) == r.failAt {
		return errors.New("disk full")
	}
	r.sizes = append(r.sizes, [3]int{frame.Cols(), frame.Rows(), frame.Channels()})
	return nil
}

func (r *recordingSink) Close() error {
	r.closed = true
	return nil
}

func grayFrame(t *testing.T, width, height int) *safe.Mat {
	t.Helper()
	data := make([]byte, width*height)
	for i := range data {
		data[i] = byte(i)
	}
	m, err := safe.FromBytes(height, width, gocv.MatTypeCV8UC1, data)
	require.NoError(t, err)
	return m
}

func TestCenteredRange(t *testing.T) {
	tests := []struct {
		current, count, depth int
		begin, end            int
		ok                    bool
	}{
		{current: 50, count: 30, depth: 155, begin: 35, end: 65, ok: true},
		{current: 5, count: 30, depth: 155, begin: 0, end: 20, ok: true},
		{current: 150, count: 30, depth: 155, begin: 135, end: 154, ok: true},
		{current: 10, count: 1, depth: 155, begin: 10, end: 10, ok: true},
		{current: 0, count: 0, depth: 155},
		{current: 0, count: 10, depth: 0},
		{current: 300, count: 10, depth: 155},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%d_%d", tt.current, tt.count, tt.depth), func(t *testing.T) {
			begin, end, ok := CenteredRange(tt.current, tt.count, tt.depth)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.begin, begin)
				assert.Equal(t, tt.end, end)
			}
		})
	}
}

func TestExportSequenceResizesToFirstFrame(t *testing.T) {
	source := func(index int) (*safe.Mat, error) {
		if index == 55 {
			return grayFrame(t, 8, 6), nil
		}
		return grayFrame(t, 16, 12), nil
	}
	sink := &recordingSink{}

	written, err := ExportSequence(source, 40, 70, sink)
	require.NoError(t, err)
	assert.Equal(t, 31, written)
	require.Len(t, sink.sizes, 31)
	for i, size := range sink.sizes {
		assert.Equal(t, [3]int{16, 12, 3}, size, "frame %d", i)
	}
}

func TestExportSequenceFailsFast(t *testing.T) {
	calls := 0
	source := func(index int) (*safe.Mat, error) {
		calls++
		if index == 45 {
			return nil, errors.New("unreadable slice")
		}
		return grayFrame(t, 4, 4), nil
	}
	sink := &recordingSink{}

	written, err := ExportSequence(source, 40, 70, sink)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame 45")
	assert.Equal(t, 5, written)
	assert.Len(t, sink.sizes, 5)
	assert.Equal(t, 6, calls)
}

func TestExportSequenceEmptyFrameAborts(t *testing.T) {
	source := func(index int) (*safe.Mat, error) {
		if index == 2 {
			return nil, nil
		}
		return grayFrame(t, 4, 4), nil
	}

	written, err := ExportSequence(source, 0, 5, &recordingSink{})
	assert.ErrorIs(t, err, ErrEmptyFrame)
	assert.Equal(t, 2, written)
}

func TestExportSequenceSinkFailure(t *testing.T) {
	source := func(index int) (*safe.Mat, error) { return grayFrame(t, 4, 4), nil }

	written, err := ExportSequence(source, 0, 9, &recordingSink{failAt: 3})
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 3, written)

	_, err = ExportSequence(source, 5, 4, &recordingSink{})
	assert.Error(t, err)
}

func TestPNGSequenceSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	sink, err := NewPNGSequenceSink(dir)
	require.NoError(t, err)

	source := func(index int) (*safe.Mat, error) { return grayFrame(t, 10, 7), nil }
	written, err := ExportSequence(source, 3, 5, sink)
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	assert.Equal(t, 3, written)
	assert.Equal(t, 3, sink.Frames())

	for i := 0; i < 3; i++ {
		img := gocv.IMRead(filepath.Join(dir, fmt.Sprintf("frame_%d.png", i)), gocv.IMReadUnchanged)
		require.False(t, img.Empty(), "frame %d", i)
		assert.Equal(t, 10, img.Cols())
		assert.Equal(t, 7, img.Rows())
		assert.Equal(t, 3, img.Channels())
		img.Close()
	}
}

func TestVideoSinkRejectsEmptyFrame(t *testing.T) {
	sink := NewVideoSink(filepath.Join(t.TempDir(), "out.mp4"), "mp4v", 10)
	assert.Error(t, sink.WriteFrame(nil))
	assert.Zero(t, sink.Frames())
	assert.NoError(t, sink.Close())
}

func newExportService(t *testing.T) (*ExportService, string) {
	t.Helper()

	cfg := config.DefaultConfig().Export
	cfg.OutputDir = filepath.Join(t.TempDir(), "output")
	return NewExportService(cfg, newSliceService(t, true), logger.Nop()), cfg.OutputDir
}

func TestSaveSlice(t *testing.T) {
	svc, dir := newExportService(t)

	img := grayFrame(t, 9, 5)
	defer img.Close()

	path, err := svc.SaveSlice(img, 60)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "slice_60.png"), path)

	back := gocv.IMRead(path, gocv.IMReadGrayScale)
	defer back.Close()
	assert.Equal(t, img.Bytes(), back.ToBytes())

	_, err = svc.SaveSlice(nil, 61)
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "slice_61.png"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExportFramesFromVolume(t *testing.T) {
	svc, _ := newExportService(t)

	dir, frames, err := svc.ExportFrames(40, 70, effects.GaussianFilter, true)
	require.NoError(t, err)
	assert.Equal(t, 31, frames)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 31)
}

func TestExportFramesOutOfRangeAborts(t *testing.T) {
	svc, _ := newExportService(t)

	_, frames, err := svc.ExportFrames(150, 160, effects.None, false)
	require.Error(t, err)
	assert.Equal(t, 5, frames)
}
