package services

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"brats-viewer/internal/config"
	"brats-viewer/internal/logger"
	"brats-viewer/internal/opencv/conversion"
	"brats-viewer/internal/opencv/safe"
	"brats-viewer/internal/processing/effects"

	"gocv.io/x/gocv"
)

var ErrEmptyFrame = errors.New("empty frame")

// FrameSink receives the frames of one exported sequence, in index order.
type FrameSink interface {
	WriteFrame(frame *safe.Mat) error
	Close() error
}

// FrameSource renders the frame for a slice index. The caller owns the result.
type FrameSource func(index int) (*safe.Mat, error)

// CenteredRange returns the inclusive index range of count slices centred on
// current, clipped to [0, depth-1]. ok is false when nothing remains.
func CenteredRange(current, count, depth int) (begin, end int, ok bool) {
	if depth <= 0 || count <= 0 {
		return 0, 0, false
	}

	begin = max(0, current-count/2)
	end = min(depth-1, current+count/2)
	if begin > end {
		return 0, 0, false
	}
	return begin, end, true
}

// ExportSequence writes frames begin..end (inclusive) to sink. Every frame is
// forced to BGR and to the size of the first frame. The first failing frame
// aborts the export; the count of frames already written is returned with the
// error.
func ExportSequence(source FrameSource, begin, end int, sink FrameSink) (int, error) {
	if end < begin {
		return 0, fmt.Errorf("invalid range [%d, %d]", begin, end)
	}

	var size image.Point
	written := 0
	for index := begin; index <= end; index++ {
		frame, err := source(index)
		if err != nil {
			return written, fmt.Errorf("frame %d: %w", index, err)
		}

		normalized, err := normalizeFrame(frame, &size)
		frame.Close()
		if err != nil {
			return written, fmt.Errorf("frame %d: %w", index, err)
		}

		err = sink.WriteFrame(normalized)
		normalized.Close()
		if err != nil {
			return written, fmt.Errorf("frame %d: %w", index, err)
		}
		written++
	}

	return written, nil
}

// normalizeFrame returns a BGR copy of frame at *size, setting *size from the
// first frame it sees.
func normalizeFrame(frame *safe.Mat, size *image.Point) (*safe.Mat, error) {
	if frame.Empty() {
		return nil, ErrEmptyFrame
	}

	bgr, err := conversion.ConvertToBGR(frame)
	if err != nil {
		return nil, err
	}

	if size.X == 0 {
		*size = image.Point{X: bgr.Cols(), Y: bgr.Rows()}
		return bgr, nil
	}
	if bgr.Cols() == size.X && bgr.Rows() == size.Y {
		return bgr, nil
	}

	defer bgr.Close()
	return conversion.ResizeMat(bgr, size.X, size.Y, gocv.InterpolationLinear)
}

// VideoSink encodes frames into a video file. The writer is opened on the
// first frame, once the frame size is known.
type VideoSink struct {
	path   string
	codec  string
	fps    float64
	writer *gocv.VideoWriter
	frames int
}

func NewVideoSink(path, codec string, fps float64) *VideoSink {
	return &VideoSink{path: path, codec: codec, fps: fps}
}

func (v *VideoSink) WriteFrame(frame *safe.Mat) error {
	if err := safe.ValidateMatForOperation(frame, "video frame"); err != nil {
		return err
	}

	if v.writer == nil {
		writer, err := gocv.VideoWriterFile(v.path, v.codec, v.fps, frame.Cols(), frame.Rows(), true)
		if err != nil {
			return fmt.Errorf("open video writer %s: %w", v.path, err)
		}
		if !writer.IsOpened() {
			writer.Close()
			return fmt.Errorf("video writer %s did not open (codec %s)", v.path, v.codec)
		}
		v.writer = writer
	}

	if err := v.writer.Write(frame.GetMat()); err != nil {
		return fmt.Errorf("write video frame: %w", err)
	}
	v.frames++
	return nil
}

func (v *VideoSink) Frames() int {
	return v.frames
}

func (v *VideoSink) Close() error {
	if v.writer == nil {
		return nil
	}
	err := v.writer.Close()
	v.writer = nil
	return err
}

// PNGSequenceSink writes frame_<n>.png files, n counting from zero.
type PNGSequenceSink struct {
	dir    string
	frames int
}

func NewPNGSequenceSink(dir string) (*PNGSequenceSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create frame directory: %w", err)
	}
	return &PNGSequenceSink{dir: dir}, nil
}

func (p *PNGSequenceSink) WriteFrame(frame *safe.Mat) error {
	path := filepath.Join(p.dir, fmt.Sprintf("frame_%d.png", p.frames))
	if err := writePNG(path, frame); err != nil {
		return err
	}
	p.frames++
	return nil
}

func (p *PNGSequenceSink) Frames() int {
	return p.frames
}

func (p *PNGSequenceSink) Close() error {
	return nil
}

func writePNG(path string, img *safe.Mat) error {
	if err := safe.ValidateMatForOperation(img, "PNG export"); err != nil {
		return err
	}
	if ok := gocv.IMWrite(path, img.GetMat()); !ok {
		return fmt.Errorf("failed to write %s", path)
	}
	return nil
}

// ExportService writes slices and slice ranges into the configured output
// directory.
type ExportService struct {
	cfg    config.Export
	slices *SliceService
	log    logger.Logger
}

func NewExportService(cfg config.Export, slices *SliceService, log logger.Logger) *ExportService {
	return &ExportService{cfg: cfg, slices: slices, log: log}
}

func (e *ExportService) outputDir() (string, error) {
	dir := e.cfg.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return dir, nil
}

// SaveSlice writes img as slice_<index>.png and returns the path.
func (e *ExportService) SaveSlice(img *safe.Mat, index int) (string, error) {
	dir, err := e.outputDir()
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("slice_%d.png", index))
	if err := writePNG(path, img); err != nil {
		e.log.Error("ExportService", err, map[string]interface{}{"index": index})
		return "", err
	}

	e.log.Info("ExportService", "slice saved", map[string]interface{}{"path": path, "index": index})
	return path, nil
}

func (e *ExportService) frameSource(effect effects.Name, highlightOn bool) FrameSource {
	return func(index int) (*safe.Mat, error) {
		return e.slices.Frame(index, effect, highlightOn)
	}
}

// ExportVideo encodes slices begin..end with the current effect settings.
func (e *ExportService) ExportVideo(begin, end int, effect effects.Name, highlightOn bool) (string, int, error) {
	dir, err := e.outputDir()
	if err != nil {
		return "", 0, err
	}

	path := filepath.Join(dir, e.cfg.VideoName)
	sink := NewVideoSink(path, e.cfg.Codec, e.cfg.FPS)

	frames, err := ExportSequence(e.frameSource(effect, highlightOn), begin, end, sink)
	if closeErr := sink.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close video: %w", closeErr)
	}

	fields := map[string]interface{}{
		"path":   path,
		"begin":  begin,
		"end":    end,
		"frames": frames,
		"effect": string(effect),
	}
	if err != nil {
		e.log.Error("ExportService", err, fields)
		return path, frames, err
	}

	e.log.Info("ExportService", "video exported", fields)
	return path, frames, nil
}

// ExportFrames writes slices begin..end as a PNG sequence into a subdirectory
// of the output directory.
func (e *ExportService) ExportFrames(begin, end int, effect effects.Name, highlightOn bool) (string, int, error) {
	base, err := e.outputDir()
	if err != nil {
		return "", 0, err
	}

	dir := filepath.Join(base, fmt.Sprintf("frames_%d_%d", begin, end))
	sink, err := NewPNGSequenceSink(dir)
	if err != nil {
		return "", 0, err
	}

	frames, err := ExportSequence(e.frameSource(effect, highlightOn), begin, end, sink)
	fields := map[string]interface{}{"dir": dir, "frames": frames}
	if err != nil {
		e.log.Error("ExportService", err, fields)
		return dir, frames, err
	}

	e.log.Info("ExportService", "frames exported", fields)
	return dir, frames, nil
}
