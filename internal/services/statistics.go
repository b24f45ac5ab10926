package services

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"brats-viewer/internal/config"
	"brats-viewer/internal/logger"
	"brats-viewer/internal/opencv/conversion"
	"brats-viewer/internal/opencv/safe"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Artifact names the statistics script writes into its output directory.
const (
	ValuesFile     = "valores.csv"
	BoxplotFile    = "boxplot.png"
	HistogramFile  = "histograma.png"
	BasicStatsFile = "estadisticos_basicos.png"
	ReportFile     = "reporte_estadisticas.txt"
)

// Thumbnail bounds for artifact images.
const (
	ArtifactWidth  = 600
	ArtifactHeight = 400
)

var (
	ErrNoMask          = errors.New("no mask slice")
	ErrNoMaskedPixels  = errors.New("mask selects no pixels")
	ErrProcessTimeout  = errors.New("statistics process timed out")
	ErrProcessNotFound = errors.New("statistics process could not start")
)

// ProcessError reports a failed statistics script run. Stage is "start",
// "timeout" or "exit".
type ProcessError struct {
	Stage  string
	Stderr string
	Err    error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("statistics script failed (%s): %v", e.Stage, e.Err)
	if e.Stderr != "" {
		msg += ": " + strings.TrimSpace(e.Stderr)
	}
	return msg
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// MaskedValues returns the gray values of slice where mask is non-zero, in
// row-major order. Colour inputs are converted to gray first.
func MaskedValues(slice, mask *safe.Mat) ([]int, error) {
	if mask.Empty() {
		return nil, ErrNoMask
	}
	if err := safe.ValidateSameSize(slice, mask, "masked values"); err != nil {
		return nil, err
	}

	gray, err := conversion.ConvertToGrayscale(slice)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	grayMask, err := conversion.ConvertToGrayscale(mask)
	if err != nil {
		return nil, err
	}
	defer grayMask.Close()

	pixels := gray.Bytes()
	var values []int
	for i, m := range grayMask.Bytes() {
		if m > 0 {
			values = append(values, int(pixels[i]))
		}
	}
	return values, nil
}

// WriteValues writes one integer per line.
func WriteValues(path string, values []int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, v := range values {
		w.WriteString(strconv.Itoa(v))
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Summary holds the five-number summary, mean, IQR and the count of values
// beyond 1.5 IQR from the quartiles.
type Summary struct {
	Count    int
	Min      float64
	Q1       float64
	Median   float64
	Q3       float64
	Max      float64
	Mean     float64
	IQR      float64
	Outliers int
}

func Summarize(values []int) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, ErrNoMaskedPixels
	}

	x := make([]float64, len(values))
	for i, v := range values {
		x[i] = float64(v)
	}
	sort.Float64s(x)

	s := Summary{
		Count:  len(x),
		Min:    floats.Min(x),
		Max:    floats.Max(x),
		Mean:   stat.Mean(x, nil),
		Q1:     quantile(x, 0.25),
		Median: quantile(x, 0.5),
		Q3:     quantile(x, 0.75),
	}
	s.IQR = s.Q3 - s.Q1

	low, high := s.Q1-1.5*s.IQR, s.Q3+1.5*s.IQR
	for _, v := range x {
		if v < low || v > high {
			s.Outliers++
		}
	}
	return s, nil
}

// quantile interpolates linearly between the order statistics around
// (n-1)p, the rule the plotting script's dataframe uses. sorted must be
// ascending and non-empty.
func quantile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	hi := math.Ceil(h)
	return sorted[int(lo)] + (h-lo)*(sorted[int(hi)]-sorted[int(lo)])
}

// Report renders the summary in the layout of the script's text report.
func (s Summary) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Minimo: %.2f\n", s.Min)
	fmt.Fprintf(&b, "Q1 (25%%): %.2f\n", s.Q1)
	fmt.Fprintf(&b, "Mediana (50%%): %.2f\n", s.Median)
	fmt.Fprintf(&b, "Q3 (75%%): %.2f\n", s.Q3)
	fmt.Fprintf(&b, "Maximo: %.2f\n", s.Max)
	fmt.Fprintf(&b, "Media: %.2f\n", s.Mean)
	fmt.Fprintf(&b, "IQR: %.2f\n", s.IQR)
	fmt.Fprintf(&b, "Outliers (1.5×IQR): %d\n", s.Outliers)
	return b.String()
}

// Runner starts the statistics process.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// StatisticsResult lists what one run produced. Missing artifacts have an
// empty path.
type StatisticsResult struct {
	Dir       string
	Values    string
	Summary   Summary
	Report    string
	Boxplot   string
	Histogram string
	Basics    string
	Output    string
}

// Artifact is one plot of a statistics run.
type Artifact struct {
	Title string
	Path  string
}

// Images returns the plots that exist, in the order they are shown.
func (r *StatisticsResult) Images() []Artifact {
	var out []Artifact
	for _, a := range []Artifact{
		{Title: "Boxplot", Path: r.Boxplot},
		{Title: "Histograma", Path: r.Histogram},
		{Title: "Básicos", Path: r.Basics},
	} {
		if a.Path != "" {
			out = append(out, a)
		}
	}
	return out
}

type StatisticsService struct {
	cfg    config.Statistics
	runner Runner
	log    logger.Logger
}

func NewStatisticsService(cfg config.Statistics, runner Runner, log logger.Logger) *StatisticsService {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &StatisticsService{cfg: cfg, runner: runner, log: log}
}

// Compute writes the masked values of slice, runs the script over them and
// collects its artifacts. When the script fails the result still carries the
// in-process summary, and the error is a *ProcessError.
func (s *StatisticsService) Compute(ctx context.Context, slice, mask *safe.Mat) (*StatisticsResult, error) {
	values, err := MaskedValues(slice, mask)
	if err != nil {
		return nil, err
	}

	summary, err := Summarize(values)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.cfg.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create statistics directory: %w", err)
	}
	dir, err := os.MkdirTemp(s.cfg.TempDir, "stats-")
	if err != nil {
		return nil, fmt.Errorf("create statistics directory: %w", err)
	}

	result := &StatisticsResult{
		Dir:     dir,
		Values:  filepath.Join(dir, ValuesFile),
		Summary: summary,
		Report:  summary.Report(),
	}

	if err := WriteValues(result.Values, values); err != nil {
		return nil, err
	}

	s.log.Info("StatisticsService", "running statistics script", map[string]interface{}{
		"script": s.cfg.Script,
		"values": len(values),
		"dir":    dir,
	})

	runErr := s.run(ctx, result)
	s.collect(result)

	if runErr != nil {
		s.log.Error("StatisticsService", runErr, map[string]interface{}{"dir": dir})
		return result, runErr
	}
	return result, nil
}

func (s *StatisticsService) run(ctx context.Context, result *StatisticsResult) error {
	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultConfig().Statistics.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout, stderr, err := s.runner.Run(ctx, s.cfg.Python, s.cfg.Script, result.Values, result.Dir)
	result.Output = strings.TrimSpace(string(stdout))
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &ProcessError{Stage: "timeout", Err: ErrProcessTimeout}
	case errors.As(err, &exitErr):
		return &ProcessError{Stage: "exit", Stderr: string(stderr), Err: err}
	default:
		return &ProcessError{Stage: "start", Err: fmt.Errorf("%w: %v", ErrProcessNotFound, err)}
	}
}

func (s *StatisticsService) collect(result *StatisticsResult) {
	exists := func(name string) string {
		path := filepath.Join(result.Dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
		return ""
	}

	result.Boxplot = exists(BoxplotFile)
	result.Histogram = exists(HistogramFile)
	result.Basics = exists(BasicStatsFile)

	if path := exists(ReportFile); path != "" {
		if data, err := os.ReadFile(path); err == nil && len(bytes.TrimSpace(data)) > 0 {
			result.Report = string(data)
		}
	}
}

// LoadArtifact decodes a PNG artifact and scales it to fit the result view.
func LoadArtifact(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return conversion.Thumbnail(img, ArtifactWidth, ArtifactHeight)
}
