// Package config loads the viewer configuration, including the dataset catalog,
// from YAML and provides defaults for everything left unset.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Modality selects which catalog file is loaded as the standard volume.
type Modality string

const (
	ModalityFlair Modality = "flair"
	ModalityT1    Modality = "t1"
	ModalityT1c   Modality = "t1c"
	ModalityT2    Modality = "t2"
)

// Modalities lists the selectable modalities in display order.
func Modalities() []Modality {
	return []Modality{ModalityFlair, ModalityT1, ModalityT1c, ModalityT2}
}

// Dataset holds the files of one BraTS case.
type Dataset struct {
	Flair string `yaml:"flair"`
	T1    string `yaml:"t1"`
	T1c   string `yaml:"t1c"`
	T2    string `yaml:"t2"`
	Seg   string `yaml:"seg"`
}

// Path returns the file for modality m, or "" when the dataset has none.
func (d Dataset) Path(m Modality) string {
	switch m {
	case ModalityFlair:
		return d.Flair
	case ModalityT1:
		return d.T1
	case ModalityT1c:
		return d.T1c
	case ModalityT2:
		return d.T2
	default:
		return ""
	}
}

// Catalog maps a dataset identifier such as "brats0" to its files.
type Catalog map[string]Dataset

// IDs returns the catalog identifiers sorted.
func (c Catalog) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Lookup returns the dataset registered under id.
func (c Catalog) Lookup(id string) (Dataset, error) {
	ds, ok := c[id]
	if !ok {
		return Dataset{}, fmt.Errorf("unknown dataset %q", id)
	}
	return ds, nil
}

// Effects carries the parameters the effect dispatcher applies by default.
type Effects struct {
	Threshold         float64 `yaml:"threshold"`
	BrightnessDelta   float64 `yaml:"brightnessDelta"`
	MeanKernel        int     `yaml:"meanKernel"`
	GaussianKernel    int     `yaml:"gaussianKernel"`
	GaussianSigma     float64 `yaml:"gaussianSigma"`
	MedianKernel      int     `yaml:"medianKernel"`
	BilateralDiameter int     `yaml:"bilateralDiameter"`
	BilateralSigma    float64 `yaml:"bilateralSigma"`
	MorphKernel       int     `yaml:"morphKernel"`
}

// Viewer holds the selections the viewer starts with.
type Viewer struct {
	// Dataset preselected in the dataset picker, empty for none.
	Dataset   string   `yaml:"dataset"`
	Modality  Modality `yaml:"modality"`
	Effect    string   `yaml:"effect"`
	Highlight bool     `yaml:"highlight"`
}

type Export struct {
	OutputDir string  `yaml:"outputDir"`
	FPS       float64 `yaml:"fps"`
	Codec     string  `yaml:"codec"`
	VideoName string  `yaml:"videoName"`
	// Frames is the default size of the centered sequence window.
	Frames int `yaml:"frames"`
}

// Statistics configures the external plotting script.
type Statistics struct {
	Python  string        `yaml:"python"`
	Script  string        `yaml:"script"`
	Timeout time.Duration `yaml:"timeout"`
	TempDir string        `yaml:"tempDir"`
}

type Logging struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Config represents the application configuration loaded from YAML
type Config struct {
	Catalog    Catalog    `yaml:"catalog"`
	Viewer     Viewer     `yaml:"viewer"`
	Export     Export     `yaml:"export"`
	Statistics Statistics `yaml:"statistics"`
	Effects    Effects    `yaml:"effects"`
	Logging    Logging    `yaml:"logging"`
}

// DefaultCatalog is the catalog of the three BraTS2021 training cases the viewer
// was first used with.
func DefaultCatalog() Catalog {
	const root = "/media/visionups/JONNA_USB/BraTS2021_Training_Data"
	entry := func(id string) Dataset {
		base := filepath.Join(root, "BraTS2021_"+id, "BraTS2021_"+id)
		return Dataset{
			Flair: base + "_flair.nii.gz",
			T1:    base + "_t1.nii.gz",
			T1c:   base + "_t1ce.nii.gz",
			T2:    base + "_t2.nii.gz",
			Seg:   base + "_seg.nii.gz",
		}
	}
	return Catalog{
		"brats0": entry("00000"),
		"brats2": entry("00002"),
		"brats3": entry("00003"),
	}
}

// DefaultEffects returns the filter defaults. Morphology dispatches with a 3x3
// element while the filter functions themselves default to 5.
func DefaultEffects() Effects {
	return Effects{
		Threshold:         55.0,
		BrightnessDelta:   50.0,
		MeanKernel:        5,
		GaussianKernel:    5,
		GaussianSigma:     1.0,
		MedianKernel:      5,
		BilateralDiameter: 9,
		BilateralSigma:    75.0,
		MorphKernel:       3,
	}
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Catalog = DefaultCatalog()

	cfg.Viewer.Modality = ModalityFlair
	cfg.Viewer.Effect = "Ninguno"
	cfg.Viewer.Highlight = true

	cfg.Export.OutputDir = "output"
	cfg.Export.FPS = 10.0
	cfg.Export.Codec = "mp4v"
	cfg.Export.VideoName = "output_video.mp4"
	cfg.Export.Frames = 30

	cfg.Statistics.Python = "python3"
	cfg.Statistics.Script = filepath.Join("scripts", "main.py")
	cfg.Statistics.Timeout = 10 * time.Second
	cfg.Statistics.TempDir = filepath.Join(os.TempDir(), "brats-viewer")

	cfg.Effects = DefaultEffects()

	cfg.Logging.Level = "info"

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		return cfg, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// A catalog in the file replaces the built-in one instead of merging into it.
	var probe struct {
		Catalog Catalog `yaml:"catalog"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if probe.Catalog != nil {
		cfg.Catalog = nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Viewer.Dataset != "" {
		if _, err := c.Catalog.Lookup(c.Viewer.Dataset); err != nil {
			return fmt.Errorf("viewer.dataset: %w", err)
		}
	}

	switch c.Viewer.Modality {
	case ModalityFlair, ModalityT1, ModalityT1c, ModalityT2:
	default:
		return fmt.Errorf("viewer.modality: unknown modality %q", c.Viewer.Modality)
	}

	if c.Export.FPS <= 0 {
		return fmt.Errorf("export.fps must be positive, got %g", c.Export.FPS)
	}
	if len(c.Export.Codec) != 4 {
		return fmt.Errorf("export.codec must be a fourcc, got %q", c.Export.Codec)
	}
	if c.Export.Frames < 1 {
		return fmt.Errorf("export.frames must be at least 1, got %d", c.Export.Frames)
	}
	if c.Statistics.Timeout <= 0 {
		return fmt.Errorf("statistics.timeout must be positive")
	}

	return nil
}
