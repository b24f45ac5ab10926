package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"brats0", "brats2", "brats3"}, cfg.Catalog.IDs())
	assert.Equal(t, 10*time.Second, cfg.Statistics.Timeout)
	assert.Equal(t, 3, cfg.Effects.MorphKernel)

	ds, err := cfg.Catalog.Lookup("brats2")
	require.NoError(t, err)
	assert.Equal(t, "BraTS2021_00002_t1ce.nii.gz", filepath.Base(ds.Path(ModalityT1c)))
	assert.Equal(t, "BraTS2021_00002_seg.nii.gz", filepath.Base(ds.Seg))
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Export, cfg.Export)
}

func TestLoadConfigReplacesCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.yaml")
	data := []byte(`
catalog:
  synthetic:
    flair: /data/synthetic_flair.nii.gz
    seg: /data/synthetic_seg.nii.gz
viewer:
  dataset: synthetic
  modality: flair
statistics:
  timeout: 3s
export:
  fps: 5
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"synthetic"}, cfg.Catalog.IDs())
	assert.Equal(t, 3*time.Second, cfg.Statistics.Timeout)
	assert.Equal(t, 5.0, cfg.Export.FPS)
	assert.Equal(t, "mp4v", cfg.Export.Codec)
	assert.Equal(t, "", cfg.Catalog["synthetic"].Path(ModalityT2))
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("viewer:\n  dataset: brats9\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "unknown dataset")

	require.NoError(t, os.WriteFile(path, []byte("export:\n  codec: h264x\n"), 0o644))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "fourcc")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "viewer.yaml")
	cfg := DefaultConfig()
	cfg.Viewer.Modality = ModalityT2
	cfg.Effects.MorphKernel = 7

	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ModalityT2, loaded.Viewer.Modality)
	assert.Equal(t, 7, loaded.Effects.MorphKernel)
	assert.Equal(t, cfg.Catalog, loaded.Catalog)
	assert.Equal(t, cfg.Statistics.Timeout, loaded.Statistics.Timeout)
}
