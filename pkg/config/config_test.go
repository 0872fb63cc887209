package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, runtime.NumCPU(), cfg.Processing.NumWorkers)
	assert.Equal(t, ".h00", cfg.Conversion.InputExt)
	assert.Equal(t, ".hs", cfg.Conversion.OutputExt)
	assert.Equal(t, "180", cfg.Conversion.StartAngle)
	assert.Equal(t, 10.0, cfg.Conversion.RadiusScale)
	assert.Equal(t, "fail", cfg.Conversion.CircularOrbit)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simindstir.yaml")
	yml := `
processing:
  numWorkers: 3
conversion:
  circularOrbit: skip-radii
logging:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Processing.NumWorkers)
	assert.Equal(t, "skip-radii", cfg.Conversion.CircularOrbit)
	assert.Equal(t, "json", cfg.Logging.Format)
	// untouched keys keep their defaults
	assert.Equal(t, "180", cfg.Conversion.StartAngle)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SIMINDSTIR_PROCESSING_NUM_WORKERS", "5")
	t.Setenv("SIMINDSTIR_CONVERSION_START_ANGLE", "0")
	t.Setenv("SIMINDSTIR_NOISE_SEED", "42")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Processing.NumWorkers)
	assert.Equal(t, "0", cfg.Conversion.StartAngle)
	assert.Equal(t, uint64(42), cfg.Noise.Seed)
}

func TestLoadConfigInvalid(t *testing.T) {
	cases := map[string]string{
		"workers":   "processing:\n  numWorkers: 0\n",
		"orbit":     "conversion:\n  circularOrbit: guess\n",
		"scale":     "conversion:\n  radiusScale: -1\n",
		"extension": "conversion:\n  outputExt: .h00\n",
		"level":     "logging:\n  level: loud\n",
		"yaml":      "processing: [\n",
	}
	for name, yml := range cases {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte(yml), 0644))

		_, err := LoadConfig(path)
		assert.Error(t, err, name)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "simindstir.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}
