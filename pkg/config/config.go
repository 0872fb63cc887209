// Package config provides configuration loading and management for simindstir.
// It handles loading configuration from YAML files, applies SIMINDSTIR_*
// environment overrides and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variable overrides, e.g.
// SIMINDSTIR_PROCESSING_NUM_WORKERS
const EnvPrefix = "SIMINDSTIR"

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// NumWorkers is the number of goroutines used for projection
		// arithmetic and batch conversion
		NumWorkers int `yaml:"numWorkers" envconfig:"NUM_WORKERS" validate:"min=1"`
	} `yaml:"processing" envconfig:"PROCESSING"`

	// Conversion parameters for SIMIND to STIR headers
	Conversion struct {
		// InputExt is the extension of SIMIND headers
		InputExt string `yaml:"inputExt" envconfig:"INPUT_EXT" validate:"required,startswith=."`

		// OutputExt is the extension of the STIR headers written
		OutputExt string `yaml:"outputExt" envconfig:"OUTPUT_EXT" validate:"required,startswith=.,nefield=InputExt"`

		// StartAngle is written to the start angle tag
		StartAngle string `yaml:"startAngle" envconfig:"START_ANGLE" validate:"required,numeric"`

		// RadiusScale converts contour radii to header units
		RadiusScale float64 `yaml:"radiusScale" envconfig:"RADIUS_SCALE" validate:"gt=0"`

		// CircularOrbit is "fail" or "skip-radii"
		CircularOrbit string `yaml:"circularOrbit" envconfig:"CIRCULAR_ORBIT" validate:"oneof=fail skip-radii"`
	} `yaml:"conversion" envconfig:"CONVERSION"`

	// Noise parameters
	Noise struct {
		// Seed of the Poisson noise generator, 0 seeds from the clock
		Seed uint64 `yaml:"seed" envconfig:"SEED"`
	} `yaml:"noise" envconfig:"NOISE"`

	// Logging parameters
	Logging struct {
		// Level is debug, info, warn or error
		Level string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`

		// Format is text or json
		Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=text json"`
	} `yaml:"logging" envconfig:"LOGGING"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.NumWorkers = runtime.NumCPU()

	cfg.Conversion.InputExt = ".h00"
	cfg.Conversion.OutputExt = ".hs"
	cfg.Conversion.StartAngle = "180"
	cfg.Conversion.RadiusScale = 10
	cfg.Conversion.CircularOrbit = "fail"

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"

	return cfg
}

// LoadConfig loads configuration from a YAML file, then applies environment
// overrides and validates the result.
// If the file doesn't exist, the defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("error reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error reading environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
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

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
