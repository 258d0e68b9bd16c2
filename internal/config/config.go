// Package config loads chunkgraph settings from .chunkgraph/config.yaml.
//
// A missing file is not an error: Default() applies. Values present in the
// file override the defaults field by field, and the merged result is
// validated before use.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileName is the config file name inside the .chunkgraph directory.
const FileName = "config.yaml"

// Config is the full chunkgraph configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Query   QueryConfig   `yaml:"query"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// StoreConfig selects the graph store backend.
type StoreConfig struct {
	// Backend is one of memory, sqlite, badger.
	Backend string `yaml:"backend" validate:"required,oneof=memory sqlite badger"`
	// Path overrides the backend's default location under .chunkgraph.
	Path string `yaml:"path,omitempty"`
}

// QueryConfig holds defaults for query operations.
type QueryConfig struct {
	MaxDepth     int `yaml:"max_depth" validate:"gte=0,lte=64"`
	NearestLimit int `yaml:"nearest_limit" validate:"gte=1"`
	CompareCount int `yaml:"compare_count" validate:"gte=1,lte=50"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// MetricsConfig controls Prometheus textfile output.
type MetricsConfig struct {
	// Textfile, when set, receives the metrics registry after each command.
	Textfile string `yaml:"textfile,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store: StoreConfig{Backend: "sqlite"},
		Query: QueryConfig{
			MaxDepth:     3,
			NearestLimit: 30,
			CompareCount: 5,
		},
		Log: LogConfig{Level: "warn", Format: "console"},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field constraint and reports all failures at once.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.ActualTag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Path returns the config file location for a .chunkgraph directory.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load reads the config file at path over Default() and validates it. A
// missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Write saves cfg as YAML to path, creating or replacing the file.
func Write(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	header := []byte("# chunkgraph configuration\n# Backends: memory, sqlite, badger\n")
	if err := os.WriteFile(path, append(header, data...), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
