// Package config loads the settings shared by the command line and the
// desktop front-end.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/philipparndt/stepcolor/internal/logging"
	"github.com/philipparndt/stepcolor/internal/session"
	"github.com/philipparndt/stepcolor/pkg/classify"
	"github.com/philipparndt/stepcolor/pkg/orient"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// MinTolerance and MaxTolerance bound the angle tolerance in degrees
	MinTolerance = 1.0
	MaxTolerance = 45.0
)

// Config holds the processing and logging settings.
type Config struct {
	Orientation string         `koanf:"orientation"`
	Tolerance   float64        `koanf:"tolerance"`
	Suffix      string         `koanf:"suffix"`
	Workers     int            `koanf:"workers"`
	Log         logging.Config `koanf:"log"`
}

// Default returns the configuration used without a config file
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads a YAML configuration file. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("config file %s is not a regular file", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s too large: %d bytes (max %d)", path, info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Orientation == "" {
		cfg.Orientation = orient.LargestFaceDown.String()
	}
	if cfg.Tolerance == 0 {
		cfg.Tolerance = classify.DefaultTolerance
	}
	if cfg.Suffix == "" {
		cfg.Suffix = session.DefaultSuffix
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}

	defaults := logging.NewDefaultConfig()
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Format
	}
}

// Validate checks that all settings are usable
func (c *Config) Validate() error {
	if _, err := c.Criterion(); err != nil {
		return err
	}
	if c.Tolerance < MinTolerance || c.Tolerance > MaxTolerance {
		return fmt.Errorf("invalid tolerance: %g (must be %g-%g degrees)", c.Tolerance, MinTolerance, MaxTolerance)
	}
	if c.Workers < 1 {
		return fmt.Errorf("invalid workers: %d (must be at least 1)", c.Workers)
	}
	if c.Suffix == "" {
		return errors.New("output suffix must not be empty")
	}
	if strings.ContainsAny(c.Suffix, `/\`) {
		return fmt.Errorf("output suffix %q must not contain path separators", c.Suffix)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// Criterion returns the configured orientation strategy
func (c *Config) Criterion() (orient.Criterion, error) {
	return orient.ParseCriterion(c.Orientation)
}
