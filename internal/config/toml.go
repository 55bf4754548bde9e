// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/tunecurve/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Run    RunConfig      `toml:"run"`
	Ranges RangesConfig   `toml:"ranges"`
	Curve  map[string]int `toml:"curve"`
}

// RunConfig maps run-related settings.
type RunConfig struct {
	Workers   *int    `toml:"workers"`
	Format    *string `toml:"format"`
	AutoRange *bool   `toml:"auto-range"`
	Debug     *bool   `toml:"debug"`
	CurveFile *string `toml:"curve-file"`
	DB        *string `toml:"db"`
}

// RangesConfig maps the dense table bounds.
type RangesConfig struct {
	MinLevel    *int `toml:"min-level"`
	MaxLevel    *int `toml:"max-level"`
	MinAttempts *int `toml:"min-attempts"`
	MaxAttempts *int `toml:"max-attempts"`

	AutoMaxLevel    *int `toml:"auto-max-level"`
	AutoMaxAttempts *int `toml:"auto-max-attempts"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// ApplyRanges overlays configured bounds on base.
func (c RangesConfig) ApplyRanges(base model.Ranges) model.Ranges {
	if c.MinLevel != nil {
		base.MinLevel = *c.MinLevel
	}
	if c.MaxLevel != nil {
		base.MaxLevel = *c.MaxLevel
	}
	if c.MinAttempts != nil {
		base.MinAttempts = *c.MinAttempts
	}
	if c.MaxAttempts != nil {
		base.MaxAttempts = *c.MaxAttempts
	}
	return base
}

// ApplyLimits overlays the --auto-range caps on base.
func (c RangesConfig) ApplyLimits(base model.RangeLimits) model.RangeLimits {
	if c.AutoMaxLevel != nil {
		base.MaxLevel = *c.AutoMaxLevel
	}
	if c.AutoMaxAttempts != nil {
		base.MaxAttempts = *c.AutoMaxAttempts
	}
	return base
}

// CurveOrDefault returns the configured curve, or the built-in curve when
// the [curve] table is absent.
func (c FileConfig) CurveOrDefault() (model.Curve, error) {
	if len(c.Curve) == 0 {
		return model.DefaultCurve(), nil
	}
	curve, err := curveFromStringKeys(c.Curve)
	if err != nil {
		return nil, fmt.Errorf("invalid [curve] table: %w", err)
	}
	return curve, nil
}
