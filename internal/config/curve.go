package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/tunecurve/internal/model"
)

type yamlCurveFile struct {
	Levels map[int]int `yaml:"levels"`
}

type tomlCurveFile struct {
	Levels map[string]int `toml:"levels"`
}

// LoadCurveFile reads a saw-tooth curve from a YAML (.yaml, .yml) or TOML
// (.toml) file with a top-level "levels" mapping of level to target.
func LoadCurveFile(path string) (model.Curve, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curve file: %w", err)
	}
	var curve model.Curve
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		var f yamlCurveFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to decode curve file: %w", err)
		}
		curve = model.Curve(f.Levels)
	case ".toml":
		var f tomlCurveFile
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, fmt.Errorf("failed to decode curve file: %w", err)
		}
		curve, err = curveFromStringKeys(f.Levels)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported curve file extension %q (want .yaml, .yml or .toml)", ext)
	}
	if err := curve.Validate(); err != nil {
		return nil, fmt.Errorf("invalid curve file %s: %w", path, err)
	}
	return curve, nil
}

func curveFromStringKeys(levels map[string]int) (model.Curve, error) {
	curve := make(model.Curve, len(levels))
	keys := make(map[int]string, len(levels))
	for key, target := range levels {
		level, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("level %q is not an integer", key)
		}
		if prev, ok := keys[level]; ok {
			first, second := prev, key
			if second < first {
				first, second = second, first
			}
			return nil, fmt.Errorf("level %d is defined twice (%q and %q)", level, first, second)
		}
		keys[level] = key
		curve[level] = target
	}
	return curve, nil
}
