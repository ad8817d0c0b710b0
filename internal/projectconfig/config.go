// Package projectconfig provides the ProjectConfig struct and loader for
// .promptbench.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default values for project configuration. These are the single source of
// truth — New() references them and no other code should duplicate them.
const (
	DefaultDatabasePath = "benchmark_results/results.db"

	DefaultJudgeModel       = "gpt-4o"
	DefaultJudgeTemperature = 0.3

	DefaultServerPort = 8000

	DefaultQualityWeight = 0.60
	DefaultSpeedWeight   = 0.30
	DefaultCostWeight    = 0.10
)

// StorageConfig holds database settings.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path,omitempty"`
}

// JudgeConfig holds AI evaluation settings. The API key itself comes from
// the OPENAI_API_KEY environment variable, never from the config file.
type JudgeConfig struct {
	Model       string   `yaml:"model,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
}

// ServerConfig holds API server settings.
type ServerConfig struct {
	Port           int      `yaml:"port,omitempty"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// WeightsConfig holds the default recommendation weight split.
type WeightsConfig struct {
	Quality *float64 `yaml:"quality,omitempty"`
	Speed   *float64 `yaml:"speed,omitempty"`
	Cost    *float64 `yaml:"cost,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from
// .promptbench.yaml.
type ProjectConfig struct {
	Storage StorageConfig `yaml:"storage,omitempty"`
	Judge   JudgeConfig   `yaml:"judge,omitempty"`
	Server  ServerConfig  `yaml:"server,omitempty"`
	Weights WeightsConfig `yaml:"weights,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Storage: StorageConfig{
			DatabasePath: DefaultDatabasePath,
		},
		Judge: JudgeConfig{
			Model:       DefaultJudgeModel,
			Temperature: floatPtr(DefaultJudgeTemperature),
		},
		Server: ServerConfig{
			Port: DefaultServerPort,
		},
		Weights: WeightsConfig{
			Quality: floatPtr(DefaultQualityWeight),
			Speed:   floatPtr(DefaultSpeedWeight),
			Cost:    floatPtr(DefaultCostWeight),
		},
	}
}

// Load finds .promptbench.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // no file found → return defaults
		}
		return nil, fmt.Errorf("loading .promptbench.yaml: %w", err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing .promptbench.yaml: %w", err)
	}

	mergeConfig(cfg, &fileCfg)
	return cfg, nil
}

// findConfigFile walks up from dir looking for .promptbench.yaml (max 10
// levels). Returns os.ErrNotExist if no config file is found. Propagates
// real I/O errors (e.g. permission denied) instead of silently swallowing
// them.
func findConfigFile(dir string) ([]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, ".promptbench.yaml")
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	if src.Storage.DatabasePath != "" {
		dst.Storage.DatabasePath = src.Storage.DatabasePath
	}

	if src.Judge.Model != "" {
		dst.Judge.Model = src.Judge.Model
	}
	if src.Judge.Temperature != nil {
		dst.Judge.Temperature = src.Judge.Temperature
	}

	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	if src.Server.AllowedOrigins != nil {
		dst.Server.AllowedOrigins = src.Server.AllowedOrigins
	}

	if src.Weights.Quality != nil {
		dst.Weights.Quality = src.Weights.Quality
	}
	if src.Weights.Speed != nil {
		dst.Weights.Speed = src.Weights.Speed
	}
	if src.Weights.Cost != nil {
		dst.Weights.Cost = src.Weights.Cost
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
