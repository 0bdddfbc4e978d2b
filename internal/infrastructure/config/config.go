// Package config loads redline.yaml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/0xcro3dile/redline-go/internal/adapters/llm"
	"github.com/0xcro3dile/redline-go/internal/adapters/loader"
	"github.com/0xcro3dile/redline-go/internal/adapters/store"
	"github.com/0xcro3dile/redline-go/internal/domain/usecases"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "redline.yaml"

// Environment variables that override the file.
const (
	EnvAPIKey       = "GEMINI_API_KEY"
	EnvLegacyAPIKey = "VITE_GEMINI_API_KEY"
	EnvModel        = "REDLINE_MODEL"
	EnvAddr         = "REDLINE_ADDR"
)

type Config struct {
	Gemini  GeminiConfig  `yaml:"gemini"`
	Server  ServerConfig  `yaml:"server"`
	Loader  LoaderConfig  `yaml:"loader"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

type GeminiConfig struct {
	APIKey      string   `yaml:"api_key"`
	Model       string   `yaml:"model"`
	BaseURL     string   `yaml:"base_url"`
	APIVersion  string   `yaml:"api_version"`
	Temperature float32  `yaml:"temperature"`
	Timeout     Duration `yaml:"timeout"`
}

type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	MaxUploadBytes  int64    `yaml:"max_upload_bytes"`
	AnalysisTimeout Duration `yaml:"analysis_timeout"`
	MaxAnalyses     int      `yaml:"max_analyses"`
}

type LoaderConfig struct {
	MaxFileBytes int64 `yaml:"max_file_bytes"`
}

type WatchConfig struct {
	Debounce  Duration `yaml:"debounce"`
	OutputDir string   `yaml:"output_dir"`
	Formats   []string `yaml:"formats"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration reads Go duration strings such as "90s" or "10m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load reads path, applies environment overrides, then defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvAPIKey); v != "" {
		c.Gemini.APIKey = v
	} else if v := getenv(EnvLegacyAPIKey); v != "" && c.Gemini.APIKey == "" {
		c.Gemini.APIKey = v
	}
	if v := getenv(EnvModel); v != "" {
		c.Gemini.Model = v
	}
	if v := getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
}

func (c *Config) applyDefaults() {
	if c.Gemini.Model == "" {
		c.Gemini.Model = llm.DefaultModel
	}
	if c.Gemini.Temperature <= 0 {
		c.Gemini.Temperature = llm.DefaultTemperature
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = usecases.DefaultMaxUploadBytes
	}
	if c.Server.AnalysisTimeout <= 0 {
		c.Server.AnalysisTimeout = Duration(usecases.DefaultAnalysisTimeout)
	}
	if c.Server.MaxAnalyses <= 0 {
		c.Server.MaxAnalyses = store.DefaultCapacity
	}
	if c.Loader.MaxFileBytes <= 0 {
		c.Loader.MaxFileBytes = loader.DefaultMaxFileBytes
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = Duration(usecases.DefaultDebounce)
	}
	if c.Watch.OutputDir == "" {
		c.Watch.OutputDir = "./reports"
	}
	if len(c.Watch.Formats) == 0 {
		c.Watch.Formats = []string{"json", "md"}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}
