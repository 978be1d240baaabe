// Package config holds runtime constants and the xcvm.yaml runtime
// configuration.
package config

import (
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config represents xcvm.yaml.
type Config struct {
	// MemoryBudget caps the bytes held by all registers, e.g. "512MiB".
	// Empty means unlimited.
	MemoryBudget string `yaml:"memory_budget,omitempty"`

	// Trace logs every executed instruction with its operand registers.
	Trace bool `yaml:"trace,omitempty"`

	// DebugValues renders full array contents in traces and dumps instead
	// of shapes.
	DebugValues bool `yaml:"debug_values,omitempty"`

	// LogLevel is a logrus level name. Defaults to "info".
	LogLevel string `yaml:"log_level,omitempty"`

	// Color is one of auto, always, never. Defaults to auto.
	Color string `yaml:"color,omitempty"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses an xcvm.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses xcvm.yaml content. The path argument is used only
// for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	cfg.setDefaults()
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindConfig searches dir and its parents for a config file. It returns
// an empty path and no error when none exists.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrap(err, "resolving directory")
	}

	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (c *Config) setDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Color == "" {
		c.Color = DefaultColor
	}
}

func (c *Config) validate(path string) error {
	if _, err := c.Budget(); err != nil {
		return errors.Wrapf(err, "%s: memory_budget", path)
	}
	if _, err := c.Level(); err != nil {
		return errors.Wrapf(err, "%s: log_level", path)
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return errors.Errorf("%s: color must be one of auto, always, never; got %q", path, c.Color)
	}
	return nil
}

// Budget returns the memory budget in bytes, 0 when unlimited.
func (c *Config) Budget() (uint64, error) {
	if c.MemoryBudget == "" {
		return 0, nil
	}
	return humanize.ParseBytes(c.MemoryBudget)
}

// Level returns the parsed log level.
func (c *Config) Level() (logrus.Level, error) {
	return logrus.ParseLevel(c.LogLevel)
}
