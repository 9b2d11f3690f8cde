// Package config loads and validates the optional .morphogen YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/deixis/morphogen/internal/runner"
)

// Config holds the parsed .morphogen configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version          int      `yaml:"version"`
	RawTimeout       string   `yaml:"timeout"`        // e.g. "10m", "90s"
	RawMaxOutput     int      `yaml:"max_output"`     // bytes per output stream
	RawMaxConcurrent int      `yaml:"max_concurrent"` // simultaneous script runs
	RawShell         string   `yaml:"shell"`          // interpreter for install scripts
	LogFile          string   `yaml:"log_file"`       // JSON log sink, empty disables
	Deny             []string `yaml:"deny"`           // extra denylist patterns, appended to the built-ins
}

// Timeout returns the configured per-run timeout or the default.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return runner.DefaultTimeout
}

// MaxOutputBytes returns the configured output cap or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return runner.DefaultMaxOutput
}

// MaxConcurrent returns the configured run cap or the default.
func (c *Config) MaxConcurrent() int {
	if c.RawMaxConcurrent > 0 {
		return c.RawMaxConcurrent
	}
	return runner.DefaultMaxConcurrent
}

// Shell returns the configured interpreter or the default.
func (c *Config) Shell() string {
	if c.RawShell != "" {
		return c.RawShell
	}
	return runner.DefaultShell
}

// Load reads the .morphogen file from dir. A missing file yields the
// defaults without error; a malformed file is an error. MORPHOGEN_*
// environment variables override the file either way.
func Load(dir string) (*Config, error) {
	cfg := &Config{}

	path := filepath.Join(dir, ".morphogen")
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults plus environment.
	case err != nil:
		return nil, fmt.Errorf("reading .morphogen: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing .morphogen: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays MORPHOGEN_* variables onto the parsed file.
// Unparsable numeric values are ignored rather than fatal.
func (c *Config) applyEnv() {
	if v := os.Getenv("MORPHOGEN_TIMEOUT"); v != "" {
		c.RawTimeout = v
	}
	if v := os.Getenv("MORPHOGEN_MAX_OUTPUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RawMaxOutput = n
		}
	}
	if v := os.Getenv("MORPHOGEN_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RawMaxConcurrent = n
		}
	}
	if v := os.Getenv("MORPHOGEN_SHELL"); v != "" {
		c.RawShell = v
	}
	if v := os.Getenv("MORPHOGEN_LOG_FILE"); v != "" {
		c.LogFile = v
	}
}
