// Package config loads the runtime configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"ember/vm"
)

// Config holds the settings the command line runner starts processes with
type Config struct {
	ImportPaths      []string `yaml:"import_paths,omitempty"`
	MaxExecutionTime Duration `yaml:"max_execution_time,omitempty"`
	Trace            bool     `yaml:"trace,omitempty"`
	TraceFilter      []string `yaml:"trace_filter,omitempty"`
}

// Duration is a time.Duration written as "10s", "1m30s" or "0" in YAML.
// Negative durations disable the watchdog.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		MaxExecutionTime: Duration(vm.DefaultMaxExecutionTime),
	}
}

// Load reads a YAML configuration file. Settings it leaves out keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings for consistency
func (c *Config) Validate() error {
	for _, p := range c.ImportPaths {
		fi, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("import path %s: %w", p, err)
		}
		if !fi.IsDir() {
			return fmt.Errorf("import path %s is not a directory", p)
		}
	}
	if len(c.TraceFilter) > 0 && !c.Trace {
		return fmt.Errorf("trace_filter is set but trace is disabled")
	}
	return nil
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
