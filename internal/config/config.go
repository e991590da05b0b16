package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for every recognized option.
const (
	DefaultOutputFile = "output.md"
	DefaultHeartbeat  = time.Second
	DefaultDebounce   = 500 * time.Millisecond
	DefaultTemplate   = "default"
)

// configFile is the settings file name inside the config directory.
const configFile = "config.yaml"

// ContextEntry records one known context in the registry state.
type ContextEntry struct {
	Name      string    `yaml:"name"`
	CreatedAt time.Time `yaml:"created_at"`
	Output    string    `yaml:"output,omitempty"`
}

// Config holds all recognized wasdoing settings plus the context registry
// state (known contexts and which one is active).
type Config struct {
	ActiveContext  string         `yaml:"active_context"`
	Contexts       []ContextEntry `yaml:"contexts"`
	DefaultOutput  string         `yaml:"default_output"`
	WatchHeartbeat string         `yaml:"watch_heartbeat"`
	WatchDebounce  string         `yaml:"watch_debounce"`
	Template       string         `yaml:"template"`
}

// Default returns a Config with every option at its documented default.
func Default() *Config {
	return &Config{
		DefaultOutput:  DefaultOutputFile,
		WatchHeartbeat: DefaultHeartbeat.String(),
		WatchDebounce:  DefaultDebounce.String(),
		Template:       DefaultTemplate,
	}
}

// Load reads config.yaml from dir. A missing file yields defaults; a
// malformed file is an error rather than silent fallback.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config to dir using write-to-temp-then-rename.
func (c *Config) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	path := filepath.Join(dir, configFile)
	tmp, err := os.CreateTemp(dir, ".tmp-config-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp config: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp config: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing config: %w", err)
	}
	return nil
}

// applyDefaults fills any option left empty in the file.
func (c *Config) applyDefaults() {
	if c.DefaultOutput == "" {
		c.DefaultOutput = DefaultOutputFile
	}
	if c.WatchHeartbeat == "" {
		c.WatchHeartbeat = DefaultHeartbeat.String()
	}
	if c.WatchDebounce == "" {
		c.WatchDebounce = DefaultDebounce.String()
	}
	if c.Template == "" {
		c.Template = DefaultTemplate
	}
}

// HeartbeatInterval returns the watch heartbeat as a duration, falling back
// to the default when the configured value does not parse.
func (c *Config) HeartbeatInterval() time.Duration {
	if d, err := time.ParseDuration(c.WatchHeartbeat); err == nil && d > 0 {
		return d
	}
	return DefaultHeartbeat
}

// DebounceWindow returns the watch debounce window as a duration, falling
// back to the default when the configured value does not parse.
func (c *Config) DebounceWindow() time.Duration {
	if d, err := time.ParseDuration(c.WatchDebounce); err == nil && d > 0 {
		return d
	}
	return DefaultDebounce
}

// FindContext returns the registry entry for name, or nil if unknown.
func (c *Config) FindContext(name string) *ContextEntry {
	for i := range c.Contexts {
		if c.Contexts[i].Name == name {
			return &c.Contexts[i]
		}
	}
	return nil
}
