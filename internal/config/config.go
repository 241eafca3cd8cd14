package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sigreer/esesgod/internal/eses"
)

type Config struct {
	Enclosure Enclosure `yaml:"enclosure"`
	Debounce  Debounce  `yaml:"debounce"`
	Retry     Retry     `yaml:"retry"`
	Database  Database  `yaml:"database"`
	Metrics   Metrics   `yaml:"metrics"`
	Log       Log       `yaml:"log"`
}

// Enclosure describes the shelf being decoded. Profile and Topology are
// optional; a missing topology is derived from the configuration page.
type Enclosure struct {
	Device   string         `yaml:"device,omitempty"`
	Profile  *eses.Profile  `yaml:"profile,omitempty"`
	Topology *eses.Topology `yaml:"topology,omitempty"`
}

type Debounce struct {
	LCCFault time.Duration `yaml:"lcc_fault"`
}

type Retry struct {
	MaxModeRetries int `yaml:"max_mode_retries"`
}

type Database struct {
	Path     string `yaml:"path,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

type Metrics struct {
	// Textfile is written after every decode for the node exporter's
	// textfile collector.
	Textfile string `yaml:"textfile,omitempty"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

var defaultConfig = Config{
	Debounce: Debounce{LCCFault: eses.DefaultDebounceWindow},
	Retry:    Retry{MaxModeRetries: eses.DefaultMaxModeRetries},
	Database: Database{Path: "/var/lib/esesgod/esesgod.db"},
	Log:      Log{Level: "info", Format: "text"},
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := defaultConfig
	return &cfg
}

// Load reads the configuration at path, or the first file found in the
// default locations when path is empty. With no file at all the defaults
// are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		candidates := []string{
			"/etc/esesgod/config.yaml",
			filepath.Join(os.Getenv("HOME"), ".config/esesgod/config.yaml"),
			"config.yaml",
		}
		for _, c := range candidates {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}

	cfg := defaultConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	// Apply defaults for zeroed fields
	if cfg.Debounce.LCCFault <= 0 {
		cfg.Debounce.LCCFault = defaultConfig.Debounce.LCCFault
	}
	if cfg.Retry.MaxModeRetries <= 0 {
		cfg.Retry.MaxModeRetries = defaultConfig.Retry.MaxModeRetries
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = defaultConfig.Database.Path
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultConfig.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaultConfig.Log.Format
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values Load cannot default.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if p := c.Enclosure.Profile; p != nil {
		if p.Slots <= 0 || p.Slots > 64 {
			errs = append(errs, fmt.Errorf("enclosure.profile.slots must be 1-64, got %d", p.Slots))
		}
		if p.LCCs <= 0 {
			errs = append(errs, fmt.Errorf("enclosure.profile.lccs must be positive, got %d", p.LCCs))
		}
	}
	return errors.Join(errs...)
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}

// Logger builds the process logger. verbose forces debug output.
func (c *Config) Logger(w io.Writer, verbose bool) *slog.Logger {
	level, _ := c.LogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Profile returns the configured enclosure profile or the default one.
func (c *Config) Profile() eses.Profile {
	if c.Enclosure.Profile != nil {
		return *c.Enclosure.Profile
	}
	return eses.DefaultProfile()
}
