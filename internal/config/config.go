// Package config loads the labelr configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvConfig = "LABELR_CONFIG"
	EnvDB     = "LABELR_DB"
	EnvActor  = "LABELR_ACTOR"
)

// DefaultPath is where the config lives when LABELR_CONFIG is unset.
const DefaultPath = "labelr.yaml"

// Config represents the complete labelr configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
	NATS     NATSConfig     `yaml:"nats"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Ingest   IngestConfig   `yaml:"ingest"`

	// Actor is the default acting user id for CLI commands (0 = none).
	Actor int64 `yaml:"actor,omitempty"`
}

// DatabaseConfig selects the SQLite driver and file.
type DatabaseConfig struct {
	// Driver is "sqlite3" (mattn, cgo) or "sqlite" (modernc, pure Go).
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// StorageConfig configures where uploaded files are kept.
type StorageConfig struct {
	Root string `yaml:"root"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// NATSConfig configures the activity publisher. An empty URL disables it.
type NATSConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject"`
}

// MetricsConfig configures the prometheus exporter.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// IngestConfig configures directory ingest.
type IngestConfig struct {
	Include  []string `yaml:"include"`
	Exclude  []string `yaml:"exclude,omitempty"`
	Debounce string   `yaml:"debounce"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: "sqlite3", Path: filepath.Join(".labelr", "labelr.db")},
		Storage:  StorageConfig{Root: filepath.Join(".labelr", "files")},
		Log:      LogConfig{Level: "info", Format: "text"},
		NATS:     NATSConfig{Subject: "labelr.activity"},
		Metrics:  MetricsConfig{Listen: ":9464"},
		Ingest: IngestConfig{
			Include:  []string{"**/*.{jpg,jpeg,png,gif,bmp,webp,tif,tiff}"},
			Debounce: "500ms",
		},
	}
}

// Path returns the config file path, honouring LABELR_CONFIG.
func Path() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the config file at path over the defaults. A missing file
// yields the defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv applies LABELR_DB and LABELR_ACTOR.
func (c *Config) ApplyEnv() error {
	if p := os.Getenv(EnvDB); p != "" {
		c.Database.Path = p
	}
	if a := os.Getenv(EnvActor); a != "" {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil || id < 0 {
			return fmt.Errorf("%s must be a user id, got %q", EnvActor, a)
		}
		c.Actor = id
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("database.driver must be sqlite3 or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Storage.Root == "" {
		return fmt.Errorf("storage.root is required")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.NATS.URL != "" && c.NATS.Subject == "" {
		return fmt.Errorf("nats.subject is required when nats.url is set")
	}
	if c.Actor < 0 {
		return fmt.Errorf("actor must be a user id")
	}
	return nil
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
