package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvDB, "")
	t.Setenv(EnvActor, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Driver != "sqlite3" {
		t.Errorf("expected default driver sqlite3, got %q", cfg.Database.Driver)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default level info, got %q", cfg.Log.Level)
	}
	if cfg.Actor != 0 {
		t.Errorf("expected no default actor, got %d", cfg.Actor)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Setenv(EnvDB, "")
	t.Setenv(EnvActor, "")

	path := filepath.Join(t.TempDir(), "labelr.yaml")
	content := `database:
  driver: sqlite
  path: /var/lib/labelr/db.sqlite
log:
  level: debug
  format: json
nats:
  url: nats://localhost:4222
actor: 7
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "/var/lib/labelr/db.sqlite" {
		t.Errorf("unexpected database config: %+v", cfg.Database)
	}
	if cfg.NATS.Subject != "labelr.activity" {
		t.Errorf("expected default subject to survive, got %q", cfg.NATS.Subject)
	}
	if cfg.Storage.Root == "" {
		t.Error("expected default storage root to survive")
	}
	if cfg.Actor != 7 {
		t.Errorf("expected actor 7, got %d", cfg.Actor)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvDB, "/tmp/override.db")
	t.Setenv(EnvActor, "3")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("expected env db path, got %q", cfg.Database.Path)
	}
	if cfg.Actor != 3 {
		t.Errorf("expected env actor 3, got %d", cfg.Actor)
	}
}

func TestLoad_BadEnvActor(t *testing.T) {
	t.Setenv(EnvDB, "")
	t.Setenv(EnvActor, "alice")

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for non-numeric actor")
	}
}

func TestLoad_ParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labelr.yaml")
	if err := os.WriteFile(path, []byte("database: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Database.Driver = "postgres" }, "database.driver"},
		{"empty db path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"empty storage root", func(c *Config) { c.Storage.Root = "" }, "storage.root"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"nats without subject", func(c *Config) { c.NATS.URL = "nats://x"; c.NATS.Subject = "" }, "nats.subject"},
		{"negative actor", func(c *Config) { c.Actor = -1 }, "actor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv(EnvDB, "")
	t.Setenv(EnvActor, "")

	path := filepath.Join(t.TempDir(), "nested", "labelr.yaml")
	cfg := Default()
	cfg.Actor = 1
	cfg.Metrics.Listen = "127.0.0.1:9000"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Actor != 1 || loaded.Metrics.Listen != "127.0.0.1:9000" {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfig, "")
	if Path() != DefaultPath {
		t.Errorf("expected %s, got %s", DefaultPath, Path())
	}
	t.Setenv(EnvConfig, "/etc/labelr.yaml")
	if Path() != "/etc/labelr.yaml" {
		t.Errorf("expected env path, got %s", Path())
	}
}
