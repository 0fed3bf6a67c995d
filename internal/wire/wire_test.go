package wire

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/labelr/internal/config"
	"github.com/example/labelr/internal/ports/primary"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(dir, "labelr.db")
	cfg.Storage.Root = filepath.Join(dir, "files")
	return cfg
}

func TestBuild(t *testing.T) {
	c, err := Build(context.Background(), testConfig(t), io.Discard)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer c.Close()

	admin, err := c.Users.Bootstrap(context.Background(), primary.CreateUserRequest{Username: "root"})
	if err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if admin.Role != "admin" {
		t.Errorf("bootstrap role = %q, want admin", admin.Role)
	}

	families, err := c.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	var found bool
	for _, mf := range families {
		if mf.GetName() == "labelr_data_items" {
			found = true
		}
	}
	if !found {
		t.Error("expected labelr_data_items gauge in registry")
	}
}

func TestBuild_BadDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "postgres"
	if _, err := Build(context.Background(), cfg, io.Discard); err == nil || !strings.Contains(err.Error(), "postgres") {
		t.Fatalf("expected driver error, got %v", err)
	}
}

func TestBuild_UnreachableNATSIsNotFatal(t *testing.T) {
	cfg := testConfig(t)
	cfg.NATS.URL = "nats://127.0.0.1:1"
	c, err := Build(context.Background(), cfg, io.Discard)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer c.Close()

	if _, err := c.Users.Bootstrap(context.Background(), primary.CreateUserRequest{Username: "root"}); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
}

func TestClose_Idempotent(t *testing.T) {
	c, err := Build(context.Background(), testConfig(t), io.Discard)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}
