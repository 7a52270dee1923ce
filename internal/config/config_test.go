package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8484" {
		t.Fatalf("default addr = %q", cfg.Server.Addr)
	}
	if cfg.Client.RefreshInterval != 30*time.Second {
		t.Fatalf("default refresh interval = %v", cfg.Client.RefreshInterval)
	}
}

func TestLoadReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := []byte("server:\n  addr: \":9000\"\n  log_level: debug\nclient:\n  refresh_interval: 10s\n")
	if err := os.WriteFile(filepath.Join(dir, "tasky.yaml"), yaml, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9000" || cfg.Server.LogLevel != "debug" {
		t.Fatalf("file values not applied: %+v", cfg.Server)
	}
	if cfg.Client.RefreshInterval != 10*time.Second {
		t.Fatalf("refresh interval = %v", cfg.Client.RefreshInterval)
	}
	// Untouched keys keep their defaults.
	if cfg.Server.DatabasePath != "tasky.db" {
		t.Fatalf("database path = %q", cfg.Server.DatabasePath)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := []byte("server:\n  addr: \":9000\"\n")
	if err := os.WriteFile(filepath.Join(dir, "tasky.yaml"), yaml, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TASKY_SERVER_ADDR", ":7777")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":7777" {
		t.Fatalf("env did not win: %q", cfg.Server.Addr)
	}
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := []byte("server:\n  log_level: shouty\n")
	if err := os.WriteFile(filepath.Join(dir, "tasky.yaml"), yaml, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error for bad log level")
	}
}
