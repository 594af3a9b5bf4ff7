package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("DB_PATH", "")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.DBPath != "./dev.db" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.IsDev() || !cfg.SeedOnStart || !cfg.MetricsEnabled {
		t.Fatalf("expected dev defaults, got %+v", cfg)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ENV", "Production")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "/var/lib/stairworks.db")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "production" || cfg.IsDev() {
		t.Fatalf("env = %q, want production", cfg.Env)
	}
	if cfg.Port != "9090" || cfg.DBPath != "/var/lib/stairworks.db" {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.MetricsEnabled || cfg.SeedOnStart {
		t.Fatalf("expected metrics and seed off, got %+v", cfg)
	}
}

func TestLoad_ConfigFileBelowEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stairworks.yaml")
	content := []byte("port: \"7070\"\ndb_path: /srv/file.db\nlog_level: debug\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("DB_PATH", "/env/wins.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7070" || cfg.LogLevel != "debug" {
		t.Fatalf("expected file values, got %+v", cfg)
	}
	if cfg.DBPath != "/env/wins.db" {
		t.Fatalf("DB_PATH = %q, want env value", cfg.DBPath)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
