package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Tracking.MinDuration != 5*time.Second {
		t.Errorf("Expected min duration 5s, got %s", cfg.Tracking.MinDuration)
	}
	if cfg.Stats.UnknownTaskLabel != "Unknown task" {
		t.Errorf("Expected 'Unknown task', got '%s'", cfg.Stats.UnknownTaskLabel)
	}
	if cfg.DBPath != "" {
		t.Errorf("Expected empty db path, got '%s'", cfg.DBPath)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Tracking.MinDuration != 5*time.Second {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `db_path: /tmp/tasks.db
tracking:
  min_duration: 30s
stats:
  unknown_task_label: "(gone)"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DBPath != "/tmp/tasks.db" {
		t.Errorf("db_path = %q", cfg.DBPath)
	}
	if cfg.Tracking.MinDuration != 30*time.Second {
		t.Errorf("min_duration = %s", cfg.Tracking.MinDuration)
	}
	if cfg.Stats.UnknownTaskLabel != "(gone)" {
		t.Errorf("unknown_task_label = %q", cfg.Stats.UnknownTaskLabel)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Export.Dir != "." {
		t.Errorf("export.dir = %q", cfg.Export.Dir)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("db_path: /from/file.db\n"), 0o644)

	t.Setenv("TASKHUB_DB_PATH", "/from/env.db")
	t.Setenv("TASKHUB_TRACKING_MIN_DURATION", "1m")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DBPath != "/from/env.db" {
		t.Errorf("db_path = %q, want env value", cfg.DBPath)
	}
	if cfg.Tracking.MinDuration != time.Minute {
		t.Errorf("min_duration = %s, want 1m", cfg.Tracking.MinDuration)
	}
}

func TestLoadInvalid(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	broken := filepath.Join(dir, "broken.yaml")
	os.WriteFile(broken, []byte("tracking: [unclosed\n"), 0o644)
	if _, err := Load(broken); err == nil {
		t.Error("Expected error for malformed yaml")
	}

	negative := filepath.Join(dir, "negative.yaml")
	os.WriteFile(negative, []byte("tracking:\n  min_duration: -5s\n"), 0o644)
	if _, err := Load(negative); err == nil {
		t.Error("Expected error for negative min_duration")
	}
}

func TestWriteDefault(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}
	if !strings.Contains(string(content), "min_duration: 5s") {
		t.Errorf("Expected 'min_duration: 5s' in config:\n%s", content)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load of written default failed: %v", err)
	}
	if cfg.Tracking.MinDuration != 5*time.Second || cfg.Stats.UnknownTaskLabel != "Unknown task" {
		t.Errorf("Written default did not round-trip: %+v", cfg)
	}

	if err := WriteDefault(path); err == nil {
		t.Error("Expected error when config already exists")
	}
}
