package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogLevel != "" || cfg.SectionCount != nil || cfg.BackupKeep != nil {
		t.Fatalf("expected zero config, got %+v", cfg)
	}

	if _, err := LoadConfig(""); err != nil {
		t.Fatalf("LoadConfig empty path: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("log_level: debug\nformat: yaml\ndefault_section_count: 10\nmax_section_scan: 40\nbackup_keep: 2\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.LogLevel != "debug" || cfg.Format != "yaml" {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.SectionCount != nil {
		t.Fatalf("section_count must stay unset, got %d", *cfg.SectionCount)
	}
	if cfg.DefaultSectionCount == nil || *cfg.DefaultSectionCount != 10 {
		t.Fatalf("default_section_count=%v", cfg.DefaultSectionCount)
	}
	if cfg.MaxSectionScan == nil || *cfg.MaxSectionScan != 40 {
		t.Fatalf("max_section_scan=%v", cfg.MaxSectionScan)
	}
	if cfg.BackupKeep == nil || *cfg.BackupKeep != 2 {
		t.Fatalf("backup_keep=%v", cfg.BackupKeep)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log_level: [unclosed\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	if _, err := newLogger("debug"); err != nil {
		t.Fatalf("newLogger(debug): %v", err)
	}
	if _, err := newLogger("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
