// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the pakler configuration file (~/.config/pakler/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	LogLevel            string `yaml:"log_level"`
	Format              string `yaml:"format"`
	SectionCount        *int   `yaml:"section_count"`
	DefaultSectionCount *int   `yaml:"default_section_count"`
	MaxSectionScan      *int   `yaml:"max_section_scan"`
	BackupKeep          *int   `yaml:"backup_keep"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return filepath.Join(dir, "pakler", "config.yaml")
}

// LoadConfig reads the config file. A missing file yields a zero Config.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// applyGlobalConfig applies config file defaults to global flag variables
// when the corresponding flag was not explicitly set.
func applyGlobalConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.Format != "" && !c.IsSet("format") {
		outputFormat = cfg.Format
	}
	if cfg.SectionCount != nil && !c.IsSet("section-count") {
		sectionCount = *cfg.SectionCount
	}
	if cfg.DefaultSectionCount != nil && !c.IsSet("default-section-count") {
		defaultSectionCount = *cfg.DefaultSectionCount
	}
	if cfg.MaxSectionScan != nil && !c.IsSet("max-section-scan") {
		maxSectionScan = *cfg.MaxSectionScan
	}
	if cfg.BackupKeep != nil {
		configBackupKeep = cfg.BackupKeep
	}
}
