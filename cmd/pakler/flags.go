// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package main

import (
	"github.com/urfave/cli/v3"
	"github.com/woozymasta/pak"
)

var (
	configFile          string
	logLevel            string
	outputFormat        string
	sectionCount        int
	defaultSectionCount int
	maxSectionScan      int
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to YAML config file",
			Value:       configPath(),
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "format",
			Usage:       "listing format (text, json, yaml)",
			Value:       formatText,
			Destination: &outputFormat,
		},
		&cli.IntFlag{
			Name:        "section-count",
			Usage:       "force the number of sections instead of detecting it",
			Destination: &sectionCount,
		},
		&cli.IntFlag{
			Name:        "default-section-count",
			Usage:       "section count used when detection fails (0 fails instead)",
			Destination: &defaultSectionCount,
		},
		&cli.IntFlag{
			Name:        "max-section-scan",
			Usage:       "number of records scanned while detecting the section count",
			Value:       pak.DefaultMaxSectionScan,
			Destination: &maxSectionScan,
		},
	}
}

// readerOptions builds container decode options from global flags.
func readerOptions() pak.ReaderOptions {
	return pak.ReaderOptions{
		SectionCount:        sectionCount,
		DefaultSectionCount: defaultSectionCount,
		MaxSectionScan:      maxSectionScan,
	}
}
