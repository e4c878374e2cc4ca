// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"github.com/woozymasta/pak"
)

func extractCmd() *cli.Command {
	var (
		outputDir    string
		includeEmpty bool
		createOnly   bool
		sections     []string
		excludes     []string
	)

	return &cli.Command{
		Name:      "extract",
		Aliases:   []string{"e"},
		Usage:     "Extract section payloads to NN_name.bin files",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output-dir",
				Aliases:     []string{"d"},
				Usage:       "output directory (default FILE.extracted)",
				Destination: &outputDir,
			},
			&cli.BoolFlag{
				Name:        "empty",
				Aliases:     []string{"include-empty"},
				Usage:       "also write zero-length sections",
				Destination: &includeEmpty,
			},
			&cli.BoolFlag{
				Name:        "create-only",
				Usage:       "fail instead of overwriting existing section files",
				Destination: &createOnly,
			},
			&cli.StringSliceFlag{
				Name:        "section",
				Aliases:     []string{"s"},
				Usage:       "only extract sections whose name matches `PATTERN` (repeatable)",
				Destination: &sections,
			},
			&cli.StringSliceFlag{
				Name:        "exclude",
				Usage:       "skip sections whose name matches `PATTERN` (repeatable)",
				Destination: &excludes,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := requireFile(cmd)
			if err != nil {
				return err
			}

			dir := outputDir
			if dir == "" {
				dir, err = makeOutputDirName(path)
				if err != nil {
					return err
				}
			}

			opts := pak.ExtractOptions{
				IncludeEmpty: includeEmpty,
				Sections:     append(pak.IncludeRules(sections...), pak.ExcludeRules(excludes...)...),
				OnSectionDone: func(s pak.Section, written int64, outputPath string) {
					logger.Info("extracted section", "index", s.Index, "name", s.Name, "bytes", written, "path", outputPath)
				},
				OnSectionSkipped: func(s pak.Section) {
					logger.Debug("skipping section", "index", s.Index, "name", s.Name, "len", s.Len)
				},
			}
			if createOnly {
				opts.FileMode = pak.ExtractFileModeCreateOnly
			}

			return forEachPak(path, func(name string, c *pak.Container) error {
				logger.Info("extracting", "file", name, "output", dir)

				files, err := c.Extract(ctx, dir, opts)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}

				logger.Info("extraction finished", "file", name, "files", len(files))

				// Each further PAK of a ZIP bundle gets its own directory.
				dir, err = makeOutputDirName(dir)
				return err
			})
		},
	}
}
