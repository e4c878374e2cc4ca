// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"github.com/woozymasta/pak"
)

// configBackupKeep is the config file default for --backup-keep.
var configBackupKeep *int

func replaceCmd() *cli.Command {
	var (
		sectionNum  int
		sectionFile string
		output      string
		inPlace     bool
		backupKeep  int
	)

	return &cli.Command{
		Name:      "replace",
		Aliases:   []string{"r"},
		Usage:     "Write a copy of FILE with one section replaced and the CRC updated",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "section-num",
				Aliases:     []string{"n"},
				Usage:       "index of the section to replace",
				Required:    true,
				Destination: &sectionNum,
			},
			&cli.StringFlag{
				Name:        "section-file",
				Aliases:     []string{"f"},
				Usage:       "file holding the new section payload",
				Required:    true,
				Destination: &sectionFile,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output file (default FILE.replaced)",
				Destination: &output,
			},
			&cli.BoolFlag{
				Name:        "in-place",
				Usage:       "rewrite FILE itself, keeping FILE.bak until success",
				Destination: &inPlace,
			},
			&cli.IntFlag{
				Name:        "backup-keep",
				Usage:       "backup generations kept after an in-place rewrite",
				Destination: &backupKeep,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := requireFile(cmd)
			if err != nil {
				return err
			}
			if !pak.IsPakFile(path) {
				return cli.Exit(fmt.Sprintf("%s: replace needs a PAK file", path), 1)
			}

			if configBackupKeep != nil && !cmd.IsSet("backup-keep") {
				backupKeep = *configBackupKeep
			}

			opts := pak.ReplaceOptions{
				ReaderOptions: readerOptions(),
				OnStateChange: func(state pak.ReplaceState) {
					logger.Debug("replace state", "state", state)
				},
				OnSectionDone: func(p pak.ReplaceProgress) {
					logger.Debug("copied section",
						"index", p.Section.Index,
						"start", p.Section.Start,
						"len", p.Section.Len,
						"replaced", p.Replaced,
					)
				},
			}

			var res *pak.ReplaceResult
			if inPlace {
				res, err = replaceInPlace(ctx, path, sectionNum, sectionFile, opts, backupKeep)
				output = path
			} else {
				if output == "" {
					output, err = makeOutputFileName(path)
					if err != nil {
						return err
					}
				}

				logger.Info("replacing section", "file", path, "index", sectionNum, "payload", sectionFile, "output", output)
				res, err = pak.ReplaceSection(ctx, path, sectionNum, sectionFile, output, opts)
				if errors.Is(err, pak.ErrOutputIsSource) {
					return cli.Exit(fmt.Sprintf("%v (use --in-place to rewrite the source)", err), 1)
				}
			}
			if err != nil {
				return err
			}

			logger.Info("replace finished",
				"output", output,
				"size", res.Size,
				"crc32", fmt.Sprintf("0x%08x", res.CRC32),
				"duration", res.Duration,
			)

			return printReplaced(output)
		},
	}
}

// replaceInPlace rewrites path through an editor with backup rotation.
func replaceInPlace(
	ctx context.Context,
	path string,
	index int,
	payload string,
	opts pak.ReplaceOptions,
	backupKeep int,
) (*pak.ReplaceResult, error) {
	editor, err := pak.OpenEditor(path, pak.EditOptions{
		ReplaceOptions: opts,
		BackupKeep:     backupKeep,
	})
	if err != nil {
		return nil, err
	}

	if err := editor.Replace(index, payload); err != nil {
		return nil, err
	}

	logger.Info("replacing section in place", "file", path, "index", index, "payload", payload)
	return editor.Commit(ctx)
}

// printReplaced reopens the output and prints its listing.
func printReplaced(path string) error {
	c, err := pak.OpenWithOptions(path, readerOptions())
	if err != nil {
		return fmt.Errorf("reopen output: %w", err)
	}
	defer func() { _ = c.Close() }()

	return writeTextListing(os.Stdout, path, c)
}
