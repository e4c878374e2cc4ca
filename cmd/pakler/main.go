// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

// Command pakler lists, extracts, checks and patches PAK firmware files.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newApp builds the command tree. A bare file argument runs list.
func newApp() *cli.Command {
	return &cli.Command{
		Name:      "pakler",
		Usage:     "manipulate Swann / Reolink PAK firmware files",
		Version:   versionString(),
		ArgsUsage: "FILE",
		Flags:     globalFlags(),
		Before:    setup,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return cli.ShowAppHelp(cmd)
			}

			return runList(ctx, cmd, cmd.Args().First())
		},
		Commands: []*cli.Command{
			listCmd(),
			extractCmd(),
			replaceCmd(),
			updateCRCCmd(),
		},
	}
}

// setup loads the config file and configures logging before any command runs.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return ctx, err
	}

	applyGlobalConfig(cmd, cfg)

	logger, err = newLogger(logLevel)
	if err != nil {
		return ctx, err
	}

	return ctx, nil
}

// requireFile returns the first positional argument or a usage error.
func requireFile(cmd *cli.Command) (string, error) {
	path := cmd.Args().First()
	if path == "" {
		return "", cli.Exit("missing FILE argument", 2)
	}

	return path, nil
}
