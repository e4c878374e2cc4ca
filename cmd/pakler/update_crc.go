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

func updateCRCCmd() *cli.Command {
	return &cli.Command{
		Name:      "update-crc",
		Usage:     "Recompute the CRC of FILE and store it in its header",
		ArgsUsage: "FILE",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := requireFile(cmd)
			if err != nil {
				return err
			}
			if !pak.IsPakFile(path) {
				return cli.Exit(fmt.Sprintf("%s: update-crc needs a PAK file", path), 1)
			}

			crc, err := pak.UpdateCRCWithOptions(path, readerOptions())
			if err != nil {
				return err
			}

			logger.Info("updated CRC", "file", path, "crc32", fmt.Sprintf("0x%08x", crc))
			return nil
		},
	}
}
