// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

// logger is the process-wide CLI logger; messages go to stderr.
var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "pakler"})

// newLogger returns a stderr logger at the named level.
func newLogger(level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "pakler",
		Level:  lvl,
	}), nil
}
