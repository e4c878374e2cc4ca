// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package main

var (
	// Version is the release version (set via -ldflags).
	Version = ""
	// Commit is the git commit hash (set via -ldflags).
	Commit = ""
)

// versionString returns "version (commit)" or "dev" for local builds.
func versionString() string {
	v := Version
	if v == "" {
		v = "dev"
	}
	if Commit == "" {
		return v
	}
	if len(Commit) > 12 {
		return v + " (" + Commit[:12] + ")"
	}

	return v + " (" + Commit + ")"
}
