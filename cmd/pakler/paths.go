// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// maxNameSuffix bounds the numeric suffix tried by findNewName.
const maxNameSuffix = 999

// findNewName returns base, or base with the first free ".001".."999" suffix.
func findNewName(base string) (string, error) {
	name := base
	for suffix := 1; ; suffix++ {
		exists, err := pathExists(name)
		if err != nil {
			return "", err
		}
		if !exists {
			return name, nil
		}
		if suffix > maxNameSuffix {
			return "", fmt.Errorf("could not find a non-existing file or directory for base %s", base)
		}

		name = fmt.Sprintf("%s.%03d", base, suffix)
	}
}

// makeOutputFileName returns a free "<file>.replaced" name.
func makeOutputFileName(filename string) (string, error) {
	return findNewName(filename + ".replaced")
}

// makeOutputDirName returns a free "<file>.extracted" name.
func makeOutputDirName(filename string) (string, error) {
	return findNewName(filename + ".extracted")
}

func pathExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	return false, err
}
