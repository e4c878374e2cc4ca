// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zip"
	"github.com/urfave/cli/v3"
	"github.com/woozymasta/pak"
)

// pakVisitor is called once per PAK found in an input file.
type pakVisitor func(name string, c *pak.Container) error

// forEachPak opens path as a PAK, or as a ZIP bundle holding PAK entries, and
// calls visit for every container. Non-PAK ZIP entries are skipped.
func forEachPak(path string, visit pakVisitor) error {
	if pak.IsPakFile(path) {
		c, err := pak.OpenWithOptions(path, readerOptions())
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		defer func() { _ = c.Close() }()

		logContainer(path, c)
		return visit(path, c)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("%s: file is not a PAK or a ZIP, or doesn't exist", path), 1)
	}
	defer func() { _ = zr.Close() }()

	found := 0
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		isPak, err := zipEntryIsPak(f)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", path, f.Name, err)
		}
		if !isPak {
			logger.Debug("skipping non-PAK entry", "zip", path, "entry", f.Name)
			continue
		}

		name := path + ":" + f.Name
		found++
		if err := visitZipEntry(name, f, visit); err != nil {
			return err
		}
	}

	if found == 0 {
		logger.Warn("no PAK entries found in ZIP", "zip", path)
	}

	return nil
}

// zipEntryIsPak checks the magic of a ZIP entry.
func zipEntryIsPak(f *zip.File) (bool, error) {
	rc, err := f.Open()
	if err != nil {
		return false, err
	}
	defer func() { _ = rc.Close() }()

	return pak.IsPak(rc), nil
}

// visitZipEntry spools a ZIP entry to a temporary file and visits it as a
// container. The file is removed once visit returns.
func visitZipEntry(name string, f *zip.File, visit pakVisitor) error {
	tmp, err := os.CreateTemp("", "pakler-*.pak")
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	size, err := copyZipEntry(tmp, f)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	c, err := pak.NewContainerWithOptions(tmp, size, readerOptions())
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	logContainer(name, c)
	return visit(name, c)
}

// copyZipEntry decompresses a ZIP entry into dst and returns the written size.
func copyZipEntry(dst io.Writer, f *zip.File) (int64, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, err
	}
	defer func() { _ = rc.Close() }()

	return io.Copy(dst, rc)
}

// logContainer reports decode details that affect how far the listing can be trusted.
func logContainer(name string, c *pak.Container) {
	logger.Debug("opened container",
		"file", name,
		"variant", c.Variant(),
		"sections", len(c.Sections()),
		"header_size", c.HeaderSize(),
	)

	if c.SectionCountFallback() {
		logger.Warn("section count could not be detected, using default", "file", name, "sections", len(c.Sections()))
	}
}
