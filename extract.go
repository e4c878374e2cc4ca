// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package pak

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Extract writes selected section payloads to dstDir, one file per section
// named by SectionFileName. Zero-length sections are skipped unless
// IncludeEmpty is set. Sections are written in table order.
func (c *Container) Extract(ctx context.Context, dstDir string, opts ExtractOptions) ([]ExtractedSection, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	if ctx == nil {
		ctx = context.Background()
	}

	opts.applyDefaults()

	matcher, err := newSectionMatcher(opts.Sections, opts.SectionMatcherOptions)
	if err != nil {
		return nil, err
	}

	dstRootAbs, err := prepareOutputDir(dstDir)
	if err != nil {
		return nil, err
	}

	selected := filterSectionsByIndex(c.Sections(), opts.Indexes)
	selected = filterSectionsByLen(selected, opts.IncludeEmpty, opts.OnSectionSkipped)
	selected = filterSectionsByMatcher(selected, matcher, opts.OnSectionSkipped)

	extracted := make([]ExtractedSection, 0, len(selected))
	for _, s := range selected {
		if err := ctx.Err(); err != nil {
			return extracted, err
		}

		outPath := filepath.Join(dstRootAbs, SectionFileName(s))
		written, err := c.saveSectionWithMode(s, outPath, opts.FileMode)
		if err != nil {
			return extracted, fmt.Errorf("extract section %d: %w", s.Index, err)
		}

		extracted = append(extracted, ExtractedSection{
			Path:    outPath,
			Section: s,
			Written: written,
		})

		if opts.OnSectionDone != nil {
			opts.OnSectionDone(s, written, outPath)
		}
	}

	return extracted, nil
}

// prepareOutputDir resolves dir to an absolute path and creates it when absent.
func prepareOutputDir(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidOutputDirectory)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}

	fi, err := os.Stat(abs)
	switch {
	case err == nil && !fi.IsDir():
		return "", fmt.Errorf("%w: %s exists and is not a directory", ErrInvalidOutputDirectory, abs)
	case err == nil:
		return abs, nil
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("stat output dir: %w", err)
	}

	if err := os.MkdirAll(abs, 0o750); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	return abs, nil
}
