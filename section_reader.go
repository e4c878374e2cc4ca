// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package pak

import (
	"fmt"
	"io"
	"math"
	"os"
)

// OpenSection returns a reader bounded to the section payload.
// Reading past end of the source yields fewer than Len bytes.
func (c *Container) OpenSection(s Section) (io.Reader, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	start, length, err := sectionBounds(s)
	if err != nil {
		return nil, err
	}

	return io.NewSectionReader(c.ra, start, length), nil
}

// ReadSection reads the full payload of s into memory.
func (c *Container) ReadSection(s Section) ([]byte, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	start, length, err := sectionBounds(s)
	if err != nil {
		return nil, err
	}
	if start+length > c.size {
		return nil, fmt.Errorf("%w: section %d needs bytes [%d, %d), file has %d",
			ErrShortRead, s.Index, start, start+length, c.size)
	}

	buf := make([]byte, length)
	if err := readFullAt(c.ra, buf, start); err != nil {
		return nil, fmt.Errorf("%w: section %d: %w", ErrShortRead, s.Index, err)
	}

	return buf, nil
}

// WriteSectionTo streams the payload of s to w in ChunkSize chunks.
func (c *Container) WriteSectionTo(s Section, w io.Writer) (int64, error) {
	if w == nil {
		return 0, ErrNilWriter
	}

	src, err := c.OpenSection(s)
	if err != nil {
		return 0, err
	}

	buf, release := acquireCopyBuffer()
	defer release()

	written, err := copyExact(w, src, int64(s.Len), buf) //nolint:gosec // bounded by sectionBounds
	if err != nil {
		return written, fmt.Errorf("%w: section %d: %w", ErrShortRead, s.Index, err)
	}

	return written, nil
}

// SaveSection writes the payload of s to a new or truncated file at path.
func (c *Container) SaveSection(s Section, path string) (int64, error) {
	return c.saveSectionWithMode(s, path, ExtractFileModeTruncate)
}

// saveSectionWithMode writes the payload of s to path using extract file mode.
func (c *Container) saveSectionWithMode(s Section, path string, mode ExtractFileMode) (int64, error) {
	f, err := openExtractFile(path, mode)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}

	written, copyErr := c.WriteSectionTo(s, f)
	closeErr := f.Close()
	if copyErr != nil {
		return written, copyErr
	}
	if closeErr != nil {
		return written, fmt.Errorf("close %s: %w", path, closeErr)
	}

	return written, nil
}

// sectionBounds converts section coordinates into ReaderAt offsets.
func sectionBounds(s Section) (int64, int64, error) {
	if s.Start > math.MaxInt64 || s.Len > math.MaxInt64 || s.Start+s.Len < s.Start || s.Start+s.Len > math.MaxInt64 {
		return 0, 0, fmt.Errorf("%w: section %d bounds start=%d len=%d overflow", ErrShortRead, s.Index, s.Start, s.Len)
	}

	return int64(s.Start), int64(s.Len), nil
}

// openExtractFile opens output path according to selected extract file mode.
func openExtractFile(path string, mode ExtractFileMode) (*os.File, error) {
	switch mode {
	case ExtractFileModeAuto:
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return file, nil
		}

		if !os.IsExist(err) {
			return nil, err
		}

		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	case ExtractFileModeTruncate:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	case ExtractFileModeCreateOnly:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	default:
		return nil, fmt.Errorf("unknown extract file mode %q", mode)
	}
}
