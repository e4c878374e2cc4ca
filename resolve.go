// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package pak

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ResolveSectionCount infers the PAK32/PAK64 section count using the default scan window.
func ResolveSectionCount(ra io.ReaderAt, v Variant) (int, error) {
	return resolveSectionCount(ra, v, DefaultMaxSectionScan)
}

// resolveSectionCount scans section-sized records after the header prefix.
//
// The header has no count field. The partition table follows the last section and
// its first record starts with the same name as the first section, so the index of
// the first record repeating the first section name is the section count.
func resolveSectionCount(ra io.ReaderAt, v Variant, maxScan int) (int, error) {
	if ra == nil {
		return 0, ErrNilReader
	}
	if !v.SupportsCRC() {
		return 0, fmt.Errorf("%w: section count scan for %s", ErrUnsupportedOperation, v)
	}
	if maxScan <= 0 {
		maxScan = DefaultMaxSectionScan
	}

	prefix := int64(v.headerPrefixSize())
	recSize := int64(v.sectionRecordSize())

	sentinel := make([]byte, nameFieldSize)
	if err := readFullAt(ra, sentinel, prefix); err != nil {
		return 0, fmt.Errorf("%w: read first section: %w", ErrCannotDetermineSectionCount, err)
	}

	candidate := make([]byte, nameFieldSize)
	for i := 1; i <= maxScan; i++ {
		if err := readFullAt(ra, candidate, prefix+int64(i)*recSize); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return 0, fmt.Errorf("%w: input ends at record %d", ErrCannotDetermineSectionCount, i)
			}

			return 0, fmt.Errorf("read record %d: %w", i, err)
		}

		if bytes.Equal(candidate, sentinel) {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: no repeat within %d records", ErrCannotDetermineSectionCount, maxScan)
}

// readFullAt reads exactly len(buf) bytes at off.
func readFullAt(ra io.ReaderAt, buf []byte, off int64) error {
	n, err := ra.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		if n == 0 {
			return io.EOF
		}

		return io.ErrUnexpectedEOF
	}

	return err
}

// bytesReaderAt adapts a byte slice to io.ReaderAt.
func bytesReaderAt(b []byte) io.ReaderAt {
	return bytes.NewReader(b)
}
