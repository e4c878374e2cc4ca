// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package pak

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadHeader opens a PAK and returns its variant and header prefix without
// resolving the section table.
func ReadHeader(path string) (Variant, Header, error) {
	f, _, err := openFileWithSize(path)
	if err != nil {
		return VariantUnknown, Header{}, err
	}
	defer func() { _ = f.Close() }()

	return ReadHeaderFromReaderAt(f)
}

// ReadHeaderFromReaderAt reads the variant and header prefix from a random-access source.
// For PAKS only Magic is set.
func ReadHeaderFromReaderAt(ra io.ReaderAt) (Variant, Header, error) {
	if ra == nil {
		return VariantUnknown, Header{}, ErrNilReader
	}

	v, err := DetectVariant(ra)
	if err != nil {
		return VariantUnknown, Header{}, err
	}
	if v == VariantPAKS {
		return v, Header{Magic: uint64(MagicPAKS)}, nil
	}

	buf := make([]byte, v.headerPrefixSize())
	if err := readFullAt(ra, buf, 0); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return v, Header{}, fmt.Errorf("%w: short %s header", ErrHeaderSizeMismatch, v)
		}

		return v, Header{}, fmt.Errorf("read header: %w", err)
	}

	h, err := decodeHeaderPrefix(v, buf)
	if err != nil {
		return v, Header{}, err
	}

	return v, h, nil
}

// ListSections opens a PAK and returns section metadata without payload reads.
func ListSections(path string) ([]Section, error) {
	return ListSectionsWithOptions(path, ReaderOptions{})
}

// ListSectionsWithOptions opens a PAK and returns section metadata using reader options.
func ListSectionsWithOptions(path string, opts ReaderOptions) ([]Section, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return ListSectionsFromReaderAt(f, size, opts)
}

// ListSectionsFromReaderAt decodes section metadata from a random-access source.
func ListSectionsFromReaderAt(ra io.ReaderAt, size int64, opts ReaderOptions) ([]Section, error) {
	c, err := NewContainerWithOptions(ra, size, opts)
	if err != nil {
		return nil, err
	}

	return c.sections, nil
}

// openFileWithSize opens a file and returns a handle plus current size.
func openFileWithSize(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open PAK: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat: %w", err)
	}

	return f, fi.Size(), nil
}
