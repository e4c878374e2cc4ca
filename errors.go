// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package pak

import "errors"

// Sentinel errors for PAK operations. Use errors.Is in callers.
var (
	// ErrNotPakFile means the leading magic matches neither PAK nor PAKS.
	ErrNotPakFile = errors.New("not a PAK file")
	// ErrBadMagic means the decoded header magic does not match the detected variant.
	ErrBadMagic = errors.New("bad header magic")
	// ErrHeaderSizeMismatch means fewer bytes are available than the computed header size.
	ErrHeaderSizeMismatch = errors.New("header size mismatch")
	// ErrTruncatedInput means a fixed-size record was decoded from a buffer of wrong length.
	ErrTruncatedInput = errors.New("truncated input")
	// ErrInvalidEncoding means a string field is not valid UTF-8.
	ErrInvalidEncoding = errors.New("invalid string encoding")
	// ErrFieldTooLong means a value does not fit its fixed-width field.
	ErrFieldTooLong = errors.New("value exceeds field width")
	// ErrCannotDetermineSectionCount means no sentinel repetition was found in the scan window.
	ErrCannotDetermineSectionCount = errors.New("cannot determine section count")
	// ErrShortRead means the source ended before a section payload was fully read.
	ErrShortRead = errors.New("short read")
	// ErrCopyIncomplete means a payload copy during replace ended early.
	ErrCopyIncomplete = errors.New("copy incomplete")
	// ErrInvalidOutputDirectory means the extraction target exists and is not a directory.
	ErrInvalidOutputDirectory = errors.New("invalid output directory")
	// ErrInvalidSectionIndex means the section index is out of range.
	ErrInvalidSectionIndex = errors.New("invalid section index")
	// ErrInvalidSectionPattern means section name rules failed to compile.
	ErrInvalidSectionPattern = errors.New("invalid section pattern")
	// ErrSectionIndexOrder means a section index does not match its table position.
	ErrSectionIndexOrder = errors.New("section index does not match table position")
	// ErrReplacementSourceMissing means the replacement payload file is missing or not a regular file.
	ErrReplacementSourceMissing = errors.New("replacement source missing")
	// ErrOutputIsSource means the replace output path names the source or replacement file.
	ErrOutputIsSource = errors.New("output is an input file")
	// ErrUnsupportedOperation means the operation is not defined for the container variant.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrChecksumMismatch means the stored CRC differs from the computed one.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrNothingToCommit means an editor commit was requested with no staged changes.
	ErrNothingToCommit = errors.New("nothing to commit")
	// ErrNilReader means the reader is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrNilWriter means the writer is nil.
	ErrNilWriter = errors.New("writer is nil")
	// ErrClosed means the container or resource is already closed.
	ErrClosed = errors.New("container or resource already closed")
)
