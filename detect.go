// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package pak

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// DetectVariant inspects leading bytes of a container and returns its layout variant.
//
// PAK32 and PAK64 share the same 4-byte magic, so width is decided by a heuristic:
// six little-endian u32 words are read from offset 0 and words 1, 3 and 5 are summed.
// In PAK64 those slots hold the zero upper halves of magic, crc32 and type.
// In PAK32 they hold the CRC and the first bytes of the first section name and version.
// The test is probabilistic: a PAK32 file whose CRC and probed name bytes are all
// zero would be reported as PAK64.
func DetectVariant(ra io.ReaderAt) (Variant, error) {
	if ra == nil {
		return VariantUnknown, ErrNilReader
	}

	var magic [4]byte
	if err := readFullAt(ra, magic[:], 0); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return VariantUnknown, fmt.Errorf("%w: short magic", ErrNotPakFile)
		}

		return VariantUnknown, fmt.Errorf("read magic: %w", err)
	}

	switch binary.LittleEndian.Uint32(magic[:]) {
	case MagicPAKS:
		return VariantPAKS, nil
	case MagicPAK:
	default:
		return VariantUnknown, fmt.Errorf("%w: magic 0x%08x", ErrNotPakFile, binary.LittleEndian.Uint32(magic[:]))
	}

	var window [detectWindowSize]byte
	if err := readFullAt(ra, window[:], 0); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return VariantUnknown, fmt.Errorf("%w: need %d bytes for width detection", ErrTruncatedInput, detectWindowSize)
		}

		return VariantUnknown, fmt.Errorf("read detection window: %w", err)
	}

	if is64BitWindow(window[:]) {
		return VariantPAK64, nil
	}

	return VariantPAK32, nil
}

// DetectVariantBytes is DetectVariant over an in-memory buffer.
func DetectVariantBytes(b []byte) (Variant, error) {
	return DetectVariant(bytesReaderAt(b))
}

// is64BitWindow reports whether odd u32 slots of the 24-byte window are all zero.
func is64BitWindow(window []byte) bool {
	var sum uint64
	for slot := 1; slot < 6; slot += 2 {
		sum += uint64(binary.LittleEndian.Uint32(window[slot*4 : slot*4+4]))
	}

	return sum == 0
}

// IsPakMagic reports whether b starts with PAK or PAKS magic.
func IsPakMagic(b []byte) bool {
	if len(b) < 4 {
		return false
	}

	magic := binary.LittleEndian.Uint32(b[:4])
	return magic == MagicPAK || magic == MagicPAKS
}

// IsPak reads 4 bytes from r and reports whether they are a PAK or PAKS magic.
func IsPak(r io.Reader) bool {
	if r == nil {
		return false
	}

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return false
	}

	return IsPakMagic(magic[:])
}

// IsPakFile opens path and checks its magic. Any I/O error reports false.
func IsPakFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	return IsPak(f)
}
