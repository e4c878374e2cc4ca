// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package pak

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

// CRCCheck is the result of comparing stored and computed container CRC.
type CRCCheck struct {
	Stored   uint64 `json:"stored" yaml:"stored"`
	Computed uint32 `json:"computed" yaml:"computed"`
	OK       bool   `json:"ok" yaml:"ok"`
}

// Err returns a wrapped ErrChecksumMismatch when the check failed, nil otherwise.
func (c CRCCheck) Err() error {
	if c.OK {
		return nil
	}

	return fmt.Errorf("%w: header crc32=0x%08x, computed=0x%08x", ErrChecksumMismatch, c.Stored, c.Computed)
}

// crcFolder folds written bytes into a running CRC using crc32.Update chaining.
type crcFolder struct {
	crc uint32
}

// newCRCFolder starts the running value at all ones.
func newCRCFolder() *crcFolder {
	return &crcFolder{crc: 0xffffffff}
}

// Write folds p into the running CRC.
func (f *crcFolder) Write(p []byte) (int, error) {
	f.crc = crc32.Update(f.crc, crc32.IEEETable, p)
	return len(p), nil
}

// Sum32 returns the folded value XORed with all ones.
func (f *crcFolder) Sum32() uint32 {
	return f.crc ^ 0xffffffff
}

// CRC32 computes the container checksum.
//
// Input regions are folded in this order: payload from end of header to end of
// file, the constant 02 00 00 00, then the raw section table (without partitions).
func (c *Container) CRC32() (uint32, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	if !c.variant.SupportsCRC() {
		return 0, fmt.Errorf("%w: CRC of %s", ErrUnsupportedOperation, c.variant)
	}

	buf, release := acquireCopyBuffer()
	defer release()

	return computeCRC(c.ra, c.size, c.headerSize, c.sectionTable(), buf)
}

// CheckCRC compares the stored header CRC with the computed one.
// A mismatch is reported in the result, not as an error.
func (c *Container) CheckCRC() (CRCCheck, error) {
	computed, err := c.CRC32()
	if err != nil {
		return CRCCheck{}, err
	}

	return CRCCheck{
		Stored:   c.header.CRC32,
		Computed: computed,
		OK:       c.header.CRC32 == uint64(computed),
	}, nil
}

// sectionTable returns raw section records as read from the source.
func (c *Container) sectionTable() []byte {
	prefix := c.variant.headerPrefixSize()
	end := prefix + len(c.sections)*c.variant.sectionRecordSize()
	return c.raw[prefix:end]
}

// computeCRC folds payload, quirk constant and section table into one checksum.
func computeCRC(ra io.ReaderAt, size int64, payloadStart int64, sectionTable []byte, buf []byte) (uint32, error) {
	folder := newCRCFolder()

	if size > payloadStart {
		sr := io.NewSectionReader(ra, payloadStart, size-payloadStart)
		if _, err := io.CopyBuffer(folder, sr, buf); err != nil {
			return 0, fmt.Errorf("read payload for crc: %w", err)
		}
	}

	_, _ = folder.Write(crcQuirk[:])
	_, _ = folder.Write(sectionTable)

	return folder.Sum32(), nil
}

// patchCRC overwrites only the header CRC field at its fixed offset.
func patchCRC(w io.WriterAt, v Variant, crc uint32) error {
	if w == nil {
		return ErrNilWriter
	}
	if !v.SupportsCRC() {
		return fmt.Errorf("%w: CRC patch for %s", ErrUnsupportedOperation, v)
	}

	off, width := v.crcFieldOffset()
	field := make([]byte, width)
	if width == 8 {
		binary.LittleEndian.PutUint64(field, uint64(crc))
	} else {
		binary.LittleEndian.PutUint32(field, crc)
	}

	if _, err := w.WriteAt(field, off); err != nil {
		return fmt.Errorf("patch crc field: %w", err)
	}

	return nil
}

// UpdateCRC recomputes the CRC of the PAK at path and stores it in its header.
// The file is modified in place.
func UpdateCRC(path string) (uint32, error) {
	return UpdateCRCWithOptions(path, ReaderOptions{})
}

// UpdateCRCWithOptions is UpdateCRC with explicit reader options.
func UpdateCRCWithOptions(path string, opts ReaderOptions) (uint32, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("open for crc update: %w", err)
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat: %w", err)
	}

	c, err := NewContainerWithOptions(f, fi.Size(), opts)
	if err != nil {
		return 0, err
	}

	crc, err := c.CRC32()
	if err != nil {
		return 0, err
	}

	if err := patchCRC(f, c.variant, crc); err != nil {
		return 0, err
	}

	if err := f.Sync(); err != nil {
		return 0, fmt.Errorf("sync crc update: %w", err)
	}

	return crc, nil
}
