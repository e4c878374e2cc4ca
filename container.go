// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package pak

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// Container provides read-only access to a parsed PAK file.
type Container struct {
	// ra is the underlying random-access reader used for payload reads.
	ra io.ReaderAt
	// file is set when Container owns an *os.File opened via Open.
	file *os.File
	// paks stores the PAKS header; nil for PAK32/PAK64.
	paks *PAKSHeader
	// raw holds header prefix plus section table (and partitions for PAK32/PAK64).
	raw []byte
	// sections are decoded in table order; Index equals position.
	sections []Section
	// partitions parallel sections for PAK32/PAK64.
	partitions []Partition
	// header stores the PAK32/PAK64 header prefix (magic only for PAKS).
	header Header
	// size is total source size in bytes.
	size int64
	// headerSize is the byte size of metadata before the payload region.
	headerSize int64
	// mu guards closed state and close operation.
	mu sync.Mutex
	// variant is the detected on-disk layout.
	variant Variant
	// fallback reports that DefaultSectionCount replaced a failed resolve.
	fallback bool
	// closed reports whether Close was already called.
	closed bool
}

// Open opens a PAK file by path and decodes its header.
func Open(path string) (*Container, error) {
	return OpenWithOptions(path, ReaderOptions{})
}

// OpenWithOptions opens a PAK file by path and decodes its header using explicit reader options.
func OpenWithOptions(path string, opts ReaderOptions) (*Container, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return nil, err
	}

	c, err := NewContainerWithOptions(f, size, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	c.file = f
	return c, nil
}

// NewContainer decodes a PAK from an existing ReaderAt of known size.
func NewContainer(ra io.ReaderAt, size int64) (*Container, error) {
	return NewContainerWithOptions(ra, size, ReaderOptions{})
}

// NewContainerWithOptions decodes a PAK from an existing ReaderAt using explicit reader options.
func NewContainerWithOptions(ra io.ReaderAt, size int64, opts ReaderOptions) (*Container, error) {
	if ra == nil {
		return nil, ErrNilReader
	}

	opts.applyDefaults()

	c := &Container{ra: ra, size: size}
	if err := c.decode(opts); err != nil {
		return nil, err
	}

	return c, nil
}

// FromBytes decodes a PAK held fully in memory.
func FromBytes(b []byte) (*Container, error) {
	return FromBytesWithOptions(b, ReaderOptions{})
}

// FromBytesWithOptions decodes an in-memory PAK using explicit reader options.
func FromBytesWithOptions(b []byte, opts ReaderOptions) (*Container, error) {
	return NewContainerWithOptions(bytesReaderAt(b), int64(len(b)), opts)
}

// Variant returns the detected header layout.
func (c *Container) Variant() Variant {
	return c.variant
}

// Header returns the header prefix. For PAKS only Magic is set.
func (c *Container) Header() Header {
	return c.header
}

// PAKSHeader returns the full PAKS header when the container is PAKS.
func (c *Container) PAKSHeader() (PAKSHeader, bool) {
	if c.paks == nil {
		return PAKSHeader{}, false
	}

	return *c.paks, true
}

// Sections returns a copy of decoded sections.
func (c *Container) Sections() []Section {
	out := make([]Section, len(c.sections))
	copy(out, c.sections)
	return out
}

// Section returns the section at index.
func (c *Container) Section(index int) (Section, error) {
	if index < 0 || index >= len(c.sections) {
		return Section{}, fmt.Errorf("%w: %d (have %d sections)", ErrInvalidSectionIndex, index, len(c.sections))
	}

	return c.sections[index], nil
}

// Partitions returns a copy of decoded partitions.
func (c *Container) Partitions() []Partition {
	out := make([]Partition, len(c.partitions))
	copy(out, c.partitions)
	return out
}

// Size returns total source size in bytes.
func (c *Container) Size() int64 {
	return c.size
}

// HeaderSize returns byte size of metadata preceding the payload region.
// For PAKS it is the fixed header only, section records are inline.
func (c *Container) HeaderSize() int64 {
	return c.headerSize
}

// SectionCountFallback reports whether the section count came from ReaderOptions.DefaultSectionCount.
func (c *Container) SectionCountFallback() bool {
	return c.fallback
}

// Close closes the underlying file if container owns one.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	if c.file != nil {
		return c.file.Close()
	}

	return nil
}

// checkOpen returns ErrClosed after Close.
func (c *Container) checkOpen() error {
	if c == nil || c.ra == nil {
		return ErrNilReader
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	return nil
}

// decode detects variant and decodes full header metadata.
func (c *Container) decode(opts ReaderOptions) error {
	variant, err := DetectVariant(c.ra)
	if err != nil {
		return err
	}

	c.variant = variant
	if variant == VariantPAKS {
		return c.decodePAKS()
	}

	count := opts.SectionCount
	if count <= 0 {
		count, err = resolveSectionCount(c.ra, variant, opts.MaxSectionScan)
		if err != nil {
			if opts.DefaultSectionCount <= 0 || !errors.Is(err, ErrCannotDetermineSectionCount) {
				return err
			}

			count = opts.DefaultSectionCount
			c.fallback = true
		}
	}

	return c.decodePAK(count)
}

// decodePAK reads and decodes PAK32/PAK64 prefix, sections and partitions.
func (c *Container) decodePAK(count int) error {
	size := HeaderRegionSize(c.variant, count)
	if c.size < size {
		return fmt.Errorf("%w: need %d bytes for %d sections, file has %d", ErrHeaderSizeMismatch, size, count, c.size)
	}

	raw := make([]byte, size)
	n, err := c.ra.ReadAt(raw, 0)
	if int64(n) != size {
		if err == nil || errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: expected %d bytes, got %d", ErrHeaderSizeMismatch, size, n)
		}

		return fmt.Errorf("read header: %w", err)
	}

	header, sections, partitions, err := DecodeHeaderRegion(c.variant, raw, count)
	if err != nil {
		return err
	}

	if header.Magic != uint64(MagicPAK) {
		return fmt.Errorf("%w: expected 0x%08x, got 0x%x", ErrBadMagic, MagicPAK, header.Magic)
	}

	c.raw = raw
	c.header = header
	c.sections = sections
	c.partitions = partitions
	c.headerSize = size
	return nil
}

// decodePAKS reads the PAKS header and walks inline section records.
func (c *Container) decodePAKS() error {
	buf := make([]byte, paksHeaderSize)
	if err := readFullAt(c.ra, buf, 0); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: expected %d bytes of PAKS header", ErrHeaderSizeMismatch, paksHeaderSize)
		}

		return fmt.Errorf("read PAKS header: %w", err)
	}

	header, err := decodePAKSHeader(buf)
	if err != nil {
		return err
	}

	if header.Magic != MagicPAKS {
		return fmt.Errorf("%w: expected 0x%08x, got 0x%08x", ErrBadMagic, MagicPAKS, header.Magic)
	}

	raw := append([]byte(nil), buf...)
	sections := make([]Section, 0, min(int(header.SectionCount), 64))
	off := int64(paksHeaderSize)
	rec := make([]byte, paksSectionSize)
	for i := 0; i < int(header.SectionCount); i++ {
		if err := readFullAt(c.ra, rec, off); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return fmt.Errorf("%w: section record %d at offset %d is past end of file (%d bytes)",
					ErrHeaderSizeMismatch, i, off, c.size)
			}

			return fmt.Errorf("read PAKS section %d: %w", i, err)
		}

		s, err := decodeSection(VariantPAKS, rec, i)
		if err != nil {
			return err
		}

		s.Start = uint64(off) + paksSectionSize //nolint:gosec // off is non-negative
		raw = append(raw, rec...)
		sections = append(sections, s)
		off = int64(s.Start + s.Len) //nolint:gosec // bounded by readFullAt on next iteration
	}

	c.paks = &header
	c.header = Header{Magic: uint64(header.Magic)}
	c.raw = raw
	c.sections = sections
	c.headerSize = paksHeaderSize
	return nil
}
