// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package pak

import (
	"bufio"
	"fmt"
	"io"
)

// listingIndent prefixes section and partition lines in WriteListing output.
const listingIndent = "    "

// String returns a one-line section summary with offsets in hex and decimal.
func (s Section) String() string {
	return fmt.Sprintf("Section %2d name=%-16s version=%-16s start=0x%08x  len=0x%08x  (start=%8d len=%8d)",
		s.Index, quoteString(s.Name), quoteString(s.Version), s.Start, s.Len, s.Start, s.Len)
}

// String returns a one-line partition summary.
func (p Partition) String() string {
	return fmt.Sprintf("Mtd_part name=%-16s mtd=%-16s  a=0x%08x  start=0x%08x  len=0x%08x",
		quoteString(p.Name), quoteString(p.MTD), p.A, p.Start, p.Len)
}

// String returns a one-line PAKS header summary.
func (h PAKSHeader) String() string {
	return fmt.Sprintf("Header  magic=0x%08x  hwver=%s  fwver=%s  bdid=0x%08x  file_size=%d  sections=<%d>",
		h.Magic, quoteString(h.HardwareVersion), quoteString(h.FirmwareVersion), h.BoardID, h.FileSize, h.SectionCount)
}

// HeaderLine returns the container header summary line.
func (c *Container) HeaderLine() string {
	if c.paks != nil {
		return c.paks.String()
	}

	return fmt.Sprintf("Header  magic=0x%08x  crc32=0x%08x  type=0x%08x  sections=<%d>  mtd_parts=<%d>",
		c.header.Magic, c.header.CRC32, c.header.Type, len(c.sections), len(c.partitions))
}

// WriteListing writes the header line followed by indented section and partition lines.
func (c *Container) WriteListing(w io.Writer) error {
	if w == nil {
		return ErrNilWriter
	}

	bw := bufio.NewWriter(w)
	_, _ = fmt.Fprintln(bw, c.HeaderLine())
	for _, s := range c.sections {
		_, _ = fmt.Fprintln(bw, listingIndent+s.String())
	}
	for _, p := range c.partitions {
		_, _ = fmt.Fprintln(bw, listingIndent+p.String())
	}

	return bw.Flush()
}

// WriteFieldDump writes every decoded record as raw on-disk key=value fields.
func (c *Container) WriteFieldDump(w io.Writer) error {
	if w == nil {
		return ErrNilWriter
	}

	bw := bufio.NewWriter(w)
	if c.paks != nil {
		h := *c.paks
		_, _ = fmt.Fprintf(bw, "header %s\n", formatFields(paksHeaderFields(&h)))
	} else {
		h := c.header
		_, _ = fmt.Fprintf(bw, "header %s\n", formatFields(headerFields(c.variant, &h)))
	}

	for _, s := range c.sections {
		_, _ = fmt.Fprintf(bw, "section[%d] %s\n", s.Index, formatFields(sectionFields(c.variant, &s)))
	}

	for i, p := range c.partitions {
		_, _ = fmt.Fprintf(bw, "partition[%d] %s\n", i, formatFields(partitionFields(&p)))
	}

	return bw.Flush()
}

// quoteString wraps s in double quotes without escaping.
func quoteString(s string) string {
	return `"` + s + `"`
}
