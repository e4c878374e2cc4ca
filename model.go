// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package pak

import (
	"time"

	"github.com/woozymasta/pathrules"
)

// Format magic numbers (stored little-endian).
const (
	// MagicPAK marks PAK32 and PAK64 containers (same low 32 bits in both widths).
	MagicPAK uint32 = 0x32725913
	// MagicPAKS marks PAKS containers ("SKAP" on disk).
	MagicPAKS uint32 = 0x50414B53
)

// Internal binary layout sizes.
const (
	header32Size    = 12  // magic, crc32, type as u32
	header64Size    = 24  // magic, crc32, type as u64
	section32Size   = 64  // name[32] version[24] start:u32 len:u32
	section64Size   = 72  // name[32] version[24] start:u64 len:u64
	partitionSize   = 76  // name[32] a:u32 mtd[32] start:u32 len:u32
	paksHeaderSize  = 104 // fixed PAKS header
	paksSectionSize = 88  // inline PAKS section record

	nameFieldSize        = 32
	versionFieldSize     = 24
	paksVersionFieldSize = 32

	// detectWindowSize is six u32 words read by the bit-width heuristic.
	detectWindowSize = 24

	crcOffset32 = 4
	crcOffset64 = 8
)

// Default tuning values.
const (
	// ChunkSize bounds every streaming read/write of payload data.
	ChunkSize = 128 * 1024
	// DefaultMaxSectionScan bounds the section-count scan window.
	DefaultMaxSectionScan = 30
)

// crcQuirk is folded into the CRC between payload and section table.
var crcQuirk = [4]byte{0x02, 0x00, 0x00, 0x00}

// Variant identifies one of the on-disk header layouts.
type Variant uint8

// Container variants.
const (
	// VariantUnknown is the zero value and never a decoded variant.
	VariantUnknown Variant = iota
	// VariantPAK32 has 32-bit header and section offset fields.
	VariantPAK32
	// VariantPAK64 has 64-bit header and section offset fields.
	VariantPAK64
	// VariantPAKS has an explicit section count and inline section records.
	VariantPAKS
)

// String returns the variant name.
func (v Variant) String() string {
	switch v {
	case VariantPAK32:
		return "PAK32"
	case VariantPAK64:
		return "PAK64"
	case VariantPAKS:
		return "PAKS"
	default:
		return "unknown"
	}
}

// MarshalText encodes the variant by name.
func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Is64 reports whether header and section offset fields are 8 bytes wide.
func (v Variant) Is64() bool {
	return v == VariantPAK64
}

// SupportsCRC reports whether a container-level CRC is defined.
func (v Variant) SupportsCRC() bool {
	return v == VariantPAK32 || v == VariantPAK64
}

// SupportsReplace reports whether section replacement is defined.
func (v Variant) SupportsReplace() bool {
	return v.SupportsCRC()
}

// headerPrefixSize returns fixed header prefix size before the section table.
func (v Variant) headerPrefixSize() int {
	switch v {
	case VariantPAK64:
		return header64Size
	case VariantPAKS:
		return paksHeaderSize
	default:
		return header32Size
	}
}

// sectionRecordSize returns one section record size.
func (v Variant) sectionRecordSize() int {
	switch v {
	case VariantPAK64:
		return section64Size
	case VariantPAKS:
		return paksSectionSize
	default:
		return section32Size
	}
}

// crcFieldOffset returns the byte offset and width of the stored CRC.
func (v Variant) crcFieldOffset() (int64, int) {
	if v.Is64() {
		return crcOffset64, 8
	}

	return crcOffset32, 4
}

// Header is the fixed PAK32/PAK64 header prefix.
// Field widths on disk are 4 bytes for PAK32 and 8 bytes for PAK64.
type Header struct {
	Magic uint64 `json:"magic" yaml:"magic"`
	CRC32 uint64 `json:"crc32" yaml:"crc32"`
	// Type is an opaque device/firmware tag.
	Type uint64 `json:"type" yaml:"type"`
}

// PAKSHeader is the fixed 104-byte PAKS header.
// Unknown fields are kept verbatim.
type PAKSHeader struct {
	HardwareVersion string `json:"hardware_version" yaml:"hardware_version"`
	FirmwareVersion string `json:"firmware_version" yaml:"firmware_version"`
	Magic           uint32 `json:"magic" yaml:"magic"`
	Unknown0        uint32 `json:"unknown0" yaml:"unknown0"`
	FileSize        uint32 `json:"file_size" yaml:"file_size"`
	Unknown1        uint32 `json:"unknown1" yaml:"unknown1"`
	Unknown2        uint32 `json:"unknown2" yaml:"unknown2"`
	BoardID         uint32 `json:"board_id" yaml:"board_id"`
	Unknown3        uint32 `json:"unknown3" yaml:"unknown3"`
	// DataSize is usually FileSize minus header size.
	DataSize     uint32 `json:"data_size" yaml:"data_size"`
	SectionCount uint32 `json:"section_count" yaml:"section_count"`
	Unknown4     uint32 `json:"unknown4" yaml:"unknown4"`
}

// Section is one named payload region of a container.
type Section struct {
	// Name is at most 32 bytes on disk.
	Name string `json:"name" yaml:"name"`
	// Version is at most 24 bytes (PAK32/PAK64) or 32 bytes (PAKS) on disk.
	Version string `json:"version" yaml:"version"`
	// Index is zero-based table position.
	Index int `json:"index" yaml:"index"`
	// Start is absolute payload offset in the container file.
	Start uint64 `json:"start" yaml:"start"`
	// Len is payload length in bytes.
	Len uint64 `json:"len" yaml:"len"`
	// Images is a PAKS-only field, kept verbatim.
	Images uint32 `json:"images,omitempty" yaml:"images,omitempty"`
	// Checksum is a PAKS-only per-section checksum, not verified.
	Checksum uint32 `json:"checksum,omitempty" yaml:"checksum,omitempty"`
	// Reserved holds PAKS-only trailing fields, kept verbatim.
	Reserved [3]uint32 `json:"reserved,omitzero" yaml:"reserved,omitempty"`
}

// Partition is one Mtd_Part flash mapping record.
// Start and Len stay 32-bit in PAK64 containers.
type Partition struct {
	Name  string `json:"name" yaml:"name"`
	MTD   string `json:"mtd" yaml:"mtd"`
	A     uint32 `json:"a" yaml:"a"`
	Start uint32 `json:"start" yaml:"start"`
	Len   uint32 `json:"len" yaml:"len"`
}

// ReaderOptions configures container decoding.
type ReaderOptions struct {
	// SectionCount forces the section count and skips the resolver (PAK32/PAK64 only).
	SectionCount int `json:"section_count,omitempty" yaml:"section_count,omitempty"`
	// DefaultSectionCount is used when the resolver fails; zero surfaces the error.
	DefaultSectionCount int `json:"default_section_count,omitempty" yaml:"default_section_count,omitempty"`
	// MaxSectionScan bounds the resolver scan window (default 30).
	MaxSectionScan int `json:"max_section_scan,omitempty" yaml:"max_section_scan,omitempty"`
}

// ExtractOptions configures Extract behavior.
type ExtractOptions struct {
	// OnSectionDone is called after one section is fully written to disk.
	OnSectionDone func(section Section, written int64, outputPath string) `json:"-" yaml:"-"`
	// OnSectionSkipped is called for sections filtered out by size or name rules.
	OnSectionSkipped func(section Section) `json:"-" yaml:"-"`
	// FileMode controls output file creation policy.
	FileMode ExtractFileMode `json:"file_mode,omitempty" yaml:"file_mode,omitempty"`
	// Indexes restricts extraction to listed section indexes; empty means all.
	Indexes []int `json:"indexes,omitempty" yaml:"indexes,omitempty"`
	// Sections are ordered name rules selecting sections; empty means all.
	Sections []pathrules.Rule `json:"sections,omitempty" yaml:"sections,omitempty"`
	// SectionMatcherOptions control section name rule matching.
	SectionMatcherOptions pathrules.MatcherOptions `json:"section_matcher_options,omitzero" yaml:"section_matcher_options,omitzero"`
	// IncludeEmpty also writes zero-length sections.
	IncludeEmpty bool `json:"include_empty,omitempty" yaml:"include_empty,omitempty"`
}

// ExtractFileMode controls output file open behavior during extraction.
type ExtractFileMode string

// Output file creation policies for extraction.
const (
	// ExtractFileModeAuto first tries create-only, then falls back to truncate for existing files.
	ExtractFileModeAuto ExtractFileMode = "auto"
	// ExtractFileModeTruncate opens existing files with truncate and creates missing files.
	ExtractFileModeTruncate ExtractFileMode = "truncate"
	// ExtractFileModeCreateOnly creates files only when absent and fails on existing files.
	ExtractFileModeCreateOnly ExtractFileMode = "create_only"
)

// ExtractedSection describes one written extraction output.
type ExtractedSection struct {
	Path    string  `json:"path" yaml:"path"`
	Section Section `json:"section" yaml:"section"`
	Written int64   `json:"written" yaml:"written"`
}

// ReplaceOptions configures section replacement.
type ReplaceOptions struct {
	// OnStateChange is called on every replace state transition.
	OnStateChange func(state ReplaceState) `json:"-" yaml:"-"`
	// OnSectionDone is called after one section payload is copied to output.
	OnSectionDone func(progress ReplaceProgress) `json:"-" yaml:"-"`
	// ReaderOptions are used to decode the source container.
	ReaderOptions ReaderOptions `json:"reader_options,omitzero" yaml:"reader_options,omitzero"`
}

// ReplaceProgress is one completed section copy event.
type ReplaceProgress struct {
	Section Section `json:"section" yaml:"section"`
	// OriginalLen is section length in the source container.
	OriginalLen uint64 `json:"original_len" yaml:"original_len"`
	// Replaced reports whether the payload came from the replacement source.
	Replaced bool `json:"replaced,omitempty" yaml:"replaced,omitempty"`
}

// ReplaceResult contains replace output metadata.
type ReplaceResult struct {
	Header   Header        `json:"header" yaml:"header"`
	Sections []Section     `json:"sections" yaml:"sections"`
	Size     int64         `json:"size" yaml:"size"`
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
	CRC32    uint32        `json:"crc32" yaml:"crc32"`
}

// EditOptions configures in-place editing through Editor.
type EditOptions struct {
	// ReplaceOptions are used for the rewrite and to decode the source.
	ReplaceOptions ReplaceOptions `json:"replace_options,omitzero" yaml:"replace_options,omitzero"`
	// BackupKeep is the number of "<path>.bak" generations kept after commit (0 removes the backup).
	BackupKeep int `json:"backup_keep,omitempty" yaml:"backup_keep,omitempty"`
}

// applyDefaults fills zero-valued reader options with defaults.
func (opts *ReaderOptions) applyDefaults() {
	if opts.MaxSectionScan <= 0 {
		opts.MaxSectionScan = DefaultMaxSectionScan
	}

	if opts.DefaultSectionCount < 0 {
		opts.DefaultSectionCount = 0
	}
}

// applyDefaults fills zero-valued extract options with defaults.
func (opts *ExtractOptions) applyDefaults() {
	if opts.FileMode == "" {
		opts.FileMode = ExtractFileModeAuto
	}

	if opts.SectionMatcherOptions == (pathrules.MatcherOptions{}) {
		opts.SectionMatcherOptions = pathrules.MatcherOptions{CaseInsensitive: true}
	}

	if opts.SectionMatcherOptions.DefaultAction == pathrules.ActionUnknown {
		// Unmatched names are excluded only when an include rule exists.
		opts.SectionMatcherOptions.DefaultAction = pathrules.ActionInclude
		for _, rule := range opts.Sections {
			if rule.Action == pathrules.ActionInclude {
				opts.SectionMatcherOptions.DefaultAction = pathrules.ActionExclude
				break
			}
		}
	}
}

// applyDefaults normalizes edit options.
func (opts *EditOptions) applyDefaults() {
	if opts.BackupKeep < 0 {
		opts.BackupKeep = 0
	}
}
