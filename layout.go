// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package pak

import "fmt"

// headerFields is the PAK32/PAK64 header prefix manifest.
func headerFields(v Variant, h *Header) []field {
	size := 4
	if v.Is64() {
		size = 8
	}

	return []field{
		u64Field("magic", size, &h.Magic),
		u64Field("crc32", size, &h.CRC32),
		u64Field("type", size, &h.Type),
	}
}

// sectionFields is the section record manifest for variant v.
func sectionFields(v Variant, s *Section) []field {
	switch v {
	case VariantPAKS:
		return []field{
			u32Field("imgs", &s.Images),
			u32Field("checksum", &s.Checksum),
			strField("name", nameFieldSize, &s.Name),
			strField("version", paksVersionFieldSize, &s.Version),
			u64Field("len", 4, &s.Len),
			u32Field("unknown0", &s.Reserved[0]),
			u32Field("unknown1", &s.Reserved[1]),
			u32Field("unknown2", &s.Reserved[2]),
		}
	case VariantPAK64:
		return []field{
			strField("name", nameFieldSize, &s.Name),
			strField("version", versionFieldSize, &s.Version),
			u64Field("start", 8, &s.Start),
			u64Field("len", 8, &s.Len),
		}
	default:
		return []field{
			strField("name", nameFieldSize, &s.Name),
			strField("version", versionFieldSize, &s.Version),
			u64Field("start", 4, &s.Start),
			u64Field("len", 4, &s.Len),
		}
	}
}

// partitionFields is the Mtd_Part manifest, identical for PAK32 and PAK64.
func partitionFields(p *Partition) []field {
	return []field{
		strField("name", nameFieldSize, &p.Name),
		u32Field("a", &p.A),
		strField("mtd", nameFieldSize, &p.MTD),
		u32Field("start", &p.Start),
		u32Field("len", &p.Len),
	}
}

// paksHeaderFields is the PAKS header manifest.
func paksHeaderFields(h *PAKSHeader) []field {
	return []field{
		u32Field("magic", &h.Magic),
		u32Field("unknown0", &h.Unknown0),
		u32Field("file_size", &h.FileSize),
		u32Field("unknown1", &h.Unknown1),
		u32Field("unknown2", &h.Unknown2),
		u32Field("bdid", &h.BoardID),
		u32Field("unknown3", &h.Unknown3),
		strField("hwver", nameFieldSize, &h.HardwareVersion),
		strField("fwver", nameFieldSize, &h.FirmwareVersion),
		u32Field("data_size", &h.DataSize),
		u32Field("nb_sections", &h.SectionCount),
		u32Field("unknown4", &h.Unknown4),
	}
}

// decodeHeaderPrefix decodes the PAK32/PAK64 header prefix.
func decodeHeaderPrefix(v Variant, buf []byte) (Header, error) {
	var h Header
	if err := decodeFields(v.String()+" header", headerFields(v, &h), buf); err != nil {
		return Header{}, err
	}

	return h, nil
}

// encodeHeaderPrefix encodes the PAK32/PAK64 header prefix.
func encodeHeaderPrefix(v Variant, h Header) ([]byte, error) {
	buf := make([]byte, v.headerPrefixSize())
	if err := encodeFields(v.String()+" header", headerFields(v, &h), buf); err != nil {
		return nil, err
	}

	return buf, nil
}

// decodeSection decodes one section record and assigns its table index.
func decodeSection(v Variant, buf []byte, index int) (Section, error) {
	s := Section{Index: index}
	if err := decodeFields(fmt.Sprintf("section %d", index), sectionFields(v, &s), buf); err != nil {
		return Section{}, err
	}

	return s, nil
}

// encodeSection encodes one section record.
func encodeSection(v Variant, s Section) ([]byte, error) {
	buf := make([]byte, v.sectionRecordSize())
	if err := encodeFields(fmt.Sprintf("section %d", s.Index), sectionFields(v, &s), buf); err != nil {
		return nil, err
	}

	return buf, nil
}

// decodePartition decodes one Mtd_Part record.
func decodePartition(buf []byte, index int) (Partition, error) {
	var p Partition
	if err := decodeFields(fmt.Sprintf("partition %d", index), partitionFields(&p), buf); err != nil {
		return Partition{}, err
	}

	return p, nil
}

// encodePartition encodes one Mtd_Part record.
func encodePartition(p Partition, index int) ([]byte, error) {
	buf := make([]byte, partitionSize)
	if err := encodeFields(fmt.Sprintf("partition %d", index), partitionFields(&p), buf); err != nil {
		return nil, err
	}

	return buf, nil
}

// decodePAKSHeader decodes the fixed PAKS header.
func decodePAKSHeader(buf []byte) (PAKSHeader, error) {
	var h PAKSHeader
	if err := decodeFields("PAKS header", paksHeaderFields(&h), buf); err != nil {
		return PAKSHeader{}, err
	}

	return h, nil
}

// encodePAKSHeader encodes the fixed PAKS header.
func encodePAKSHeader(h PAKSHeader) ([]byte, error) {
	buf := make([]byte, paksHeaderSize)
	if err := encodeFields("PAKS header", paksHeaderFields(&h), buf); err != nil {
		return nil, err
	}

	return buf, nil
}

// HeaderRegionSize returns PAK32/PAK64 metadata size for n sections and n partitions.
func HeaderRegionSize(v Variant, sectionCount int) int64 {
	return int64(v.headerPrefixSize()) + int64(sectionCount)*int64(v.sectionRecordSize()+partitionSize)
}

// DecodeHeaderRegion decodes a full PAK32/PAK64 header region holding sectionCount
// sections followed by as many partitions.
func DecodeHeaderRegion(v Variant, buf []byte, sectionCount int) (Header, []Section, []Partition, error) {
	if !v.SupportsCRC() {
		return Header{}, nil, nil, fmt.Errorf("%w: header region decode for %s", ErrUnsupportedOperation, v)
	}
	if sectionCount < 0 {
		return Header{}, nil, nil, fmt.Errorf("%w: negative section count %d", ErrInvalidSectionIndex, sectionCount)
	}

	want := HeaderRegionSize(v, sectionCount)
	if int64(len(buf)) != want {
		return Header{}, nil, nil, fmt.Errorf("%w: header region is %d bytes, want %d", ErrTruncatedInput, len(buf), want)
	}

	prefix := v.headerPrefixSize()
	header, err := decodeHeaderPrefix(v, buf[:prefix])
	if err != nil {
		return Header{}, nil, nil, err
	}

	off := prefix
	recSize := v.sectionRecordSize()
	sections := make([]Section, 0, sectionCount)
	for i := 0; i < sectionCount; i++ {
		s, err := decodeSection(v, buf[off:off+recSize], i)
		if err != nil {
			return Header{}, nil, nil, err
		}

		sections = append(sections, s)
		off += recSize
	}

	partitions := make([]Partition, 0, sectionCount)
	for i := 0; i < sectionCount; i++ {
		p, err := decodePartition(buf[off:off+partitionSize], i)
		if err != nil {
			return Header{}, nil, nil, err
		}

		partitions = append(partitions, p)
		off += partitionSize
	}

	return header, sections, partitions, nil
}

// EncodeHeaderRegion encodes a full PAK32/PAK64 header region.
// Section indexes must match their table positions.
func EncodeHeaderRegion(v Variant, header Header, sections []Section, partitions []Partition) ([]byte, error) {
	if !v.SupportsCRC() {
		return nil, fmt.Errorf("%w: header region encode for %s", ErrUnsupportedOperation, v)
	}
	if len(sections) != len(partitions) {
		return nil, fmt.Errorf("%w: %d sections but %d partitions", ErrHeaderSizeMismatch, len(sections), len(partitions))
	}

	prefix, err := encodeHeaderPrefix(v, header)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, HeaderRegionSize(v, len(sections)))
	buf = append(buf, prefix...)
	for i := range sections {
		if sections[i].Index != i {
			return nil, fmt.Errorf("%w: section at %d has index %d", ErrSectionIndexOrder, i, sections[i].Index)
		}

		rec, err := encodeSection(v, sections[i])
		if err != nil {
			return nil, err
		}

		buf = append(buf, rec...)
	}

	for i := range partitions {
		rec, err := encodePartition(partitions[i], i)
		if err != nil {
			return nil, err
		}

		buf = append(buf, rec...)
	}

	return buf, nil
}

// FieldValues returns header fields in on-disk order.
func (h Header) FieldValues(v Variant) []FieldValue {
	return fieldValues(headerFields(v, &h))
}

// FieldValues returns section fields in on-disk order for variant v.
func (s Section) FieldValues(v Variant) []FieldValue {
	return fieldValues(sectionFields(v, &s))
}

// FieldValues returns partition fields in on-disk order.
func (p Partition) FieldValues() []FieldValue {
	return fieldValues(partitionFields(&p))
}

// FieldValues returns PAKS header fields in on-disk order.
func (h PAKSHeader) FieldValues() []FieldValue {
	return fieldValues(paksHeaderFields(&h))
}
