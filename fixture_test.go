package pak

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// fixtureSection describes one synthesized section.
type fixtureSection struct {
	name    string
	version string
	payload []byte
}

// fixtureType is the opaque header type tag written by buildPAK.
const fixtureType = 0x00c0ffee

// patternPayload returns n deterministic non-zero bytes seeded by seed.
func patternPayload(n int, seed byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = seed + byte(i*7) + 1
	}

	return out
}

// threeSections returns sections with payload lengths 100, 0 and 50.
func threeSections() []fixtureSection {
	return []fixtureSection{
		{name: "uboot", version: "v1.0", payload: patternPayload(100, 1)},
		{name: "kernel", version: "v2.0"},
		{name: "rootfs", version: "v3.0", payload: patternPayload(50, 9)},
	}
}

// buildPAK synthesizes a PAK32 or PAK64 container with a valid CRC.
// Partition names repeat section names so the section count resolves.
func buildPAK(tb testing.TB, v Variant, secs []fixtureSection) []byte {
	tb.Helper()

	headerSize := HeaderRegionSize(v, len(secs))
	sections := make([]Section, len(secs))
	partitions := make([]Partition, len(secs))
	offset := uint64(headerSize) //nolint:gosec // test sizes are small
	for i, fs := range secs {
		sections[i] = Section{
			Name:    fs.name,
			Version: fs.version,
			Index:   i,
			Start:   offset,
			Len:     uint64(len(fs.payload)),
		}
		partitions[i] = Partition{
			Name:  fs.name,
			MTD:   "mtd" + string(rune('0'+i)),
			A:     uint32(i),
			Start: uint32(0x10000 * i),
			Len:   0x10000,
		}
		offset += uint64(len(fs.payload))
	}

	header := Header{Magic: uint64(MagicPAK), Type: fixtureType}
	region, err := EncodeHeaderRegion(v, header, sections, partitions)
	if err != nil {
		tb.Fatalf("EncodeHeaderRegion: %v", err)
	}

	var buf bytes.Buffer
	buf.Write(region)
	for _, fs := range secs {
		buf.Write(fs.payload)
	}

	out := buf.Bytes()
	prefix := v.headerPrefixSize()
	table := out[prefix : prefix+len(secs)*v.sectionRecordSize()]
	crc := referenceCRC(out[headerSize:], table)
	if err := patchCRC(sliceWriterAt(out), v, crc); err != nil {
		tb.Fatalf("patchCRC: %v", err)
	}

	return out
}

// buildPAKS synthesizes a PAKS container with inline section records.
func buildPAKS(tb testing.TB, secs []fixtureSection) []byte {
	tb.Helper()

	size := paksHeaderSize
	for _, fs := range secs {
		size += paksSectionSize + len(fs.payload)
	}

	header := PAKSHeader{
		Magic:           MagicPAKS,
		FileSize:        uint32(size),        //nolint:gosec // test sizes are small
		DataSize:        uint32(size - 104),  //nolint:gosec // test sizes are small
		SectionCount:    uint32(len(secs)),   //nolint:gosec // test sizes are small
		BoardID:         0x1234,
		HardwareVersion: "IPC_51516M5M",
		FirmwareVersion: "v3.0.0.183_21012800",
	}
	hdr, err := encodePAKSHeader(header)
	if err != nil {
		tb.Fatalf("encodePAKSHeader: %v", err)
	}

	var buf bytes.Buffer
	buf.Write(hdr)
	for i, fs := range secs {
		rec, err := encodeSection(VariantPAKS, Section{
			Name:     fs.name,
			Version:  fs.version,
			Index:    i,
			Len:      uint64(len(fs.payload)),
			Images:   1,
			Checksum: 0xdeadbeef,
			Reserved: [3]uint32{1, 2, 3},
		})
		if err != nil {
			tb.Fatalf("encodeSection: %v", err)
		}

		buf.Write(rec)
		buf.Write(fs.payload)
	}

	return buf.Bytes()
}

// writeFixture writes data to name under a fresh temp dir and returns the path.
func writeFixture(tb testing.TB, name string, data []byte) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("WriteFile: %v", err)
	}

	return path
}

// referenceCRC is a bitwise CRC32 (reflected IEEE polynomial) with zero
// register seed and no final inversion over payload, quirk word and table.
func referenceCRC(payload []byte, table []byte) uint32 {
	var reg uint32
	for _, part := range [][]byte{payload, {0x02, 0x00, 0x00, 0x00}, table} {
		for _, b := range part {
			reg ^= uint32(b)
			for range 8 {
				if reg&1 != 0 {
					reg = reg>>1 ^ 0xedb88320
				} else {
					reg >>= 1
				}
			}
		}
	}

	return reg
}

// sliceWriterAt patches a fixed byte slice in place.
type sliceWriterAt []byte

func (s sliceWriterAt) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(s)) {
		return 0, os.ErrInvalid
	}

	return copy(s[off:], p), nil
}

// memFile is an in-memory OutputFile.
type memFile struct {
	data []byte
	pos  int64
}

func (m *memFile) Write(p []byte) (int, error) {
	n, err := m.WriteAt(p, m.pos)
	m.pos += int64(n)
	return n, err
}

func (m *memFile) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, os.ErrInvalid
	}

	end := off + int64(len(p))
	if end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}

	return copy(m.data[off:end], p), nil
}

func (m *memFile) ReadAt(p []byte, off int64) (int, error) {
	return bytes.NewReader(m.data).ReadAt(p, off)
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case 0:
		next = offset
	case 1:
		next = m.pos + offset
	case 2:
		next = int64(len(m.data)) + offset
	default:
		return 0, os.ErrInvalid
	}
	if next < 0 {
		return 0, os.ErrInvalid
	}

	m.pos = next
	return next, nil
}

func (m *memFile) Truncate(size int64) error {
	if size < 0 {
		return os.ErrInvalid
	}

	if size <= int64(len(m.data)) {
		m.data = m.data[:size]
		return nil
	}

	grown := make([]byte, size)
	copy(grown, m.data)
	m.data = grown
	return nil
}
