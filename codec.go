// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package pak

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// fieldKind identifies on-disk encoding of one record field.
type fieldKind uint8

const (
	// fieldUint is a little-endian unsigned integer of field size (4 or 8 bytes).
	fieldUint fieldKind = iota + 1
	// fieldString is NUL-padded UTF-8 of field size.
	fieldString
)

// field is one manifest entry bound to a value in a record struct.
// Exactly one of u32, u64, str is set.
type field struct {
	u32  *uint32
	u64  *uint64
	str  *string
	name string
	size int
	kind fieldKind
}

// FieldValue is one decoded field as exposed by debug formatting.
type FieldValue struct {
	Value any    `json:"value" yaml:"value"`
	Name  string `json:"name" yaml:"name"`
	Size  int    `json:"size" yaml:"size"`
}

func u32Field(name string, v *uint32) field {
	return field{name: name, size: 4, kind: fieldUint, u32: v}
}

func u64Field(name string, size int, v *uint64) field {
	return field{name: name, size: size, kind: fieldUint, u64: v}
}

func strField(name string, size int, v *string) field {
	return field{name: name, size: size, kind: fieldString, str: v}
}

// manifestSize returns total encoded size of fields.
func manifestSize(fields []field) int {
	total := 0
	for i := range fields {
		total += fields[i].size
	}

	return total
}

// decodeFields fills manifest-bound values from buf.
func decodeFields(record string, fields []field, buf []byte) error {
	want := manifestSize(fields)
	if len(buf) != want {
		return fmt.Errorf("%w: %s record is %d bytes, want %d", ErrTruncatedInput, record, len(buf), want)
	}

	off := 0
	for i := range fields {
		f := &fields[i]
		raw := buf[off : off+f.size]
		off += f.size

		switch f.kind {
		case fieldUint:
			var v uint64
			if f.size == 8 {
				v = binary.LittleEndian.Uint64(raw)
			} else {
				v = uint64(binary.LittleEndian.Uint32(raw))
			}

			if f.u32 != nil {
				*f.u32 = uint32(v) //nolint:gosec // u32 fields are always 4 bytes wide
			} else {
				*f.u64 = v
			}
		case fieldString:
			s, err := decodeString(raw)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", record, f.name, err)
			}

			*f.str = s
		default:
			return fmt.Errorf("%s.%s: unknown field kind %d", record, f.name, f.kind)
		}
	}

	return nil
}

// encodeFields writes manifest-bound values into buf.
func encodeFields(record string, fields []field, buf []byte) error {
	want := manifestSize(fields)
	if len(buf) != want {
		return fmt.Errorf("%w: %s buffer is %d bytes, want %d", ErrTruncatedInput, record, len(buf), want)
	}

	off := 0
	for i := range fields {
		f := &fields[i]
		raw := buf[off : off+f.size]
		off += f.size

		switch f.kind {
		case fieldUint:
			v := uint64(0)
			if f.u32 != nil {
				v = uint64(*f.u32)
			} else {
				v = *f.u64
			}

			if f.size == 8 {
				binary.LittleEndian.PutUint64(raw, v)
				continue
			}

			if v > math.MaxUint32 {
				return fmt.Errorf("%w: %s.%s value %d does not fit %d bytes", ErrFieldTooLong, record, f.name, v, f.size)
			}

			binary.LittleEndian.PutUint32(raw, uint32(v))
		case fieldString:
			if err := encodeString(raw, *f.str); err != nil {
				return fmt.Errorf("%s.%s: %w", record, f.name, err)
			}
		default:
			return fmt.Errorf("%s.%s: unknown field kind %d", record, f.name, f.kind)
		}
	}

	return nil
}

// fieldValues returns manifest values in declaration order.
func fieldValues(fields []field) []FieldValue {
	out := make([]FieldValue, 0, len(fields))
	for _, f := range fields {
		fv := FieldValue{Name: f.name, Size: f.size}
		switch {
		case f.u32 != nil:
			fv.Value = *f.u32
		case f.u64 != nil:
			fv.Value = *f.u64
		case f.str != nil:
			fv.Value = *f.str
		}

		out = append(out, fv)
	}

	return out
}

// formatFields renders manifest values as space separated key=value pairs.
func formatFields(fields []field) string {
	var b strings.Builder
	for i, fv := range fieldValues(fields) {
		if i > 0 {
			b.WriteByte(' ')
		}

		switch v := fv.Value.(type) {
		case string:
			fmt.Fprintf(&b, "%s=%q", fv.Name, v)
		case uint32:
			fmt.Fprintf(&b, "%s=0x%08x", fv.Name, v)
		case uint64:
			fmt.Fprintf(&b, "%s=0x%0*x", fv.Name, fv.Size*2, v)
		}
	}

	return b.String()
}

// decodeString strips trailing NUL padding and validates UTF-8.
func decodeString(raw []byte) (string, error) {
	trimmed := bytes.TrimRight(raw, "\x00")
	if !utf8.Valid(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEncoding, trimmed)
	}

	return string(trimmed), nil
}

// encodeString writes s into fixed-width dst and NUL-pads the rest.
func encodeString(dst []byte, s string) error {
	if len(s) > len(dst) {
		return fmt.Errorf("%w: %d bytes in %d-byte field", ErrFieldTooLong, len(s), len(dst))
	}
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: %q", ErrInvalidEncoding, s)
	}

	n := copy(dst, s)
	clear(dst[n:])

	return nil
}
