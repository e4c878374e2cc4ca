// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package pak

import (
	"fmt"
	"strings"
	"unicode"
)

// reservedDeviceNames contains case-insensitive reserved DOS/Windows device names.
var reservedDeviceNames = map[string]struct{}{
	"aux":    {},
	"clock$": {},
	"com1":   {},
	"com2":   {},
	"com3":   {},
	"com4":   {},
	"com5":   {},
	"com6":   {},
	"com7":   {},
	"com8":   {},
	"com9":   {},
	"con":    {},
	"lpt1":   {},
	"lpt2":   {},
	"lpt3":   {},
	"lpt4":   {},
	"lpt5":   {},
	"lpt6":   {},
	"lpt7":   {},
	"lpt8":   {},
	"lpt9":   {},
	"nul":    {},
	"prn":    {},
}

// SectionFileName returns the extraction file name for s: "NN_name.bin",
// or "NN.bin" for an unnamed section. Unsafe name characters become "_".
func SectionFileName(s Section) string {
	name := SanitizeSectionName(s.Name)
	if name == "" {
		return fmt.Sprintf("%02d.bin", s.Index)
	}

	return fmt.Sprintf("%02d_%s.bin", s.Index, name)
}

// SanitizeSectionName rewrites a section name to one filesystem-safe path segment.
// Empty and whitespace-only names return "".
func SanitizeSectionName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if name == "." || name == ".." {
		return "_"
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if isUnsafeNameRune(r) || strings.ContainsRune(`<>:"/\|?*`, r) {
			b.WriteRune('_')
			continue
		}

		b.WriteRune(r)
	}

	sanitized := strings.TrimRight(b.String(), ". ")
	if sanitized == "" {
		return "_"
	}

	if isReservedDeviceName(sanitized) {
		sanitized = "_" + sanitized
	}

	return sanitized
}

// isUnsafeNameRune reports whether rune is unsafe in file names and text output.
func isUnsafeNameRune(r rune) bool {
	if unicode.IsControl(r) || unicode.In(r, unicode.Cf) {
		return true
	}

	return r == '�'
}

// isReservedDeviceName reports whether name matches a reserved device identifier.
func isReservedDeviceName(name string) bool {
	candidate := strings.ToLower(strings.TrimRight(name, ". :"))
	if dot := strings.IndexByte(candidate, '.'); dot >= 0 {
		candidate = candidate[:dot]
	}
	if candidate == "" {
		return false
	}

	_, ok := reservedDeviceNames[candidate]
	return ok
}
