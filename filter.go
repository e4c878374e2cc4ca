// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package pak

// filterSectionsByLen drops zero-length sections unless includeEmpty is set.
func filterSectionsByLen(sections []Section, includeEmpty bool, onSkip func(Section)) []Section {
	if includeEmpty {
		return sections
	}

	out := make([]Section, 0, len(sections))
	for _, s := range sections {
		if s.Len == 0 {
			if onSkip != nil {
				onSkip(s)
			}

			continue
		}

		out = append(out, s)
	}

	return out
}

// filterSectionsByMatcher keeps sections selected by name rules.
func filterSectionsByMatcher(sections []Section, matcher *sectionMatcher, onSkip func(Section)) []Section {
	if matcher == nil {
		return sections
	}

	out := make([]Section, 0, len(sections))
	for _, s := range sections {
		if !matcher.Match(s) {
			if onSkip != nil {
				onSkip(s)
			}

			continue
		}

		out = append(out, s)
	}

	return out
}

// filterSectionsByIndex keeps sections whose index is listed in indexes.
// Empty indexes keep all sections.
func filterSectionsByIndex(sections []Section, indexes []int) []Section {
	if len(indexes) == 0 {
		return sections
	}

	wanted := make(map[int]struct{}, len(indexes))
	for _, idx := range indexes {
		wanted[idx] = struct{}{}
	}

	out := make([]Section, 0, len(indexes))
	for _, s := range sections {
		if _, ok := wanted[s.Index]; ok {
			out = append(out, s)
		}
	}

	return out
}
