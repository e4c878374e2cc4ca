// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package pak

import (
	"fmt"
	"strings"

	"github.com/woozymasta/pathrules"
)

// sectionMatcher holds compiled include/exclude rules for section names.
type sectionMatcher struct {
	matcher *pathrules.Matcher
}

// newSectionMatcher compiles section name rules. Empty rules yield nil (match all).
func newSectionMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*sectionMatcher, error) {
	rules = normalizeSectionRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile section rules: %w", ErrInvalidSectionPattern, err)
	}

	return &sectionMatcher{matcher: matcher}, nil
}

// normalizeSectionRules trims rule patterns and drops empty patterns.
func normalizeSectionRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := strings.TrimSpace(rule.Pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// Match reports whether section s is selected. A nil matcher selects everything.
func (m *sectionMatcher) Match(s Section) bool {
	if m == nil || m.matcher == nil {
		return true
	}

	candidate := strings.TrimSpace(s.Name)
	if candidate == "" {
		candidate = fmt.Sprintf("%02d", s.Index)
	}

	return m.matcher.Included(candidate, false)
}

// IncludeRules converts plain patterns into include rules.
func IncludeRules(patterns ...string) []pathrules.Rule {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		rules = append(rules, pathrules.Rule{Action: pathrules.ActionInclude, Pattern: pattern})
	}

	return rules
}

// ExcludeRules converts plain patterns into exclude rules.
func ExcludeRules(patterns ...string) []pathrules.Rule {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		rules = append(rules, pathrules.Rule{Action: pathrules.ActionExclude, Pattern: pattern})
	}

	return rules
}
