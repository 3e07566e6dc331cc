// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import "strings"

// FallbackModel is returned when no preference rule matches anything in the
// remote catalog. It is not verified against the catalog; an unavailable
// fallback fails fast on the first generation call instead.
const FallbackModel = "gemini-1.5-flash"

// MatchRule is one declarative capability predicate over a model identifier.
// A rule matches when every entry of Contains appears as a substring of the
// identifier.
type MatchRule struct {
	// Name labels the rule in logs and config files.
	Name string `yaml:"name" json:"name"`

	// Contains lists required substrings. All must be present.
	Contains []string `yaml:"contains" json:"contains"`
}

// Matches reports whether id satisfies the rule. A rule with no required
// substrings matches nothing, so a half-filled config entry cannot
// accidentally select every model.
func (r MatchRule) Matches(id string) bool {
	if len(r.Contains) == 0 {
		return false
	}
	for _, sub := range r.Contains {
		if !strings.Contains(id, sub) {
			return false
		}
	}
	return true
}

// DefaultPreferenceRules orders the known Gemini tiers strongest-first.
// The lowest tier additionally pins a version substring so an unversioned
// experimental flash build is never picked over the stable one.
func DefaultPreferenceRules() []MatchRule {
	return []MatchRule{
		{Name: "pro-3.0", Contains: []string{"gemini-3.0-pro"}},
		{Name: "flash-3.0", Contains: []string{"gemini-3.0-flash"}},
		{Name: "pro-1.5", Contains: []string{"gemini-1.5-pro"}},
		{Name: "flash-stable", Contains: []string{"flash", "1.5"}},
	}
}

// ResolveModel picks the best available model identifier.
//
// # Description
//
// Rules are evaluated left to right; the first rule that matches anything
// wins, and within a rule the first available identifier (catalog order)
// is chosen. When no rule matches any identifier, FallbackModel is
// returned. Pure selection: never errors, no remote calls.
//
// # Inputs
//
//   - available: remote catalog identifiers, in catalog order.
//   - prefs: priority-ordered rules. Empty prefs fall back immediately.
//
// # Outputs
//
//   - string: the selected model identifier, or FallbackModel.
func ResolveModel(available []string, prefs []MatchRule) string {
	for _, rule := range prefs {
		for _, id := range available {
			if rule.Matches(id) {
				return id
			}
		}
	}
	return FallbackModel
}
