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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// MatchRule Tests
// =============================================================================

func TestMatchRule_Matches(t *testing.T) {
	tests := []struct {
		name string
		rule MatchRule
		id   string
		want bool
	}{
		{"single substring hit", MatchRule{Contains: []string{"pro"}}, "gemini-3.0-pro", true},
		{"single substring miss", MatchRule{Contains: []string{"pro"}}, "gemini-1.5-flash", false},
		{"all substrings required", MatchRule{Contains: []string{"flash", "1.5"}}, "gemini-1.5-flash", true},
		{"one substring missing", MatchRule{Contains: []string{"flash", "1.5"}}, "gemini-2.0-flash", false},
		{"empty rule matches nothing", MatchRule{}, "gemini-3.0-pro", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Matches(tt.id))
		})
	}
}

// =============================================================================
// ResolveModel Tests
// =============================================================================

// TestResolveModel_FirstRulePriority verifies that an earlier rule wins even
// when a later rule also has matches.
func TestResolveModel_FirstRulePriority(t *testing.T) {
	available := []string{"modelX-9", "modelX-flash-1.5"}
	prefs := []MatchRule{
		{Name: "strong", Contains: []string{"X-9"}},
		{Name: "weak", Contains: []string{"flash", "1.5"}},
	}

	assert.Equal(t, "modelX-9", ResolveModel(available, prefs))
}

// TestResolveModel_FallsThroughToLaterRule verifies that rules without any
// match are skipped entirely.
func TestResolveModel_FallsThroughToLaterRule(t *testing.T) {
	available := []string{"modelX-flash-1.5"}
	prefs := []MatchRule{
		{Name: "strong", Contains: []string{"X-9"}},
		{Name: "weak", Contains: []string{"flash", "1.5"}},
	}

	assert.Equal(t, "modelX-flash-1.5", ResolveModel(available, prefs))
}

// TestResolveModel_EmptyCatalog verifies the fixed fallback identifier is
// used when nothing matches, without erroring.
func TestResolveModel_EmptyCatalog(t *testing.T) {
	prefs := []MatchRule{{Name: "strong", Contains: []string{"X-9"}}}

	assert.Equal(t, FallbackModel, ResolveModel(nil, prefs))
	assert.Equal(t, FallbackModel, ResolveModel([]string{}, prefs))
}

// TestResolveModel_CatalogOrderWithinRule verifies that within one rule the
// first catalog entry wins, not the lexically smallest.
func TestResolveModel_CatalogOrderWithinRule(t *testing.T) {
	available := []string{"gemini-3.0-pro-002", "gemini-3.0-pro-001"}
	prefs := []MatchRule{{Name: "pro", Contains: []string{"gemini-3.0-pro"}}}

	assert.Equal(t, "gemini-3.0-pro-002", ResolveModel(available, prefs))
}

func TestResolveModel_NoPrefs(t *testing.T) {
	assert.Equal(t, FallbackModel, ResolveModel([]string{"gemini-3.0-pro"}, nil))
}

func TestDefaultPreferenceRules_TierOrder(t *testing.T) {
	available := []string{
		"gemini-1.5-flash",
		"gemini-1.5-pro",
		"gemini-3.0-flash",
		"gemini-3.0-pro",
	}

	assert.Equal(t, "gemini-3.0-pro", ResolveModel(available, DefaultPreferenceRules()))

	// Without the flagship, the next tier down is selected.
	assert.Equal(t, "gemini-3.0-flash", ResolveModel(available[:3], DefaultPreferenceRules()))
	assert.Equal(t, "gemini-1.5-pro", ResolveModel(available[:2], DefaultPreferenceRules()))
	assert.Equal(t, "gemini-1.5-flash", ResolveModel(available[:1], DefaultPreferenceRules()))
}
