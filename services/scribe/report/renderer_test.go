// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/jinterlante1206/FormScribe/services/scribe/aggregate"
	"github.com/jinterlante1206/FormScribe/services/scribe/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// documentXML unzips the rendered .docx and returns word/document.xml,
// which holds all visible text and layout.
func documentXML(t *testing.T, data []byte) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(content)
	}
	t.Fatal("word/document.xml missing from rendered docx")
	return ""
}

func amyGrouped() []datatypes.GroupedChild {
	return []datatypes.GroupedChild{
		{
			Name: "Amy",
			Entries: []datatypes.GroupedEntry{
				{
					Category:   "Language",
					SourceFile: "p1.jpg",
					Indicators: []datatypes.IndicatorScore{
						{Label: "H1", Score: "A"},
						{Label: "H2", Score: "R"},
						{Label: "H3", Score: "D"},
						{Label: "H4", Score: "N"},
					},
					Note: "likes stories",
				},
			},
		},
	}
}

// =============================================================================
// Render Tests
// =============================================================================

func TestRender_SingleChildSection(t *testing.T) {
	comments := map[string]datatypes.NarrativeComment{
		"Amy": {Observation: "Amy listens closely.", Suggestion: "Read together nightly."},
	}

	data, err := Render(amyGrouped(), comments)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	xml := documentXML(t, data)
	assert.Contains(t, xml, "Amy")
	assert.Contains(t, xml, "Language")
	for _, s := range []string{"H1", "H2", "H3", "H4"} {
		assert.Contains(t, xml, s)
	}
	assert.Contains(t, xml, "Amy listens closely.")
	assert.Contains(t, xml, "Read together nightly.")
	// The note feeds the narrative writer only; it is not a table cell.
	assert.NotContains(t, xml, "likes stories")
}

func TestRender_MissingCommentGetsDefault(t *testing.T) {
	data, err := Render(amyGrouped(), nil)
	require.NoError(t, err)

	xml := documentXML(t, data)
	assert.Contains(t, xml, "participated in all assessed activities")
}

// TestRender_Deterministic renders twice and compares the document part
// byte for byte.
func TestRender_Deterministic(t *testing.T) {
	comments := map[string]datatypes.NarrativeComment{
		"Amy": {Observation: "o", Suggestion: "s"},
	}

	first, err := Render(amyGrouped(), comments)
	require.NoError(t, err)
	second, err := Render(amyGrouped(), comments)
	require.NoError(t, err)

	assert.Equal(t, documentXML(t, first), documentXML(t, second))
}

func TestRender_PageBreakBetweenChildren(t *testing.T) {
	grouped := append(amyGrouped(), datatypes.GroupedChild{
		Name: "Ben",
		Entries: []datatypes.GroupedEntry{{
			Category:   "Math",
			Indicators: []datatypes.IndicatorScore{{Label: "Counting", Score: "A"}},
		}},
	})

	data, err := Render(grouped, nil)
	require.NoError(t, err)

	xml := documentXML(t, data)
	assert.Contains(t, xml, "Ben")
	assert.Contains(t, xml, `w:type="page"`, "hard page break between children")
}

func TestRender_EmptyGrouped(t *testing.T) {
	data, err := Render(nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, data, "an empty repository still yields a valid document")
}

// TestRender_EndToEndFromTranscription follows one decoded reply through
// flatten and grouping into the report.
func TestRender_EndToEndFromTranscription(t *testing.T) {
	results := []datatypes.TranscriptionResult{{
		SourceFile:   "p1.jpg",
		Category:     "Language",
		ColumnLabels: []string{"H1", "H2", "H3", "H4"},
		Children: []datatypes.ChildRecord{
			{Name: "Amy", Scores: []string{"A", "R", "D", "N"}, Note: "likes stories"},
		},
	}}

	grouped := aggregate.GroupByChild(aggregate.Flatten(results))
	require.Len(t, grouped, 1)
	require.Equal(t, "likes stories", grouped[0].Entries[0].Note)

	data, err := Render(grouped, nil)
	require.NoError(t, err)

	xml := documentXML(t, data)
	assert.Contains(t, xml, "Amy")
	for _, s := range []string{"H1", "H2", "H3", "H4"} {
		assert.Contains(t, xml, s)
	}
}
