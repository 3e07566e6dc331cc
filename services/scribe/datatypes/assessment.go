// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes holds the shared record types for scanned assessment
// forms: what the vision model produces per image, the flattened rows the
// review grid edits, and the per-child grouping the report is built from.
package datatypes

// Grade symbols as printed on the paper forms. Circled numeral 1 maps to A,
// 2 to R, 3 to D, 4 to N. Values outside this set are passed through
// uncorrected so an operator can fix them in the review grid.
const (
	GradeAccomplished = "A"
	GradeReinforce    = "R"
	GradeDeveloping   = "D"
	GradeNeedsSupport = "N"
)

// IndicatorCount is the nominal number of score columns on every form page.
const IndicatorCount = 4

// UploadedImage is one photographed form page. Input only, never mutated.
type UploadedImage struct {
	Filename string
	MIMEType string
	Data     []byte
}

// ChildRecord is one data row transcribed off a form page. Scores correspond
// positionally to the owning TranscriptionResult's ColumnLabels and may be
// shorter than IndicatorCount when the model could not read a cell.
type ChildRecord struct {
	Name   string   `json:"name"`
	Scores []string `json:"scores"`
	Note   string   `json:"note"`
}

// TranscriptionResult is the structured reading of a single image. The JSON
// tags match the reply shape the transcription prompt demands from the
// model; SourceFile is attached afterwards by the transcriber.
type TranscriptionResult struct {
	SourceFile   string        `json:"source_file,omitempty"`
	Category     string        `json:"category"`
	ColumnLabels []string      `json:"headers"`
	Children     []ChildRecord `json:"children"`
}

// IndicatorScore pairs one column label with the grade symbol recorded under
// it. An empty Score means the cell was blank or unread.
type IndicatorScore struct {
	Label string `json:"label"`
	Score string `json:"score"`
}

// FlatRow is the denormalized projection used by the review grid: one row
// per child per image, always exactly IndicatorCount indicator slots.
type FlatRow struct {
	ID         string           `json:"id"`
	ChildName  string           `json:"child_name"`
	Category   string           `json:"category"`
	SourceFile string           `json:"source_file"`
	Indicators []IndicatorScore `json:"indicators"`
	Note       string           `json:"note"`
}

// GroupedEntry is one category's worth of scores for a child.
type GroupedEntry struct {
	Category   string           `json:"category"`
	SourceFile string           `json:"source_file"`
	Indicators []IndicatorScore `json:"indicators"`
	Note       string           `json:"note"`
}

// GroupedChild is every record for one child name across the whole
// repository, in original processing order. Derived state: recomputed from
// the flat rows on demand, keyed by exact name match only.
type GroupedChild struct {
	Name    string         `json:"name"`
	Entries []GroupedEntry `json:"entries"`
}

// NarrativeComment is the two-part AI comment rendered under a child's score
// table. Not persisted beyond the report generation pass that produced it.
type NarrativeComment struct {
	Observation string `json:"observation"`
	Suggestion  string `json:"suggestion"`
}
