// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package aggregate reshapes per-image transcription results into the
// review-grid rows and the per-child grouping the report renderer walks.
// Both operations are pure: rerunning them over the same input yields
// identical output.
package aggregate

import (
	"fmt"

	"github.com/jinterlante1206/FormScribe/services/scribe/datatypes"
)

// Flatten projects results into one FlatRow per child per image, in input
// order.
//
// # Description
//
// Every row gets exactly datatypes.IndicatorCount indicator slots. Missing
// column labels are synthesized as "Indicator N"; score sequences shorter
// than the labels leave the remaining cells empty. No input shape can cause
// an out-of-bounds access.
//
// Row IDs are deliberately not assigned here; the repository owns identity.
func Flatten(results []datatypes.TranscriptionResult) []datatypes.FlatRow {
	var rows []datatypes.FlatRow
	for _, result := range results {
		labels := paddedLabels(result.ColumnLabels)
		for _, child := range result.Children {
			row := datatypes.FlatRow{
				ChildName:  child.Name,
				Category:   result.Category,
				SourceFile: result.SourceFile,
				Indicators: make([]datatypes.IndicatorScore, datatypes.IndicatorCount),
				Note:       child.Note,
			}
			for i := 0; i < datatypes.IndicatorCount; i++ {
				row.Indicators[i].Label = labels[i]
				if i < len(child.Scores) {
					row.Indicators[i].Score = child.Scores[i]
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// GroupByChild gathers rows by exact child name.
//
// # Description
//
// The returned slice preserves first-seen name order, and each child's
// entries keep the order their rows were produced in across the batch
// (original image processing order). No deduplication or fuzzy matching:
// "Amy " and "Amy" are different children until the operator fixes the row.
func GroupByChild(rows []datatypes.FlatRow) []datatypes.GroupedChild {
	index := make(map[string]int, len(rows))
	var grouped []datatypes.GroupedChild

	for _, row := range rows {
		entry := datatypes.GroupedEntry{
			Category:   row.Category,
			SourceFile: row.SourceFile,
			Indicators: append([]datatypes.IndicatorScore(nil), row.Indicators...),
			Note:       row.Note,
		}
		if i, ok := index[row.ChildName]; ok {
			grouped[i].Entries = append(grouped[i].Entries, entry)
			continue
		}
		index[row.ChildName] = len(grouped)
		grouped = append(grouped, datatypes.GroupedChild{
			Name:    row.ChildName,
			Entries: []datatypes.GroupedEntry{entry},
		})
	}
	return grouped
}

// paddedLabels returns exactly IndicatorCount labels, synthesizing
// placeholders for the tail the model failed to extract.
func paddedLabels(labels []string) []string {
	out := make([]string, datatypes.IndicatorCount)
	for i := 0; i < datatypes.IndicatorCount; i++ {
		if i < len(labels) && labels[i] != "" {
			out[i] = labels[i]
			continue
		}
		out[i] = fmt.Sprintf("Indicator %d", i+1)
	}
	return out
}
