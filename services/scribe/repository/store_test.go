// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package repository

import (
	"testing"

	"github.com/jinterlante1206/FormScribe/services/scribe/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchResults(file string, names ...string) []datatypes.TranscriptionResult {
	var children []datatypes.ChildRecord
	for _, n := range names {
		children = append(children, datatypes.ChildRecord{Name: n, Scores: []string{"A", "R", "D", "N"}})
	}
	return []datatypes.TranscriptionResult{{
		SourceFile:   file,
		Category:     "Language",
		ColumnLabels: []string{"H1", "H2", "H3", "H4"},
		Children:     children,
	}}
}

// =============================================================================
// Append / Rows Tests
// =============================================================================

func TestStore_AppendAccumulatesAcrossBatches(t *testing.T) {
	s := New()
	s.Append(batchResults("img1.jpg", "Amy", "Ben"))
	s.Append(batchResults("img2.jpg", "Amy"))

	rows := s.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "img1.jpg", rows[0].SourceFile)
	assert.Equal(t, "img2.jpg", rows[2].SourceFile)

	for _, r := range rows {
		assert.NotEmpty(t, r.ID, "every row gets an addressable id")
	}

	sum := s.Snapshot()
	assert.Equal(t, Summary{Batches: 2, Results: 2, Rows: 3, Children: 2}, sum)
}

func TestStore_RowsReturnsCopy(t *testing.T) {
	s := New()
	s.Append(batchResults("img1.jpg", "Amy"))

	rows := s.Rows()
	rows[0].ChildName = "mutated"

	assert.Equal(t, "Amy", s.Rows()[0].ChildName)
}

// =============================================================================
// Grouped Tests
// =============================================================================

func TestStore_GroupedPreservesBatchOrder(t *testing.T) {
	s := New()
	s.Append(batchResults("img1.jpg", "Amy"))
	s.Append(batchResults("img2.jpg", "Amy"))

	grouped := s.Grouped()
	require.Len(t, grouped, 1)
	require.Len(t, grouped[0].Entries, 2)
	assert.Equal(t, "img1.jpg", grouped[0].Entries[0].SourceFile)
	assert.Equal(t, "img2.jpg", grouped[0].Entries[1].SourceFile)

	assert.Equal(t, grouped, s.Grouped(), "recomputation is deterministic")
}

func TestStore_GroupedChildLookup(t *testing.T) {
	s := New()
	s.Append(batchResults("img1.jpg", "Amy", "Ben"))

	g, ok := s.GroupedChild("Ben")
	require.True(t, ok)
	assert.Equal(t, "Ben", g.Name)

	_, ok = s.GroupedChild("Nobody")
	assert.False(t, ok)
}

// =============================================================================
// Edit Tests
// =============================================================================

func TestStore_UpdateRow(t *testing.T) {
	s := New()
	s.Append(batchResults("img1.jpg", "Amy"))
	id := s.Rows()[0].ID

	name := "Amelia"
	note := "corrected"
	updated, err := s.UpdateRow(id, RowPatch{
		ChildName: &name,
		Scores:    []string{"R", "R"},
		Note:      &note,
	})
	require.NoError(t, err)

	assert.Equal(t, "Amelia", updated.ChildName)
	assert.Equal(t, "corrected", updated.Note)
	assert.Equal(t, "R", updated.Indicators[0].Score)
	assert.Equal(t, "R", updated.Indicators[1].Score)
	assert.Empty(t, updated.Indicators[2].Score, "short score patch clears the tail")

	// Persisted, not just returned.
	assert.Equal(t, "Amelia", s.Rows()[0].ChildName)
}

func TestStore_UpdateRow_PartialPatch(t *testing.T) {
	s := New()
	s.Append(batchResults("img1.jpg", "Amy"))
	id := s.Rows()[0].ID

	note := "only the note"
	updated, err := s.UpdateRow(id, RowPatch{Note: &note})
	require.NoError(t, err)
	assert.Equal(t, "Amy", updated.ChildName)
	assert.Equal(t, "A", updated.Indicators[0].Score)
}

func TestStore_UpdateRow_NotFound(t *testing.T) {
	s := New()
	_, err := s.UpdateRow("missing", RowPatch{})
	assert.ErrorIs(t, err, ErrRowNotFound)
}

func TestStore_DeleteRow(t *testing.T) {
	s := New()
	s.Append(batchResults("img1.jpg", "Amy", "Ben"))
	id := s.Rows()[0].ID

	require.NoError(t, s.DeleteRow(id))
	rows := s.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Ben", rows[0].ChildName)

	assert.ErrorIs(t, s.DeleteRow(id), ErrRowNotFound)
}

func TestStore_Clear(t *testing.T) {
	s := New()
	s.Append(batchResults("img1.jpg", "Amy"))
	s.Clear()

	assert.Empty(t, s.Rows())
	assert.Equal(t, Summary{}, s.Snapshot())
}
