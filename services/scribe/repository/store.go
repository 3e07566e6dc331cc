// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package repository owns the accumulated transcription records for the
// running session. It is the single mutable store in the service: handlers
// consume it, batches append to it, and the operator clears it explicitly.
// Nothing here survives a process restart.
package repository

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/jinterlante1206/FormScribe/services/scribe/aggregate"
	"github.com/jinterlante1206/FormScribe/services/scribe/datatypes"
)

// ErrRowNotFound is returned when a row id does not exist, typically
// because the operator cleared the store between loading the grid and
// submitting an edit.
var ErrRowNotFound = errors.New("row not found")

// RowPatch is a manual correction from the review grid. Nil fields are left
// untouched.
type RowPatch struct {
	ChildName *string  `json:"child_name"`
	Scores    []string `json:"scores"`
	Note      *string  `json:"note"`
}

// Summary is a cheap snapshot of store contents for status displays.
type Summary struct {
	Batches  int `json:"batches"`
	Results  int `json:"results"`
	Rows     int `json:"rows"`
	Children int `json:"children"`
}

// Store accumulates batch results across repeated uploads. Batches are
// appended serially from the caller's perspective; reads may happen at any
// time, so all access is guarded.
type Store struct {
	mu      sync.RWMutex
	batches int
	results []datatypes.TranscriptionResult
	rows    []datatypes.FlatRow
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Append flattens one batch's results into review rows and records them, in
// the order the batch produced them. Row ids are assigned here; everything
// downstream addresses rows by id.
func (s *Store) Append(results []datatypes.TranscriptionResult) {
	rows := aggregate.Flatten(results)
	for i := range rows {
		rows[i].ID = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches++
	s.results = append(s.results, results...)
	s.rows = append(s.rows, rows...)
}

// Rows returns a copy of every review row in accumulation order.
func (s *Store) Rows() []datatypes.FlatRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]datatypes.FlatRow, len(s.rows))
	copy(out, s.rows)
	return out
}

// Grouped recomputes the per-child view from the current rows. Derived
// state only; calling it twice without an intervening write yields equal
// output.
func (s *Store) Grouped() []datatypes.GroupedChild {
	return aggregate.GroupByChild(s.Rows())
}

// GroupedChild returns one child's grouping by exact name match.
func (s *Store) GroupedChild(name string) (datatypes.GroupedChild, bool) {
	for _, g := range s.Grouped() {
		if g.Name == name {
			return g, true
		}
	}
	return datatypes.GroupedChild{}, false
}

// UpdateRow applies a manual correction to one row.
func (s *Store) UpdateRow(id string, patch RowPatch) (datatypes.FlatRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID != id {
			continue
		}
		if patch.ChildName != nil {
			s.rows[i].ChildName = *patch.ChildName
		}
		if patch.Note != nil {
			s.rows[i].Note = *patch.Note
		}
		if patch.Scores != nil {
			for j := range s.rows[i].Indicators {
				if j < len(patch.Scores) {
					s.rows[i].Indicators[j].Score = patch.Scores[j]
				} else {
					s.rows[i].Indicators[j].Score = ""
				}
			}
		}
		return s.rows[i], nil
	}
	return datatypes.FlatRow{}, ErrRowNotFound
}

// DeleteRow removes one row from the grid.
func (s *Store) DeleteRow(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return ErrRowNotFound
}

// Clear drops everything.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = 0
	s.results = nil
	s.rows = nil
}

// Snapshot reports current store size.
func (s *Store) Snapshot() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make(map[string]struct{}, len(s.rows))
	for _, r := range s.rows {
		names[r.ChildName] = struct{}{}
	}
	return Summary{
		Batches:  s.batches,
		Results:  len(s.results),
		Rows:     len(s.rows),
		Children: len(names),
	}
}
