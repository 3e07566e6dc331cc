// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package narrative asks the model for the short two-part teacher comment
// that accompanies each child's score table in the exported report.
package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jinterlante1206/FormScribe/services/llm"
	"github.com/jinterlante1206/FormScribe/services/scribe/datatypes"
	"github.com/jinterlante1206/FormScribe/services/scribe/transcribe"
)

// DefaultTemperature leaves room for varied phrasing. Narrative text is the
// one place determinism is not wanted.
const DefaultTemperature float32 = 0.7

const promptTemplate = `You are a warm, encouraging preschool teacher writing a short home report comment.

Assessment data for %s:
%s

Grades mean: A = accomplished, R = reinforce, D = developing, N = needs support.

Reply with JSON only, exactly:
{"observation": "<2-3 sentences about what the child did well or is working on>",
 "suggestion": "<1-2 sentences of gentle advice for home>"}

Write in a positive, specific tone. Do not mention grades by letter.`

// DefaultComment is the neutral boilerplate used whenever the model cannot
// produce a usable comment. Report generation must never fail because of a
// narrative problem.
func DefaultComment() datatypes.NarrativeComment {
	return datatypes.NarrativeComment{
		Observation: "This child participated in all assessed activities during this period.",
		Suggestion:  "Continued encouragement and practice at home will support further growth.",
	}
}

// Writer generates comments through the configured backend.
type Writer struct {
	client      llm.LLMClient
	temperature float32
}

// New builds a Writer. A zero temperature selects DefaultTemperature.
func New(client llm.LLMClient, temperature float32) *Writer {
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	return &Writer{client: client, temperature: temperature}
}

// WriteComment produces the two-part comment for one child.
//
// Failure mode is "degrade to boilerplate": any remote or parse problem
// logs a warning and returns DefaultComment, never an error.
func (w *Writer) WriteComment(ctx context.Context, name string, entries []datatypes.GroupedEntry) datatypes.NarrativeComment {
	prompt := fmt.Sprintf(promptTemplate, name, summarize(entries))
	params := llm.GenerationParams{
		Temperature:  llm.Float32Ptr(w.temperature),
		JSONResponse: true,
	}

	raw, err := w.client.Generate(ctx, prompt, params)
	if err != nil {
		slog.Warn("Narrative generation failed, using default comment", "child", name, "error", err)
		return DefaultComment()
	}

	var comment datatypes.NarrativeComment
	cleaned := transcribe.ExtractJSON(raw)
	if cleaned == "" || json.Unmarshal([]byte(cleaned), &comment) != nil {
		slog.Warn("Narrative reply was not parseable, using default comment", "child", name)
		return DefaultComment()
	}
	if strings.TrimSpace(comment.Observation) == "" && strings.TrimSpace(comment.Suggestion) == "" {
		return DefaultComment()
	}
	return comment
}

// summarize serializes a child's records into the compact text block the
// prompt embeds: one line per category with label=score pairs plus the note.
func summarize(entries []datatypes.GroupedEntry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString("- ")
		b.WriteString(e.Category)
		b.WriteString(": ")
		for i, ind := range e.Indicators {
			if i > 0 {
				b.WriteString(", ")
			}
			score := ind.Score
			if score == "" {
				score = "-"
			}
			b.WriteString(ind.Label)
			b.WriteString("=")
			b.WriteString(score)
		}
		if e.Note != "" {
			b.WriteString(" (teacher note: ")
			b.WriteString(e.Note)
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	return b.String()
}
