// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package transcribe turns one uploaded form image into a structured
// TranscriptionResult by way of a vision model call at temperature zero.
package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jinterlante1206/FormScribe/services/llm"
	"github.com/jinterlante1206/FormScribe/services/scribe/datatypes"
)

// Transcriber reads one form image with the configured vision backend.
// Safe for concurrent use; the dispatcher runs several of these calls at
// once against the same instance.
type Transcriber struct {
	client      llm.LLMClient
	instruction string
}

// New builds a Transcriber. An empty instruction selects DefaultInstruction.
func New(client llm.LLMClient, instruction string) *Transcriber {
	if instruction == "" {
		instruction = DefaultInstruction
	}
	return &Transcriber{client: client, instruction: instruction}
}

// Transcribe sends the image plus the fixed instruction to the model and
// parses the JSON reply.
//
// # Description
//
// The call is deterministic (temperature 0) and requests a JSON-typed
// reply. Markdown fencing around the reply is stripped before parsing.
// Failures carry the llm error taxonomy: throttling surfaces as
// KindRateLimited for the dispatcher to retry, an unparseable reply as
// KindInvalidResponse, anything else as KindOther.
//
// # Thread Safety
//
// Safe for concurrent use.
func (t *Transcriber) Transcribe(ctx context.Context, img datatypes.UploadedImage) (datatypes.TranscriptionResult, error) {
	params := llm.GenerationParams{
		Temperature:  llm.Float32Ptr(0),
		JSONResponse: true,
	}

	raw, err := t.client.GenerateVision(ctx, t.instruction, img.Data, img.MIMEType, params)
	if err != nil {
		return datatypes.TranscriptionResult{}, err
	}

	result, err := parseReply(raw)
	if err != nil {
		slog.Warn("Transcription reply was not parseable", "file", img.Filename, "error", err)
		return datatypes.TranscriptionResult{}, llm.NewRemoteError(llm.KindInvalidResponse, t.client.ModelName(), err)
	}
	result.SourceFile = img.Filename

	slog.Debug("Transcribed form image",
		"file", img.Filename, "category", result.Category, "children", len(result.Children))
	return result, nil
}

// parseReply decodes the model output, tolerating markdown fences and any
// prose the model wrapped around the object.
func parseReply(raw string) (datatypes.TranscriptionResult, error) {
	var result datatypes.TranscriptionResult
	cleaned := ExtractJSON(raw)
	if cleaned == "" {
		return result, fmt.Errorf("no JSON object in model reply")
	}
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return result, fmt.Errorf("decoding model reply: %w", err)
	}
	return result, nil
}

// ExtractJSON strips markdown code fencing from a model reply, falling back
// to the outermost brace pair when the reply is unfenced prose.
func ExtractJSON(response string) string {
	if json.Valid([]byte(response)) {
		return response
	}

	startMarkers := []string{"```json\n", "```json\r\n", "```\n", "```\r\n"}
	endMarker := "```"

	for _, startMarker := range startMarkers {
		startIdx := strings.Index(response, startMarker)
		if startIdx == -1 {
			continue
		}
		contentStart := startIdx + len(startMarker)
		remaining := response[contentStart:]
		endIdx := strings.Index(remaining, endMarker)
		if endIdx == -1 {
			continue
		}
		return strings.TrimSpace(remaining[:endIdx])
	}

	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx != -1 && endIdx > startIdx {
		return response[startIdx : endIdx+1]
	}
	return ""
}
