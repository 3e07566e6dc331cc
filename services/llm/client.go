// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm provides backend-neutral clients for the remote vision models
// that power form transcription and narrative writing, plus the model
// resolution and fallback strategies shared by the service and the CLI.
package llm

import "context"

// GenerationParams carries per-call sampling settings. Nil pointer fields
// mean "use the backend default".
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`

	// JSONResponse asks the backend for a JSON-typed reply where the API
	// supports it. Callers must still strip fencing and parse defensively.
	JSONResponse bool `json:"json_response"`
}

// LLMClient defines the standard interface for any vision-capable backend.
type LLMClient interface {
	// Generate answers a text-only prompt.
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)

	// GenerateVision answers a prompt about a single image. mimeType is the
	// sniffed content type of the image bytes (image/jpeg, image/png, ...).
	GenerateVision(ctx context.Context, prompt string, image []byte, mimeType string, params GenerationParams) (string, error)

	// ModelName reports the concrete remote model identifier in use,
	// for logging and metrics labels.
	ModelName() string
}

// Float32Ptr is a small helper for building GenerationParams literals.
func Float32Ptr(v float32) *float32 { return &v }

// IntPtr is a small helper for building GenerationParams literals.
func IntPtr(v int) *int { return &v }
