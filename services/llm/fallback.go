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
	"context"
	"fmt"
	"log/slog"
)

// PrimaryThenFallback runs every call against Primary first and retries the
// same call once against Fallback when Primary fails. Throttling is the
// exception: a rate-limited primary propagates unchanged so the batch
// dispatcher can apply its backoff policy instead of silently burning the
// fallback's quota too.
//
// Both stages implement LLMClient, so tests can substitute a deterministic
// stub for either one independently.
type PrimaryThenFallback struct {
	Primary  LLMClient
	Fallback LLMClient
}

// NewPrimaryThenFallback wires the two stages. Both must be non-nil.
func NewPrimaryThenFallback(primary, fallback LLMClient) *PrimaryThenFallback {
	return &PrimaryThenFallback{Primary: primary, Fallback: fallback}
}

// ModelName implements the LLMClient interface.
func (p *PrimaryThenFallback) ModelName() string {
	return fmt.Sprintf("%s+%s", p.Primary.ModelName(), p.Fallback.ModelName())
}

// Generate implements the LLMClient interface.
func (p *PrimaryThenFallback) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	out, err := p.Primary.Generate(ctx, prompt, params)
	if err == nil || IsRateLimited(err) {
		return out, err
	}
	slog.Warn("Primary model failed, retrying with fallback",
		"primary", p.Primary.ModelName(), "fallback", p.Fallback.ModelName(), "error", err)
	return p.Fallback.Generate(ctx, prompt, params)
}

// GenerateVision implements the LLMClient interface.
func (p *PrimaryThenFallback) GenerateVision(ctx context.Context, prompt string, image []byte, mimeType string, params GenerationParams) (string, error) {
	out, err := p.Primary.GenerateVision(ctx, prompt, image, mimeType, params)
	if err == nil || IsRateLimited(err) {
		return out, err
	}
	slog.Warn("Primary model failed, retrying with fallback",
		"primary", p.Primary.ModelName(), "fallback", p.Fallback.ModelName(), "error", err)
	return p.Fallback.GenerateVision(ctx, prompt, image, mimeType, params)
}
