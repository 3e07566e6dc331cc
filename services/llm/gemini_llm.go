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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient talks to the Gemini API. The model identifier is resolved
// once at construction from the live catalog and the preference rules, then
// cached for the lifetime of the client.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient builds a client using GEMINI_API_KEY (or the Podman
// secret at /run/secrets/gemini_api_key) and resolves the model from the
// remote catalog. A missing key is a configuration error; the caller is
// expected to treat it as fatal at startup.
func NewGeminiClient(ctx context.Context, prefs []MatchRule) (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		secretPath := "/run/secrets/gemini_api_key"
		apiKeyBytes, err := os.ReadFile(secretPath)
		if err == nil {
			apiKey = strings.TrimSpace(string(apiKeyBytes))
			slog.Info("Read the Gemini API Key from Podman Secrets")
		} else {
			slog.Error("GEMINI_API_KEY environment variable not set and secret not found", "path", secretPath)
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	g := &GeminiClient{client: client}

	if len(prefs) == 0 {
		prefs = DefaultPreferenceRules()
	}
	available, err := g.ListModelNames(ctx)
	if err != nil {
		// Catalog listing is best effort; the fixed fallback fails fast on
		// the first generation call if it is wrong.
		slog.Warn("Could not list remote models, using fallback", "error", err, "model", FallbackModel)
		available = nil
	}
	g.model = ResolveModel(available, prefs)
	slog.Info("Initialized Gemini client", "model", g.model, "catalog_size", len(available))
	return g, nil
}

// ListModelNames returns the remote catalog identifiers without the
// "models/" resource prefix, in catalog order.
func (g *GeminiClient) ListModelNames(ctx context.Context) ([]string, error) {
	var names []string
	for m, err := range g.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("listing Gemini models: %w", err)
		}
		names = append(names, strings.TrimPrefix(m.Name, "models/"))
	}
	return names, nil
}

// ModelName implements the LLMClient interface.
func (g *GeminiClient) ModelName() string { return g.model }

// Generate implements the LLMClient interface.
func (g *GeminiClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	return g.generate(ctx, contents, params)
}

// GenerateVision implements the LLMClient interface.
func (g *GeminiClient) GenerateVision(ctx context.Context, prompt string, image []byte, mimeType string, params GenerationParams) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(image, mimeType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	return g.generate(ctx, contents, params)
}

func (g *GeminiClient) generate(ctx context.Context, contents []*genai.Content, params GenerationParams) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if params.Temperature != nil {
		cfg.Temperature = genai.Ptr(*params.Temperature)
	}
	if params.TopP != nil {
		cfg.TopP = genai.Ptr(*params.TopP)
	}
	if params.MaxTokens != nil {
		cfg.MaxOutputTokens = int32(*params.MaxTokens)
	}
	if params.JSONResponse {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", classifyGeminiError(g.model, err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", NewRemoteError(KindInvalidResponse, g.model, fmt.Errorf("model returned an empty reply"))
	}
	return text, nil
}

// classifyGeminiError maps transport failures onto the shared taxonomy so
// the dispatcher never has to look at error text.
func classifyGeminiError(model string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			return NewRemoteError(KindRateLimited, model, err)
		}
		return NewRemoteError(KindOther, model, err)
	}
	// Some transports surface throttling only in the message body.
	msg := err.Error()
	if strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED") {
		return NewRemoteError(KindRateLimited, model, err)
	}
	return NewRemoteError(KindOther, model, err)
}
