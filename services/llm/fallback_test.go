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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Doubles
// =============================================================================

// stubClient is a deterministic LLMClient for strategy testing.
type stubClient struct {
	name     string
	reply    string
	err      error
	genCalls int
	visCalls int
}

func (s *stubClient) Generate(_ context.Context, _ string, _ GenerationParams) (string, error) {
	s.genCalls++
	return s.reply, s.err
}

func (s *stubClient) GenerateVision(_ context.Context, _ string, _ []byte, _ string, _ GenerationParams) (string, error) {
	s.visCalls++
	return s.reply, s.err
}

func (s *stubClient) ModelName() string { return s.name }

// =============================================================================
// PrimaryThenFallback Tests
// =============================================================================

func TestPrimaryThenFallback_PrimarySucceeds(t *testing.T) {
	primary := &stubClient{name: "strong", reply: "primary answer"}
	fallback := &stubClient{name: "weak", reply: "fallback answer"}
	strat := NewPrimaryThenFallback(primary, fallback)

	out, err := strat.Generate(context.Background(), "p", GenerationParams{})
	require.NoError(t, err)
	assert.Equal(t, "primary answer", out)
	assert.Equal(t, 1, primary.genCalls)
	assert.Equal(t, 0, fallback.genCalls, "fallback must not be touched on success")
}

func TestPrimaryThenFallback_FallsBackOnOtherError(t *testing.T) {
	primary := &stubClient{name: "strong", err: NewRemoteError(KindOther, "strong", errors.New("boom"))}
	fallback := &stubClient{name: "weak", reply: "fallback answer"}
	strat := NewPrimaryThenFallback(primary, fallback)

	out, err := strat.GenerateVision(context.Background(), "p", []byte{0x1}, "image/png", GenerationParams{})
	require.NoError(t, err)
	assert.Equal(t, "fallback answer", out)
	assert.Equal(t, 1, primary.visCalls)
	assert.Equal(t, 1, fallback.visCalls)
}

// TestPrimaryThenFallback_RateLimitPropagates verifies that throttling is
// never hidden behind the fallback: the dispatcher owns that retry.
func TestPrimaryThenFallback_RateLimitPropagates(t *testing.T) {
	primary := &stubClient{name: "strong", err: NewRemoteError(KindRateLimited, "strong", errors.New("429"))}
	fallback := &stubClient{name: "weak", reply: "fallback answer"}
	strat := NewPrimaryThenFallback(primary, fallback)

	_, err := strat.Generate(context.Background(), "p", GenerationParams{})
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	assert.Equal(t, 0, fallback.genCalls)
}

func TestPrimaryThenFallback_BothFail(t *testing.T) {
	primary := &stubClient{name: "strong", err: NewRemoteError(KindOther, "strong", errors.New("down"))}
	fallback := &stubClient{name: "weak", err: NewRemoteError(KindInvalidResponse, "weak", errors.New("garbage"))}
	strat := NewPrimaryThenFallback(primary, fallback)

	_, err := strat.Generate(context.Background(), "p", GenerationParams{})
	require.Error(t, err)
	// The caller sees the fallback's classified error.
	assert.True(t, IsInvalidResponse(err))
}

func TestPrimaryThenFallback_ModelName(t *testing.T) {
	strat := NewPrimaryThenFallback(&stubClient{name: "a"}, &stubClient{name: "b"})
	assert.Equal(t, "a+b", strat.ModelName())
}

// =============================================================================
// Error Classification Tests
// =============================================================================

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindRateLimited, KindOf(NewRemoteError(KindRateLimited, "m", errors.New("x"))))
	assert.Equal(t, KindInvalidResponse, KindOf(NewRemoteError(KindInvalidResponse, "m", errors.New("x"))))
	assert.Equal(t, KindOther, KindOf(errors.New("unclassified")))
	assert.Equal(t, KindOther, KindOf(nil))
}

func TestKindOf_Wrapped(t *testing.T) {
	inner := NewRemoteError(KindRateLimited, "m", errors.New("429"))
	wrapped := errors.Join(errors.New("attempt 2"), inner)
	assert.True(t, IsRateLimited(wrapped))
}

func TestNewRemoteError_NilPassthrough(t *testing.T) {
	assert.NoError(t, NewRemoteError(KindOther, "m", nil))
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "rate_limited", KindRateLimited.String())
	assert.Equal(t, "invalid_response", KindInvalidResponse.String())
	assert.Equal(t, "other", KindOther.String())
}
