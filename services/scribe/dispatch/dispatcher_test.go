// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jinterlante1206/FormScribe/services/llm"
	"github.com/jinterlante1206/FormScribe/services/scribe/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Doubles
// =============================================================================

// scriptedTranscriber replies per filename from a script of errors; a nil
// entry (or exhausted script) succeeds. Safe for concurrent use.
type scriptedTranscriber struct {
	mu       sync.Mutex
	script   map[string][]error
	calls    map[string]int
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func newScripted(script map[string][]error) *scriptedTranscriber {
	return &scriptedTranscriber{script: script, calls: make(map[string]int)}
}

func (s *scriptedTranscriber) Transcribe(_ context.Context, img datatypes.UploadedImage) (datatypes.TranscriptionResult, error) {
	cur := s.inFlight.Add(1)
	for {
		max := s.maxSeen.Load()
		if cur <= max || s.maxSeen.CompareAndSwap(max, cur) {
			break
		}
	}
	defer s.inFlight.Add(-1)

	s.mu.Lock()
	n := s.calls[img.Filename]
	s.calls[img.Filename] = n + 1
	var err error
	if seq, ok := s.script[img.Filename]; ok && n < len(seq) {
		err = seq[n]
	}
	s.mu.Unlock()

	if err != nil {
		return datatypes.TranscriptionResult{}, err
	}
	return datatypes.TranscriptionResult{
		SourceFile: img.Filename,
		Category:   "Language",
		Children:   []datatypes.ChildRecord{{Name: "Amy"}},
	}, nil
}

func images(names ...string) []datatypes.UploadedImage {
	out := make([]datatypes.UploadedImage, len(names))
	for i, n := range names {
		out[i] = datatypes.UploadedImage{Filename: n, MIMEType: "image/jpeg", Data: []byte{0x1}}
	}
	return out
}

func rateLimited() error {
	return llm.NewRemoteError(llm.KindRateLimited, "m", errors.New("429 resource exhausted"))
}

func fastConfig() Config {
	return Config{Concurrency: 2, MaxAttempts: 3, BackoffStep: 5 * time.Millisecond}
}

// =============================================================================
// Process Tests
// =============================================================================

func TestProcess_AllSucceed(t *testing.T) {
	tr := newScripted(nil)
	results, failures := Process(context.Background(), tr, images("a.jpg", "b.jpg", "c.jpg"), fastConfig(), nil)

	require.Len(t, results, 3)
	assert.Empty(t, failures)
	// Submission order, regardless of completion order.
	assert.Equal(t, "a.jpg", results[0].SourceFile)
	assert.Equal(t, "b.jpg", results[1].SourceFile)
	assert.Equal(t, "c.jpg", results[2].SourceFile)
}

// TestProcess_RetryOnRateLimit scripts two throttles then a success: the
// image must land in results after exactly 3 attempts and 2 backoff waits.
func TestProcess_RetryOnRateLimit(t *testing.T) {
	tr := newScripted(map[string][]error{
		"a.jpg": {rateLimited(), rateLimited(), nil},
	})
	cfg := fastConfig()

	start := time.Now()
	results, failures := Process(context.Background(), tr, images("a.jpg"), cfg, nil)
	elapsed := time.Since(start)

	require.Len(t, results, 1)
	assert.Empty(t, failures)
	assert.Equal(t, 3, tr.calls["a.jpg"])
	// Two waits: 1*step + 2*step.
	assert.GreaterOrEqual(t, elapsed, 3*cfg.BackoffStep)
}

func TestProcess_RateLimitExhaustsRetries(t *testing.T) {
	tr := newScripted(map[string][]error{
		"a.jpg": {rateLimited(), rateLimited(), rateLimited()},
	})

	results, failures := Process(context.Background(), tr, images("a.jpg"), fastConfig(), nil)

	assert.Empty(t, results)
	require.Len(t, failures, 1)
	assert.Equal(t, "a.jpg", failures[0].SourceFile)
	assert.Equal(t, "rate_limited", failures[0].ErrorKind)
	assert.Equal(t, 3, failures[0].Attempts)
	assert.Contains(t, failures[0].Error, "429", "error text preserved verbatim")
}

// TestProcess_NoRetryOnInvalidResponse: non-transient failures fail the
// image on the first attempt.
func TestProcess_NoRetryOnInvalidResponse(t *testing.T) {
	bad := llm.NewRemoteError(llm.KindInvalidResponse, "m", errors.New("not json"))
	tr := newScripted(map[string][]error{
		"b.jpg": {bad, bad, bad},
	})

	results, failures := Process(context.Background(), tr, images("a.jpg", "b.jpg", "c.jpg"), fastConfig(), nil)

	require.Len(t, results, 2)
	assert.Equal(t, "a.jpg", results[0].SourceFile)
	assert.Equal(t, "c.jpg", results[1].SourceFile)

	require.Len(t, failures, 1)
	assert.Equal(t, "b.jpg", failures[0].SourceFile)
	assert.Equal(t, "invalid_response", failures[0].ErrorKind)
	assert.Equal(t, 1, tr.calls["b.jpg"], "no retry for invalid responses")
}

func TestProcess_ConcurrencyBound(t *testing.T) {
	tr := newScripted(nil)
	cfg := Config{Concurrency: 2, MaxAttempts: 1}

	Process(context.Background(), tr, images("a", "b", "c", "d", "e", "f"), cfg, nil)

	assert.LessOrEqual(t, tr.maxSeen.Load(), int32(2))
}

func TestProcess_ProgressMonotonic(t *testing.T) {
	tr := newScripted(map[string][]error{
		"b.jpg": {llm.NewRemoteError(llm.KindOther, "m", errors.New("boom"))},
	})

	var mu sync.Mutex
	var ticks []int
	total := 0
	progress := func(completed, t int) {
		mu.Lock()
		ticks = append(ticks, completed)
		total = t
		mu.Unlock()
	}

	Process(context.Background(), tr, images("a.jpg", "b.jpg", "c.jpg"), fastConfig(), progress)

	require.Len(t, ticks, 3, "every image ticks once, success or failure")
	assert.Equal(t, 3, total)
	for i, c := range ticks {
		assert.Equal(t, i+1, c, "progress must be strictly increasing")
	}
}

func TestProcess_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := newScripted(nil)
	results, failures := Process(ctx, tr, images("a.jpg", "b.jpg"), fastConfig(), nil)

	assert.Empty(t, results)
	assert.Len(t, failures, 2)
}

func TestProcess_DegenerateConfig(t *testing.T) {
	tr := newScripted(nil)
	results, failures := Process(context.Background(), tr, images("a.jpg"), Config{}, nil)

	require.Len(t, results, 1)
	assert.Empty(t, failures)
}

func TestProcess_ManyImagesStableAssociation(t *testing.T) {
	var names []string
	script := map[string][]error{}
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("img%02d.jpg", i)
		names = append(names, name)
		if i%5 == 0 {
			script[name] = []error{llm.NewRemoteError(llm.KindOther, "m", fmt.Errorf("fail %s", name))}
		}
	}
	tr := newScripted(script)

	results, failures := Process(context.Background(), tr, images(names...), Config{Concurrency: 8, MaxAttempts: 1}, nil)

	assert.Len(t, results, 16)
	require.Len(t, failures, 4)
	for _, f := range failures {
		assert.Contains(t, f.Error, f.SourceFile, "failure text names its own source image")
	}
}
