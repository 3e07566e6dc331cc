// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dispatch runs the transcriber over a whole uploaded batch with a
// bounded worker pool, retrying throttled images with increasing backoff and
// collecting per-image failures without ever failing the batch.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jinterlante1206/FormScribe/services/llm"
	"github.com/jinterlante1206/FormScribe/services/scribe/datatypes"
)

// Transcriber is the single-image contract the dispatcher drives. The
// production implementation lives in services/scribe/transcribe; tests
// substitute deterministic stubs.
type Transcriber interface {
	Transcribe(ctx context.Context, img datatypes.UploadedImage) (datatypes.TranscriptionResult, error)
}

// ProgressFunc receives monotonically increasing completion ticks
// (successes and failures both count). Called from worker goroutines under
// an internal lock; implementations must not block.
type ProgressFunc func(completed, total int)

// Config tunes one batch run.
type Config struct {
	// Concurrency caps the number of in-flight transcriber calls.
	// Values below 1 are treated as 1. Keep it small; the remote API
	// throttles aggressively.
	Concurrency int

	// MaxAttempts is the total attempt budget per image, including the
	// first call. Values below 1 are treated as 1.
	MaxAttempts int

	// BackoffStep scales the wait between attempts: after attempt n the
	// worker sleeps n * BackoffStep, so delays strictly increase.
	BackoffStep time.Duration

	// Limiter optionally paces call starts across all workers. Nil means
	// no pacing beyond the concurrency cap.
	Limiter *rate.Limiter
}

// DefaultConfig mirrors the tuning the service ships with.
func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
		MaxAttempts: 3,
		BackoffStep: 2 * time.Second,
	}
}

// Process transcribes every image in the batch.
//
// # Description
//
// Up to Concurrency transcriber calls run at once. Completion order is
// unconstrained, but the returned slices are assembled in original
// submission order after all workers join, so output is deterministic for a
// given input order. Only rate-limited failures are retried; anything else
// moves the image to the failure list immediately. Per-image failures never
// abort the batch and never surface as an error from Process.
//
// # Inputs
//
//   - ctx: cancels in-flight work and backoff sleeps.
//   - t: the transcriber to drive. Must be safe for concurrent use.
//   - images: the batch, in the order the operator submitted it.
//   - cfg: worker and retry tuning.
//   - progress: optional progress sink; may be nil.
//
// # Outputs
//
//   - results: successful transcriptions, submission order.
//   - failures: exhausted or non-retriable images, submission order, with
//     the last error text preserved verbatim.
func Process(ctx context.Context, t Transcriber, images []datatypes.UploadedImage, cfg Config, progress ProgressFunc) ([]datatypes.TranscriptionResult, []datatypes.BatchFailure) {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	type outcome struct {
		result   datatypes.TranscriptionResult
		err      error
		attempts int
	}
	outcomes := make([]outcome, len(images))

	var mu sync.Mutex
	completed := 0
	tick := func() {
		if progress == nil {
			return
		}
		mu.Lock()
		completed++
		progress(completed, len(images))
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	for i := range images {
		g.Go(func() error {
			res, attempts, err := transcribeWithRetry(gctx, t, images[i], cfg)
			outcomes[i] = outcome{result: res, err: err, attempts: attempts}
			tick()
			// Worker errors stay per-image; the group never cancels.
			return nil
		})
	}
	// Workers always return nil, so Wait only synchronizes.
	_ = g.Wait()

	var results []datatypes.TranscriptionResult
	var failures []datatypes.BatchFailure
	for i, out := range outcomes {
		if out.err == nil {
			results = append(results, out.result)
			continue
		}
		failures = append(failures, datatypes.BatchFailure{
			SourceFile: images[i].Filename,
			ErrorKind:  llm.KindOf(out.err).String(),
			Error:      out.err.Error(),
			Attempts:   out.attempts,
		})
	}

	slog.Info("Batch dispatch finished",
		"total", len(images), "succeeded", len(results), "failed", len(failures))
	return results, failures
}

// transcribeWithRetry runs one image through the attempt budget. Only
// rate-limited errors are retried, with a strictly increasing linear
// backoff between attempts.
func transcribeWithRetry(ctx context.Context, t Transcriber, img datatypes.UploadedImage, cfg Config) (datatypes.TranscriptionResult, int, error) {
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return datatypes.TranscriptionResult{}, attempt - 1, fmt.Errorf("batch cancelled: %w", err)
		}
		if cfg.Limiter != nil {
			if err := cfg.Limiter.Wait(ctx); err != nil {
				return datatypes.TranscriptionResult{}, attempt - 1, fmt.Errorf("batch cancelled: %w", err)
			}
		}

		result, err := t.Transcribe(ctx, img)
		if err == nil {
			return result, attempt, nil
		}
		lastErr = err

		if !llm.IsRateLimited(err) {
			return datatypes.TranscriptionResult{}, attempt, err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		wait := time.Duration(attempt) * cfg.BackoffStep
		slog.Warn("Transcription throttled, backing off",
			"file", img.Filename, "attempt", attempt, "wait", wait)
		select {
		case <-ctx.Done():
			return datatypes.TranscriptionResult{}, attempt, fmt.Errorf("batch cancelled: %w", ctx.Err())
		case <-time.After(wait):
		}
	}

	return datatypes.TranscriptionResult{}, cfg.MaxAttempts, lastErr
}
