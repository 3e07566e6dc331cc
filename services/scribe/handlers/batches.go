// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jinterlante1206/FormScribe/services/scribe/datatypes"
	"github.com/jinterlante1206/FormScribe/services/scribe/dispatch"
	"github.com/jinterlante1206/FormScribe/services/scribe/narrative"
	"github.com/jinterlante1206/FormScribe/services/scribe/observability"
	"github.com/jinterlante1206/FormScribe/services/scribe/repository"
)

// MaxImageBytes caps a single uploaded form photo.
const MaxImageBytes = 20 * 1024 * 1024

// Scribe bundles the dependencies shared across the HTTP handlers.
type Scribe struct {
	Repo        *repository.Store
	Transcriber dispatch.Transcriber
	Writer      *narrative.Writer
	Dispatch    dispatch.Config
	Hub         *ProgressHub
	Metrics     *observability.ScribeMetrics

	// Model labels the latency histogram; set it to the resolved model
	// name at startup.
	Model string

	mu   sync.Mutex
	last *datatypes.BatchSummary
}

func (s *Scribe) setLastBatch(summary datatypes.BatchSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &summary
}

// LastBatch returns the most recent batch summary, if any batch has run.
func (s *Scribe) LastBatch() (datatypes.BatchSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return datatypes.BatchSummary{}, false
	}
	return *s.last, true
}

// GetLatestBatch reports the outcome of the most recent batch. Batches run
// synchronously inside CreateBatch, so this is a status page for the
// review UI, not a polling mechanism.
func GetLatestBatch(s *Scribe) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, ok := s.LastBatch()
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "No batches have run yet"})
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

// CreateBatch accepts a multipart upload of assessment form photos under
// the "images" field, transcribes them through the dispatcher and stores
// the successful results. The response is the full batch summary; partial
// failure is still a 200 so the client can surface per-image errors.
func CreateBatch(s *Scribe) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
			return
		}
		files := form.File["images"]
		if len(files) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No images provided"})
			return
		}

		images := make([]datatypes.UploadedImage, 0, len(files))
		for _, fh := range files {
			if fh.Size > MaxImageBytes {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{
					"error": fmt.Sprintf("%s exceeds the %d MB limit", fh.Filename, MaxImageBytes/(1024*1024)),
				})
				return
			}
			f, err := fh.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Cannot read %s", fh.Filename)})
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Cannot read %s", fh.Filename)})
				return
			}

			mime := mimetype.Detect(data)
			if !strings.HasPrefix(mime.String(), "image/") {
				c.JSON(http.StatusUnsupportedMediaType, gin.H{
					"error": fmt.Sprintf("%s is %s, not an image", fh.Filename, mime.String()),
				})
				return
			}

			images = append(images, datatypes.UploadedImage{
				Filename: fh.Filename,
				MIMEType: mime.String(),
				Data:     data,
			})
		}

		batchID := uuid.New().String()
		slog.Info("Starting transcription batch", "batch_id", batchID, "images", len(images))

		summary := s.runBatch(c.Request.Context(), batchID, images)

		slog.Info("Transcription batch finished",
			"batch_id", batchID,
			"succeeded", summary.Succeeded,
			"failed", summary.Failed)
		c.JSON(http.StatusOK, summary)
	}
}

// runBatch drives one batch through the dispatcher, pushing progress to
// the hub and recording metrics along the way.
func (s *Scribe) runBatch(ctx context.Context, batchID string, images []datatypes.UploadedImage) datatypes.BatchSummary {
	if s.Metrics != nil {
		s.Metrics.ActiveBatches.Inc()
		defer s.Metrics.ActiveBatches.Dec()
	}

	progress := func(completed, total int) {
		if s.Hub != nil {
			s.Hub.Broadcast(datatypes.BatchProgress{
				BatchID:   batchID,
				Completed: completed,
				Total:     total,
				Done:      completed == total,
			})
		}
	}

	results, failures := dispatch.Process(ctx, s.instrumented(), images, s.Dispatch, progress)
	s.Repo.Append(results)

	if s.Metrics != nil {
		s.Metrics.RecordBatch(len(failures))
		for range results {
			s.Metrics.RecordImageSuccess()
		}
		for _, f := range failures {
			s.Metrics.RecordImageFailure(f.ErrorKind)
		}
	}

	summary := datatypes.BatchSummary{
		BatchID:   batchID,
		Succeeded: len(results),
		Failed:    len(failures),
		Results:   results,
		Failures:  failures,
	}
	s.setLastBatch(summary)
	return summary
}

// instrumented wraps the transcriber with a latency histogram when
// metrics are enabled.
func (s *Scribe) instrumented() dispatch.Transcriber {
	if s.Metrics == nil {
		return s.Transcriber
	}
	model := s.Model
	if model == "" {
		model = "unknown"
	}
	return &timedTranscriber{inner: s.Transcriber, metrics: s.Metrics, model: model}
}

type timedTranscriber struct {
	inner   dispatch.Transcriber
	metrics *observability.ScribeMetrics
	model   string
}

func (t *timedTranscriber) Transcribe(ctx context.Context, img datatypes.UploadedImage) (datatypes.TranscriptionResult, error) {
	start := time.Now()
	res, err := t.inner.Transcribe(ctx, img)
	t.metrics.TranscriptionSeconds.WithLabelValues(t.model).Observe(time.Since(start).Seconds())
	return res, err
}
