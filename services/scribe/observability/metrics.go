// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the scribe service:
// batch throughput, per-image outcomes by error kind, transcription latency
// and report generation counts. Exposed via /metrics; all operations are
// thread-safe through Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "formscribe"

// ScribeMetrics holds all Prometheus metrics for the transcription service.
// Initialize once at startup via InitMetrics.
type ScribeMetrics struct {
	// BatchesTotal counts completed batch runs.
	// Labels: status (clean, partial_failure)
	BatchesTotal *prometheus.CounterVec

	// ImagesTotal counts per-image outcomes.
	// Labels: status (success, failure), error_kind (none, rate_limited,
	// invalid_response, other)
	ImagesTotal *prometheus.CounterVec

	// TranscriptionSeconds measures one image's wall time through the
	// dispatcher, retries included.
	// Labels: model
	TranscriptionSeconds *prometheus.HistogramVec

	// ActiveBatches tracks batches currently in flight.
	ActiveBatches prometheus.Gauge

	// ReportsTotal counts rendered report downloads.
	// Labels: scope (class, child)
	ReportsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance, set by InitMetrics.
var DefaultMetrics *ScribeMetrics

// InitMetrics creates and registers all metrics on the default registry.
// Call once at startup; a second call panics on duplicate registration.
func InitMetrics() *ScribeMetrics {
	DefaultMetrics = &ScribeMetrics{
		BatchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "batches_total",
				Help:      "Completed transcription batches by status",
			},
			[]string{"status"},
		),
		ImagesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "images_total",
				Help:      "Per-image transcription outcomes",
			},
			[]string{"status", "error_kind"},
		),
		TranscriptionSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "transcription_seconds",
				Help:      "Wall time per image through the dispatcher, retries included",
				Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"model"},
		),
		ActiveBatches: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "active_batches",
				Help:      "Batches currently being dispatched",
			},
		),
		ReportsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "reports_total",
				Help:      "Rendered report downloads by scope",
			},
			[]string{"scope"},
		),
	}
	return DefaultMetrics
}

// RecordBatch records one finished batch.
func (m *ScribeMetrics) RecordBatch(failed int) {
	status := "clean"
	if failed > 0 {
		status = "partial_failure"
	}
	m.BatchesTotal.WithLabelValues(status).Inc()
}

// RecordImageSuccess records one successfully transcribed image.
func (m *ScribeMetrics) RecordImageSuccess() {
	m.ImagesTotal.WithLabelValues("success", "none").Inc()
}

// RecordImageFailure records one exhausted or non-retriable image.
func (m *ScribeMetrics) RecordImageFailure(errorKind string) {
	m.ImagesTotal.WithLabelValues("failure", errorKind).Inc()
}

// RecordReport records one report download.
func (m *ScribeMetrics) RecordReport(scope string) {
	m.ReportsTotal.WithLabelValues(scope).Inc()
}
