// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/jinterlante1206/FormScribe/services/llm"
	"github.com/jinterlante1206/FormScribe/services/scribe/config"
	"github.com/jinterlante1206/FormScribe/services/scribe/dispatch"
	"github.com/jinterlante1206/FormScribe/services/scribe/handlers"
	"github.com/jinterlante1206/FormScribe/services/scribe/narrative"
	"github.com/jinterlante1206/FormScribe/services/scribe/observability"
	"github.com/jinterlante1206/FormScribe/services/scribe/repository"
	"github.com/jinterlante1206/FormScribe/services/scribe/routes"
	"github.com/jinterlante1206/FormScribe/services/scribe/transcribe"
)

func initTracer(endpoint string) (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("scribe-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// buildClient selects the vision backend from configuration.
func buildClient(ctx context.Context, cfg config.Config) (llm.LLMClient, error) {
	switch cfg.Backend {
	case "openai":
		slog.Info("Using OpenAI vision backend")
		return llm.NewOpenAIClient()
	case "gemini+openai":
		primary, err := llm.NewGeminiClient(ctx, cfg.ModelPreferences)
		if err != nil {
			return nil, err
		}
		fallback, err := llm.NewOpenAIClient()
		if err != nil {
			return nil, err
		}
		slog.Info("Using Gemini vision backend with OpenAI fallback",
			"primary", primary.ModelName(), "fallback", fallback.ModelName())
		return llm.NewPrimaryThenFallback(primary, fallback), nil
	default:
		client, err := llm.NewGeminiClient(ctx, cfg.ModelPreferences)
		if err != nil {
			return nil, err
		}
		slog.Info("Using Gemini vision backend", "model", client.ModelName())
		return client, nil
	}
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.OTLPEndpoint != "" {
		cleanup, err := initTracer(cfg.OTLPEndpoint)
		if err != nil {
			log.Fatalf("failed to setup the OTLP tracer: %v", err)
		}
		defer cleanup(context.Background())
	}

	ctx := context.Background()
	client, err := buildClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize vision client: %v", err)
	}

	dispatchCfg := dispatch.Config{
		Concurrency: cfg.Concurrency,
		MaxAttempts: cfg.MaxAttempts,
		BackoffStep: cfg.BackoffStep,
	}
	if cfg.RequestsPerMinute > 0 {
		dispatchCfg.Limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}

	scribe := &handlers.Scribe{
		Repo:        repository.New(),
		Transcriber: transcribe.New(client, cfg.Instruction),
		Writer:      narrative.New(client, narrative.DefaultTemperature),
		Dispatch:    dispatchCfg,
		Hub:         handlers.NewProgressHub(),
		Metrics:     observability.InitMetrics(),
		Model:       client.ModelName(),
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("scribe-service"))
	routes.SetupRoutes(router, scribe, cfg.StaticDir)

	slog.Info("Starting the scribe server",
		"port", cfg.Port,
		"backend", cfg.Backend,
		"model", scribe.Model,
		"concurrency", cfg.Concurrency)
	if err := router.Run(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
