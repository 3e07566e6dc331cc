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
	"time"

	"github.com/spf13/cobra"

	"github.com/jinterlante1206/FormScribe/services/llm"
)

// --- Global Command Variables ---
var (
	backendType string
	concurrency int
	maxAttempts int
	backoffStep time.Duration
	outputPath  string
	withComment bool
	verbose     bool
	logDir      string

	rootCmd = &cobra.Command{
		Use:   "formscribe",
		Short: "A cli to transcribe preschool assessment forms into Word reports",
		Long: `FormScribe turns photographed assessment forms into structured
records and per-child Word report documents, using a vision model
for handwriting transcription.`,
	}

	// --- Transcribe ---
	transcribeCmd = &cobra.Command{
		Use:   "transcribe [image file or directory...]",
		Short: "Transcribe form photos and write a class report document",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runTranscribeCommand, // Defined in cmd_transcribe.go
	}

	// --- Watch ---
	watchCmd = &cobra.Command{
		Use:   "watch [directory]",
		Short: "Watch a directory and transcribe form photos as they appear",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatchCommand, // Defined in cmd_watch.go
	}

	// --- Models ---
	modelsCmd = &cobra.Command{
		Use:   "models",
		Short: "List the available vision models and the one that would be used",
		RunE:  runModelsCommand, // Defined in cmd_models.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&backendType, "backend", "gemini",
		"Vision backend: gemini, openai, or gemini+openai")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "",
		"Also write JSON logs to this directory")

	transcribeCmd.Flags().IntVar(&concurrency, "concurrency", 4,
		"Images transcribed in parallel")
	transcribeCmd.Flags().IntVar(&maxAttempts, "max-attempts", 3,
		"Attempt budget per image when the model rate-limits")
	transcribeCmd.Flags().DurationVar(&backoffStep, "backoff", 2*time.Second,
		"Base wait between retries; attempt N waits N times this")
	transcribeCmd.Flags().StringVarP(&outputPath, "output", "o", "class-report.docx",
		"Report document to write")
	transcribeCmd.Flags().BoolVar(&withComment, "comment", true,
		"Generate a narrative comment per child (falls back to boilerplate on failure)")

	watchCmd.Flags().IntVar(&concurrency, "concurrency", 4,
		"Images transcribed in parallel")
	watchCmd.Flags().IntVar(&maxAttempts, "max-attempts", 3,
		"Attempt budget per image when the model rate-limits")
	watchCmd.Flags().DurationVar(&backoffStep, "backoff", 2*time.Second,
		"Base wait between retries; attempt N waits N times this")
	watchCmd.Flags().StringVarP(&outputPath, "output", "o", "class-report.docx",
		"Report document to rewrite after each new form")
	watchCmd.Flags().BoolVar(&withComment, "comment", false,
		"Generate a narrative comment per child on each rewrite")

	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(modelsCmd)
}

// newVisionClient builds the model client the subcommands share.
func newVisionClient(ctx context.Context) (llm.LLMClient, error) {
	switch backendType {
	case "openai":
		return llm.NewOpenAIClient()
	case "gemini+openai":
		primary, err := llm.NewGeminiClient(ctx, nil)
		if err != nil {
			return nil, err
		}
		fallback, err := llm.NewOpenAIClient()
		if err != nil {
			return nil, err
		}
		return llm.NewPrimaryThenFallback(primary, fallback), nil
	default:
		return llm.NewGeminiClient(ctx, nil)
	}
}
