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
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/jinterlante1206/FormScribe/services/llm"
	"github.com/jinterlante1206/FormScribe/services/scribe/aggregate"
	"github.com/jinterlante1206/FormScribe/services/scribe/datatypes"
	"github.com/jinterlante1206/FormScribe/services/scribe/dispatch"
	"github.com/jinterlante1206/FormScribe/services/scribe/narrative"
	"github.com/jinterlante1206/FormScribe/services/scribe/report"
	"github.com/jinterlante1206/FormScribe/services/scribe/transcribe"
)

func runTranscribeCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	images, err := collectImages(args)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		return fmt.Errorf("no image files found under %s", strings.Join(args, ", "))
	}
	logger.Info("Collected form photos", "count", len(images))

	client, err := newVisionClient(ctx)
	if err != nil {
		return fmt.Errorf("initialize vision client: %w", err)
	}

	results, failures := runBatch(ctx, client, images)
	for _, f := range failures {
		logger.Error("Image failed", "file", f.SourceFile, "kind", f.ErrorKind,
			"attempts", f.Attempts, "error", f.Error)
	}
	if len(results) == 0 {
		return fmt.Errorf("all %d images failed to transcribe", len(failures))
	}

	if err := writeReport(ctx, client, results, outputPath); err != nil {
		return err
	}

	fmt.Printf("Transcribed %d of %d forms; report written to %s\n",
		len(results), len(images), outputPath)
	return nil
}

// runBatch drives the dispatcher with a stdout progress line.
func runBatch(ctx context.Context, client llm.LLMClient, images []datatypes.UploadedImage) ([]datatypes.TranscriptionResult, []datatypes.BatchFailure) {
	t := transcribe.New(client, "")
	cfg := dispatch.Config{
		Concurrency: concurrency,
		MaxAttempts: maxAttempts,
		BackoffStep: backoffStep,
	}
	progress := func(completed, total int) {
		fmt.Printf("\rTranscribing %d/%d", completed, total)
		if completed == total {
			fmt.Println()
		}
	}
	return dispatch.Process(ctx, t, images, cfg, progress)
}

// writeReport groups the results, optionally generates narrative comments
// and writes the docx to path.
func writeReport(ctx context.Context, client llm.LLMClient, results []datatypes.TranscriptionResult, path string) error {
	grouped := aggregate.GroupByChild(aggregate.Flatten(results))

	comments := make(map[string]datatypes.NarrativeComment, len(grouped))
	if withComment {
		writer := narrative.New(client, narrative.DefaultTemperature)
		for _, child := range grouped {
			comments[child.Name] = writer.WriteComment(ctx, child.Name, child.Entries)
		}
	}

	data, err := report.Render(grouped, comments)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	logger.Info("Report written", "path", path, "children", len(grouped), "bytes", len(data))
	return nil
}

// collectImages expands files and directories into uploaded images,
// sniffing content so stray non-image files are skipped rather than sent
// to the model. Directory scans are not recursive; assessment photo
// folders are flat.
func collectImages(paths []string) ([]datatypes.UploadedImage, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() {
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
	}
	sort.Strings(files)

	var images []datatypes.UploadedImage
	for _, f := range files {
		img, ok, err := loadImage(f)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.Debug("Skipping non-image file", "file", f)
			continue
		}
		images = append(images, img)
	}
	return images, nil
}

func loadImage(path string) (datatypes.UploadedImage, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return datatypes.UploadedImage{}, false, err
	}
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return datatypes.UploadedImage{}, false, nil
	}
	return datatypes.UploadedImage{
		Filename: filepath.Base(path),
		MIMEType: mime.String(),
		Data:     data,
	}, true, nil
}
