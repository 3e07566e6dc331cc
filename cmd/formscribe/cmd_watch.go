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
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/jinterlante1206/FormScribe/services/llm"
	"github.com/jinterlante1206/FormScribe/services/scribe/datatypes"
)

// settleDelay is how long a new file must stop growing before we read it.
// Phone sync tools write photos in chunks.
const settleDelay = 2 * time.Second

func runWatchCommand(cmd *cobra.Command, args []string) error {
	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newVisionClient(ctx)
	if err != nil {
		return fmt.Errorf("initialize vision client: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	// Transcribe whatever is already in the directory first.
	seen := make(map[string]bool)
	var accumulated []datatypes.TranscriptionResult

	initial, err := collectImages([]string{dir})
	if err != nil {
		return err
	}
	for _, img := range initial {
		seen[img.Filename] = true
	}
	if len(initial) > 0 {
		accumulated = transcribeAndReport(ctx, client, initial, accumulated)
	}

	logger.Info("Watching for new form photos", "dir", dir)
	fmt.Printf("Watching %s; press Ctrl-C to stop\n", dir)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) {
				pending[event.Name] = time.Now()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", "error", err)

		case <-ticker.C:
			var ready []string
			for path, last := range pending {
				if time.Since(last) >= settleDelay {
					ready = append(ready, path)
					delete(pending, path)
				}
			}
			if len(ready) == 0 {
				continue
			}

			var batch []datatypes.UploadedImage
			for _, path := range ready {
				img, ok, err := loadImage(path)
				if err != nil {
					logger.Warn("Cannot read new file", "file", path, "error", err)
					continue
				}
				if !ok || seen[img.Filename] {
					continue
				}
				seen[img.Filename] = true
				batch = append(batch, img)
			}
			if len(batch) > 0 {
				accumulated = transcribeAndReport(ctx, client, batch, accumulated)
			}
		}
	}
}

// transcribeAndReport runs one incremental batch and rewrites the report
// with everything accumulated so far.
func transcribeAndReport(ctx context.Context, client llm.LLMClient, images []datatypes.UploadedImage, accumulated []datatypes.TranscriptionResult) []datatypes.TranscriptionResult {
	logger.Info("Transcribing new forms", "count", len(images))
	results, failures := runBatch(ctx, client, images)
	for _, f := range failures {
		logger.Error("Image failed", "file", f.SourceFile, "kind", f.ErrorKind, "error", f.Error)
	}
	accumulated = append(accumulated, results...)
	if len(accumulated) == 0 {
		return accumulated
	}
	if err := writeReport(ctx, client, accumulated, outputPath); err != nil {
		logger.Error("Report rewrite failed", "error", err)
		return accumulated
	}
	fmt.Printf("Report updated: %s (%d forms)\n", outputPath, len(accumulated))
	return accumulated
}
