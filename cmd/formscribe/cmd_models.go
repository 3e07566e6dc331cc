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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jinterlante1206/FormScribe/services/llm"
)

func runModelsCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if backendType == "openai" {
		client, err := llm.NewOpenAIClient()
		if err != nil {
			return err
		}
		fmt.Printf("Backend: openai\nModel in use: %s\n", client.ModelName())
		return nil
	}

	client, err := llm.NewGeminiClient(ctx, nil)
	if err != nil {
		return err
	}

	names, err := client.ListModelNames(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}

	fmt.Println("Available models:")
	for _, name := range names {
		marker := "  "
		if name == client.ModelName() {
			marker = "* "
		}
		fmt.Printf("%s%s\n", marker, name)
	}
	fmt.Printf("\nModel in use: %s\n", client.ModelName())
	if client.ModelName() == llm.FallbackModel {
		fmt.Println("(catalog was empty or nothing matched; using the fallback model)")
	}
	return nil
}
