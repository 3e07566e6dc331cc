// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the scribe service configuration.
//
// Configuration is layered: built-in defaults, then an optional YAML file
// named by FORMSCRIBE_CONFIG, then individual environment variable
// overrides. The merged result is validated before the service starts.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jinterlante1206/FormScribe/services/llm"
)

// Config holds the full runtime configuration for the scribe service.
type Config struct {
	// Port is the HTTP listen port.
	Port int `yaml:"port" validate:"min=1,max=65535"`

	// Backend selects the vision model provider.
	Backend string `yaml:"backend" validate:"oneof=gemini openai gemini+openai"`

	// Concurrency bounds the number of images transcribed at once.
	Concurrency int `yaml:"concurrency" validate:"min=1,max=64"`

	// MaxAttempts is the per-image attempt ceiling for rate-limited errors.
	MaxAttempts int `yaml:"max_attempts" validate:"min=1,max=10"`

	// BackoffStep is the base wait between retries; attempt N waits N steps.
	BackoffStep time.Duration `yaml:"backoff_step" validate:"min=0"`

	// RequestsPerMinute caps outbound model calls. Zero disables pacing.
	RequestsPerMinute int `yaml:"requests_per_minute" validate:"min=0"`

	// ModelPreferences override the built-in model preference order.
	ModelPreferences []llm.MatchRule `yaml:"model_preferences"`

	// Instruction overrides the built-in transcription instruction.
	Instruction string `yaml:"instruction"`

	// StaticDir is served at /ui when non-empty.
	StaticDir string `yaml:"static_dir"`

	// OTLPEndpoint receives traces when non-empty (host:port).
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:              8844,
		Backend:           "gemini",
		Concurrency:       4,
		MaxAttempts:       3,
		BackoffStep:       2 * time.Second,
		RequestsPerMinute: 0,
	}
}

// Load builds the effective configuration: defaults, then the YAML file
// named by FORMSCRIBE_CONFIG if set, then environment overrides, then
// validation.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("FORMSCRIBE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FORMSCRIBE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v := os.Getenv("FORMSCRIBE_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("FORMSCRIBE_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Concurrency = n
		}
	}
	if v := os.Getenv("FORMSCRIBE_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxAttempts = n
		}
	}
	if v := os.Getenv("FORMSCRIBE_BACKOFF_STEP"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.BackoffStep = d
		}
	}
	if v := os.Getenv("FORMSCRIBE_REQUESTS_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RequestsPerMinute = n
		}
	}
	if v := os.Getenv("FORMSCRIBE_STATIC_DIR"); v != "" {
		cfg.StaticDir = v
	}
	if v := os.Getenv("FORMSCRIBE_OTLP_ENDPOINT"); v != "" {
		cfg.OTLPEndpoint = v
	}
}
