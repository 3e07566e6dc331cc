// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for
// security-critical operations.
//
// Transcribed child names come from a vision model reading handwriting, so
// they are untrusted input even though they look like data the service
// produced itself. They end up in download filenames and Content-Disposition
// headers; these validators keep path separators and control characters out
// of both.
package validation

import (
	"fmt"
	"strings"
	"unicode"
)

// MaxNameLength bounds a child name. Handwritten first names on the forms
// are short; anything longer is a transcription artifact.
const MaxNameLength = 60

// ValidateChildName checks a transcribed or operator-edited child name
// before it is used as a record key or a report filename.
//
// Valid names:
//   - 1 to MaxNameLength characters
//   - letters, marks, digits, spaces, apostrophes, periods and hyphens
//   - no leading or trailing whitespace
//
// Returns an error describing the first violation found.
func ValidateChildName(name string) error {
	if name == "" {
		return fmt.Errorf("child name is empty")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("child name exceeds %d characters", MaxNameLength)
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("child name has leading or trailing whitespace")
	}
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r) {
			continue
		}
		switch r {
		case ' ', '\'', '.', '-':
			continue
		}
		return fmt.Errorf("child name contains invalid character %q", r)
	}
	return nil
}

// SafeFilename converts an arbitrary name into something safe to embed in
// a download filename. Path separators, control characters and quotes are
// replaced with underscores; an empty result becomes "report".
func SafeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '"' || r == ';':
			b.WriteRune('_')
		case r < 0x20 || r == 0x7f:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "report"
	}
	return out
}
