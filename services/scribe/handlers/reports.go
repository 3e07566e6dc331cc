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
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jinterlante1206/FormScribe/pkg/validation"
	"github.com/jinterlante1206/FormScribe/services/scribe/datatypes"
	"github.com/jinterlante1206/FormScribe/services/scribe/narrative"
	"github.com/jinterlante1206/FormScribe/services/scribe/report"
)

// CreateClassReport renders one document covering every child in the
// store, a page per child, and streams it back as a docx download.
func CreateClassReport(s *Scribe) gin.HandlerFunc {
	return func(c *gin.Context) {
		grouped := s.Repo.Grouped()
		if len(grouped) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "No records to report on"})
			return
		}

		comments := s.commentsFor(c.Request.Context(), grouped)

		data, err := report.Render(grouped, comments)
		if err != nil {
			slog.Error("Report rendering failed", "children", len(grouped), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if s.Metrics != nil {
			s.Metrics.RecordReport("class")
		}
		slog.Info("Class report rendered", "children", len(grouped), "bytes", len(data))
		sendDocx(c, fmt.Sprintf("class-report-%s.docx", time.Now().Format("2006-01-02")), data)
	}
}

// CreateChildReport renders a single-child document. The name must match
// a transcribed record exactly.
func CreateChildReport(s *Scribe) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")

		child, ok := s.Repo.GroupedChild(name)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("No records for %q", name)})
			return
		}

		grouped := []datatypes.GroupedChild{child}
		comments := s.commentsFor(c.Request.Context(), grouped)

		data, err := report.Render(grouped, comments)
		if err != nil {
			slog.Error("Report rendering failed", "child", name, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if s.Metrics != nil {
			s.Metrics.RecordReport("child")
		}
		slog.Info("Child report rendered", "child", name, "bytes", len(data))
		sendDocx(c, fmt.Sprintf("%s-report.docx", validation.SafeFilename(name)), data)
	}
}

// commentsFor generates one narrative comment per child. Without a
// configured writer every child gets the neutral boilerplate comment, so
// report downloads keep working when the model is unreachable.
func (s *Scribe) commentsFor(ctx context.Context, grouped []datatypes.GroupedChild) map[string]datatypes.NarrativeComment {
	comments := make(map[string]datatypes.NarrativeComment, len(grouped))
	for _, child := range grouped {
		if s.Writer == nil {
			comments[child.Name] = narrative.DefaultComment()
			continue
		}
		comments[child.Name] = s.Writer.WriteComment(ctx, child.Name, child.Entries)
	}
	return comments
}

func sendDocx(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, report.ContentType, data)
}
