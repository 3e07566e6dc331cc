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
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jinterlante1206/FormScribe/pkg/validation"
	"github.com/jinterlante1206/FormScribe/services/scribe/repository"
)

// UpdateRecordRequest carries a partial edit from the review grid. Absent
// fields leave the stored value untouched.
type UpdateRecordRequest struct {
	ChildName *string  `json:"child_name,omitempty"`
	Scores    []string `json:"scores,omitempty"`
	Note      *string  `json:"note,omitempty"`
}

// ListRecords returns every stored row in flat review-grid form.
func ListRecords(s *Scribe) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows := s.Repo.Rows()
		c.JSON(http.StatusOK, gin.H{
			"count": len(rows),
			"rows":  rows,
		})
	}
}

// GetSummary returns the store's aggregate counts.
func GetSummary(s *Scribe) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.Repo.Snapshot())
	}
}

// ListGrouped returns records regrouped per child, the shape the report
// renderer consumes. Useful for previewing a report before download.
func ListGrouped(s *Scribe) gin.HandlerFunc {
	return func(c *gin.Context) {
		grouped := s.Repo.Grouped()
		c.JSON(http.StatusOK, gin.H{
			"count":    len(grouped),
			"children": grouped,
		})
	}
}

// UpdateRecord applies a partial edit to one row.
func UpdateRecord(s *Scribe) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		var req UpdateRecordRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if req.ChildName != nil {
			if err := validation.ValidateChildName(*req.ChildName); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		row, err := s.Repo.UpdateRow(id, repository.RowPatch{
			ChildName: req.ChildName,
			Scores:    req.Scores,
			Note:      req.Note,
		})
		if errors.Is(err, repository.ErrRowNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}
		if err != nil {
			slog.Error("Record update failed", "id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		slog.Info("Record updated", "id", id, "child", row.ChildName)
		c.JSON(http.StatusOK, row)
	}
}

// DeleteRecord removes one row.
func DeleteRecord(s *Scribe) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		if err := s.Repo.DeleteRow(id); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}

		slog.Info("Record deleted", "id", id)
		c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
	}
}

// ClearRecords drops every stored row and batch. The review grid calls
// this when the operator starts a fresh assessment period.
func ClearRecords(s *Scribe) gin.HandlerFunc {
	return func(c *gin.Context) {
		before := s.Repo.Snapshot()
		s.Repo.Clear()

		slog.Info("Record store cleared", "rows_dropped", before.Rows)
		c.JSON(http.StatusOK, gin.H{
			"status":       "cleared",
			"rows_dropped": before.Rows,
		})
	}
}
