// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jinterlante1206/FormScribe/services/scribe/handlers"
)

// SetupRoutes wires every HTTP endpoint. staticDir, when non-empty, is
// served under /ui for the review grid frontend.
func SetupRoutes(router *gin.Engine, s *handlers.Scribe, staticDir string) {
	router.GET("/health", handlers.HealthCheck(s))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if staticDir != "" {
		router.StaticFS("/ui", http.Dir(staticDir))
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/ui/index.html")
		})
	}

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.POST("/batches", handlers.CreateBatch(s))
		v1.GET("/batches/latest", handlers.GetLatestBatch(s))
		v1.GET("/batches/ws", handlers.HandleProgressWebSocket(s.Hub))

		// Review grid routes
		records := v1.Group("/records")
		{
			records.GET("", handlers.ListRecords(s))
			records.GET("/grouped", handlers.ListGrouped(s))
			records.GET("/summary", handlers.GetSummary(s))
			records.PATCH("/:id", handlers.UpdateRecord(s))
			records.DELETE("/:id", handlers.DeleteRecord(s))
			records.POST("/clear", handlers.ClearRecords(s))
		}

		// Report download routes
		reports := v1.Group("/reports")
		{
			reports.GET("/class", handlers.CreateClassReport(s))
			reports.GET("/children/:name", handlers.CreateChildReport(s))
		}
	}
}
