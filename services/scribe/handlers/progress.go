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
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/jinterlante1206/FormScribe/services/scribe/datatypes"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
}

// ProgressHub fans batch progress updates out to connected websocket
// clients. Broadcast never blocks on a slow client; a failed write drops
// the connection. All methods are safe for concurrent use.
type ProgressHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewProgressHub returns an empty hub.
func NewProgressHub() *ProgressHub {
	return &ProgressHub{conns: make(map[*websocket.Conn]struct{})}
}

func (h *ProgressHub) register(ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[ws] = struct{}{}
}

func (h *ProgressHub) unregister(ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, ws)
}

// ClientCount reports the number of connected clients.
func (h *ProgressHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Broadcast sends one progress update to every connected client.
func (h *ProgressHub) Broadcast(p datatypes.BatchProgress) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ws := range h.conns {
		if err := ws.WriteJSON(p); err != nil {
			slog.Warn("Dropping slow websocket client", "error", err)
			ws.Close()
			delete(h.conns, ws)
		}
	}
}

// HandleProgressWebSocket upgrades the connection and streams batch
// progress updates until the client disconnects. Inbound messages are
// read and discarded to service control frames.
func HandleProgressWebSocket(hub *ProgressHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}
		defer ws.Close()

		hub.register(ws)
		defer hub.unregister(ws)
		slog.Info("Progress websocket client connected")

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				slog.Info("Progress websocket client disconnected", "error", err.Error())
				return
			}
		}
	}
}
