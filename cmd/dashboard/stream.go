package main

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// upgrader for the live portfolio stream.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const writeTimeout = 10 * time.Second

// StreamHandler upgrades the connection and forwards portfolio updates until
// the client disconnects.
func (h *APIHandler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates, cancel := h.engine.Subscribe()
	defer cancel()

	h.log.Info("Stream client connected", zap.String("remote", conn.RemoteAddr().String()))

	// Drain client frames so close messages and pings are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for update := range updates {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(update); err != nil {
			h.log.Debug("Stream client dropped", zap.Error(err))
			return
		}
	}
}
