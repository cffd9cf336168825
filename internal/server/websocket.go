package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsEntry is the message sent to websocket clients for each formatted line.
type wsEntry struct {
	Timestamp string   `json:"timestamp"`
	Source    string   `json:"source"`
	Message   string   `json:"message"`
	Entities  []string `json:"entities,omitempty"`
	Rejected  int      `json:"rejected,omitempty"`
	Raw       string   `json:"raw"`
}

// handleWebSocket upgrades to WebSocket and streams formatted entries to the client.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	entries := s.hub.Subscribe()
	defer s.hub.Unsubscribe(entries)

	// Read pump: detect client disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Write pump: send entries as JSON.
	for {
		select {
		case <-done:
			return
		case entry, ok := <-entries:
			if !ok {
				return
			}
			msg := wsEntry{
				Timestamp: entry.Timestamp.Format(time.RFC3339),
				Source:    entry.Source,
				Message:   entry.Message,
				Entities:  entry.Entities,
				Rejected:  entry.Rejected,
				Raw:       entry.Raw,
			}
			if err := conn.WriteJSON(msg); err != nil {
				slog.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}
