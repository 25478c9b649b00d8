package handlers

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	ws "github.com/chynybekuuludastan/post_factory/internal/api/websocket"
)

// WebSocketHandler streams bulk job progress
type WebSocketHandler struct {
	Hub *ws.Hub
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{Hub: hub}
}

// HandleJobWebSocket subscribes the connection to one job until it disconnects
func (h *WebSocketHandler) HandleJobWebSocket(c *websocket.Conn) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		c.WriteJSON(map[string]string{"type": "error", "error": "Invalid job ID format"})
		c.Close()
		return
	}
	h.Hub.HandleConnection(c, id)
}
