package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/ytq-go/internal/app"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local daemon, any frontend origin is fine
	},
}

// EventWebSocketHandler streams queue notifications to connected clients.
// Each connection gets its own scheduler subscription; a slow client only
// loses its own events.
type EventWebSocketHandler struct {
	scheduler *app.QueueScheduler
	logger    *zap.Logger
}

// NewEventWebSocketHandler creates a new WebSocket handler
func NewEventWebSocketHandler(scheduler *app.QueueScheduler, logger *zap.Logger) *EventWebSocketHandler {
	return &EventWebSocketHandler{
		scheduler: scheduler,
		logger:    logger,
	}
}

// HandleWebSocket handles GET /api/v1/events
func (h *EventWebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Info("WebSocket client connected",
		zap.String("remote_addr", c.Request.RemoteAddr))

	events, unsubscribe := h.scheduler.Subscribe()
	defer unsubscribe()

	// Send the current queue so the client starts from a full picture
	for _, job := range h.scheduler.Jobs() {
		n := app.Notification{JobID: job.ID, Status: job.Status, Job: job}
		if err := writeJSON(conn, n); err != nil {
			return
		}
	}

	// Read loop only notices disconnects; clients send nothing meaningful
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case n, ok := <-events:
			if !ok {
				return
			}
			if err := writeJSON(conn, n); err != nil {
				h.logger.Debug("WebSocket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}

func writeJSON(conn *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
