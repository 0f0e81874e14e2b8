package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/ytq-go/internal/app"
)

// QueueHandler handles queue-level HTTP requests
type QueueHandler struct {
	scheduler *app.QueueScheduler
	ctx       context.Context // daemon lifetime, bounds restarted workers
	logger    *zap.Logger
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(ctx context.Context, scheduler *app.QueueScheduler, logger *zap.Logger) *QueueHandler {
	return &QueueHandler{
		scheduler: scheduler,
		ctx:       ctx,
		logger:    logger,
	}
}

// StartQueue handles POST /api/v1/queue/start
func (h *QueueHandler) StartQueue(c *gin.Context) {
	h.scheduler.Start(h.ctx)
	c.JSON(http.StatusOK, gin.H{"message": "queue started"})
}

// PauseQueue handles POST /api/v1/queue/pause
func (h *QueueHandler) PauseQueue(c *gin.Context) {
	h.scheduler.Pause()
	c.JSON(http.StatusOK, gin.H{"message": "queue paused"})
}

// GetStats handles GET /api/v1/queue/stats
func (h *QueueHandler) GetStats(c *gin.Context) {
	stats, err := h.scheduler.Stats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"paused": h.scheduler.IsPaused(),
		"stats":  stats,
	})
}
