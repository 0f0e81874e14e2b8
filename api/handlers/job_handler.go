package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/ytq-go/internal/app"
	"github.com/yourusername/ytq-go/internal/domain"
)

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	scheduler *app.QueueScheduler
	builder   *app.SpecBuilder
	logger    *zap.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(scheduler *app.QueueScheduler, builder *app.SpecBuilder, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		scheduler: scheduler,
		builder:   builder,
		logger:    logger,
	}
}

// AddJobRequest represents a request to enqueue a download
type AddJobRequest struct {
	URL       string                   `json:"url" binding:"required"`
	Title     string                   `json:"title,omitempty"`
	Selection domain.FormatSelection   `json:"selection"`
	Subtitles domain.SubtitleSelection `json:"subtitles"`
}

// AddJob handles POST /api/v1/jobs
func (h *JobHandler) AddJob(c *gin.Context) {
	var req AddJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	spec, err := h.builder.Build(req.URL, req.Title, req.Selection, req.Subtitles, nil)
	if err != nil {
		// selection problems are caller mistakes, not server faults
		if errors.Is(err, domain.ErrNothingSelected) || errors.Is(err, domain.ErrEmptySelection) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to build job spec", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	job, err := h.scheduler.Enqueue(spec)
	if err != nil {
		h.logger.Error("Failed to enqueue job", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, job)
}

// ListJobs handles GET /api/v1/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	jobs := h.scheduler.Jobs()

	if status := c.Query("status"); status != "" {
		filtered := make([]*domain.Job, 0, len(jobs))
		for _, j := range jobs {
			if j.Status == domain.JobStatus(status) {
				filtered = append(filtered, j)
			}
		}
		jobs = filtered
	}

	c.JSON(http.StatusOK, jobs)
}

// GetJob handles GET /api/v1/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.scheduler.GetJob(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// GetJobLog handles GET /api/v1/jobs/:id/log
func (h *JobHandler) GetJobLog(c *gin.Context) {
	log, err := h.scheduler.JobLog(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"log": log})
}

// CancelJob handles POST /api/v1/jobs/:id/cancel
func (h *JobHandler) CancelJob(c *gin.Context) {
	id := c.Param("id")
	if err := h.scheduler.CancelJob(id); err != nil {
		status := http.StatusConflict
		if errors.Is(err, domain.ErrJobNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "job cancelled"})
}

// ReorderJobRequest carries the target queue position
type ReorderJobRequest struct {
	Index int `json:"index"`
}

// ReorderJob handles POST /api/v1/jobs/:id/reorder
func (h *JobHandler) ReorderJob(c *gin.Context) {
	var req ReorderJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.scheduler.Reorder(c.Param("id"), req.Index); err != nil {
		status := http.StatusConflict
		if errors.Is(err, domain.ErrJobNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "job reordered"})
}

// DeleteJob handles DELETE /api/v1/jobs/:id
func (h *JobHandler) DeleteJob(c *gin.Context) {
	id := c.Param("id")
	if err := h.scheduler.Remove(id); err != nil {
		status := http.StatusConflict
		if errors.Is(err, domain.ErrJobNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "job removed"})
}
