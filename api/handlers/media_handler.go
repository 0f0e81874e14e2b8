package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/ytq-go/internal/app"
	"github.com/yourusername/ytq-go/internal/domain"
)

// MediaHandler serves format discovery and playlist expansion
type MediaHandler struct {
	client    domain.MetadataClient
	expander  *app.PlaylistExpander
	scheduler *app.QueueScheduler
	logger    *zap.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(client domain.MetadataClient, expander *app.PlaylistExpander, scheduler *app.QueueScheduler, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{
		client:    client,
		expander:  expander,
		scheduler: scheduler,
		logger:    logger,
	}
}

// GetFormats handles GET /api/v1/formats?url=
func (h *MediaHandler) GetFormats(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}

	info, err := h.client.VideoInfo(c.Request.Context(), url)
	if err != nil {
		h.logger.Error("Failed to fetch formats", zap.String("url", url), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, info)
}

// EstimateSize handles GET /api/v1/formats/estimate?url=&video=&audio=
// It reports the summed filesize of the chosen streams, the figure shown
// next to a selection before the download is queued.
func (h *MediaHandler) EstimateSize(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}

	info, err := h.client.VideoInfo(c.Request.Context(), url)
	if err != nil {
		h.logger.Error("Failed to fetch formats", zap.String("url", url), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	size := info.EstimatedSize(c.Query("video"), c.Query("audio"))
	resp := gin.H{"known": size > 0}
	if size > 0 {
		resp["bytes"] = size
		resp["human"] = domain.HumanSize(size)
	}
	c.JSON(http.StatusOK, resp)
}

// ExpandPlaylistRequest identifies the playlist to list
type ExpandPlaylistRequest struct {
	URL string `json:"url" binding:"required"`
}

// ExpandPlaylist handles POST /api/v1/playlists/expand
func (h *MediaHandler) ExpandPlaylist(c *gin.Context) {
	var req ExpandPlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := h.expander.Expand(c.Request.Context(), req.URL)
	if err != nil {
		h.logger.Error("Failed to expand playlist", zap.String("url", req.URL), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, plan)
}

// EnqueuePlaylistRequest selects items and a uniform quality preset.
// SelectedIndexes empty means the whole playlist.
type EnqueuePlaylistRequest struct {
	URL             string                   `json:"url" binding:"required"`
	Preset          domain.QualityPreset     `json:"preset" binding:"required"`
	SelectedIndexes []int                    `json:"selected_indexes,omitempty"`
	Subtitles       domain.SubtitleSelection `json:"subtitles"`
}

// EnqueuePlaylist handles POST /api/v1/playlists/jobs
func (h *MediaHandler) EnqueuePlaylist(c *gin.Context) {
	var req EnqueuePlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !domain.ValidatePreset(req.Preset) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown quality preset: " + string(req.Preset)})
		return
	}

	plan, err := h.expander.Expand(c.Request.Context(), req.URL)
	if err != nil {
		h.logger.Error("Failed to expand playlist", zap.String("url", req.URL), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	if len(req.SelectedIndexes) > 0 {
		plan.DeselectAll()
		for _, idx := range req.SelectedIndexes {
			if err := plan.SetSelected(idx, true); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
	}

	specs, err := h.expander.BuildJobSpecs(plan, req.Preset, req.Subtitles)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobs := make([]*domain.Job, 0, len(specs))
	for _, spec := range specs {
		job, err := h.scheduler.Enqueue(spec)
		if err != nil {
			h.logger.Error("Failed to enqueue playlist item", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":    err.Error(),
				"enqueued": jobs,
			})
			return
		}
		jobs = append(jobs, job)
	}

	c.JSON(http.StatusCreated, gin.H{
		"playlist": plan.Title,
		"jobs":     jobs,
	})
}
