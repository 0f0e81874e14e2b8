package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/ytq-go/api/handlers"
	"github.com/yourusername/ytq-go/api/middleware"
	"github.com/yourusername/ytq-go/internal/app"
	"github.com/yourusername/ytq-go/internal/domain"
)

// SetupRouter wires the HTTP surface around the scheduler and media services
func SetupRouter(
	ctx context.Context,
	scheduler *app.QueueScheduler,
	builder *app.SpecBuilder,
	client domain.MetadataClient,
	expander *app.PlaylistExpander,
	log *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	healthHandler := handlers.NewHealthHandler(scheduler)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		jobHandler := handlers.NewJobHandler(scheduler, builder, log)
		jobs := v1.Group("/jobs")
		{
			jobs.POST("", jobHandler.AddJob)
			jobs.GET("", jobHandler.ListJobs)
			jobs.GET("/:id", jobHandler.GetJob)
			jobs.GET("/:id/log", jobHandler.GetJobLog)
			jobs.POST("/:id/cancel", jobHandler.CancelJob)
			jobs.POST("/:id/reorder", jobHandler.ReorderJob)
			jobs.DELETE("/:id", jobHandler.DeleteJob)
		}

		queueHandler := handlers.NewQueueHandler(ctx, scheduler, log)
		queue := v1.Group("/queue")
		{
			queue.POST("/start", queueHandler.StartQueue)
			queue.POST("/pause", queueHandler.PauseQueue)
			queue.GET("/stats", queueHandler.GetStats)
		}

		mediaHandler := handlers.NewMediaHandler(client, expander, scheduler, log)
		v1.GET("/formats", mediaHandler.GetFormats)
		v1.GET("/formats/estimate", mediaHandler.EstimateSize)
		playlists := v1.Group("/playlists")
		{
			playlists.POST("/expand", mediaHandler.ExpandPlaylist)
			playlists.POST("/jobs", mediaHandler.EnqueuePlaylist)
		}

		eventHandler := handlers.NewEventWebSocketHandler(scheduler, log)
		v1.GET("/events", eventHandler.HandleWebSocket)
	}

	return router
}
