package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/soundclip-go/api/handlers"
	"github.com/yourusername/soundclip-go/api/middleware"
	"github.com/yourusername/soundclip-go/pkg/logger"
)

// SetupRouter sets up the HTTP router
func SetupRouter(
	downloads handlers.DownloadService,
	updates handlers.UpdateService,
	hub *handlers.EventHub,
	logAdapter *logger.LoggerAdapter,
	logsDir string,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Logger(logAdapter))
	router.Use(middleware.Recovery(logAdapter))
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(downloads, updates)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		downloadHandler := handlers.NewDownloadHandler(downloads)
		download := v1.Group("/download")
		{
			download.POST("", downloadHandler.StartDownload)
			download.POST("/cancel", downloadHandler.CancelDownload)
			download.GET("/status", downloadHandler.GetStatus)
		}

		jobs := v1.Group("/jobs")
		{
			jobs.GET("", downloadHandler.ListJobs)
			jobs.GET("/stats", downloadHandler.GetStats)
			jobs.GET("/:id", downloadHandler.GetJob)
		}

		updateHandler := handlers.NewUpdateHandler(updates)
		v1.GET("/dependencies", updateHandler.GetDependencies)
		ytdlp := v1.Group("/ytdlp")
		{
			ytdlp.GET("/version", updateHandler.GetYTDLPVersion)
			ytdlp.POST("/update", updateHandler.UpdateYTDLP)
		}
		ffmpeg := v1.Group("/ffmpeg")
		{
			ffmpeg.GET("", updateHandler.GetFFmpeg)
			ffmpeg.POST("/install", updateHandler.InstallFFmpeg)
		}

		logHandler := handlers.NewLogHandler(logsDir)
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/search", logHandler.SearchLogs)
			logs.GET("/:category/export", logHandler.ExportLogs)
		}

		v1.GET("/events", hub.HandleWebSocket)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
