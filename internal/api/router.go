package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/artcaption/internal/api/handler"
	"github.com/timmy/artcaption/internal/api/middleware"
	"github.com/timmy/artcaption/internal/config"
	"github.com/timmy/artcaption/internal/logger"
	"github.com/timmy/artcaption/internal/source"
)

// Dependencies are the services the router exposes. Archive, DB and
// Batch are optional.
type Dependencies struct {
	Captions handler.CaptionGenerator
	Archive  handler.CaptionArchive
	DB       handler.Pinger
	Batch    handler.BatchRunner
	Sources  map[string]source.Source
	Logger   *logger.Logger
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(cfg *config.ServerConfig, deps Dependencies) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	if cfg.MaxUploadSize > 0 {
		r.MaxMultipartMemory = cfg.MaxUploadSize
	}

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(deps.Logger))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	healthHandler := handler.NewHealthHandler(deps.Captions.Model(), deps.DB)
	captionHandler := handler.NewCaptionHandler(deps.Captions, deps.Archive, cfg.MaxUploadSize)

	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	{
		// Captions
		v1.POST("/captions", captionHandler.Generate)
		v1.POST("/captions/refine", captionHandler.Refine)
		v1.GET("/captions", captionHandler.ListCaptions)
		v1.GET("/captions/:id", captionHandler.GetCaption)

		// Title prefix rotation
		v1.GET("/prefixes", captionHandler.PrefixUsage)

		// Gallery batches
		if deps.Batch != nil && len(deps.Sources) > 0 {
			batchHandler := handler.NewBatchHandler(deps.Batch, deps.Sources)
			v1.POST("/batches", batchHandler.TriggerBatch)
			v1.GET("/batches/status", batchHandler.GetBatchStatus)
		}
	}

	return r
}
