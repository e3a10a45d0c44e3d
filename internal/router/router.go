package router

import (
	"github.com/gin-gonic/gin"

	"medintake/internal/config"
	"medintake/internal/handler"
	"medintake/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	processH *handler.ProcessHandler,
	providersH *handler.ProvidersHandler,
	exportH *handler.ExportHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")
	v1.POST("/process", processH.Process)
	v1.GET("/providers", providersH.List)
	v1.POST("/export", exportH.Export)

	return r
}
