package router

import (
	"github.com/gin-gonic/gin"

	"habita/internal/config"
	"habita/internal/handler"
	"habita/internal/middleware"
)

// New assembles the HTTP surface: health unauthenticated, everything
// under /api/v1/reportes behind JWT auth.
func New(cfg *config.Config, reports *handler.ReportHandler, health *handler.HealthHandler) *gin.Engine {
	gin.SetMode(cfg.Server.GinMode)

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.GET("/health", health.Health)

	api := r.Group("/api/v1")
	reportes := api.Group("/reportes", middleware.Auth(cfg.JWT.Secret))
	{
		reportes.GET("/meta", reports.Meta)
		reportes.POST("/dinamico/generar", reports.Generate)
		reportes.POST("/dinamico/exportar", reports.Export)
		reportes.POST("/ia", reports.GenerateFromPrompt)
		reportes.GET("/reservas", reports.ReservationSummary)
		reportes.GET("/historial", reports.History)
	}

	return r
}
