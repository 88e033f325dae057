package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/postpilot/postpilot-backend/internal/http/handlers"
	httpMW "github.com/postpilot/postpilot-backend/internal/http/middleware"
)

type RouterConfig struct {
	AuthMiddleware *httpMW.AuthMiddleware

	DraftHandler      *httpH.DraftHandler
	AttachmentHandler *httpH.AttachmentHandler
	StyleHandler      *httpH.StyleHandler
	DocumentHandler   *httpH.DocumentHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Drafts
		if cfg.DraftHandler != nil {
			protected.POST("/drafts/generate", cfg.DraftHandler.Generate)
		}

		// Attachments
		if cfg.AttachmentHandler != nil {
			protected.POST("/attachments/upload", cfg.AttachmentHandler.Upload)
			protected.POST("/attachments/resolve", cfg.AttachmentHandler.Resolve)
		}

		// Style profile
		if cfg.StyleHandler != nil {
			protected.PUT("/style-profile", cfg.StyleHandler.Save)
		}

		// Knowledge documents
		if cfg.DocumentHandler != nil {
			protected.POST("/documents", cfg.DocumentHandler.Create)
			protected.GET("/documents", cfg.DocumentHandler.List)
		}
	}

	return r
}
