package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/postpilot/postpilot-backend/internal/config"
	"github.com/postpilot/postpilot-backend/internal/db"
	"github.com/postpilot/postpilot-backend/internal/drafts"
	"github.com/postpilot/postpilot-backend/internal/extract"
	httpapi "github.com/postpilot/postpilot-backend/internal/http"
	httpH "github.com/postpilot/postpilot-backend/internal/http/handlers"
	httpMW "github.com/postpilot/postpilot-backend/internal/http/middleware"
	"github.com/postpilot/postpilot-backend/internal/platform/envutil"
	"github.com/postpilot/postpilot-backend/internal/platform/gcp"
	"github.com/postpilot/postpilot-backend/internal/platform/kv"
	"github.com/postpilot/postpilot-backend/internal/platform/logger"
	"github.com/postpilot/postpilot-backend/internal/platform/openai"
	"github.com/postpilot/postpilot-backend/internal/repos"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Error("Could not load config", "error", err)
		os.Exit(1)
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	docRepo := repos.NewKnowledgeDocumentRepo(thePG, log)

	// Platform services
	kvStore, err := kv.NewStore(log)
	if err != nil {
		log.Error("Could not init KV store", "error", err)
		os.Exit(1)
	}
	defer kvStore.Close()
	bucketService, err := gcp.NewBucketService(log)
	if err != nil {
		log.Error("Could not init BucketService", "error", err)
		os.Exit(1)
	}
	openaiClient, err := openai.NewClient(log, cfg.Model.Name)
	if err != nil {
		log.Error("Could not init OpenAIClient", "error", err)
		os.Exit(1)
	}

	// Draft pipeline
	draftService := drafts.NewService(log, cfg, bucketService, extract.Text, kvStore, docRepo, openaiClient)

	// Middleware + handlers
	if envutil.Bool("GIN_RELEASE_MODE", false) {
		gin.SetMode(gin.ReleaseMode)
	}
	authMW, err := httpMW.NewAuthMiddleware(log)
	if err != nil {
		log.Error("Could not init AuthMiddleware", "error", err)
		os.Exit(1)
	}
	server := httpapi.NewServer(httpapi.RouterConfig{
		AuthMiddleware:    authMW,
		DraftHandler:      httpH.NewDraftHandler(draftService),
		AttachmentHandler: httpH.NewAttachmentHandler(draftService, bucketService),
		StyleHandler:      httpH.NewStyleHandler(draftService),
		DocumentHandler:   httpH.NewDocumentHandler(docRepo),
		HealthHandler:     httpH.NewHealthHandler(),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Starting server", "addr", addr)
	if err := server.Run(addr); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
