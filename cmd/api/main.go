package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	_ "github.com/EliranNovik/Leadify-sub026/docs"
	"github.com/EliranNovik/Leadify-sub026/internal/adapter/handler"
	"github.com/EliranNovik/Leadify-sub026/internal/adapter/repository"
	"github.com/EliranNovik/Leadify-sub026/internal/infrastructure/cache"
	"github.com/EliranNovik/Leadify-sub026/internal/infrastructure/database"
	httpmw "github.com/EliranNovik/Leadify-sub026/internal/infrastructure/http/middleware"
	"github.com/EliranNovik/Leadify-sub026/internal/infrastructure/storage"
	"github.com/EliranNovik/Leadify-sub026/internal/usecase/pipeline"
	"github.com/EliranNovik/Leadify-sub026/internal/usecase/subscription"
	"github.com/EliranNovik/Leadify-sub026/pkg/config"
	"github.com/EliranNovik/Leadify-sub026/pkg/graph"
	"github.com/EliranNovik/Leadify-sub026/pkg/metrics"
	"github.com/EliranNovik/Leadify-sub026/pkg/summarizer"
	pkgvalidator "github.com/EliranNovik/Leadify-sub026/pkg/validator"
)

// @title           Graph Meeting Sync API
// @version         1.0
// @description     Microsoft Graph change-notification pipeline: subscription lifecycle, webhook ingress and meeting summarization

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey ServiceToken
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the service JWT.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true
	e.HidePort = false

	e.Use(echomw.LoggerWithConfig(echomw.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	log.Println("🔧 Initializing dependencies...")

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Schema is managed with sql-migrate; development can apply it on boot.
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("DB_AUTO_MIGRATE is enabled in production. Run migrations from CI/CD instead.")
		}
		if err := database.Migrate(db); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	}

	// The coordinator backs the dedup window and per-resource leases. Redis
	// shares them across instances; the memory fallback serves single-instance
	// deployments.
	var coordinator pipeline.Coordinator
	if cfg.Redis.Enabled {
		log.Println("📦 Connecting to Redis...")
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		coordinator = cache.NewRedisCoordinator(redisClient)
	} else {
		log.Println("⚠️  Redis disabled, using in-process coordination (single instance only)")
		coordinator = cache.NewMemoryCoordinator()
	}

	// Optional raw transcript archive.
	var archive pipeline.Archive
	if cfg.Storage.Enabled {
		log.Println("🗄️  Initializing transcript archive...")
		transcriptArchive, err := storage.NewTranscriptArchive(&cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to initialize transcript archive: %v", err)
		}
		archive = transcriptArchive
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	subRepo := repository.NewSubscriptionRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	transcriptRepo := repository.NewTranscriptRepository(db)
	summaryRepo := repository.NewSummaryRepository(db)

	// Upstream clients
	log.Println("🌐 Initializing Graph client...")
	graphClient := graph.NewClient(&cfg.Graph)
	summarizerClient := summarizer.NewClient(&cfg.Summarizer)

	// Services
	log.Println("🔁 Initializing subscription lifecycle manager...")
	subscriptionService := subscription.NewService(subRepo, graphClient, &cfg.Webhook, logger)

	log.Println("⚙️  Initializing notification pipeline...")
	pipelineService := pipeline.NewService(
		notifRepo, meetingRepo, transcriptRepo, summaryRepo,
		graphClient, summarizerClient, coordinator, archive,
		&cfg.Pipeline, logger,
	)
	dispatcher := pipeline.NewDispatcher(notifRepo, coordinator, pipelineService.Queue(), &cfg.Pipeline, logger)

	// Handlers and routes
	log.Println("🛣️  Setting up routes...")
	webhookHandler := handler.NewWebhook(dispatcher, cfg.Webhook.ClientState, logger)
	subscriptionHandler := handler.NewSubscription(subscriptionService, logger)
	summaryHandler := handler.NewSummary(pipelineService, logger)
	serviceAuth := httpmw.NewServiceAuth(cfg.Auth.ServiceTokenSecret, logger)

	router := handler.NewRouter(cfg, webhookHandler, subscriptionHandler, summaryHandler, serviceAuth)
	router.Setup(e)

	metrics.Register()

	// Background work
	ctx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	if err := pipelineService.Start(ctx); err != nil {
		log.Fatalf("Failed to start pipeline: %v", err)
	}
	if err := subscriptionService.StartSweeper(ctx); err != nil {
		log.Fatalf("Failed to start subscription sweeper: %v", err)
	}

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	if err := subscriptionService.StopSweeper(); err != nil {
		log.Printf("Sweeper stop: %v", err)
	}
	if err := pipelineService.Stop(); err != nil {
		log.Printf("Pipeline stop: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
