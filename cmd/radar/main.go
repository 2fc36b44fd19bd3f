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

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/flowcrm/pain-radar/internal/ai"
	"github.com/flowcrm/pain-radar/internal/api"
	"github.com/flowcrm/pain-radar/internal/archive"
	"github.com/flowcrm/pain-radar/internal/config"
	"github.com/flowcrm/pain-radar/internal/keywords"
	"github.com/flowcrm/pain-radar/internal/notifications"
	"github.com/flowcrm/pain-radar/internal/pains"
	"github.com/flowcrm/pain-radar/internal/pipeline"
	"github.com/flowcrm/pain-radar/internal/scheduler"
	"github.com/flowcrm/pain-radar/internal/sources"
	"github.com/flowcrm/pain-radar/internal/store"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting Pain Radar")

	// Initialize persistence
	st, err := buildStore(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize store: %v", err)
	}

	// Initialize raw page archive
	var arc archive.Archive = archive.Noop{}
	if cfg.StorageAccount != "" {
		azureArchive, err := archive.NewAzureArchive(cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			logrus.Fatalf("Failed to initialize archive: %v", err)
		}
		arc = azureArchive
	}

	// Initialize collaborators
	aiClient := ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	registry := sources.NewRegistry(
		sources.NewRedditFetcher(cfg.RedditClientID, cfg.RedditClientSecret, cfg.FetchTimeout),
		sources.NewHackerNewsFetcher(cfg.FetchTimeout),
	)
	notificationService := notifications.NewService(cfg)

	// Initialize services
	keywordService := keywords.NewService(st)
	ingestor := pipeline.NewIngestor(st)
	extractor := pipeline.NewExtractor(st, aiClient, cfg.ExtractTimeout)
	orchestrator := pipeline.NewOrchestrator(st, registry, ingestor, extractor, arc,
		notificationService, cfg.FetchTimeout, cfg.ScanTimeout)
	painService := pains.NewService(st)
	insightGenerator := pains.NewInsightGenerator(st, aiClient, cfg.ExtractTimeout)

	// Start backlog sweep scheduler
	schedulerService := scheduler.NewService(cfg, st, extractor, arc)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	// Set up HTTP server
	server := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.Port),
		Handler: api.NewServer(st, keywordService, orchestrator, painService,
			insightGenerator, cfg.ScanPageSize).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

// buildStore picks Postgres when DATABASE_URL is set, otherwise an
// in-memory store seeded with a dev workspace.
func buildStore(cfg *config.Config) (store.Store, error) {
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return pg, nil
	}

	logrus.Warn("DATABASE_URL not set, using in-memory store")
	mem := store.NewMemory()
	mem.AddMember("dev-tenant", "dev-user")
	return mem, nil
}
