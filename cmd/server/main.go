package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/myblogsite/myblog/internal/api"
	"github.com/myblogsite/myblog/internal/db"
	"github.com/myblogsite/myblog/internal/service"
	"github.com/myblogsite/myblog/internal/storage"
	"github.com/myblogsite/myblog/pkg/config"
	"github.com/myblogsite/myblog/pkg/logging"
	"github.com/myblogsite/myblog/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting blog server")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	ctx := context.Background()

	if cfg.Database.AutoMigrate {
		if err := db.NewMigrator(database.DB).Migrate(ctx); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
		logger.Info("Database schema is up to date")
	}

	store, err := storage.New(ctx, &cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to initialize image storage", zap.Error(err), zap.String("backend", cfg.Storage.Backend))
	}

	repo := db.NewRepository(database.DB)
	posts := service.NewPostService(
		db.NewPostRepository(repo),
		db.NewCommentRepository(repo),
		db.NewTagRepository(repo),
		db.NewLikeRepository(repo),
		store,
	)

	opts := api.Options{
		Feed:   cfg.Feed,
		Health: database.Health,
	}
	if local, ok := store.(*storage.FileSystem); ok {
		opts.Uploads = local.HTTPFileSystem()
		opts.UploadPrefix = local.ImageDirectory()
	}

	// Create Gin router
	if cfg.Logging.Level == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine, err := api.NewEngine(api.NewRouter(posts, opts))
	if err != nil {
		logger.Fatal("Failed to set up routes", zap.Error(err))
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
