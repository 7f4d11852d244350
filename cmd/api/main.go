package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vigilsafe/vigil/internal/api"
	"github.com/vigilsafe/vigil/internal/config"
	"github.com/vigilsafe/vigil/internal/inference"
	"github.com/vigilsafe/vigil/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Vigil API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
	)

	// Load inference runtime and models before touching the network;
	// without models the service has no degraded mode.
	if err := inference.InitRuntime(cfg.OnnxRuntimeLibPath); err != nil {
		return fmt.Errorf("failed to initialize onnx runtime: %w", err)
	}
	defer func() { _ = inference.DestroyRuntime() }()

	models, err := inference.NewRegistry(inference.Config{
		FireModelPath:   cfg.FireModelPath,
		PersonModelPath: cfg.PersonModelPath,
		PoseModelPath:   cfg.PoseModelPath,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to load models: %w", err)
	}
	defer func() { _ = models.Close() }()

	// Connect to database
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Setup router
	deps := &api.Dependencies{
		CameraRepo:     repository.NewCameraRepository(pool),
		SessionRepo:    repository.NewSessionRepository(pool),
		Models:         models,
		DB:             pool,
		SampleInterval: cfg.SampleIntervalSeconds,
		FrameCap:       cfg.MaxFramesPerSession,
		AlertCooldown:  time.Duration(cfg.AlertCooldownSeconds) * time.Second,
	}
	router := api.NewRouter(logger, deps)
	router.Setup()

	// Graceful shutdown
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	<-shutdownCtx.Done()
	logger.Info("server stopped")

	return nil
}
