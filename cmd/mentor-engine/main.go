package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/mentor-engine/internal/ai"
	"github.com/terra-clan/mentor-engine/internal/api"
	"github.com/terra-clan/mentor-engine/internal/assist"
	"github.com/terra-clan/mentor-engine/internal/auth"
	"github.com/terra-clan/mentor-engine/internal/config"
	"github.com/terra-clan/mentor-engine/internal/health"
	"github.com/terra-clan/mentor-engine/internal/janitor"
	"github.com/terra-clan/mentor-engine/internal/sandbox"
	"github.com/terra-clan/mentor-engine/internal/snippets"
	"github.com/terra-clan/mentor-engine/internal/storage"
	"github.com/terra-clan/mentor-engine/internal/tutor"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting mentor-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"checker_mode", cfg.Checker.Mode,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Run database migrations
	slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
	if err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize database repository
	repo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
	})
	if err != nil {
		slog.Error("failed to create database repository", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected successfully")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(initCtx).Err(); err != nil {
		slog.Warn("redis unreachable at startup, continuing", "error", err)
	}

	// Identity verification with a Redis-backed cache in front
	verifier := auth.NewCachingVerifier(
		auth.NewHTTPVerifier(cfg.Auth.ProviderURL, cfg.Auth.AnonKey),
		rdb,
		cfg.Auth.CacheTTL,
	)

	// AI backends
	generator := ai.NewGenerativeClient(cfg.AI.GenerativeURL, cfg.AI.GenerativeKey, cfg.AI.Model, cfg.AI.RequestTimeout)
	embedder := ai.NewEmbeddingsClient(cfg.AI.EmbeddingsURL, cfg.AI.EmbeddingsKey, cfg.AI.RequestTimeout)

	// Load snippet catalog
	catalog := snippets.NewCatalog()
	if err := catalog.LoadFromDir(cfg.Snippets.Dir); err != nil {
		slog.Warn("failed to load snippets from dir", "dir", cfg.Snippets.Dir, "error", err)
	}
	slog.Info("snippet catalog loaded", "count", catalog.Len())

	// Solution checker
	var checker sandbox.Checker
	switch cfg.Checker.Mode {
	case "docker":
		dockerChecker, err := sandbox.NewDockerChecker(cfg.Checker.DockerHost, cfg.Checker.Image, cfg.Checker.Timeout)
		if err != nil {
			slog.Error("failed to create docker checker", "error", err)
			os.Exit(1)
		}
		defer dockerChecker.Close()
		checker = dockerChecker
	default:
		checker = sandbox.MarkerChecker{}
	}

	// Services
	notifier := assist.NewRedisNotifier(rdb)
	assistSvc := assist.NewService(repo, notifier)
	tutorSvc := tutor.NewService(repo, generator, embedder, catalog, cfg.AI.RetrievalLimit)
	sandboxSvc := sandbox.NewService(repo, checker)

	// Readiness checks
	healthReg := health.NewRegistry()
	healthReg.Register("postgres", repo)
	healthReg.Register("redis", health.CheckerFunc(func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}))
	healthReg.Register("identity", health.CheckerFunc(verifier.Ping))

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the stale-ticket sweeper
	sweeper := janitor.New(repo, cfg.Janitor.Interval, cfg.Janitor.MaxAge)
	sweeper.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, verifier, tutorSvc, assistSvc, sandboxSvc, healthReg, api.NewRedisEventSource(rdb))
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := rdb.Close(); err != nil {
		slog.Error("redis close error", "error", err)
	}

	repo.Close()

	slog.Info("mentor-engine stopped")
}
