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

	"github.com/pritechvior/project-wizard/internal/api"
	"github.com/pritechvior/project-wizard/internal/backend"
	"github.com/pritechvior/project-wizard/internal/catalog"
	"github.com/pritechvior/project-wizard/internal/cleanup"
	"github.com/pritechvior/project-wizard/internal/config"
	"github.com/pritechvior/project-wizard/internal/health"
	"github.com/pritechvior/project-wizard/internal/intake"
	"github.com/pritechvior/project-wizard/internal/notify"
	"github.com/pritechvior/project-wizard/internal/pricing"
	"github.com/pritechvior/project-wizard/internal/storage"
	"github.com/pritechvior/project-wizard/internal/submission"
	"github.com/pritechvior/project-wizard/migrations"
)

const userAgent = "project-wizard-server"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("starting project-wizard",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"session_store", cfg.Sessions.Store,
		"submission_store", cfg.Submission.Store,
		"submit_mode", cfg.Submission.Mode,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Price tables
	var tables *pricing.Tables
	if cfg.Pricing.File != "" {
		tables, err = pricing.LoadFile(cfg.Pricing.File)
		if err != nil {
			slog.Error("failed to load pricing tables", "file", cfg.Pricing.File, "error", err)
			os.Exit(1)
		}
	}
	estimator := pricing.NewEstimator(tables)

	registry := health.NewRegistry(3 * time.Second)

	// Backend REST client and reference data
	client := backend.NewClient(cfg.Backend.BaseURL,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithUserAgent(userAgent),
	)
	slog.Info("backend client configured", "base_url", client.BaseURL(), "timeout", cfg.Backend.Timeout)
	registry.RegisterOptional("backend", health.FromPinger(client))

	loader := catalog.NewLoader(client, catalog.Config{
		TTL:      cfg.Catalog.TTL,
		Hardware: estimator.Tables().Hardware,
	})

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Session store
	var sessions storage.SessionStore
	switch cfg.Sessions.Store {
	case config.StoreRedis:
		store, err := storage.NewRedisSessionStore(initCtx, storage.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Sessions.TTL,
		})
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		slog.Info("redis connected successfully")
		registry.Register("redis", health.FromPinger(store))
		sessions = store
	default:
		store := storage.NewMemorySessionStore(cfg.Sessions.TTL)
		cleanup.NewCleaner(store, cfg.Sessions.SweepInterval).Start(ctx)
		sessions = store
	}
	defer sessions.Close()

	// Submission repository
	var repo storage.SubmissionRepository
	switch cfg.Submission.Store {
	case config.StorePostgres:
		pg, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
			DSN:          cfg.Database.DSN,
			MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		})
		if err != nil {
			slog.Error("failed to create database repository", "error", err)
			os.Exit(1)
		}
		slog.Info("database connected successfully")

		if cfg.Database.MigrationsDir != "" {
			err = storage.RunMigrationsFromDir(initCtx, pg.Pool(), cfg.Database.MigrationsDir)
		} else {
			err = storage.RunMigrations(initCtx, pg.Pool(), migrations.FS)
		}
		if err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		registry.Register("postgres", health.FromPinger(pg))
		repo = pg
	default:
		repo = storage.NewMemorySubmissionRepository()
	}
	defer repo.Close()

	// Submission
	mode, err := submission.ParseMode(cfg.Submission.Mode)
	if err != nil {
		slog.Error("invalid submit mode", "error", err)
		os.Exit(1)
	}
	submitter := submission.NewSubmitter(mode, client, repo, estimator,
		submission.WithSimulateDelay(cfg.Submission.SimulateDelay))

	hub := notify.NewHub(0)
	manager := intake.NewManager(sessions, repo, loader, estimator, submitter, hub)

	// Start background workers
	catalog.NewRefresher(loader, cfg.Catalog.RefreshInterval).Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, api.Dependencies{
		Manager:  manager,
		Catalog:  loader,
		Archives: client,
		Hardware: estimator.Tables().Hardware,
		Health:   registry,
		Hub:      hub,
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
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

	slog.Info("project-wizard stopped")
}
