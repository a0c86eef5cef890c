package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	database "github.com/FACorreiaa/go-trip-planner/app/db"
	appLogger "github.com/FACorreiaa/go-trip-planner/app/logger"
	"github.com/FACorreiaa/go-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-planner/app/tracer"
	"github.com/FACorreiaa/go-trip-planner/config"
	"github.com/FACorreiaa/go-trip-planner/internal/container"
	"github.com/FACorreiaa/go-trip-planner/internal/router"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails.
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := setupLogger()
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Observability ---
	metrics.InitAppMetrics()
	if err := tracer.InitTracingAndMetrics(cfg.Handlers.Prometheus.Port, logger); err != nil {
		logger.Error("Failed to initialize tracing and metrics", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Database Setup ---
	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}

	// Migrations run before the main pool opens.
	err = database.RunMigrations(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Dependency Injection ---
	c, err := container.NewContainer(ctx, &cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize container", slog.Any("error", err))
		os.Exit(1)
	}
	defer c.Close()

	if !c.WaitForDB(ctx) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	// --- Router Setup ---
	mainRouter := router.SetupRouter(&router.Config{
		TripHandler:      c.TripHandler,
		ItineraryHandler: c.ItineraryHandler,
		FeedbackHandler:  c.FeedbackHandler,
	})

	mux := chi.NewMux()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(appLogger.StructuredLogger(logger))
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.StripSlashes)
	mux.Use(middleware.Timeout(60 * time.Second))
	mux.Use(middleware.Compress(5, "application/json"))
	mux.Mount("/", mainRouter)

	// --- HTTP Server Setup ---
	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()

	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}

	// Queue and pool are closed by the container's deferred Close.
	logger.Info("Application shut down complete.")
}

// setupLogger configures and returns the application logger.
func setupLogger() *slog.Logger {
	var logger *slog.Logger
	env := os.Getenv("APP_ENV")

	if env == "development" || env == "" {
		// Colored logs for development
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger = slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
	} else {
		// JSON logs for production
		jsonOpts := &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: false,
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
		log.Println("Initialized production logger (JSON)")
	}
	return logger
}
