package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	database "github.com/FACorreiaa/go-trip-planner/app/db"
	"github.com/FACorreiaa/go-trip-planner/config"
	generativeAI "github.com/FACorreiaa/go-trip-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-planner/internal/api/knowledge"
)

// Seeds the travel knowledge base with the starter corpus. Run with -reset
// to wipe existing documents first.
func main() {
	reset := flag.Bool("reset", false, "truncate the knowledge base before seeding")
	statsOnly := flag.Bool("stats", false, "print per-collection counts and exit")
	flag.Parse()

	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		log.Fatalf("Failed to build database config: %v", err)
	}
	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	embedder, err := generativeAI.NewEmbeddingService(ctx, cfg.Generation.EmbeddingModel, logger)
	if err != nil {
		log.Fatalf("Failed to initialize embedding service: %v", err)
	}

	repo := knowledge.NewPostgresRepository(pool, logger)
	service := knowledge.NewService(repo, embedder, logger)

	if *statsOnly {
		stats, err := service.Stats(ctx)
		if err != nil {
			log.Fatalf("Failed to read knowledge stats: %v", err)
		}
		for collection, count := range stats {
			logger.Info("Collection size", slog.String("collection", collection), slog.Int("documents", count))
		}
		return
	}

	if *reset {
		if err := service.Reset(ctx); err != nil {
			log.Fatalf("Failed to reset knowledge base: %v", err)
		}
		logger.Info("Knowledge base reset")
	}

	if err := knowledge.Seed(ctx, service, logger); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
