package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/go-trip-planner/app/db"
	"github.com/FACorreiaa/go-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-planner/config"
	"github.com/FACorreiaa/go-trip-planner/internal/api/external"
	"github.com/FACorreiaa/go-trip-planner/internal/api/feedback"
	generativeAI "github.com/FACorreiaa/go-trip-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-planner/internal/api/itinerary"
	"github.com/FACorreiaa/go-trip-planner/internal/api/knowledge"
	"github.com/FACorreiaa/go-trip-planner/internal/api/planner"
	"github.com/FACorreiaa/go-trip-planner/internal/api/trip"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Pool   *pgxpool.Pool
	Queue  *planner.Queue

	KnowledgeService knowledge.Service
	TripHandler      *trip.HandlerImpl
	ItineraryHandler *itinerary.HandlerImpl
	FeedbackHandler  *feedback.HandlerImpl
}

// NewContainer initializes and returns a new dependency container. The ctx
// bounds the lifetime of the background worker queue.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	aiClient, err := generativeAI.NewAIClient(ctx, cfg.Generation.Model)
	if err != nil {
		logger.Error("Failed to initialize AI client", slog.Any("error", err))
		return nil, err
	}
	embedder, err := generativeAI.NewEmbeddingService(ctx, cfg.Generation.EmbeddingModel, logger)
	if err != nil {
		logger.Error("Failed to initialize embedding service", slog.Any("error", err))
		return nil, err
	}

	externalClient := external.NewClient(*cfg, logger)

	knowledgeRepo := knowledge.NewPostgresRepository(pool, logger)
	knowledgeService := knowledge.NewService(knowledgeRepo, embedder, logger)
	assembler := knowledge.NewAssembler(knowledgeService, logger)

	tripRepo := trip.NewPostgresRepository(pool, logger)
	itineraryRepo := itinerary.NewPostgresRepository(pool, logger)

	plannerService := planner.NewService(aiClient, assembler, externalClient,
		tripRepo, itineraryRepo, float32(cfg.Generation.Temperature),
		metrics.Get(), logger)

	queue := planner.NewQueue(ctx, plannerService, cfg.Generation.QueueWorkers,
		cfg.Generation.MaxRetries, cfg.Generation.RetryBackoff, logger)

	tripService := trip.NewService(tripRepo, queue, logger)
	tripHandler := trip.NewHandler(tripService, logger)

	itineraryService := itinerary.NewService(itineraryRepo, tripRepo,
		plannerService, externalClient, logger)
	itineraryHandler := itinerary.NewHandler(itineraryService, logger)

	feedbackService := feedback.NewService(
		feedback.NewPostgresRepository(pool, logger), itineraryRepo, logger)
	feedbackHandler := feedback.NewHandler(feedbackService, logger)

	return &Container{
		Config:           cfg,
		Logger:           logger,
		Pool:             pool,
		Queue:            queue,
		KnowledgeService: knowledgeService,
		TripHandler:      tripHandler,
		ItineraryHandler: itineraryHandler,
		FeedbackHandler:  feedbackHandler,
	}, nil
}

// Close releases all resources held by the container.
func (c *Container) Close() {
	if c.Queue != nil {
		if err := c.Queue.Shutdown(); err != nil {
			c.Logger.Error("Worker queue shutdown error", slog.Any("error", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready.
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations runs database migrations.
func (c *Container) RunMigrations(connectionURL string) error {
	return database.RunMigrations(connectionURL, c.Logger)
}
