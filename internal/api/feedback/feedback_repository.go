package feedback

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

type Repository interface {
	AddFeedback(ctx context.Context, fb *types.UserFeedback) (*types.UserFeedback, error)
	ListFeedback(ctx context.Context, itineraryID uuid.UUID) ([]types.UserFeedback, error)
	RatingStats(ctx context.Context, itineraryID uuid.UUID) (*types.RatingStats, error)
}

var _ Repository = (*RepositoryImpl)(nil)

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresRepository(pgxpool *pgxpool.Pool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgxpool,
	}
}

func (r *RepositoryImpl) AddFeedback(ctx context.Context, fb *types.UserFeedback) (*types.UserFeedback, error) {
	ctx, span := otel.Tracer("FeedbackRepo").Start(ctx, "AddFeedback")
	defer span.End()

	row := r.pgpool.QueryRow(ctx, `
        INSERT INTO user_feedback (
            itinerary_id, user_id, feedback_type, rating, comment, response)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, was_addressed, created_at`,
		fb.ItineraryID, fb.UserID, fb.FeedbackType, fb.Rating, fb.Comment, fb.Response)

	if err := row.Scan(&fb.ID, &fb.WasAddressed, &fb.CreatedAt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Insert failed")
		return nil, fmt.Errorf("failed to store feedback: %w", err)
	}

	span.SetStatus(codes.Ok, "Feedback stored")
	return fb, nil
}

func (r *RepositoryImpl) ListFeedback(ctx context.Context, itineraryID uuid.UUID) ([]types.UserFeedback, error) {
	ctx, span := otel.Tracer("FeedbackRepo").Start(ctx, "ListFeedback")
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
        SELECT id, itinerary_id, user_id, feedback_type, rating, comment,
               was_addressed, response, created_at
        FROM user_feedback
        WHERE itinerary_id = $1
        ORDER BY created_at DESC`, itineraryID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var feedback []types.UserFeedback
	for rows.Next() {
		var fb types.UserFeedback
		if err := rows.Scan(&fb.ID, &fb.ItineraryID, &fb.UserID, &fb.FeedbackType,
			&fb.Rating, &fb.Comment, &fb.WasAddressed, &fb.Response, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		feedback = append(feedback, fb)
	}
	return feedback, rows.Err()
}

// RatingStats aggregates over rating-typed feedback only; comments and
// modification requests count toward feedback_count.
func (r *RepositoryImpl) RatingStats(ctx context.Context, itineraryID uuid.UUID) (*types.RatingStats, error) {
	row := r.pgpool.QueryRow(ctx, `
        SELECT COALESCE(AVG(rating) FILTER (WHERE rating IS NOT NULL), 0),
               COUNT(rating),
               COUNT(*)
        FROM user_feedback
        WHERE itinerary_id = $1`, itineraryID)

	var stats types.RatingStats
	if err := row.Scan(&stats.AverageRating, &stats.RatingCount, &stats.FeedbackCount); err != nil {
		return nil, fmt.Errorf("failed to aggregate rating stats: %w", err)
	}
	return &stats, nil
}
