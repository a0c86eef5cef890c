package feedback

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// ItineraryAccess answers who owns the itinerary a piece of feedback targets.
type ItineraryAccess interface {
	OwnerOf(ctx context.Context, itineraryID uuid.UUID) (uuid.UUID, error)
	SetRating(ctx context.Context, itineraryID uuid.UUID, rating int) error
}

type Service interface {
	SubmitFeedback(ctx context.Context, userID uuid.UUID, fb *types.UserFeedback) (*types.UserFeedback, error)
	ListFeedback(ctx context.Context, userID, itineraryID uuid.UUID) ([]types.UserFeedback, error)
	RatingStats(ctx context.Context, userID, itineraryID uuid.UUID) (*types.RatingStats, error)
}

var _ Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	repo        Repository
	itineraries ItineraryAccess
	logger      *slog.Logger
}

func NewService(repo Repository, itineraries ItineraryAccess, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		repo:        repo,
		itineraries: itineraries,
		logger:      logger,
	}
}

var validFeedbackTypes = map[types.FeedbackType]bool{
	types.FeedbackRating: true, types.FeedbackModification: true,
	types.FeedbackRegeneration: true, types.FeedbackComment: true,
}

// SubmitFeedback records feedback against an itinerary version. A rating
// submission also updates the version's own rating field so listings can
// sort on it without joining feedback.
func (s *ServiceImpl) SubmitFeedback(ctx context.Context, userID uuid.UUID, fb *types.UserFeedback) (*types.UserFeedback, error) {
	ctx, span := otel.Tracer("FeedbackService").Start(ctx, "SubmitFeedback")
	defer span.End()
	span.SetAttributes(
		attribute.String("itinerary.id", fb.ItineraryID.String()),
		attribute.String("feedback.type", string(fb.FeedbackType)),
	)

	if !validFeedbackTypes[fb.FeedbackType] {
		return nil, fmt.Errorf("%w: unknown feedback type %q", types.ErrInvalidInput, fb.FeedbackType)
	}
	if fb.FeedbackType == types.FeedbackRating {
		if fb.Rating == nil || *fb.Rating < 1 || *fb.Rating > 5 {
			return nil, fmt.Errorf("%w: rating must be between 1 and 5", types.ErrInvalidInput)
		}
	}

	if err := s.authorize(ctx, userID, fb.ItineraryID); err != nil {
		span.RecordError(err)
		return nil, err
	}

	fb.UserID = userID
	saved, err := s.repo.AddFeedback(ctx, fb)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to store feedback")
		return nil, err
	}

	if saved.FeedbackType == types.FeedbackRating && saved.Rating != nil {
		if err := s.itineraries.SetRating(ctx, saved.ItineraryID, *saved.Rating); err != nil {
			s.logger.WarnContext(ctx, "Failed to mirror rating onto itinerary",
				slog.Any("error", err))
		}
	}

	span.SetStatus(codes.Ok, "Feedback stored")
	return saved, nil
}

func (s *ServiceImpl) ListFeedback(ctx context.Context, userID, itineraryID uuid.UUID) ([]types.UserFeedback, error) {
	if err := s.authorize(ctx, userID, itineraryID); err != nil {
		return nil, err
	}
	return s.repo.ListFeedback(ctx, itineraryID)
}

func (s *ServiceImpl) RatingStats(ctx context.Context, userID, itineraryID uuid.UUID) (*types.RatingStats, error) {
	if err := s.authorize(ctx, userID, itineraryID); err != nil {
		return nil, err
	}
	return s.repo.RatingStats(ctx, itineraryID)
}

func (s *ServiceImpl) authorize(ctx context.Context, userID, itineraryID uuid.UUID) error {
	owner, err := s.itineraries.OwnerOf(ctx, itineraryID)
	if err != nil {
		return err
	}
	if owner != userID {
		return types.ErrForbidden
	}
	return nil
}
