package trip

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

// Enqueuer submits a trip request for background generation.
type Enqueuer interface {
	Enqueue(tripID uuid.UUID)
}

type Service interface {
	CreateTripRequest(ctx context.Context, userID uuid.UUID, req *types.CreateTripRequest) (*types.TripRequest, error)
	GetTripRequest(ctx context.Context, userID, id uuid.UUID) (*types.TripRequest, error)
	ListTripRequests(ctx context.Context, userID uuid.UUID) ([]types.TripRequest, error)
	DeleteTripRequest(ctx context.Context, userID, id uuid.UUID) error
	RetryGeneration(ctx context.Context, userID, id uuid.UUID) error
}

var _ Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	repo   Repository
	queue  Enqueuer
	logger *slog.Logger
}

func NewService(repo Repository, queue Enqueuer, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		repo:   repo,
		queue:  queue,
		logger: logger,
	}
}

// CreateTripRequest validates, persists and schedules a new request. The
// caller gets the pending row back immediately; generation happens on the
// worker queue.
func (s *ServiceImpl) CreateTripRequest(ctx context.Context, userID uuid.UUID, req *types.CreateTripRequest) (*types.TripRequest, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "CreateTripRequest")
	defer span.End()
	span.SetAttributes(attribute.String("destination", req.Destination))

	if err := validateCreateRequest(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Validation failed")
		return nil, err
	}

	trip, err := s.repo.CreateTripRequest(ctx, userID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Persist failed")
		return nil, err
	}

	s.queue.Enqueue(trip.ID)
	s.logger.InfoContext(ctx, "Trip request created and queued",
		slog.String("trip_id", trip.ID.String()),
		slog.String("destination", trip.Destination))

	span.SetStatus(codes.Ok, "Trip request queued")
	return trip, nil
}

func (s *ServiceImpl) GetTripRequest(ctx context.Context, userID, id uuid.UUID) (*types.TripRequest, error) {
	trip, err := s.repo.GetTripRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if trip.UserID != userID {
		return nil, types.ErrForbidden
	}
	return trip, nil
}

func (s *ServiceImpl) ListTripRequests(ctx context.Context, userID uuid.UUID) ([]types.TripRequest, error) {
	return s.repo.ListTripRequests(ctx, userID)
}

func (s *ServiceImpl) DeleteTripRequest(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.DeleteTripRequest(ctx, userID, id)
}

// RetryGeneration re-queues a failed request. Completed or in-flight
// requests are rejected.
func (s *ServiceImpl) RetryGeneration(ctx context.Context, userID, id uuid.UUID) error {
	trip, err := s.GetTripRequest(ctx, userID, id)
	if err != nil {
		return err
	}
	if trip.Status != types.TripStatusFailed {
		return fmt.Errorf("%w: only failed requests can be retried, status is %s",
			types.ErrInvalidInput, trip.Status)
	}
	s.queue.Enqueue(trip.ID)
	s.logger.InfoContext(ctx, "Trip request re-queued", slog.String("trip_id", id.String()))
	return nil
}

func validateCreateRequest(req *types.CreateTripRequest) error {
	probe := types.TripRequest{
		Destination:  req.Destination,
		DurationDays: req.DurationDays,
		Budget:       req.Budget,
		TravelStyle:  req.TravelStyle,
	}
	return probe.Validate()
}
