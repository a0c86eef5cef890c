package planner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// Queue schedules generation runs on a bounded worker pool at the system
// boundary. The pipeline itself stays a single sequential task per trip;
// only scheduling is concurrent.
type Queue struct {
	service    Service
	jobs       chan uuid.UUID
	group      *errgroup.Group
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
}

func NewQueue(ctx context.Context, service Service, workers, maxRetries int,
	backoff time.Duration, logger *slog.Logger) *Queue {

	if workers < 1 {
		workers = 1
	}
	q := &Queue{
		service:    service,
		jobs:       make(chan uuid.UUID, 64),
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
	}

	group, ctx := errgroup.WithContext(ctx)
	q.group = group
	for i := 0; i < workers; i++ {
		group.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case tripID, ok := <-q.jobs:
					if !ok {
						return nil
					}
					q.run(ctx, tripID)
				}
			}
		})
	}
	return q
}

// Enqueue submits a trip request for background generation.
func (q *Queue) Enqueue(tripID uuid.UUID) {
	q.jobs <- tripID
}

// Shutdown stops accepting work and waits for in-flight runs to finish.
func (q *Queue) Shutdown() error {
	close(q.jobs)
	return q.group.Wait()
}

// run retries the pipeline with increasing backoff. Retries are idempotent:
// a failed attempt leaves no partial itinerary, only the trip's own
// status/error fields.
func (q *Queue) run(ctx context.Context, tripID uuid.UUID) {
	for attempt := 0; attempt <= q.maxRetries; attempt++ {
		_, err := q.service.GenerateItinerary(ctx, tripID)
		if err == nil {
			return
		}
		if errors.Is(err, types.ErrAlreadyProcessing) ||
			errors.Is(err, types.ErrInvalidInput) ||
			errors.Is(err, types.ErrNotFound) {
			q.logger.WarnContext(ctx, "Generation not retryable",
				slog.String("trip_id", tripID.String()), slog.Any("error", err))
			return
		}
		if attempt == q.maxRetries {
			q.logger.ErrorContext(ctx, "Generation failed after retries",
				slog.String("trip_id", tripID.String()),
				slog.Int("attempts", attempt+1),
				slog.Any("error", err))
			return
		}

		wait := q.backoff * time.Duration(attempt+1)
		q.logger.WarnContext(ctx, "Generation failed, retrying",
			slog.String("trip_id", tripID.String()),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", wait),
			slog.Any("error", err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}
