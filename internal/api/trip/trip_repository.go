package trip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

type Repository interface {
	CreateTripRequest(ctx context.Context, userID uuid.UUID, req *types.CreateTripRequest) (*types.TripRequest, error)
	GetTripRequest(ctx context.Context, id uuid.UUID) (*types.TripRequest, error)
	ListTripRequests(ctx context.Context, userID uuid.UUID) ([]types.TripRequest, error)
	DeleteTripRequest(ctx context.Context, userID, id uuid.UUID) error
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

var _ Repository = (*RepositoryImpl)(nil)

// PostgresPool is the slice of pgxpool.Pool this repository needs.
type PostgresPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool PostgresPool
}

func NewPostgresRepository(pgxpool PostgresPool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgxpool,
	}
}

const tripColumns = `id, user_id, destination, start_date, duration_days, budget,
    currency, travel_style, group_size, interests, dietary_restrictions,
    accommodation_preference, accessibility_notes, status, error_message,
    retry_count, created_at, updated_at`

func (r *RepositoryImpl) CreateTripRequest(ctx context.Context, userID uuid.UUID, req *types.CreateTripRequest) (*types.TripRequest, error) {
	ctx, span := otel.Tracer("TripRepo").Start(ctx, "CreateTripRequest")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("destination", req.Destination),
	)

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	groupSize := req.GroupSize
	if groupSize == "" {
		groupSize = types.GroupSolo
	}
	interests := req.Interests
	if interests == nil {
		interests = []string{}
	}
	dietary := req.DietaryRestrictions
	if dietary == nil {
		dietary = []string{}
	}

	row := r.pgpool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO trip_requests (
            user_id, destination, start_date, duration_days, budget, currency,
            travel_style, group_size, interests, dietary_restrictions,
            accommodation_preference, accessibility_notes)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING %s`, tripColumns),
		userID, req.Destination, req.StartDate, req.DurationDays, req.Budget,
		currency, req.TravelStyle, groupSize, interests, dietary,
		req.AccommodationPreference, req.AccessibilityNotes)

	trip, err := scanTripRequest(row)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Insert failed")
		return nil, fmt.Errorf("failed to create trip request: %w", err)
	}

	span.SetStatus(codes.Ok, "Trip request created")
	span.SetAttributes(attribute.String("trip_request.id", trip.ID.String()))
	return trip, nil
}

func (r *RepositoryImpl) GetTripRequest(ctx context.Context, id uuid.UUID) (*types.TripRequest, error) {
	ctx, span := otel.Tracer("TripRepo").Start(ctx, "GetTripRequest")
	defer span.End()

	row := r.pgpool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM trip_requests WHERE id = $1", tripColumns), id)

	trip, err := scanTripRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to fetch trip request: %w", err)
	}
	return trip, nil
}

func (r *RepositoryImpl) ListTripRequests(ctx context.Context, userID uuid.UUID) ([]types.TripRequest, error) {
	ctx, span := otel.Tracer("TripRepo").Start(ctx, "ListTripRequests")
	defer span.End()

	rows, err := r.pgpool.Query(ctx, fmt.Sprintf(`
        SELECT %s FROM trip_requests
        WHERE user_id = $1 ORDER BY created_at DESC`, tripColumns), userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list trip requests: %w", err)
	}
	defer rows.Close()

	var trips []types.TripRequest
	for rows.Next() {
		trip, err := scanTripRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip request: %w", err)
		}
		trips = append(trips, *trip)
	}
	return trips, rows.Err()
}

// DeleteTripRequest removes the request and, through cascading constraints,
// every itinerary version, activity and experience under it.
func (r *RepositoryImpl) DeleteTripRequest(ctx context.Context, userID, id uuid.UUID) error {
	ctx, span := otel.Tracer("TripRepo").Start(ctx, "DeleteTripRequest")
	defer span.End()

	tag, err := r.pgpool.Exec(ctx,
		"DELETE FROM trip_requests WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete trip request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	span.SetStatus(codes.Ok, "Trip request deleted")
	return nil
}

// MarkProcessing is the concurrency gate for generation: only a pending or
// failed request can enter processing, and the transition is a single
// compare-and-set so two workers can never both claim the same request.
func (r *RepositoryImpl) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `
        UPDATE trip_requests
        SET status = 'processing', updated_at = now()
        WHERE id = $1 AND status IN ('pending', 'failed')`, id)
	if err != nil {
		return fmt.Errorf("failed to mark trip request processing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrAlreadyProcessing
	}
	return nil
}

func (r *RepositoryImpl) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `
        UPDATE trip_requests
        SET status = 'completed', error_message = NULL, updated_at = now()
        WHERE id = $1 AND status = 'processing'`, id)
	if err != nil {
		return fmt.Errorf("failed to mark trip request completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *RepositoryImpl) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	tag, err := r.pgpool.Exec(ctx, `
        UPDATE trip_requests
        SET status = 'failed', error_message = $2,
            retry_count = retry_count + 1, updated_at = now()
        WHERE id = $1`, id, reason)
	if err != nil {
		return fmt.Errorf("failed to mark trip request failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTripRequest(row rowScanner) (*types.TripRequest, error) {
	var trip types.TripRequest
	err := row.Scan(
		&trip.ID, &trip.UserID, &trip.Destination, &trip.StartDate,
		&trip.DurationDays, &trip.Budget, &trip.Currency, &trip.TravelStyle,
		&trip.GroupSize, &trip.Interests, &trip.DietaryRestrictions,
		&trip.AccommodationPreference, &trip.AccessibilityNotes, &trip.Status,
		&trip.ErrorMessage, &trip.RetryCount, &trip.CreatedAt, &trip.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &trip, nil
}
