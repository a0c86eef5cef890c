package itinerary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// Repository is the version store. An itinerary version plus its activity
// and experience rows are written as one logical unit.
type Repository interface {
	CreateVersion(ctx context.Context, version *types.Itinerary, activities []types.Activity, experiences []types.LocalExperience) (*types.Itinerary, error)
	GetItinerary(ctx context.Context, id uuid.UUID) (*types.Itinerary, error)
	GetActiveItinerary(ctx context.Context, tripRequestID uuid.UUID) (*types.Itinerary, error)
	GetVersion(ctx context.Context, tripRequestID uuid.UUID, version int) (*types.Itinerary, error)
	ListVersions(ctx context.Context, tripRequestID uuid.UUID) ([]types.Itinerary, error)
	MaxVersion(ctx context.Context, tripRequestID uuid.UUID) (int, error)
	GetActivities(ctx context.Context, itineraryID uuid.UUID) ([]types.Activity, error)
	GetExperiences(ctx context.Context, itineraryID uuid.UUID) ([]types.LocalExperience, error)
	DeleteVersion(ctx context.Context, itineraryID uuid.UUID) error
	UpdateWeather(ctx context.Context, itineraryID uuid.UUID, weather map[string]interface{}) error
	IncrementViews(ctx context.Context, itineraryID uuid.UUID) error
	SetRating(ctx context.Context, itineraryID uuid.UUID, rating int) error
	SetFavorite(ctx context.Context, itineraryID uuid.UUID, favorite bool) error
	OwnerOf(ctx context.Context, itineraryID uuid.UUID) (uuid.UUID, error)
}

var _ Repository = (*RepositoryImpl)(nil)

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresRepository(pgpool *pgxpool.Pool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, pgpool: pgpool}
}

const itineraryColumns = `id, trip_request_id, title, overview, generated_data,
	total_estimated_cost, currency, cost_breakdown, weather_data, destination_info,
	version, version_description, is_active, user_rating, times_viewed, is_favorite,
	created_at, updated_at`

// CreateVersion deactivates the current active version and inserts the new
// version with its child rows in one transaction. The deactivate-then-insert
// order keeps the one-active-per-trip unique index satisfied.
func (r *RepositoryImpl) CreateVersion(ctx context.Context, version *types.Itinerary,
	activities []types.Activity, experiences []types.LocalExperience) (*types.Itinerary, error) {

	ctx, span := otel.Tracer("ItineraryRepo").Start(ctx, "CreateVersion", trace.WithAttributes(
		attribute.String("trip_request.id", version.TripRequestID.String()),
		attribute.Int("version", version.Version),
		attribute.Int("activities", len(activities)),
	))
	defer span.End()

	generatedData, err := json.Marshal(version.GeneratedData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generated data: %w", err)
	}
	costBreakdown, err := json.Marshal(version.CostBreakdown)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cost breakdown: %w", err)
	}
	weatherData, _ := json.Marshal(version.WeatherData)
	destinationInfo, _ := json.Marshal(version.DestinationInfo)

	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE itineraries SET is_active = FALSE, updated_at = now()
		 WHERE trip_request_id = $1 AND is_active`, version.TripRequestID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to deactivate current version: %w", err)
	}

	saved := *version
	err = tx.QueryRow(ctx,
		`INSERT INTO itineraries (trip_request_id, title, overview, generated_data,
			total_estimated_cost, currency, cost_breakdown, weather_data, destination_info,
			version, version_description, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE)
		 RETURNING id, created_at, updated_at`,
		version.TripRequestID, version.Title, version.Overview, generatedData,
		version.TotalEstimatedCost, version.Currency, costBreakdown, weatherData,
		destinationInfo, version.Version, version.VersionDescription,
	).Scan(&saved.ID, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to insert itinerary version")
		return nil, fmt.Errorf("failed to insert itinerary version: %w", err)
	}
	saved.IsActive = true

	for _, a := range activities {
		_, err = tx.Exec(ctx,
			`INSERT INTO activities (itinerary_id, day_number, time_slot, start_time,
				duration_minutes, name, description, activity_type, location_name, address,
				latitude, longitude, estimated_cost, currency, booking_required, booking_url,
				tips, display_order, is_custom)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
			saved.ID, a.DayNumber, a.TimeSlot, a.StartTime, a.DurationMinutes, a.Name,
			a.Description, a.ActivityType, a.LocationName, a.Address, a.Latitude,
			a.Longitude, a.EstimatedCost, a.Currency, a.BookingRequired, a.BookingURL,
			a.Tips, a.DisplayOrder, a.IsCustom)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to insert activity %q: %w", a.Name, err)
		}
	}

	for _, e := range experiences {
		_, err = tx.Exec(ctx,
			`INSERT INTO local_experiences (itinerary_id, name, category, description,
				location_name, latitude, longitude, estimated_cost, best_time, insider_tip,
				priority_rank)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			saved.ID, e.Name, e.Category, e.Description, e.LocationName, e.Latitude,
			e.Longitude, e.EstimatedCost, e.BestTime, e.InsiderTip, e.PriorityRank)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to insert local experience %q: %w", e.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to commit itinerary version: %w", err)
	}

	span.SetStatus(codes.Ok, "Version created")
	return &saved, nil
}

func (r *RepositoryImpl) GetItinerary(ctx context.Context, id uuid.UUID) (*types.Itinerary, error) {
	ctx, span := otel.Tracer("ItineraryRepo").Start(ctx, "GetItinerary", trace.WithAttributes(
		attribute.String("itinerary.id", id.String()),
	))
	defer span.End()

	row := r.pgpool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM itineraries WHERE id = $1`, itineraryColumns), id)
	return scanItinerary(row, span)
}

func (r *RepositoryImpl) GetActiveItinerary(ctx context.Context, tripRequestID uuid.UUID) (*types.Itinerary, error) {
	ctx, span := otel.Tracer("ItineraryRepo").Start(ctx, "GetActiveItinerary", trace.WithAttributes(
		attribute.String("trip_request.id", tripRequestID.String()),
	))
	defer span.End()

	row := r.pgpool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM itineraries WHERE trip_request_id = $1 AND is_active`, itineraryColumns),
		tripRequestID)
	return scanItinerary(row, span)
}

func (r *RepositoryImpl) GetVersion(ctx context.Context, tripRequestID uuid.UUID, version int) (*types.Itinerary, error) {
	ctx, span := otel.Tracer("ItineraryRepo").Start(ctx, "GetVersion", trace.WithAttributes(
		attribute.String("trip_request.id", tripRequestID.String()),
		attribute.Int("version", version),
	))
	defer span.End()

	row := r.pgpool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM itineraries WHERE trip_request_id = $1 AND version = $2`, itineraryColumns),
		tripRequestID, version)
	it, err := scanItinerary(row, span)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, types.ErrVersionNotFound
	}
	return it, nil
}

func (r *RepositoryImpl) ListVersions(ctx context.Context, tripRequestID uuid.UUID) ([]types.Itinerary, error) {
	ctx, span := otel.Tracer("ItineraryRepo").Start(ctx, "ListVersions")
	defer span.End()

	rows, err := r.pgpool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM itineraries WHERE trip_request_id = $1 ORDER BY version DESC`, itineraryColumns),
		tripRequestID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	var versions []types.Itinerary
	for rows.Next() {
		it, err := scanItinerary(rows, span)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *it)
	}
	return versions, rows.Err()
}

func (r *RepositoryImpl) MaxVersion(ctx context.Context, tripRequestID uuid.UUID) (int, error) {
	var max int
	err := r.pgpool.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM itineraries WHERE trip_request_id = $1`,
		tripRequestID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to get max version: %w", err)
	}
	return max, nil
}

func (r *RepositoryImpl) GetActivities(ctx context.Context, itineraryID uuid.UUID) ([]types.Activity, error) {
	ctx, span := otel.Tracer("ItineraryRepo").Start(ctx, "GetActivities")
	defer span.End()

	rows, err := r.pgpool.Query(ctx,
		`SELECT id, itinerary_id, day_number, time_slot, to_char(start_time, 'HH24:MI'),
			duration_minutes, name, description, activity_type, location_name, address,
			latitude, longitude, estimated_cost, currency, booking_required, booking_url,
			tips, display_order, is_custom
		 FROM activities WHERE itinerary_id = $1
		 ORDER BY day_number, display_order`, itineraryID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []types.Activity
	for rows.Next() {
		var a types.Activity
		err := rows.Scan(&a.ID, &a.ItineraryID, &a.DayNumber, &a.TimeSlot, &a.StartTime,
			&a.DurationMinutes, &a.Name, &a.Description, &a.ActivityType, &a.LocationName,
			&a.Address, &a.Latitude, &a.Longitude, &a.EstimatedCost, &a.Currency,
			&a.BookingRequired, &a.BookingURL, &a.Tips, &a.DisplayOrder, &a.IsCustom)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (r *RepositoryImpl) GetExperiences(ctx context.Context, itineraryID uuid.UUID) ([]types.LocalExperience, error) {
	ctx, span := otel.Tracer("ItineraryRepo").Start(ctx, "GetExperiences")
	defer span.End()

	rows, err := r.pgpool.Query(ctx,
		`SELECT id, itinerary_id, name, category, description, location_name,
			latitude, longitude, estimated_cost, best_time, insider_tip, priority_rank
		 FROM local_experiences WHERE itinerary_id = $1
		 ORDER BY priority_rank`, itineraryID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query local experiences: %w", err)
	}
	defer rows.Close()

	var experiences []types.LocalExperience
	for rows.Next() {
		var e types.LocalExperience
		err := rows.Scan(&e.ID, &e.ItineraryID, &e.Name, &e.Category, &e.Description,
			&e.LocationName, &e.Latitude, &e.Longitude, &e.EstimatedCost, &e.BestTime,
			&e.InsiderTip, &e.PriorityRank)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan local experience: %w", err)
		}
		experiences = append(experiences, e)
	}
	return experiences, rows.Err()
}

// DeleteVersion removes a single version; the service layer rejects the
// active one before calling this.
func (r *RepositoryImpl) DeleteVersion(ctx context.Context, itineraryID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM itineraries WHERE id = $1 AND NOT is_active`, itineraryID)
	if err != nil {
		return fmt.Errorf("failed to delete version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrActiveVersion
	}
	return nil
}

// UpdateWeather replaces the stored weather document in place. Weather is
// environmental metadata, not itinerary content, so no new version is minted.
func (r *RepositoryImpl) UpdateWeather(ctx context.Context, itineraryID uuid.UUID, weather map[string]interface{}) error {
	weatherData, err := json.Marshal(weather)
	if err != nil {
		return fmt.Errorf("failed to marshal weather data: %w", err)
	}
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE itineraries SET weather_data = $2, updated_at = now() WHERE id = $1`,
		itineraryID, weatherData)
	if err != nil {
		return fmt.Errorf("failed to update weather data: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *RepositoryImpl) IncrementViews(ctx context.Context, itineraryID uuid.UUID) error {
	_, err := r.pgpool.Exec(ctx,
		`UPDATE itineraries SET times_viewed = times_viewed + 1 WHERE id = $1`, itineraryID)
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) SetRating(ctx context.Context, itineraryID uuid.UUID, rating int) error {
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE itineraries SET user_rating = $2, updated_at = now() WHERE id = $1`,
		itineraryID, rating)
	if err != nil {
		return fmt.Errorf("failed to set rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *RepositoryImpl) SetFavorite(ctx context.Context, itineraryID uuid.UUID, favorite bool) error {
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE itineraries SET is_favorite = $2, updated_at = now() WHERE id = $1`,
		itineraryID, favorite)
	if err != nil {
		return fmt.Errorf("failed to set favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

// OwnerOf resolves the owning user through the trip request.
func (r *RepositoryImpl) OwnerOf(ctx context.Context, itineraryID uuid.UUID) (uuid.UUID, error) {
	var owner uuid.UUID
	err := r.pgpool.QueryRow(ctx,
		`SELECT t.user_id FROM itineraries i
		 JOIN trip_requests t ON t.id = i.trip_request_id
		 WHERE i.id = $1`, itineraryID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, types.ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to resolve itinerary owner: %w", err)
	}
	return owner, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItinerary(row rowScanner, span trace.Span) (*types.Itinerary, error) {
	var it types.Itinerary
	var generatedData, costBreakdown, weatherData, destinationInfo []byte

	err := row.Scan(&it.ID, &it.TripRequestID, &it.Title, &it.Overview, &generatedData,
		&it.TotalEstimatedCost, &it.Currency, &costBreakdown, &weatherData, &destinationInfo,
		&it.Version, &it.VersionDescription, &it.IsActive, &it.UserRating, &it.TimesViewed,
		&it.IsFavorite, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to scan itinerary: %w", err)
	}

	if err := json.Unmarshal(generatedData, &it.GeneratedData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal generated data: %w", err)
	}
	if len(costBreakdown) > 0 {
		_ = json.Unmarshal(costBreakdown, &it.CostBreakdown)
	}
	if len(weatherData) > 0 {
		_ = json.Unmarshal(weatherData, &it.WeatherData)
	}
	if len(destinationInfo) > 0 {
		_ = json.Unmarshal(destinationInfo, &it.DestinationInfo)
	}
	return &it, nil
}
