package itinerary

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-planner/internal/api/external"
	"github.com/FACorreiaa/go-trip-planner/internal/api/planner"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// Refiner turns a free-text change request into a structured refinement
// result. It never fails hard; LLM-side trouble comes back as a fallback
// conversational message with empty updated sections.
type Refiner interface {
	Refine(ctx context.Context, itinerarySummary, userMessage string) *types.RefinementResult
	SuggestWeatherAdjustments(ctx context.Context, itinerarySummary string, forecast *types.WeatherForecast) *types.RefinementResult
}

// ExternalData adds read-time currency conversion on top of the planner's
// external surface.
type ExternalData interface {
	planner.ExternalData
	ExchangeRate(ctx context.Context, base, target string) (float64, error)
}

// TripReader is the slice of trip persistence the version engine needs.
type TripReader interface {
	GetTripRequest(ctx context.Context, id uuid.UUID) (*types.TripRequest, error)
}

// Service is the version and merge engine: refinement, restore, compare,
// delete, plus the mutable side-metadata (rating, views, favorite).
type Service interface {
	GetItinerary(ctx context.Context, userID, itineraryID uuid.UUID, displayCurrency string) (*types.Itinerary, error)
	GetActiveForTrip(ctx context.Context, userID, tripRequestID uuid.UUID, displayCurrency string) (*types.Itinerary, error)
	GetActivities(ctx context.Context, userID, itineraryID uuid.UUID) ([]types.Activity, error)
	GetExperiences(ctx context.Context, userID, itineraryID uuid.UUID) ([]types.LocalExperience, error)
	ListVersions(ctx context.Context, userID, tripRequestID uuid.UUID) ([]types.Itinerary, error)
	RefineItinerary(ctx context.Context, userID, itineraryID uuid.UUID, message string) (*types.RefinementResult, error)
	RefreshWeather(ctx context.Context, userID, itineraryID uuid.UUID) (*types.WeatherRefresh, error)
	RestoreVersion(ctx context.Context, userID, tripRequestID uuid.UUID, version int) (*types.Itinerary, error)
	CompareVersions(ctx context.Context, userID, tripRequestID uuid.UUID, versionA, versionB int) (*types.VersionDiff, error)
	DeleteVersion(ctx context.Context, userID, itineraryID uuid.UUID) error
	RateItinerary(ctx context.Context, userID, itineraryID uuid.UUID, rating int) error
	SetFavorite(ctx context.Context, userID, itineraryID uuid.UUID, favorite bool) error
}

var _ Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	repo     Repository
	trips    TripReader
	refiner  Refiner
	external ExternalData
	logger   *slog.Logger
}

func NewService(repo Repository, trips TripReader, refiner Refiner,
	external ExternalData, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		repo:     repo,
		trips:    trips,
		refiner:  refiner,
		external: external,
		logger:   logger,
	}
}

func (s *ServiceImpl) GetItinerary(ctx context.Context, userID, itineraryID uuid.UUID, displayCurrency string) (*types.Itinerary, error) {
	it, err := s.authorizedItinerary(ctx, userID, itineraryID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementViews(ctx, itineraryID); err != nil {
		s.logger.WarnContext(ctx, "Failed to increment view count", slog.Any("error", err))
	}
	s.applyDisplayCurrency(ctx, it, displayCurrency)
	return it, nil
}

// GetActiveForTrip resolves the trip's single active itinerary version.
func (s *ServiceImpl) GetActiveForTrip(ctx context.Context, userID, tripRequestID uuid.UUID, displayCurrency string) (*types.Itinerary, error) {
	if err := s.authorizeTrip(ctx, userID, tripRequestID); err != nil {
		return nil, err
	}
	it, err := s.repo.GetActiveItinerary(ctx, tripRequestID)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, types.ErrNotFound
	}
	s.applyDisplayCurrency(ctx, it, displayCurrency)
	return it, nil
}

// applyDisplayCurrency attaches a converted total when the caller asked for
// a currency other than the stored one. Conversion trouble leaves the
// itinerary untouched.
func (s *ServiceImpl) applyDisplayCurrency(ctx context.Context, it *types.Itinerary, currency string) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" || currency == strings.ToUpper(it.Currency) || s.external == nil {
		return
	}
	rate, err := s.external.ExchangeRate(ctx, it.Currency, currency)
	if err != nil {
		s.logger.WarnContext(ctx, "Currency conversion failed, showing stored currency",
			slog.String("currency", currency), slog.Any("error", err))
		return
	}
	converted := math.Round(it.TotalEstimatedCost*rate*100) / 100
	it.DisplayCost = &converted
	it.DisplayCurrency = currency
	it.DisplayCostText = external.FormatCurrency(converted, currency)
}

func (s *ServiceImpl) GetActivities(ctx context.Context, userID, itineraryID uuid.UUID) ([]types.Activity, error) {
	if _, err := s.authorizedItinerary(ctx, userID, itineraryID); err != nil {
		return nil, err
	}
	return s.repo.GetActivities(ctx, itineraryID)
}

func (s *ServiceImpl) GetExperiences(ctx context.Context, userID, itineraryID uuid.UUID) ([]types.LocalExperience, error) {
	if _, err := s.authorizedItinerary(ctx, userID, itineraryID); err != nil {
		return nil, err
	}
	return s.repo.GetExperiences(ctx, itineraryID)
}

func (s *ServiceImpl) ListVersions(ctx context.Context, userID, tripRequestID uuid.UUID) ([]types.Itinerary, error) {
	if err := s.authorizeTrip(ctx, userID, tripRequestID); err != nil {
		return nil, err
	}
	return s.repo.ListVersions(ctx, tripRequestID)
}

// RefineItinerary sends the user's message through the refiner and, when the
// model proposes changed sections, merges them into a brand-new version. An
// empty updated_sections means no new version: the user is told no change
// was necessary. Only the active version may be refined; the active version
// always carries the highest number, so active + 1 is guaranteed free.
func (s *ServiceImpl) RefineItinerary(ctx context.Context, userID, itineraryID uuid.UUID, message string) (*types.RefinementResult, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "RefineItinerary", trace.WithAttributes(
		attribute.String("itinerary.id", itineraryID.String()),
	))
	defer span.End()

	current, err := s.authorizedItinerary(ctx, userID, itineraryID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !current.IsActive {
		err := fmt.Errorf("%w: version %d is not the active version; refine the active itinerary or restore it first",
			types.ErrInvalidInput, current.Version)
		span.RecordError(err)
		return nil, err
	}

	trip, err := s.trips.GetTripRequest(ctx, current.TripRequestID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load trip request: %w", err)
	}

	result := s.refiner.Refine(ctx, summarizeForRefinement(current), message)
	if len(result.UpdatedSections) == 0 {
		span.SetStatus(codes.Ok, "No changes proposed")
		return result, nil
	}

	merged := MergeUpdatedSections(current.GeneratedData, result.UpdatedSections)

	newVersion := &types.Itinerary{
		TripRequestID:      current.TripRequestID,
		Title:              titleOf(merged, current.Title),
		Overview:           overviewOf(merged, current.Overview),
		GeneratedData:      merged,
		TotalEstimatedCost: totalCostOf(merged, current.TotalEstimatedCost),
		Currency:           current.Currency,
		CostBreakdown:      current.CostBreakdown,
		WeatherData:        current.WeatherData,
		DestinationInfo:    current.DestinationInfo,
		Version:            current.Version + 1,
		VersionDescription: fmt.Sprintf("Refined: %s", truncate(message, 100)),
		IsActive:           true,
	}

	activities := planner.BuildActivityRows(ctx, merged, trip, s.external, s.logger)
	experiences, err := s.carryExperiencesForward(ctx, current.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	saved, err := s.repo.CreateVersion(ctx, newVersion, activities, experiences)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create refined version")
		return nil, fmt.Errorf("failed to create refined version: %w", err)
	}

	s.logger.InfoContext(ctx, "Itinerary refined",
		slog.String("itinerary_id", saved.ID.String()),
		slog.Int("version", saved.Version))

	result.NewVersion = &saved.Version
	span.SetStatus(codes.Ok, "Refined version created")
	return result, nil
}

// RefreshWeather refetches the forecast for the itinerary's destination,
// stores it on the version in place and returns the model's suggestions for
// adapting the plan to the new conditions. Suggestions are advisory; applying
// them goes through RefineItinerary.
func (s *ServiceImpl) RefreshWeather(ctx context.Context, userID, itineraryID uuid.UUID) (*types.WeatherRefresh, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "RefreshWeather", trace.WithAttributes(
		attribute.String("itinerary.id", itineraryID.String()),
	))
	defer span.End()

	current, err := s.authorizedItinerary(ctx, userID, itineraryID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	trip, err := s.trips.GetTripRequest(ctx, current.TripRequestID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load trip request: %w", err)
	}

	forecast, err := s.external.Forecast(ctx, trip.Destination, trip.DurationDays)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Forecast fetch failed")
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}
	if forecast == nil || len(forecast.Days) == 0 {
		return nil, fmt.Errorf("no forecast available for %s", trip.Destination)
	}

	var weatherData map[string]interface{}
	if raw, err := json.Marshal(forecast); err == nil {
		_ = json.Unmarshal(raw, &weatherData)
	}

	if err := s.repo.UpdateWeather(ctx, itineraryID, weatherData); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to store refreshed weather: %w", err)
	}

	suggestions := s.refiner.SuggestWeatherAdjustments(ctx, summarizeForRefinement(current), forecast)

	s.logger.InfoContext(ctx, "Weather refreshed",
		slog.String("itinerary_id", itineraryID.String()),
		slog.Int("forecast_days", len(forecast.Days)))

	span.SetStatus(codes.Ok, "Weather refreshed")
	return &types.WeatherRefresh{
		ItineraryID:       itineraryID,
		WeatherData:       weatherData,
		Reasoning:         suggestions.ResponseMessage,
		SuggestedSections: suggestions.UpdatedSections,
	}, nil
}

// RestoreVersion creates a brand-new version (highest + 1) that is a full
// content copy of the restored one. It never flips is_active on the old row
// directly: activation changes always happen through a newly minted version.
func (s *ServiceImpl) RestoreVersion(ctx context.Context, userID, tripRequestID uuid.UUID, version int) (*types.Itinerary, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "RestoreVersion", trace.WithAttributes(
		attribute.String("trip_request.id", tripRequestID.String()),
		attribute.Int("version", version),
	))
	defer span.End()

	if err := s.authorizeTrip(ctx, userID, tripRequestID); err != nil {
		return nil, err
	}

	target, err := s.repo.GetVersion(ctx, tripRequestID, version)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	maxVersion, err := s.repo.MaxVersion(ctx, tripRequestID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	restored := &types.Itinerary{
		TripRequestID:      tripRequestID,
		Title:              target.Title,
		Overview:           target.Overview,
		GeneratedData:      MergeUpdatedSections(target.GeneratedData, map[string]interface{}{}),
		TotalEstimatedCost: target.TotalEstimatedCost,
		Currency:           target.Currency,
		CostBreakdown:      target.CostBreakdown,
		WeatherData:        target.WeatherData,
		DestinationInfo:    target.DestinationInfo,
		Version:            maxVersion + 1,
		VersionDescription: fmt.Sprintf("Restored from v%d", version),
		IsActive:           true,
	}

	activities, err := s.repo.GetActivities(ctx, target.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	experiences, err := s.carryExperiencesForward(ctx, target.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	for i := range activities {
		activities[i].ID = uuid.Nil
	}

	saved, err := s.repo.CreateVersion(ctx, restored, activities, experiences)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create restored version")
		return nil, fmt.Errorf("failed to create restored version: %w", err)
	}

	span.SetStatus(codes.Ok, "Version restored")
	return saved, nil
}

// CompareVersions diffs activity name sets per day plus cost and count
// deltas.
func (s *ServiceImpl) CompareVersions(ctx context.Context, userID, tripRequestID uuid.UUID, versionA, versionB int) (*types.VersionDiff, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "CompareVersions")
	defer span.End()

	if err := s.authorizeTrip(ctx, userID, tripRequestID); err != nil {
		return nil, err
	}

	a, err := s.repo.GetVersion(ctx, tripRequestID, versionA)
	if err != nil {
		return nil, err
	}
	b, err := s.repo.GetVersion(ctx, tripRequestID, versionB)
	if err != nil {
		return nil, err
	}

	activitiesA, err := s.repo.GetActivities(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	activitiesB, err := s.repo.GetActivities(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	diff := &types.VersionDiff{
		VersionA:          versionA,
		VersionB:          versionB,
		CostDiff:          b.TotalEstimatedCost - a.TotalEstimatedCost,
		ActivityCountDiff: len(activitiesB) - len(activitiesA),
		Changes:           diffActivities(activitiesA, activitiesB),
	}
	span.SetStatus(codes.Ok, "Versions compared")
	return diff, nil
}

// DeleteVersion deletes a non-active version outright; deleting the active
// version is a version-integrity violation.
func (s *ServiceImpl) DeleteVersion(ctx context.Context, userID, itineraryID uuid.UUID) error {
	it, err := s.authorizedItinerary(ctx, userID, itineraryID)
	if err != nil {
		return err
	}
	if it.IsActive {
		return types.ErrActiveVersion
	}
	return s.repo.DeleteVersion(ctx, itineraryID)
}

func (s *ServiceImpl) RateItinerary(ctx context.Context, userID, itineraryID uuid.UUID, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", types.ErrInvalidInput)
	}
	if _, err := s.authorizedItinerary(ctx, userID, itineraryID); err != nil {
		return err
	}
	return s.repo.SetRating(ctx, itineraryID, rating)
}

func (s *ServiceImpl) SetFavorite(ctx context.Context, userID, itineraryID uuid.UUID, favorite bool) error {
	if _, err := s.authorizedItinerary(ctx, userID, itineraryID); err != nil {
		return err
	}
	return s.repo.SetFavorite(ctx, itineraryID, favorite)
}

func (s *ServiceImpl) authorizedItinerary(ctx context.Context, userID, itineraryID uuid.UUID) (*types.Itinerary, error) {
	owner, err := s.repo.OwnerOf(ctx, itineraryID)
	if err != nil {
		return nil, err
	}
	if owner != userID {
		return nil, types.ErrForbidden
	}
	it, err := s.repo.GetItinerary(ctx, itineraryID)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, types.ErrNotFound
	}
	return it, nil
}

func (s *ServiceImpl) authorizeTrip(ctx context.Context, userID, tripRequestID uuid.UUID) error {
	trip, err := s.trips.GetTripRequest(ctx, tripRequestID)
	if err != nil {
		return err
	}
	if trip == nil {
		return types.ErrNotFound
	}
	if trip.UserID != userID {
		return types.ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) carryExperiencesForward(ctx context.Context, fromItineraryID uuid.UUID) ([]types.LocalExperience, error) {
	experiences, err := s.repo.GetExperiences(ctx, fromItineraryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load local experiences: %w", err)
	}
	for i := range experiences {
		experiences[i].ID = uuid.Nil
	}
	return experiences, nil
}

func diffActivities(activitiesA, activitiesB []types.Activity) []types.VersionChange {
	namesByDay := func(activities []types.Activity) map[int]map[string]bool {
		out := map[int]map[string]bool{}
		for _, a := range activities {
			if out[a.DayNumber] == nil {
				out[a.DayNumber] = map[string]bool{}
			}
			out[a.DayNumber][a.Name] = true
		}
		return out
	}
	daysA := namesByDay(activitiesA)
	daysB := namesByDay(activitiesB)

	allDays := map[int]bool{}
	for day := range daysA {
		allDays[day] = true
	}
	for day := range daysB {
		allDays[day] = true
	}

	var changes []types.VersionChange
	for day := 1; len(allDays) > 0; day++ {
		if !allDays[day] {
			continue
		}
		delete(allDays, day)

		setA, setB := daysA[day], daysB[day]
		for name := range setB {
			if !setA[name] {
				changes = append(changes, types.VersionChange{
					Type: "added", Day: day,
					Description: fmt.Sprintf("Added %q", name),
				})
			}
		}
		for name := range setA {
			if !setB[name] {
				changes = append(changes, types.VersionChange{
					Type: "removed", Day: day,
					Description: fmt.Sprintf("Removed %q", name),
				})
			}
		}
		if len(setA) != len(setB) {
			changes = append(changes, types.VersionChange{
				Type: "modified", Day: day,
				Description: fmt.Sprintf("Activity count changed from %d to %d", len(setA), len(setB)),
			})
		}
	}
	return changes
}

func summarizeForRefinement(it *types.Itinerary) string {
	return fmt.Sprintf("Title: %s\nVersion: %d\nTotal cost: %.2f %s\nBody: %s",
		it.Title, it.Version, it.TotalEstimatedCost, it.Currency,
		documentJSON(it.GeneratedData))
}

func titleOf(doc types.GeneratedData, fallback string) string {
	for _, key := range []string{"title", "trip_title"} {
		if s, ok := doc[key].(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

func overviewOf(doc types.GeneratedData, fallback string) string {
	for _, key := range []string{"overview", "summary"} {
		if s, ok := doc[key].(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

func totalCostOf(doc types.GeneratedData, fallback float64) float64 {
	for _, key := range []string{"total_cost", "total_estimated_cost"} {
		if n, ok := doc[key].(float64); ok && n > 0 {
			return n
		}
	}
	return fallback
}

func documentJSON(doc types.GeneratedData) string {
	body, err := json.Marshal(doc)
	if err != nil {
		return ""
	}
	return string(body)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
