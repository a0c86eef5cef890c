package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// AIClient is the text-completion collaborator. Output carries no structural
// contract; callers must normalize it.
type AIClient interface {
	GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error)
}

// ContextAssembler builds the retrieval context block for prompts.
// Implementations degrade to an empty string on failure.
type ContextAssembler interface {
	AssembleContext(ctx context.Context, trip *types.TripRequest) string
}

// ExternalData gathers weather, geocoding and attraction context. Every
// method failure degrades to an empty default in the pipeline.
type ExternalData interface {
	Geocode(ctx context.Context, address string) (*types.GeoLocation, error)
	GeocodePlace(ctx context.Context, place, city, country string) (*types.GeoLocation, error)
	Forecast(ctx context.Context, location string, days int) (*types.WeatherForecast, error)
	TopAttractions(ctx context.Context, city string, limit int) ([]types.Place, error)
}

// TripStore is the slice of trip persistence the pipeline needs.
type TripStore interface {
	GetTripRequest(ctx context.Context, id uuid.UUID) (*types.TripRequest, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// VersionStore persists one itinerary version with its child rows atomically.
type VersionStore interface {
	CreateVersion(ctx context.Context, version *types.Itinerary, activities []types.Activity, experiences []types.LocalExperience) (*types.Itinerary, error)
}

// Service drives the full generation pipeline for one trip request.
type Service interface {
	GenerateItinerary(ctx context.Context, tripID uuid.UUID) (*types.GenerationResult, error)
	Refine(ctx context.Context, itinerarySummary, userMessage string) *types.RefinementResult
	SuggestWeatherAdjustments(ctx context.Context, itinerarySummary string, forecast *types.WeatherForecast) *types.RefinementResult
}

var _ Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	ai          AIClient
	assembler   ContextAssembler
	external    ExternalData
	trips       TripStore
	versions    VersionStore
	normalizer  *Normalizer
	temperature float32
	metrics     *metrics.AppMetrics
	logger      *slog.Logger
}

func NewService(ai AIClient, assembler ContextAssembler, external ExternalData,
	trips TripStore, versions VersionStore, temperature float32,
	m *metrics.AppMetrics, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		ai:          ai,
		assembler:   assembler,
		external:    external,
		trips:       trips,
		versions:    versions,
		normalizer:  NewNormalizer(logger),
		temperature: temperature,
		metrics:     m,
		logger:      logger,
	}
}

const (
	maxForecastDays     = 7
	maxAttractions      = 15
	budgetDeviationBand = 0.10
)

// GenerateItinerary runs the whole pipeline: mark processing, gather external
// context, build the RAG block, generate, reconcile the budget, curate local
// experiences, optionally run a budget-optimization pass, persist version 1
// and mark the request completed. No itinerary row is committed before the
// final step, so a failed attempt is safe to re-run.
func (s *ServiceImpl) GenerateItinerary(ctx context.Context, tripID uuid.UUID) (*types.GenerationResult, error) {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "GenerateItinerary", trace.WithAttributes(
		attribute.String("trip_request.id", tripID.String()),
	))
	defer span.End()

	start := time.Now()
	if s.metrics != nil {
		s.metrics.GenerationsTotal.Add(ctx, 1)
		defer func() {
			s.metrics.GenerationDurationSecs.Record(ctx, time.Since(start).Seconds())
		}()
	}

	trip, err := s.trips.GetTripRequest(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load trip request")
		return nil, fmt.Errorf("failed to load trip request: %w", err)
	}
	if err := trip.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	// The status field is the sole concurrency guard: a request already in
	// processing must not be re-entered.
	if err := s.trips.MarkProcessing(ctx, tripID); err != nil {
		span.RecordError(err)
		return nil, err
	}

	result, err := s.runPipeline(ctx, trip)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Generation pipeline failed")
		if s.metrics != nil {
			s.metrics.GenerationFailuresTotal.Add(ctx, 1)
		}
		if markErr := s.trips.MarkFailed(ctx, tripID, err.Error()); markErr != nil {
			s.logger.ErrorContext(ctx, "Failed to mark trip request failed",
				slog.Any("error", markErr), slog.String("trip_id", tripID.String()))
		}
		return nil, err
	}

	if err := s.trips.MarkCompleted(ctx, tripID); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to mark trip request completed: %w", err)
	}

	span.SetStatus(codes.Ok, "Itinerary generated")
	return result, nil
}

func (s *ServiceImpl) runPipeline(ctx context.Context, trip *types.TripRequest) (*types.GenerationResult, error) {
	l := s.logger.With(slog.String("trip_id", trip.ID.String()), slog.String("destination", trip.Destination))

	// External context is an enhancement, not a dependency. External calls
	// run sequentially; each failure degrades to an empty default.
	destInfo := s.gatherDestinationInfo(ctx, trip, l)
	if analysis := s.analyzeDestination(ctx, trip); len(analysis) > 0 {
		destInfo["analysis"] = analysis
	}
	weather := s.gatherWeather(ctx, trip, l)
	attractions := s.gatherAttractions(ctx, trip, l)
	ragContext := s.assembler.AssembleContext(ctx, trip)

	// Stated budgets are taken as home-currency figures; scale them to the
	// destination's cost of living before allocation.
	effectiveBudget := trip.Budget
	if code, ok := destInfo["country_code"].(string); ok && code != "" {
		adjusted, multiplier := AdjustBudgetForDestination(trip.Budget, code)
		if multiplier != 1.0 {
			l.InfoContext(ctx, "Scaled budget to destination cost of living",
				slog.String("country_code", code), slog.Float64("multiplier", multiplier))
		}
		effectiveBudget = adjusted
	}

	dailyBudget := EstimateDailyBudget(effectiveBudget, trip.DurationDays, trip.Currency)
	externalContext := formatExternalContext(weather, attractions)

	doc, err := s.generateItineraryDoc(ctx, trip, dailyBudget, ragContext, externalContext)
	if err != nil {
		return nil, err
	}

	total, breakdown := ReconcileBudget(doc, effectiveBudget)

	experiences := s.curateExperiences(ctx, trip, ragContext)

	var optimization map[string]interface{}
	if math.Abs(total-effectiveBudget) > budgetDeviationBand*effectiveBudget {
		optimization = s.optimizeBudget(ctx, trip, total, doc)
	}

	version := buildInitialVersion(trip, doc, total, breakdown, weather, destInfo)
	activityRows := BuildActivityRows(ctx, doc, trip, s.external, l)
	experienceRows := BuildExperienceRows(experiences, trip)

	saved, err := s.versions.CreateVersion(ctx, version, activityRows, experienceRows)
	if err != nil {
		return nil, fmt.Errorf("failed to persist itinerary: %w", err)
	}
	if s.metrics != nil {
		s.metrics.VersionsCreatedTotal.Add(ctx, 1)
	}

	l.InfoContext(ctx, "Itinerary generated",
		slog.String("itinerary_id", saved.ID.String()),
		slog.Float64("total_cost", total),
		slog.Int("activities", len(activityRows)),
		slog.Int("experiences", len(experienceRows)))

	return &types.GenerationResult{
		ItineraryID:        saved.ID,
		Itinerary:          doc,
		LocalExperiences:   experiences,
		WeatherData:        version.WeatherData,
		DestinationInfo:    destInfo,
		TotalCost:          total,
		Currency:           trip.Currency,
		BudgetOptimization: optimization,
	}, nil
}

func (s *ServiceImpl) generateItineraryDoc(ctx context.Context, trip *types.TripRequest,
	dailyBudget DailyBudget, ragContext, externalContext string) (types.GeneratedData, error) {

	prompt := getItineraryPrompt(trip, dailyBudget, ragContext, externalContext)
	text, err := s.callLLM(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("itinerary generation call failed: %w", err)
	}

	doc := s.normalizer.NormalizeObject(ctx, text)
	if len(daysOf(doc)) == 0 {
		if s.metrics != nil {
			s.metrics.NormalizerFallbacksTotal.Add(ctx, 1)
		}
		return nil, fmt.Errorf("model produced no usable itinerary body")
	}
	return doc, nil
}

// curateExperiences calls the curation prompt and digs a list out of
// whatever shape comes back. Never returns a non-list.
func (s *ServiceImpl) curateExperiences(ctx context.Context, trip *types.TripRequest, ragContext string) []interface{} {
	prompt := getLocalExperiencesPrompt(trip.Destination, trip.TravelStyle, trip.Interests, ragContext)
	text, err := s.callLLM(ctx, prompt)
	if err != nil {
		s.logger.WarnContext(ctx, "Local experience curation failed, continuing without",
			slog.Any("error", err))
		return []interface{}{}
	}

	parsed := s.normalizer.NormalizeObject(ctx, text)
	return recoverExperienceList(parsed)
}

func (s *ServiceImpl) optimizeBudget(ctx context.Context, trip *types.TripRequest, total float64, doc types.GeneratedData) map[string]interface{} {
	prompt := getBudgetOptimizationPrompt(trip, total, summarizeDocument(doc))
	text, err := s.callLLM(ctx, prompt)
	if err != nil {
		s.logger.WarnContext(ctx, "Budget optimization pass failed, continuing without",
			slog.Any("error", err))
		return nil
	}
	result := s.normalizer.NormalizeObject(ctx, text)
	if len(result) == 0 {
		return nil
	}
	return result
}

// Refine sends the chat-refinement prompt and always returns a complete,
// well-typed result: missing fields get safe defaults and LLM-side failures
// become a graceful conversational fallback, never an error.
func (s *ServiceImpl) Refine(ctx context.Context, itinerarySummary, userMessage string) *types.RefinementResult {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "Refine")
	defer span.End()

	if s.metrics != nil {
		s.metrics.RefinementsTotal.Add(ctx, 1)
	}

	prompt := getRefinementPrompt(itinerarySummary, userMessage)
	text, err := s.callLLM(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		s.logger.WarnContext(ctx, "Refinement call failed, returning fallback response",
			slog.Any("error", err))
		return fallbackRefinement(err.Error())
	}

	parsed := s.normalizer.NormalizeObject(ctx, text)
	return refinementFromResponse(parsed)
}

// SuggestWeatherAdjustments asks the model how to reshape days around a
// fresh forecast. Same contract as Refine: never an error, a conversational
// fallback with empty sections on LLM-side trouble.
func (s *ServiceImpl) SuggestWeatherAdjustments(ctx context.Context, itinerarySummary string, forecast *types.WeatherForecast) *types.RefinementResult {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "SuggestWeatherAdjustments")
	defer span.End()

	prompt := getWeatherAdjustmentPrompt(itinerarySummary, forecast)
	text, err := s.callLLM(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		s.logger.WarnContext(ctx, "Weather adjustment call failed, returning fallback response",
			slog.Any("error", err))
		return fallbackRefinement(err.Error())
	}

	parsed := s.normalizer.NormalizeObject(ctx, text)
	result := refinementFromResponse(parsed)
	if v, ok := parsed["reasoning"].(string); ok && v != "" {
		result.ResponseMessage = v
	}
	return result
}

// analyzeDestination asks for a practical destination briefing. The briefing
// only enriches destination info, so failures degrade to nothing.
func (s *ServiceImpl) analyzeDestination(ctx context.Context, trip *types.TripRequest) map[string]interface{} {
	prompt := getDestinationAnalysisPrompt(trip.Destination, trip.TravelStyle, trip.Interests)
	text, err := s.callLLM(ctx, prompt)
	if err != nil {
		s.logger.WarnContext(ctx, "Destination analysis failed, continuing without",
			slog.Any("error", err))
		return nil
	}
	return s.normalizer.NormalizeObject(ctx, text)
}

func (s *ServiceImpl) callLLM(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := s.ai.GenerateContent(ctx, prompt, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](s.temperature),
	})
	if s.metrics != nil {
		s.metrics.LLMCallDurationSecs.Record(ctx, time.Since(start).Seconds())
	}
	return text, err
}

func (s *ServiceImpl) gatherDestinationInfo(ctx context.Context, trip *types.TripRequest, l *slog.Logger) map[string]interface{} {
	loc, err := s.external.Geocode(ctx, trip.Destination)
	if err != nil || loc == nil {
		l.WarnContext(ctx, "Destination geocoding failed, using empty destination info", slog.Any("error", err))
		return map[string]interface{}{}
	}
	return map[string]interface{}{
		"lat":               loc.Lat,
		"lng":               loc.Lng,
		"formatted_address": loc.FormattedAddress,
		"city":              loc.City,
		"country":           loc.Country,
		"country_code":      loc.CountryCode,
	}
}

func (s *ServiceImpl) gatherWeather(ctx context.Context, trip *types.TripRequest, l *slog.Logger) *types.WeatherForecast {
	days := trip.DurationDays
	if days > maxForecastDays {
		days = maxForecastDays
	}
	forecast, err := s.external.Forecast(ctx, trip.Destination, days)
	if err != nil || forecast == nil {
		l.WarnContext(ctx, "Weather fetch failed, continuing without forecast", slog.Any("error", err))
		return &types.WeatherForecast{Location: trip.Destination}
	}
	return forecast
}

func (s *ServiceImpl) gatherAttractions(ctx context.Context, trip *types.TripRequest, l *slog.Logger) []types.Place {
	attractions, err := s.external.TopAttractions(ctx, trip.Destination, maxAttractions)
	if err != nil {
		l.WarnContext(ctx, "Attraction lookup failed, continuing without", slog.Any("error", err))
		return nil
	}
	return attractions
}

// experienceListKeys is searched in order before falling back to the first
// list-valued field anywhere in the response.
var experienceListKeys = []string{
	"experiences", "local_experiences", "hidden_gems",
	"recommendations", "items", "results",
}

func recoverExperienceList(parsed map[string]interface{}) []interface{} {
	for _, key := range experienceListKeys {
		if list, ok := parsed[key].([]interface{}); ok {
			return list
		}
	}
	keys := make([]string, 0, len(parsed))
	for k := range parsed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if list, ok := parsed[k].([]interface{}); ok {
			return list
		}
	}
	return []interface{}{}
}

const (
	defaultUnderstanding   = "Processing your request..."
	defaultBudgetImpact    = "No significant budget impact"
	defaultResponseMessage = "I understand your request and will make the changes."
)

func refinementFromResponse(parsed map[string]interface{}) *types.RefinementResult {
	result := &types.RefinementResult{
		Understanding:   defaultUnderstanding,
		Changes:         []interface{}{},
		UpdatedSections: map[string]interface{}{},
		BudgetImpact:    defaultBudgetImpact,
		ResponseMessage: defaultResponseMessage,
	}
	if v, ok := parsed["understanding"].(string); ok && v != "" {
		result.Understanding = v
	}
	if v, ok := parsed["changes"].([]interface{}); ok {
		result.Changes = v
	}
	if v, ok := parsed["updated_sections"].(map[string]interface{}); ok {
		result.UpdatedSections = v
	}
	if v, ok := parsed["budget_impact"].(string); ok && v != "" {
		result.BudgetImpact = v
	}
	if v, ok := parsed["response_message"].(string); ok && v != "" {
		result.ResponseMessage = v
	}
	return result
}

func fallbackRefinement(reason string) *types.RefinementResult {
	return &types.RefinementResult{
		Understanding:   fmt.Sprintf("Unable to process request: %s...", preview(reason, 100)),
		Changes:         []interface{}{},
		UpdatedSections: map[string]interface{}{},
		BudgetImpact:    defaultBudgetImpact,
		ResponseMessage: "Sorry, I had trouble understanding that request. Could you rephrase what you would like to change?",
	}
}

func buildInitialVersion(trip *types.TripRequest, doc types.GeneratedData, total float64,
	breakdown types.CostBreakdown, weather *types.WeatherForecast, destInfo map[string]interface{}) *types.Itinerary {

	title := fmt.Sprintf("%s Trip", trip.Destination)
	if t, ok := doc["trip_title"].(string); ok && t != "" {
		title = t
	}
	overview, _ := doc["overview"].(string)

	var weatherData map[string]interface{}
	if weather != nil && len(weather.Days) > 0 {
		raw, err := json.Marshal(weather)
		if err == nil {
			_ = json.Unmarshal(raw, &weatherData)
		}
	}

	return &types.Itinerary{
		TripRequestID:      trip.ID,
		Title:              title,
		Overview:           overview,
		GeneratedData:      doc,
		TotalEstimatedCost: total,
		Currency:           trip.Currency,
		CostBreakdown:      breakdown,
		WeatherData:        weatherData,
		DestinationInfo:    destInfo,
		Version:            1,
		VersionDescription: "Initial generation",
		IsActive:           true,
	}
}

func formatExternalContext(weather *types.WeatherForecast, attractions []types.Place) string {
	var b []byte
	buf := func(s string) { b = append(b, s...) }

	if weather != nil && len(weather.Days) > 0 {
		buf("Weather forecast:\n")
		for _, day := range weather.Days {
			buf(fmt.Sprintf("- %s: %s, %.0f-%.0f C, humidity %d%%\n",
				day.Date, day.Description, day.TempMin, day.TempMax, day.Humidity))
		}
	}
	if len(attractions) > 0 {
		buf("Top attractions:\n")
		for _, place := range attractions {
			buf(fmt.Sprintf("- %s (rating %.1f, %d reviews)\n",
				place.Name, place.Rating, place.UserRatingsTotal))
		}
	}
	return string(b)
}

// summarizeDocument renders the generated document compactly for follow-up
// prompts.
func summarizeDocument(doc types.GeneratedData) string {
	raw, err := json.Marshal(doc)
	if err != nil {
		return ""
	}
	return string(raw)
}
