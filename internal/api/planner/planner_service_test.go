package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// --- Mocks ---

type MockAIClient struct{ mock.Mock }

func (m *MockAIClient) GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	args := m.Called(ctx, prompt, config)
	return args.String(0), args.Error(1)
}

type MockAssembler struct{ mock.Mock }

func (m *MockAssembler) AssembleContext(ctx context.Context, trip *types.TripRequest) string {
	return m.Called(ctx, trip).String(0)
}

type MockExternalData struct{ mock.Mock }

func (m *MockExternalData) Geocode(ctx context.Context, address string) (*types.GeoLocation, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.GeoLocation), args.Error(1)
}

func (m *MockExternalData) GeocodePlace(ctx context.Context, place, city, country string) (*types.GeoLocation, error) {
	args := m.Called(ctx, place, city, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.GeoLocation), args.Error(1)
}

func (m *MockExternalData) Forecast(ctx context.Context, location string, days int) (*types.WeatherForecast, error) {
	args := m.Called(ctx, location, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.WeatherForecast), args.Error(1)
}

func (m *MockExternalData) TopAttractions(ctx context.Context, city string, limit int) ([]types.Place, error) {
	args := m.Called(ctx, city, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Place), args.Error(1)
}

type MockTripStore struct{ mock.Mock }

func (m *MockTripStore) GetTripRequest(ctx context.Context, id uuid.UUID) (*types.TripRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TripRequest), args.Error(1)
}

func (m *MockTripStore) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTripStore) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTripStore) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return m.Called(ctx, id, reason).Error(0)
}

type MockVersionStore struct{ mock.Mock }

func (m *MockVersionStore) CreateVersion(ctx context.Context, version *types.Itinerary, activities []types.Activity, experiences []types.LocalExperience) (*types.Itinerary, error) {
	args := m.Called(ctx, version, activities, experiences)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Itinerary), args.Error(1)
}

func validTrip() *types.TripRequest {
	return &types.TripRequest{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		Destination:  "Lisbon",
		DurationDays: 3,
		Budget:       1000,
		Currency:     "EUR",
		TravelStyle:  types.StyleCultural,
		Interests:    []string{"history"},
	}
}

const itineraryResponse = `{
  "trip_title": "Lisbon Culture Trip",
  "overview": "Three days of history",
  "days": [
    {"day": 1, "theme": "Old town", "activities": [
      {"name": "Tram 28 ride", "time": "09:00 AM", "duration": "1 hour", "cost": 50, "category": "sightseeing", "location": "Martim Moniz"},
      {"name": "Castle visit", "time": "2:00 PM", "duration": "2 hours", "cost": 50, "category": "cultural", "location": "Sao Jorge"}
    ], "total_cost": 100}
  ],
  "total_estimated_cost": 100
}`

const experiencesResponse = `{"experiences": [
  {"name": "Fado night", "category": "culture", "description": "Live Fado in Alfama", "cost": 25}
]}`

const analysisResponse = `{
  "overview": "Hilly coastal capital",
  "best_areas": ["Alfama", "Baixa"],
  "highlights": ["Tram 28", "Castle"],
  "practical_notes": "Wear good shoes",
  "best_time_to_visit": "Spring"
}`

func newTestService(ai *MockAIClient, trips *MockTripStore, versions *MockVersionStore,
	external *MockExternalData, assembler *MockAssembler) *ServiceImpl {
	return NewService(ai, assembler, external, trips, versions, 0.7, nil, testLogger())
}

func TestGenerateItineraryHappyPath(t *testing.T) {
	ctx := context.Background()
	trip := validTrip()

	ai := new(MockAIClient)
	trips := new(MockTripStore)
	versions := new(MockVersionStore)
	external := new(MockExternalData)
	assembler := new(MockAssembler)

	trips.On("GetTripRequest", mock.Anything, trip.ID).Return(trip, nil)
	trips.On("MarkProcessing", mock.Anything, trip.ID).Return(nil)
	trips.On("MarkCompleted", mock.Anything, trip.ID).Return(nil)

	external.On("Geocode", mock.Anything, "Lisbon").Return(&types.GeoLocation{
		Lat: 38.72, Lng: -9.14, City: "Lisbon", Country: "Portugal", CountryCode: "PT",
	}, nil).Maybe()
	external.On("GeocodePlace", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("not found")).Maybe()
	external.On("Forecast", mock.Anything, "Lisbon", 3).Return(&types.WeatherForecast{
		Location: "Lisbon",
		Days:     []types.WeatherDay{{Date: "2026-09-01", TempMin: 18, TempMax: 27, Description: "Sunny", Humidity: 60}},
	}, nil)
	external.On("TopAttractions", mock.Anything, "Lisbon", 15).Return([]types.Place{}, nil)
	assembler.On("AssembleContext", mock.Anything, trip).Return("Lisbon is hilly.")

	ai.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).Return(analysisResponse, nil).Once()
	ai.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).Return(itineraryResponse, nil).Once()
	ai.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).Return(experiencesResponse, nil).Once()

	var captured *types.Itinerary
	versions.On("CreateVersion", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*types.Itinerary)
		}).
		Return(&types.Itinerary{ID: uuid.New(), Version: 1}, nil)

	svc := newTestService(ai, trips, versions, external, assembler)
	result, err := svc.GenerateItinerary(ctx, trip.ID)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "EUR", result.Currency)
	assert.Len(t, result.LocalExperiences, 1)

	require.NotNil(t, captured)
	assert.Equal(t, 1, captured.Version)
	assert.Equal(t, "Initial generation", captured.VersionDescription)
	assert.True(t, captured.IsActive)
	assert.Equal(t, "Lisbon Culture Trip", captured.Title)

	// 100 of activities against a 1000 budget is under the floor; the
	// reconciled total lands on the full allocation. Portugal has no cost
	// of living multiplier, so the stated budget passes through unchanged.
	assert.InDelta(t, 1000, result.TotalCost, 1.0)

	analysis, ok := result.DestinationInfo["analysis"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Hilly coastal capital", analysis["overview"])

	trips.AssertCalled(t, "MarkCompleted", mock.Anything, trip.ID)
	trips.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateItineraryScalesBudgetForCostlyDestination(t *testing.T) {
	ctx := context.Background()
	trip := validTrip()
	trip.Destination = "Zurich"

	ai := new(MockAIClient)
	trips := new(MockTripStore)
	versions := new(MockVersionStore)
	external := new(MockExternalData)
	assembler := new(MockAssembler)

	trips.On("GetTripRequest", mock.Anything, trip.ID).Return(trip, nil)
	trips.On("MarkProcessing", mock.Anything, trip.ID).Return(nil)
	trips.On("MarkCompleted", mock.Anything, trip.ID).Return(nil)

	external.On("Geocode", mock.Anything, "Zurich").Return(&types.GeoLocation{
		Lat: 47.37, Lng: 8.54, City: "Zurich", Country: "Switzerland", CountryCode: "CH",
	}, nil).Maybe()
	external.On("GeocodePlace", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("not found")).Maybe()
	external.On("Forecast", mock.Anything, "Zurich", 3).Return(&types.WeatherForecast{Location: "Zurich"}, nil)
	external.On("TopAttractions", mock.Anything, "Zurich", 15).Return([]types.Place{}, nil)
	assembler.On("AssembleContext", mock.Anything, trip).Return("")

	ai.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).Return(analysisResponse, nil).Once()
	ai.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).Return(itineraryResponse, nil).Once()
	ai.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).Return(experiencesResponse, nil).Once()

	versions.On("CreateVersion", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&types.Itinerary{ID: uuid.New(), Version: 1}, nil)

	svc := newTestService(ai, trips, versions, external, assembler)
	result, err := svc.GenerateItinerary(ctx, trip.ID)

	require.NoError(t, err)
	// Switzerland carries a 1.5x cost of living multiplier, so the 1000
	// budget is allocated as 1500 and reconciliation fills it.
	assert.InDelta(t, 1500, result.TotalCost, 1.0)
}

func TestGenerateItineraryMarksFailedOnUnusableResponse(t *testing.T) {
	ctx := context.Background()
	trip := validTrip()

	ai := new(MockAIClient)
	trips := new(MockTripStore)
	versions := new(MockVersionStore)
	external := new(MockExternalData)
	assembler := new(MockAssembler)

	trips.On("GetTripRequest", mock.Anything, trip.ID).Return(trip, nil)
	trips.On("MarkProcessing", mock.Anything, trip.ID).Return(nil)
	trips.On("MarkFailed", mock.Anything, trip.ID, mock.Anything).Return(nil)

	external.On("Geocode", mock.Anything, mock.Anything).Return(nil, errors.New("down")).Maybe()
	external.On("Forecast", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("down")).Maybe()
	external.On("TopAttractions", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("down")).Maybe()
	assembler.On("AssembleContext", mock.Anything, trip).Return("")

	ai.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).
		Return("I cannot generate that itinerary.", nil)

	svc := newTestService(ai, trips, versions, external, assembler)
	_, err := svc.GenerateItinerary(ctx, trip.ID)

	require.Error(t, err)
	trips.AssertCalled(t, "MarkFailed", mock.Anything, trip.ID, mock.Anything)
	versions.AssertNotCalled(t, "CreateVersion", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateItineraryRejectsInvalidTrip(t *testing.T) {
	ctx := context.Background()
	trip := validTrip()
	trip.Budget = 0

	trips := new(MockTripStore)
	trips.On("GetTripRequest", mock.Anything, trip.ID).Return(trip, nil)

	svc := newTestService(new(MockAIClient), trips, new(MockVersionStore),
		new(MockExternalData), new(MockAssembler))
	_, err := svc.GenerateItinerary(ctx, trip.ID)

	assert.ErrorIs(t, err, types.ErrInvalidInput)
	trips.AssertNotCalled(t, "MarkProcessing", mock.Anything, mock.Anything)
}

func TestGenerateItineraryRespectsProcessingGuard(t *testing.T) {
	ctx := context.Background()
	trip := validTrip()

	trips := new(MockTripStore)
	trips.On("GetTripRequest", mock.Anything, trip.ID).Return(trip, nil)
	trips.On("MarkProcessing", mock.Anything, trip.ID).Return(types.ErrAlreadyProcessing)

	svc := newTestService(new(MockAIClient), trips, new(MockVersionStore),
		new(MockExternalData), new(MockAssembler))
	_, err := svc.GenerateItinerary(ctx, trip.ID)

	assert.ErrorIs(t, err, types.ErrAlreadyProcessing)
}

func TestRefineReturnsFallbackOnLLMError(t *testing.T) {
	ai := new(MockAIClient)
	ai.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("model unavailable"))

	svc := newTestService(ai, new(MockTripStore), new(MockVersionStore),
		new(MockExternalData), new(MockAssembler))
	result := svc.Refine(context.Background(), "summary", "add a beach day")

	require.NotNil(t, result)
	assert.Contains(t, result.Understanding, "Unable to process request")
	assert.Empty(t, result.UpdatedSections)
	assert.NotEmpty(t, result.ResponseMessage)
}

func TestRefineFillsDefaults(t *testing.T) {
	ai := new(MockAIClient)
	ai.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"updated_sections": {"days": []}}`, nil)

	svc := newTestService(ai, new(MockTripStore), new(MockVersionStore),
		new(MockExternalData), new(MockAssembler))
	result := svc.Refine(context.Background(), "summary", "tweak it")

	assert.Equal(t, "Processing your request...", result.Understanding)
	assert.Equal(t, "No significant budget impact", result.BudgetImpact)
	assert.Equal(t, "I understand your request and will make the changes.", result.ResponseMessage)
	assert.NotNil(t, result.UpdatedSections)
}

func TestSuggestWeatherAdjustmentsParsesReasoning(t *testing.T) {
	ai := new(MockAIClient)
	ai.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"updated_sections": {"days": [{"day": 1}]}, "reasoning": "Rain on day one, swap in the museum."}`, nil)

	svc := newTestService(ai, new(MockTripStore), new(MockVersionStore),
		new(MockExternalData), new(MockAssembler))
	result := svc.SuggestWeatherAdjustments(context.Background(), "summary",
		&types.WeatherForecast{Location: "Lisbon", Days: []types.WeatherDay{{Date: "2026-09-01", Condition: "Rain"}}})

	require.NotNil(t, result)
	assert.Equal(t, "Rain on day one, swap in the museum.", result.ResponseMessage)
	assert.Contains(t, result.UpdatedSections, "days")
}

func TestSuggestWeatherAdjustmentsFallbackOnLLMError(t *testing.T) {
	ai := new(MockAIClient)
	ai.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("model unavailable"))

	svc := newTestService(ai, new(MockTripStore), new(MockVersionStore),
		new(MockExternalData), new(MockAssembler))
	result := svc.SuggestWeatherAdjustments(context.Background(), "summary",
		&types.WeatherForecast{Location: "Lisbon"})

	require.NotNil(t, result)
	assert.Empty(t, result.UpdatedSections)
	assert.NotEmpty(t, result.ResponseMessage)
}

func TestRecoverExperienceList(t *testing.T) {
	list := []interface{}{map[string]interface{}{"name": "x"}}

	// Preferred keys are checked in order.
	assert.Equal(t, list, recoverExperienceList(map[string]interface{}{"experiences": list}))
	assert.Equal(t, list, recoverExperienceList(map[string]interface{}{"hidden_gems": list}))

	// Any list-valued field is a last resort.
	assert.Equal(t, list, recoverExperienceList(map[string]interface{}{"stuff": list}))

	// Nothing list-shaped means an empty list, not nil.
	got := recoverExperienceList(map[string]interface{}{"note": "none"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
