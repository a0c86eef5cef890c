package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) AddDocument(ctx context.Context, collection, document string, metadata map[string]interface{}) error {
	return m.Called(ctx, collection, document, metadata).Error(0)
}

func (m *MockService) Search(ctx context.Context, collection, query string, limit int) ([]types.KnowledgeDocument, error) {
	args := m.Called(ctx, collection, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.KnowledgeDocument), args.Error(1)
}

func (m *MockService) Reset(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockService) Stats(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func assemblerLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func docs(texts ...string) []types.KnowledgeDocument {
	out := make([]types.KnowledgeDocument, 0, len(texts))
	for _, t := range texts {
		out = append(out, types.KnowledgeDocument{Document: t})
	}
	return out
}

func culturalTrip() *types.TripRequest {
	return &types.TripRequest{
		Destination: "Lisbon",
		TravelStyle: types.StyleCultural,
		Interests:   []string{"history"},
	}
}

func TestAssembleContextBuildsSections(t *testing.T) {
	svc := new(MockService)
	a := NewAssembler(svc, assemblerLogger())

	svc.On("Search", mock.Anything, CollectionDestinations,
		"Lisbon travel destination information", 1).
		Return(docs("Lisbon is famous for its tiled facades."), nil)
	svc.On("Search", mock.Anything, CollectionActivities,
		"history activities in Lisbon for cultural travelers", 10).
		Return(docs("Visit the Jeronimos Monastery.", "Walk the Alfama district."), nil)
	svc.On("Search", mock.Anything, CollectionLocalExperiences,
		"authentic local experiences hidden gems Lisbon cultural", 15).
		Return(docs("Catch live fado in a Mouraria tavern."), nil)
	svc.On("Search", mock.Anything, CollectionTravelTips,
		"travel tips advice for Lisbon", 5).
		Return(docs("Buy a Viva Viagem card for transit."), nil)

	out := a.AssembleContext(context.Background(), culturalTrip())

	assert.Contains(t, out, "Destination knowledge:\n- Lisbon is famous")
	assert.Contains(t, out, "Recommendations for history:")
	assert.Contains(t, out, "Local experiences:")
	assert.Contains(t, out, "Travel tips:")
	assert.Contains(t, out, "Plan around 4 activities per day for a cultural trip.")
}

func TestAssembleContextSkipsFailedSections(t *testing.T) {
	svc := new(MockService)
	a := NewAssembler(svc, assemblerLogger())

	svc.On("Search", mock.Anything, CollectionDestinations, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))
	svc.On("Search", mock.Anything, CollectionActivities, mock.Anything, mock.Anything).
		Return(docs("Walk the Alfama district."), nil)
	svc.On("Search", mock.Anything, CollectionLocalExperiences, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))
	svc.On("Search", mock.Anything, CollectionTravelTips, mock.Anything, mock.Anything).
		Return(docs(), nil)

	out := a.AssembleContext(context.Background(), culturalTrip())

	assert.NotContains(t, out, "Destination knowledge")
	assert.NotContains(t, out, "Local experiences")
	assert.NotContains(t, out, "Travel tips")
	assert.Contains(t, out, "Recommendations for history:")
	assert.Contains(t, out, "Plan around 4 activities")
}

func TestAssembleContextEmptyWhenNothingRetrieved(t *testing.T) {
	svc := new(MockService)
	a := NewAssembler(svc, assemblerLogger())

	svc.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("knowledge base offline"))

	out := a.AssembleContext(context.Background(), culturalTrip())
	assert.Empty(t, out)
}

func TestAssembleContextTruncatesToKeepLimits(t *testing.T) {
	svc := new(MockService)
	a := NewAssembler(svc, assemblerLogger())

	many := make([]string, 10)
	for i := range many {
		many[i] = fmt.Sprintf("activity %d", i)
	}

	svc.On("Search", mock.Anything, CollectionDestinations, mock.Anything, mock.Anything).
		Return(docs(), nil)
	svc.On("Search", mock.Anything, CollectionActivities, mock.Anything, 10).
		Return(docs(many...), nil)
	svc.On("Search", mock.Anything, CollectionLocalExperiences, mock.Anything, mock.Anything).
		Return(docs(), nil)
	svc.On("Search", mock.Anything, CollectionTravelTips, mock.Anything, mock.Anything).
		Return(docs(), nil)

	out := a.AssembleContext(context.Background(), culturalTrip())
	assert.Equal(t, 5, strings.Count(out, "- activity"))
	assert.Contains(t, out, "- activity 4")
	assert.NotContains(t, out, "- activity 5")
}

func TestActivitiesPerDay(t *testing.T) {
	assert.Equal(t, 2, ActivitiesPerDay(types.StyleRelaxation))
	assert.Equal(t, 4, ActivitiesPerDay(types.StyleAdventure))
	assert.Equal(t, 4, ActivitiesPerDay(types.StyleCultural))
	assert.Equal(t, 4, ActivitiesPerDay(types.StyleFoodTour))
	assert.Equal(t, 3, ActivitiesPerDay(types.StyleLuxury))
	assert.Equal(t, 3, ActivitiesPerDay("unknown"))
}
