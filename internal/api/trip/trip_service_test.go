package trip

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateTripRequest(ctx context.Context, userID uuid.UUID, req *types.CreateTripRequest) (*types.TripRequest, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TripRequest), args.Error(1)
}

func (m *MockRepository) GetTripRequest(ctx context.Context, id uuid.UUID) (*types.TripRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TripRequest), args.Error(1)
}

func (m *MockRepository) ListTripRequests(ctx context.Context, userID uuid.UUID) ([]types.TripRequest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.TripRequest), args.Error(1)
}

func (m *MockRepository) DeleteTripRequest(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return m.Called(ctx, id, reason).Error(0)
}

type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) Enqueue(tripID uuid.UUID) {
	m.Called(tripID)
}

func serviceLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func validCreateRequest() *types.CreateTripRequest {
	return &types.CreateTripRequest{
		Destination:  "Lisbon",
		StartDate:    time.Now().AddDate(0, 1, 0),
		DurationDays: 5,
		Budget:       1500,
		TravelStyle:  types.StyleCultural,
		Interests:    []string{"history", "food"},
	}
}

func TestCreateTripRequestPersistsAndEnqueues(t *testing.T) {
	repo := new(MockRepository)
	queue := new(MockEnqueuer)
	svc := NewService(repo, queue, serviceLogger())

	userID := uuid.New()
	req := validCreateRequest()
	saved := &types.TripRequest{
		ID:          uuid.New(),
		UserID:      userID,
		Destination: req.Destination,
		Status:      types.TripStatusPending,
	}

	repo.On("CreateTripRequest", mock.Anything, userID, req).Return(saved, nil)
	queue.On("Enqueue", saved.ID).Return()

	trip, err := svc.CreateTripRequest(context.Background(), userID, req)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, trip.ID)
	assert.Equal(t, types.TripStatusPending, trip.Status)
	queue.AssertCalled(t, "Enqueue", saved.ID)
}

func TestCreateTripRequestRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.CreateTripRequest)
	}{
		{"missing destination", func(r *types.CreateTripRequest) { r.Destination = "" }},
		{"zero duration", func(r *types.CreateTripRequest) { r.DurationDays = 0 }},
		{"excessive duration", func(r *types.CreateTripRequest) { r.DurationDays = 31 }},
		{"zero budget", func(r *types.CreateTripRequest) { r.Budget = 0 }},
		{"unknown style", func(r *types.CreateTripRequest) { r.TravelStyle = "spelunking" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			queue := new(MockEnqueuer)
			svc := NewService(repo, queue, serviceLogger())

			req := validCreateRequest()
			tt.mutate(req)

			_, err := svc.CreateTripRequest(context.Background(), uuid.New(), req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrInvalidInput))
			repo.AssertNotCalled(t, "CreateTripRequest", mock.Anything, mock.Anything, mock.Anything)
			queue.AssertNotCalled(t, "Enqueue", mock.Anything)
		})
	}
}

func TestGetTripRequestEnforcesOwnership(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockEnqueuer), serviceLogger())

	owner := uuid.New()
	tripID := uuid.New()
	repo.On("GetTripRequest", mock.Anything, tripID).
		Return(&types.TripRequest{ID: tripID, UserID: owner}, nil)

	trip, err := svc.GetTripRequest(context.Background(), owner, tripID)
	require.NoError(t, err)
	assert.Equal(t, tripID, trip.ID)

	_, err = svc.GetTripRequest(context.Background(), uuid.New(), tripID)
	assert.True(t, errors.Is(err, types.ErrForbidden))
}

func TestRetryGenerationOnlyForFailed(t *testing.T) {
	owner := uuid.New()
	tripID := uuid.New()

	for _, status := range []types.TripStatus{
		types.TripStatusPending, types.TripStatusProcessing, types.TripStatusCompleted,
	} {
		t.Run(string(status), func(t *testing.T) {
			repo := new(MockRepository)
			queue := new(MockEnqueuer)
			svc := NewService(repo, queue, serviceLogger())

			repo.On("GetTripRequest", mock.Anything, tripID).
				Return(&types.TripRequest{ID: tripID, UserID: owner, Status: status}, nil)

			err := svc.RetryGeneration(context.Background(), owner, tripID)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrInvalidInput))
			queue.AssertNotCalled(t, "Enqueue", mock.Anything)
		})
	}

	repo := new(MockRepository)
	queue := new(MockEnqueuer)
	svc := NewService(repo, queue, serviceLogger())

	repo.On("GetTripRequest", mock.Anything, tripID).
		Return(&types.TripRequest{ID: tripID, UserID: owner, Status: types.TripStatusFailed}, nil)
	queue.On("Enqueue", tripID).Return()

	require.NoError(t, svc.RetryGeneration(context.Background(), owner, tripID))
	queue.AssertCalled(t, "Enqueue", tripID)
}

func TestDeleteTripRequestDelegates(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockEnqueuer), serviceLogger())

	userID := uuid.New()
	tripID := uuid.New()
	repo.On("DeleteTripRequest", mock.Anything, userID, tripID).Return(types.ErrNotFound)

	err := svc.DeleteTripRequest(context.Background(), userID, tripID)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}
