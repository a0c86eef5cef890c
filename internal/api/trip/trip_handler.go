package trip

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-trip-planner/internal/api"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	CreateTripRequestHandler(w http.ResponseWriter, r *http.Request)
	GetTripRequestHandler(w http.ResponseWriter, r *http.Request)
	ListTripRequestsHandler(w http.ResponseWriter, r *http.Request)
	DeleteTripRequestHandler(w http.ResponseWriter, r *http.Request)
	RetryGenerationHandler(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	logger  *slog.Logger
	service Service
}

func NewHandler(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:  logger,
		service: service,
	}
}

// CreateTripRequestHandler accepts a trip request and answers 202: the
// itinerary is generated asynchronously and the client polls the request
// status.
func (h *HandlerImpl) CreateTripRequestHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripHandler").Start(r.Context(), "CreateTripRequest")
	defer span.End()
	l := h.logger.With(slog.String("handler", "CreateTripRequestHandler"))

	userID, err := api.UserIDFromRequest(r)
	if err != nil {
		span.SetStatus(codes.Error, "Unauthorized")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req types.CreateTripRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	span.SetAttributes(
		attribute.String("destination", req.Destination),
		attribute.Int("duration_days", req.DurationDays),
	)

	trip, err := h.service.CreateTripRequest(ctx, userID, &req)
	if err != nil {
		if errors.Is(err, types.ErrInvalidInput) {
			span.SetStatus(codes.Error, "Validation failed")
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		l.ErrorContext(ctx, "Failed to create trip request", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create trip request")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create trip request")
		return
	}

	l.InfoContext(ctx, "Trip request accepted", slog.String("trip_id", trip.ID.String()))
	span.SetStatus(codes.Ok, "Trip request accepted")
	api.WriteJSONResponse(w, r, http.StatusAccepted, trip)
}

func (h *HandlerImpl) GetTripRequestHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripHandler").Start(r.Context(), "GetTripRequest")
	defer span.End()

	userID, tripID, ok := h.identify(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Bad identity or id")
		return
	}
	span.SetAttributes(attribute.String("trip_request.id", tripID.String()))

	trip, err := h.service.GetTripRequest(ctx, userID, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch trip request")
		api.ErrorResponse(w, r, statusFor(err), "Failed to fetch trip request")
		return
	}

	span.SetStatus(codes.Ok, "Trip request fetched")
	api.WriteJSONResponse(w, r, http.StatusOK, trip)
}

func (h *HandlerImpl) ListTripRequestsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripHandler").Start(r.Context(), "ListTripRequests")
	defer span.End()

	userID, err := api.UserIDFromRequest(r)
	if err != nil {
		span.SetStatus(codes.Error, "Unauthorized")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	trips, err := h.service.ListTripRequests(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list trip requests")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list trip requests")
		return
	}

	span.SetStatus(codes.Ok, "Trip requests listed")
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"trips": trips})
}

func (h *HandlerImpl) DeleteTripRequestHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripHandler").Start(r.Context(), "DeleteTripRequest")
	defer span.End()
	l := h.logger.With(slog.String("handler", "DeleteTripRequestHandler"))

	userID, tripID, ok := h.identify(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Bad identity or id")
		return
	}

	if err := h.service.DeleteTripRequest(ctx, userID, tripID); err != nil {
		l.ErrorContext(ctx, "Failed to delete trip request", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete trip request")
		api.ErrorResponse(w, r, statusFor(err), "Failed to delete trip request")
		return
	}

	span.SetStatus(codes.Ok, "Trip request deleted")
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

func (h *HandlerImpl) RetryGenerationHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripHandler").Start(r.Context(), "RetryGeneration")
	defer span.End()

	userID, tripID, ok := h.identify(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Bad identity or id")
		return
	}

	if err := h.service.RetryGeneration(ctx, userID, tripID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to retry generation")
		api.ErrorResponse(w, r, statusFor(err), err.Error())
		return
	}

	span.SetStatus(codes.Ok, "Generation re-queued")
	api.WriteJSONResponse(w, r, http.StatusAccepted, map[string]interface{}{"status": "queued"})
}

func (h *HandlerImpl) identify(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, err := api.UserIDFromRequest(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}
	tripID, err := uuid.Parse(chi.URLParam(r, "tripID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trip request ID")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, tripID, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, types.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
