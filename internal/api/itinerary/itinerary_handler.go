package itinerary

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

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
	GetItineraryHandler(w http.ResponseWriter, r *http.Request)
	GetActiveItineraryHandler(w http.ResponseWriter, r *http.Request)
	GetActivitiesHandler(w http.ResponseWriter, r *http.Request)
	GetExperiencesHandler(w http.ResponseWriter, r *http.Request)
	ListVersionsHandler(w http.ResponseWriter, r *http.Request)
	RefineItineraryHandler(w http.ResponseWriter, r *http.Request)
	RefreshWeatherHandler(w http.ResponseWriter, r *http.Request)
	RestoreVersionHandler(w http.ResponseWriter, r *http.Request)
	CompareVersionsHandler(w http.ResponseWriter, r *http.Request)
	DeleteVersionHandler(w http.ResponseWriter, r *http.Request)
	RateItineraryHandler(w http.ResponseWriter, r *http.Request)
	SetFavoriteHandler(w http.ResponseWriter, r *http.Request)
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

type refineRequest struct {
	Message string `json:"message"`
}

type rateRequest struct {
	Rating int `json:"rating"`
}

type favoriteRequest struct {
	IsFavorite bool `json:"is_favorite"`
}

func (h *HandlerImpl) GetItineraryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "GetItinerary")
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetItineraryHandler"))

	userID, itineraryID, ok := h.identify(w, r, "itineraryID")
	if !ok {
		span.SetStatus(codes.Error, "Bad identity or id")
		return
	}
	span.SetAttributes(attribute.String("itinerary.id", itineraryID.String()))

	it, err := h.service.GetItinerary(ctx, userID, itineraryID, r.URL.Query().Get("currency"))
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch itinerary", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch itinerary")
		api.ErrorResponse(w, r, statusFor(err), "Failed to fetch itinerary")
		return
	}

	span.SetStatus(codes.Ok, "Itinerary fetched")
	api.WriteJSONResponse(w, r, http.StatusOK, it)
}

// GetActiveItineraryHandler serves the trip's currently active version.
func (h *HandlerImpl) GetActiveItineraryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "GetActiveItinerary")
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetActiveItineraryHandler"))

	userID, tripID, ok := h.identify(w, r, "tripID")
	if !ok {
		span.SetStatus(codes.Error, "Bad identity or id")
		return
	}
	span.SetAttributes(attribute.String("trip_request.id", tripID.String()))

	it, err := h.service.GetActiveForTrip(ctx, userID, tripID, r.URL.Query().Get("currency"))
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch active itinerary", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch active itinerary")
		api.ErrorResponse(w, r, statusFor(err), "Failed to fetch active itinerary")
		return
	}

	span.SetStatus(codes.Ok, "Active itinerary fetched")
	api.WriteJSONResponse(w, r, http.StatusOK, it)
}

func (h *HandlerImpl) GetActivitiesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "GetActivities")
	defer span.End()

	userID, itineraryID, ok := h.identify(w, r, "itineraryID")
	if !ok {
		span.SetStatus(codes.Error, "Bad identity or id")
		return
	}

	activities, err := h.service.GetActivities(ctx, userID, itineraryID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch activities")
		api.ErrorResponse(w, r, statusFor(err), "Failed to fetch activities")
		return
	}

	span.SetStatus(codes.Ok, "Activities fetched")
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"activities": activities})
}

func (h *HandlerImpl) GetExperiencesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "GetExperiences")
	defer span.End()

	userID, itineraryID, ok := h.identify(w, r, "itineraryID")
	if !ok {
		span.SetStatus(codes.Error, "Bad identity or id")
		return
	}

	experiences, err := h.service.GetExperiences(ctx, userID, itineraryID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch experiences")
		api.ErrorResponse(w, r, statusFor(err), "Failed to fetch local experiences")
		return
	}

	span.SetStatus(codes.Ok, "Experiences fetched")
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"experiences": experiences})
}

func (h *HandlerImpl) ListVersionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "ListVersions")
	defer span.End()
	l := h.logger.With(slog.String("handler", "ListVersionsHandler"))

	userID, tripID, ok := h.identify(w, r, "tripID")
	if !ok {
		span.SetStatus(codes.Error, "Bad identity or id")
		return
	}
	span.SetAttributes(attribute.String("trip_request.id", tripID.String()))

	versions, err := h.service.ListVersions(ctx, userID, tripID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list versions", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list versions")
		api.ErrorResponse(w, r, statusFor(err), "Failed to list versions")
		return
	}

	span.SetStatus(codes.Ok, "Versions listed")
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"versions": versions})
}

func (h *HandlerImpl) RefineItineraryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "RefineItinerary")
	defer span.End()
	l := h.logger.With(slog.String("handler", "RefineItineraryHandler"))

	userID, itineraryID, ok := h.identify(w, r, "itineraryID")
	if !ok {
		span.SetStatus(codes.Error, "Bad identity or id")
		return
	}
	span.SetAttributes(attribute.String("itinerary.id", itineraryID.String()))

	var req refineRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Message == "" {
		span.SetStatus(codes.Error, "Empty message")
		api.ErrorResponse(w, r, http.StatusBadRequest, "message must not be empty")
		return
	}

	result, err := h.service.RefineItinerary(ctx, userID, itineraryID, req.Message)
	if err != nil {
		l.ErrorContext(ctx, "Failed to refine itinerary", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to refine itinerary")
		api.ErrorResponse(w, r, statusFor(err), "Failed to refine itinerary")
		return
	}

	l.InfoContext(ctx, "Refinement processed", slog.Bool("new_version", result.NewVersion != nil))
	span.SetStatus(codes.Ok, "Refinement processed")
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

func (h *HandlerImpl) RefreshWeatherHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "RefreshWeather")
	defer span.End()
	l := h.logger.With(slog.String("handler", "RefreshWeatherHandler"))

	userID, itineraryID, ok := h.identify(w, r, "itineraryID")
	if !ok {
		span.SetStatus(codes.Error, "Bad identity or id")
		return
	}
	span.SetAttributes(attribute.String("itinerary.id", itineraryID.String()))

	refresh, err := h.service.RefreshWeather(ctx, userID, itineraryID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to refresh weather", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to refresh weather")
		api.ErrorResponse(w, r, statusFor(err), "Failed to refresh weather")
		return
	}

	span.SetStatus(codes.Ok, "Weather refreshed")
	api.WriteJSONResponse(w, r, http.StatusOK, refresh)
}

func (h *HandlerImpl) RestoreVersionHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "RestoreVersion")
	defer span.End()
	l := h.logger.With(slog.String("handler", "RestoreVersionHandler"))

	userID, tripID, ok := h.identify(w, r, "tripID")
	if !ok {
		span.SetStatus(codes.Error, "Bad identity or id")
		return
	}

	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil || version < 1 {
		span.SetStatus(codes.Error, "Invalid version number")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid version number")
		return
	}
	span.SetAttributes(
		attribute.String("trip_request.id", tripID.String()),
		attribute.Int("version", version),
	)

	restored, err := h.service.RestoreVersion(ctx, userID, tripID, version)
	if err != nil {
		l.ErrorContext(ctx, "Failed to restore version", slog.Int("version", version), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to restore version")
		api.ErrorResponse(w, r, statusFor(err), "Failed to restore version")
		return
	}

	l.InfoContext(ctx, "Version restored",
		slog.Int("source_version", version),
		slog.Int("new_version", restored.Version))
	span.SetStatus(codes.Ok, "Version restored")
	api.WriteJSONResponse(w, r, http.StatusCreated, restored)
}

func (h *HandlerImpl) CompareVersionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "CompareVersions")
	defer span.End()

	userID, tripID, ok := h.identify(w, r, "tripID")
	if !ok {
		span.SetStatus(codes.Error, "Bad identity or id")
		return
	}

	versionA, errA := strconv.Atoi(r.URL.Query().Get("a"))
	versionB, errB := strconv.Atoi(r.URL.Query().Get("b"))
	if errA != nil || errB != nil {
		span.SetStatus(codes.Error, "Invalid version pair")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Query parameters 'a' and 'b' must be version numbers")
		return
	}

	diff, err := h.service.CompareVersions(ctx, userID, tripID, versionA, versionB)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to compare versions")
		api.ErrorResponse(w, r, statusFor(err), "Failed to compare versions")
		return
	}

	span.SetStatus(codes.Ok, "Versions compared")
	api.WriteJSONResponse(w, r, http.StatusOK, diff)
}

func (h *HandlerImpl) DeleteVersionHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "DeleteVersion")
	defer span.End()
	l := h.logger.With(slog.String("handler", "DeleteVersionHandler"))

	userID, itineraryID, ok := h.identify(w, r, "itineraryID")
	if !ok {
		span.SetStatus(codes.Error, "Bad identity or id")
		return
	}

	if err := h.service.DeleteVersion(ctx, userID, itineraryID); err != nil {
		if errors.Is(err, types.ErrActiveVersion) {
			span.SetStatus(codes.Error, "Active version")
			api.ErrorResponse(w, r, http.StatusConflict, "Cannot delete the active version")
			return
		}
		l.ErrorContext(ctx, "Failed to delete version", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete version")
		api.ErrorResponse(w, r, statusFor(err), "Failed to delete version")
		return
	}

	span.SetStatus(codes.Ok, "Version deleted")
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

func (h *HandlerImpl) RateItineraryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "RateItinerary")
	defer span.End()

	userID, itineraryID, ok := h.identify(w, r, "itineraryID")
	if !ok {
		span.SetStatus(codes.Error, "Bad identity or id")
		return
	}

	var req rateRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.RateItinerary(ctx, userID, itineraryID, req.Rating); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to rate itinerary")
		api.ErrorResponse(w, r, statusFor(err), "Failed to rate itinerary")
		return
	}

	span.SetStatus(codes.Ok, "Itinerary rated")
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

func (h *HandlerImpl) SetFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "SetFavorite")
	defer span.End()

	userID, itineraryID, ok := h.identify(w, r, "itineraryID")
	if !ok {
		span.SetStatus(codes.Error, "Bad identity or id")
		return
	}

	var req favoriteRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.SetFavorite(ctx, userID, itineraryID, req.IsFavorite); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to set favorite")
		api.ErrorResponse(w, r, statusFor(err), "Failed to update favorite flag")
		return
	}

	span.SetStatus(codes.Ok, "Favorite updated")
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

// identify pulls the caller identity and the URL parameter named param.
// On failure it writes the response itself and returns ok=false.
func (h *HandlerImpl) identify(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, uuid.UUID, bool) {
	userID, err := api.UserIDFromRequest(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}
	resourceID, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid ID format")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, resourceID, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound), errors.Is(err, types.ErrVersionNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, types.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrActiveVersion):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
