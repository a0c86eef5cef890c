package feedback

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-trip-planner/internal/api"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	SubmitFeedbackHandler(w http.ResponseWriter, r *http.Request)
	ListFeedbackHandler(w http.ResponseWriter, r *http.Request)
	RatingStatsHandler(w http.ResponseWriter, r *http.Request)
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

type submitFeedbackRequest struct {
	FeedbackType types.FeedbackType `json:"feedback_type"`
	Rating       *int               `json:"rating,omitempty"`
	Comment      string             `json:"comment,omitempty"`
}

func (h *HandlerImpl) SubmitFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("FeedbackHandler").Start(r.Context(), "SubmitFeedback")
	defer span.End()
	l := h.logger.With(slog.String("handler", "SubmitFeedbackHandler"))

	userID, itineraryID, ok := h.identify(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Bad identity or id")
		return
	}

	var req submitFeedbackRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	fb := &types.UserFeedback{
		ItineraryID:  itineraryID,
		FeedbackType: req.FeedbackType,
		Rating:       req.Rating,
		Comment:      req.Comment,
	}

	saved, err := h.service.SubmitFeedback(ctx, userID, fb)
	if err != nil {
		l.ErrorContext(ctx, "Failed to submit feedback", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to submit feedback")
		api.ErrorResponse(w, r, statusFor(err), err.Error())
		return
	}

	span.SetStatus(codes.Ok, "Feedback submitted")
	api.WriteJSONResponse(w, r, http.StatusCreated, saved)
}

func (h *HandlerImpl) ListFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("FeedbackHandler").Start(r.Context(), "ListFeedback")
	defer span.End()

	userID, itineraryID, ok := h.identify(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Bad identity or id")
		return
	}

	feedback, err := h.service.ListFeedback(ctx, userID, itineraryID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list feedback")
		api.ErrorResponse(w, r, statusFor(err), "Failed to list feedback")
		return
	}

	span.SetStatus(codes.Ok, "Feedback listed")
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"feedback": feedback})
}

func (h *HandlerImpl) RatingStatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("FeedbackHandler").Start(r.Context(), "RatingStats")
	defer span.End()

	userID, itineraryID, ok := h.identify(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Bad identity or id")
		return
	}

	stats, err := h.service.RatingStats(ctx, userID, itineraryID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to aggregate ratings")
		api.ErrorResponse(w, r, statusFor(err), "Failed to aggregate ratings")
		return
	}

	span.SetStatus(codes.Ok, "Stats aggregated")
	api.WriteJSONResponse(w, r, http.StatusOK, stats)
}

func (h *HandlerImpl) identify(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, err := api.UserIDFromRequest(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}
	itineraryID, err := uuid.Parse(chi.URLParam(r, "itineraryID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid itinerary ID")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, itineraryID, true
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
