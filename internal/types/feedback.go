package types

import (
	"time"

	"github.com/google/uuid"
)

type FeedbackType string

const (
	FeedbackRating       FeedbackType = "rating"
	FeedbackModification FeedbackType = "modification"
	FeedbackRegeneration FeedbackType = "regeneration"
	FeedbackComment      FeedbackType = "comment"
)

// UserFeedback is tied to one itinerary version; it never mutates the
// itinerary body itself.
type UserFeedback struct {
	ID           uuid.UUID    `json:"id"`
	ItineraryID  uuid.UUID    `json:"itinerary_id"`
	UserID       uuid.UUID    `json:"user_id"`
	FeedbackType FeedbackType `json:"feedback_type"`
	Rating       *int         `json:"rating,omitempty"`
	Comment      string       `json:"comment,omitempty"`
	WasAddressed bool         `json:"was_addressed"`
	Response     string       `json:"response,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// RatingStats is aggregated on demand from feedback rows.
type RatingStats struct {
	AverageRating float64 `json:"average_rating"`
	RatingCount   int     `json:"rating_count"`
	FeedbackCount int     `json:"feedback_count"`
}
