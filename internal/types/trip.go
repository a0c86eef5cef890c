package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TripStatus tracks the lifecycle of a generation request.
// Transitions: pending -> processing -> completed | failed.
type TripStatus string

const (
	TripStatusPending    TripStatus = "pending"
	TripStatusProcessing TripStatus = "processing"
	TripStatusCompleted  TripStatus = "completed"
	TripStatusFailed     TripStatus = "failed"
)

type TravelStyle string

const (
	StyleAdventure  TravelStyle = "adventure"
	StyleRelaxation TravelStyle = "relaxation"
	StyleCultural   TravelStyle = "cultural"
	StyleFoodTour   TravelStyle = "food_tour"
	StyleFamily     TravelStyle = "family"
	StyleRomantic   TravelStyle = "romantic"
	StyleBudget     TravelStyle = "budget"
	StyleLuxury     TravelStyle = "luxury"
)

var validTravelStyles = map[TravelStyle]bool{
	StyleAdventure: true, StyleRelaxation: true, StyleCultural: true,
	StyleFoodTour: true, StyleFamily: true, StyleRomantic: true,
	StyleBudget: true, StyleLuxury: true,
}

func (s TravelStyle) Valid() bool { return validTravelStyles[s] }

type GroupSize string

const (
	GroupSolo   GroupSize = "solo"
	GroupCouple GroupSize = "couple"
	GroupFamily GroupSize = "family"
	GroupGroup  GroupSize = "group"
)

// TripRequest is the traveler's input. Immutable after creation except for
// the status/error fields, which the orchestrator owns.
type TripRequest struct {
	ID                      uuid.UUID   `json:"id"`
	UserID                  uuid.UUID   `json:"user_id"`
	Destination             string      `json:"destination"`
	StartDate               time.Time   `json:"start_date"`
	DurationDays            int         `json:"duration_days"`
	Budget                  float64     `json:"budget"`
	Currency                string      `json:"currency"`
	TravelStyle             TravelStyle `json:"travel_style"`
	GroupSize               GroupSize   `json:"group_size"`
	Interests               []string    `json:"interests"`
	DietaryRestrictions     []string    `json:"dietary_restrictions,omitempty"`
	AccommodationPreference string      `json:"accommodation_preference,omitempty"`
	AccessibilityNotes      string      `json:"accessibility_notes,omitempty"`
	Status                  TripStatus  `json:"status"`
	ErrorMessage            *string     `json:"error_message,omitempty"`
	RetryCount              int         `json:"retry_count"`
	CreatedAt               time.Time   `json:"created_at"`
	UpdatedAt               time.Time   `json:"updated_at"`
}

// Validate rejects bad input synchronously, before any generation attempt.
func (t *TripRequest) Validate() error {
	if t.Destination == "" {
		return fmt.Errorf("%w: destination is required", ErrInvalidInput)
	}
	if t.DurationDays < 1 || t.DurationDays > 30 {
		return fmt.Errorf("%w: duration must be between 1 and 30 days, got %d", ErrInvalidInput, t.DurationDays)
	}
	if t.Budget <= 0 {
		return fmt.Errorf("%w: budget must be positive", ErrInvalidInput)
	}
	if !t.TravelStyle.Valid() {
		return fmt.Errorf("%w: unknown travel style %q", ErrInvalidInput, t.TravelStyle)
	}
	return nil
}

type CreateTripRequest struct {
	Destination             string      `json:"destination"`
	StartDate               time.Time   `json:"start_date"`
	DurationDays            int         `json:"duration_days"`
	Budget                  float64     `json:"budget"`
	Currency                string      `json:"currency,omitempty"`
	TravelStyle             TravelStyle `json:"travel_style"`
	GroupSize               GroupSize   `json:"group_size,omitempty"`
	Interests               []string    `json:"interests,omitempty"`
	DietaryRestrictions     []string    `json:"dietary_restrictions,omitempty"`
	AccommodationPreference string      `json:"accommodation_preference,omitempty"`
	AccessibilityNotes      string      `json:"accessibility_notes,omitempty"`
}
