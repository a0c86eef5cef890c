package types

import (
	"time"

	"github.com/google/uuid"
)

// GeneratedData is the authoritative day/activity document of one itinerary
// version, stored verbatim. Activity rows are a queryable cache derived from it.
type GeneratedData = map[string]interface{}

// Itinerary is one immutable version of a generated plan. Only rating,
// feedback, view-count fields, weather data and the is_active flag may
// change after creation; new content always means a new version.
type Itinerary struct {
	ID                 uuid.UUID              `json:"id"`
	TripRequestID      uuid.UUID              `json:"trip_request_id"`
	Title              string                 `json:"title"`
	Overview           string                 `json:"overview,omitempty"`
	GeneratedData      GeneratedData          `json:"generated_data"`
	TotalEstimatedCost float64                `json:"total_estimated_cost"`
	Currency           string                 `json:"currency"`
	CostBreakdown      CostBreakdown          `json:"cost_breakdown"`
	WeatherData        map[string]interface{} `json:"weather_data,omitempty"`
	DestinationInfo    map[string]interface{} `json:"destination_info,omitempty"`
	Version            int                    `json:"version"`
	VersionDescription string                 `json:"version_description,omitempty"`
	IsActive           bool                   `json:"is_active"`
	UserRating         *int                   `json:"user_rating,omitempty"`
	TimesViewed        int                    `json:"times_viewed"`
	IsFavorite         bool                   `json:"is_favorite"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`

	// Display fields are computed at read time for ?currency= conversions
	// and never persisted.
	DisplayCost     *float64 `json:"display_cost,omitempty"`
	DisplayCurrency string   `json:"display_currency,omitempty"`
	DisplayCostText string   `json:"display_cost_text,omitempty"`
}

type CostBreakdown struct {
	Activities    float64 `json:"activities"`
	Accommodation float64 `json:"accommodation"`
	Food          float64 `json:"food"`
	Miscellaneous float64 `json:"miscellaneous"`
}

type TimeSlot string

const (
	SlotMorning   TimeSlot = "morning"
	SlotAfternoon TimeSlot = "afternoon"
	SlotEvening   TimeSlot = "evening"
	SlotNight     TimeSlot = "night"
)

type ActivityType string

const (
	ActivitySightseeing   ActivityType = "sightseeing"
	ActivityFood          ActivityType = "food"
	ActivityAdventure     ActivityType = "adventure"
	ActivityRelaxation    ActivityType = "relaxation"
	ActivityCultural      ActivityType = "cultural"
	ActivityEntertainment ActivityType = "entertainment"
	ActivityShopping      ActivityType = "shopping"
	ActivityTransport     ActivityType = "transport"
)

var validActivityTypes = map[ActivityType]bool{
	ActivitySightseeing: true, ActivityFood: true, ActivityAdventure: true,
	ActivityRelaxation: true, ActivityCultural: true, ActivityEntertainment: true,
	ActivityShopping: true, ActivityTransport: true,
}

func (a ActivityType) Valid() bool { return validActivityTypes[a] }

// Activity is a denormalized projection of one generated-data entry.
// Recreated wholesale whenever a new itinerary version is written.
type Activity struct {
	ID              uuid.UUID    `json:"id"`
	ItineraryID     uuid.UUID    `json:"itinerary_id"`
	DayNumber       int          `json:"day_number"`
	TimeSlot        TimeSlot     `json:"time_slot"`
	StartTime       string       `json:"start_time"`
	DurationMinutes int          `json:"duration_minutes"`
	Name            string       `json:"name"`
	Description     string       `json:"description,omitempty"`
	ActivityType    ActivityType `json:"activity_type"`
	LocationName    string       `json:"location_name,omitempty"`
	Address         string       `json:"address,omitempty"`
	Latitude        *float64     `json:"latitude,omitempty"`
	Longitude       *float64     `json:"longitude,omitempty"`
	EstimatedCost   float64      `json:"estimated_cost"`
	Currency        string       `json:"currency"`
	BookingRequired bool         `json:"booking_required"`
	BookingURL      string       `json:"booking_url,omitempty"`
	Tips            string       `json:"tips,omitempty"`
	DisplayOrder    int          `json:"display_order"`
	IsCustom        bool         `json:"is_custom"`
}

type ExperienceCategory string

const (
	ExperienceFood      ExperienceCategory = "food"
	ExperienceCulture   ExperienceCategory = "culture"
	ExperienceAdventure ExperienceCategory = "adventure"
	ExperienceNightlife ExperienceCategory = "nightlife"
	ExperienceShopping  ExperienceCategory = "shopping"
	ExperienceNature    ExperienceCategory = "nature"
	ExperienceHiddenGem ExperienceCategory = "hidden_gem"
)

// LocalExperience is a curated, non-scheduled recommendation. Copied forward
// across versions unless explicitly changed.
type LocalExperience struct {
	ID            uuid.UUID          `json:"id"`
	ItineraryID   uuid.UUID          `json:"itinerary_id"`
	Name          string             `json:"name"`
	Category      ExperienceCategory `json:"category"`
	Description   string             `json:"description,omitempty"`
	LocationName  string             `json:"location_name,omitempty"`
	Latitude      *float64           `json:"latitude,omitempty"`
	Longitude     *float64           `json:"longitude,omitempty"`
	EstimatedCost *float64           `json:"estimated_cost,omitempty"`
	BestTime      string             `json:"best_time,omitempty"`
	InsiderTip    string             `json:"insider_tip,omitempty"`
	PriorityRank  int                `json:"priority_rank"`
}

// GenerationResult is the consolidated output of one full pipeline run.
type GenerationResult struct {
	ItineraryID        uuid.UUID              `json:"itinerary_id"`
	Itinerary          GeneratedData          `json:"itinerary"`
	LocalExperiences   []interface{}          `json:"local_experiences"`
	WeatherData        map[string]interface{} `json:"weather_data"`
	DestinationInfo    map[string]interface{} `json:"destination_info"`
	TotalCost          float64                `json:"total_cost"`
	Currency           string                 `json:"currency"`
	BudgetOptimization map[string]interface{} `json:"budget_optimization,omitempty"`
}

// RefinementResult is always fully populated; missing fields in the model
// response are filled with safe defaults.
type RefinementResult struct {
	Understanding   string                 `json:"understanding"`
	Changes         []interface{}          `json:"changes"`
	UpdatedSections map[string]interface{} `json:"updated_sections"`
	BudgetImpact    string                 `json:"budget_impact"`
	ResponseMessage string                 `json:"response_message"`
	NewVersion      *int                   `json:"new_version,omitempty"`
}

// WeatherRefresh is the outcome of refetching the forecast for an itinerary:
// the stored weather document plus the model's suggestions for adapting the
// plan to the new conditions. Suggestions are advisory; applying them goes
// through the normal refinement flow.
type WeatherRefresh struct {
	ItineraryID       uuid.UUID              `json:"itinerary_id"`
	WeatherData       map[string]interface{} `json:"weather_data"`
	Reasoning         string                 `json:"reasoning,omitempty"`
	SuggestedSections map[string]interface{} `json:"suggested_sections,omitempty"`
}

// VersionDiff summarizes the differences between two itinerary versions.
type VersionDiff struct {
	VersionA          int             `json:"version_a"`
	VersionB          int             `json:"version_b"`
	CostDiff          float64         `json:"cost_diff"`
	ActivityCountDiff int             `json:"activity_count_diff"`
	Changes           []VersionChange `json:"changes"`
}

type VersionChange struct {
	Type        string `json:"type"` // added, removed, modified
	Day         int    `json:"day"`
	Description string `json:"description"`
}
