package planner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// Ordered-fallback field resolvers for model-produced activity records.
// The model uses inconsistent key names and value formats call-to-call, so
// each resolver tries a priority list of candidate keys/parsers and reports
// whether it had to fall back to a default.

const (
	defaultDurationMinutes = 120
	defaultStartTime       = "09:00"
)

// stringField returns the first non-empty string value among the candidate keys.
func stringField(record map[string]interface{}, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := record[k]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s), true
			}
		}
	}
	return "", false
}

// ResolveName tries name, activity_name, title and activity before
// synthesizing a positional placeholder.
func ResolveName(record map[string]interface{}, position int) (string, bool) {
	if s, ok := stringField(record, "name", "activity_name", "title", "activity"); ok {
		return s, false
	}
	return fmt.Sprintf("Activity %d", position), true
}

// ResolveLocation tries location, location_name, place.
func ResolveLocation(record map[string]interface{}) (string, bool) {
	if s, ok := stringField(record, "location", "location_name", "place"); ok {
		return s, false
	}
	return "", true
}

// ResolveDescription tries description, details.
func ResolveDescription(record map[string]interface{}) (string, bool) {
	if s, ok := stringField(record, "description", "details"); ok {
		return s, false
	}
	return "", true
}

var (
	hoursRe   = regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(hours?|hrs?|h)\b`)
	minutesRe = regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(minutes?|mins?|m)\b`)
)

// ParseDurationMinutes accepts integer minutes or free text like "2 hours",
// "90 mins", "1.5 hr". Unparseable input falls back to 120 minutes.
func ParseDurationMinutes(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, false
	case float64:
		return int(v), false
	case string:
		s := strings.TrimSpace(v)
		if m := hoursRe.FindStringSubmatch(s); len(m) > 1 {
			if hrs, err := strconv.ParseFloat(m[1], 64); err == nil {
				return int(hrs * 60), false
			}
		}
		if m := minutesRe.FindStringSubmatch(s); len(m) > 1 {
			if mins, err := strconv.ParseFloat(m[1], 64); err == nil {
				return int(mins), false
			}
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return int(n), false
		}
	}
	return defaultDurationMinutes, true
}

var nonNumericRe = regexp.MustCompile(`[^0-9.]`)

// ParseCost accepts numeric values or currency-decorated strings ("$50",
// "50 USD"). Unparseable input falls back to 0.
func ParseCost(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case int:
		return float64(v), false
	case float64:
		return v, false
	case string:
		stripped := nonNumericRe.ReplaceAllString(v, "")
		if stripped == "" {
			return 0, true
		}
		if cost, err := strconv.ParseFloat(stripped, 64); err == nil {
			return cost, false
		}
	}
	return 0, true
}

var (
	clockRe    = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	bareHourRe = regexp.MustCompile(`(?i)^\s*(\d{1,2})\s*(am|pm)?\s*$`)
)

// ParseStartTime normalizes "HH:MM", "H:MM AM/PM" and bare-hour formats to a
// 24-hour "HH:MM" value, defaulting to 09:00.
func ParseStartTime(raw interface{}) (string, bool) {
	s, ok := raw.(string)
	if !ok {
		return defaultStartTime, true
	}
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)

	if m := clockRe.FindStringSubmatch(s); len(m) == 3 {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if strings.Contains(lower, "pm") && hour < 12 {
			hour += 12
		}
		if strings.Contains(lower, "am") && hour == 12 {
			hour = 0
		}
		if hour <= 23 && minute <= 59 {
			return fmt.Sprintf("%02d:%02d", hour, minute), false
		}
	}

	if m := bareHourRe.FindStringSubmatch(s); len(m) == 3 {
		hour, _ := strconv.Atoi(m[1])
		if strings.EqualFold(m[2], "pm") && hour < 12 {
			hour += 12
		}
		if strings.EqualFold(m[2], "am") && hour == 12 {
			hour = 0
		}
		if hour <= 23 {
			return fmt.Sprintf("%02d:00", hour), false
		}
	}

	return defaultStartTime, true
}

var timeSlotSynonyms = map[string]types.TimeSlot{
	"morning": types.SlotMorning, "am": types.SlotMorning,
	"breakfast": types.SlotMorning, "early": types.SlotMorning,
	"afternoon": types.SlotAfternoon, "pm": types.SlotAfternoon,
	"lunch": types.SlotAfternoon, "noon": types.SlotAfternoon,
	"midday": types.SlotAfternoon,
	"evening": types.SlotEvening, "eve": types.SlotEvening,
	"dinner": types.SlotEvening, "sunset": types.SlotEvening,
	"night": types.SlotNight, "late": types.SlotNight,
	"midnight": types.SlotNight,
}

// ResolveTimeSlot normalizes an explicit slot through the synonym table,
// otherwise derives it from the start hour.
func ResolveTimeSlot(explicit string, startTime string) (types.TimeSlot, bool) {
	if explicit != "" {
		if slot, ok := timeSlotSynonyms[strings.ToLower(strings.TrimSpace(explicit))]; ok {
			return slot, false
		}
	}
	return slotFromStartTime(startTime), explicit != ""
}

func slotFromStartTime(startTime string) types.TimeSlot {
	hour := 9
	if m := clockRe.FindStringSubmatch(startTime); len(m) == 3 {
		hour, _ = strconv.Atoi(m[1])
	}
	switch {
	case hour < 12:
		return types.SlotMorning
	case hour < 17:
		return types.SlotAfternoon
	case hour < 21:
		return types.SlotEvening
	default:
		return types.SlotNight
	}
}

// activityTypeKeywords is checked in order; the first keyword contained in
// the raw category wins.
var activityTypeKeywords = []struct {
	keyword string
	mapped  types.ActivityType
}{
	{"dining", types.ActivityFood},
	{"restaurant", types.ActivityFood},
	{"meal", types.ActivityFood},
	{"breakfast", types.ActivityFood},
	{"lunch", types.ActivityFood},
	{"dinner", types.ActivityFood},
	{"culture", types.ActivityCultural},
	{"museum", types.ActivityCultural},
	{"show", types.ActivityEntertainment},
	{"performance", types.ActivityEntertainment},
	{"theater", types.ActivityEntertainment},
	{"market", types.ActivityShopping},
	{"mall", types.ActivityShopping},
	{"taxi", types.ActivityTransport},
	{"bus", types.ActivityTransport},
	{"train", types.ActivityTransport},
	{"flight", types.ActivityTransport},
	{"transportation", types.ActivityTransport},
	{"rest", types.ActivityRelaxation},
	{"spa", types.ActivityRelaxation},
	{"tour", types.ActivitySightseeing},
	{"visit", types.ActivitySightseeing},
	{"sport", types.ActivityAdventure},
	{"activity", types.ActivityAdventure},
}

// ResolveActivityType normalizes a free-text category to the closed enum:
// direct match first, then substring keywords, then sightseeing.
func ResolveActivityType(raw string) (types.ActivityType, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if types.ActivityType(lower).Valid() {
		return types.ActivityType(lower), false
	}
	for _, kw := range activityTypeKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.mapped, false
		}
	}
	return types.ActivitySightseeing, true
}

// ResolveCoordinates tries latitude/lat and longitude/lon/lng; both must be
// numeric for a coordinate pair to be returned.
func ResolveCoordinates(record map[string]interface{}) (*float64, *float64) {
	lat := numberField(record, "latitude", "lat")
	lng := numberField(record, "longitude", "lon", "lng")
	if lat == nil || lng == nil {
		return nil, nil
	}
	return lat, lng
}

func numberField(record map[string]interface{}, keys ...string) *float64 {
	for _, k := range keys {
		switch v := record[k].(type) {
		case float64:
			out := v
			return &out
		case int:
			out := float64(v)
			return &out
		case string:
			if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return &n
			}
		}
	}
	return nil
}

// ParseBool accepts the usual truthy spellings from model output.
func ParseBool(raw interface{}) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1", "on":
			return true
		}
	case float64:
		return v != 0
	}
	return false
}
