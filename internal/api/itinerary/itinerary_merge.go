package itinerary

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// Top-level document fields replaced wholesale when present in an update.
var topLevelMergeKeys = []string{
	"summary", "overview", "title", "highlights",
	"total_cost", "accommodation", "transportation",
}

// Per-day fields that take the proposed value when present, else keep the
// original.
var dayMergeKeys = []string{
	"date", "title", "accommodation", "transportation", "meals", "total_day_cost",
}

// MergeUpdatedSections produces a new document from an original and a
// partial set of proposed changes. The original is never mutated. For each
// proposed day matched by day number, a non-empty proposed activities list
// replaces the original list wholesale (the model is instructed to send the
// full list for any day it touches); an empty one keeps the original. Days
// not mentioned stay untouched; proposed days absent from the original are
// appended.
func MergeUpdatedSections(original types.GeneratedData, updated map[string]interface{}) types.GeneratedData {
	merged, _ := deepCopyValue(original).(map[string]interface{})
	if merged == nil {
		merged = map[string]interface{}{}
	}

	if updatedDays, ok := updated["days"].([]interface{}); ok {
		mergeDays(merged, updatedDays)
	}

	for _, key := range topLevelMergeKeys {
		if v, ok := updated[key]; ok {
			merged[key] = deepCopyValue(v)
		}
	}

	applyDayFieldUpdates(merged, updated, "accommodation_updates", "accommodation")
	applyDayFieldUpdates(merged, updated, "transportation_updates", "transportation")

	return merged
}

func mergeDays(merged map[string]interface{}, updatedDays []interface{}) {
	days, _ := merged["days"].([]interface{})

	for _, raw := range updatedDays {
		proposed, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		dayNumber, ok := dayNumberOf(proposed)
		if !ok {
			continue
		}

		idx := findDay(days, dayNumber)
		if idx == -1 {
			days = append(days, deepCopyValue(proposed))
			continue
		}

		day := days[idx].(map[string]interface{})
		if proposedActivities, ok := proposed["activities"].([]interface{}); ok && len(proposedActivities) > 0 {
			day["activities"] = deepCopyValue(proposedActivities)
		}
		for _, key := range dayMergeKeys {
			if v, ok := proposed[key]; ok {
				day[key] = deepCopyValue(v)
			}
		}
	}

	merged["days"] = days
}

// applyDayFieldUpdates handles maps keyed by day number, e.g.
// {"accommodation_updates": {"2": {...}}}.
func applyDayFieldUpdates(merged map[string]interface{}, updated map[string]interface{}, updateKey, dayField string) {
	byDay, ok := updated[updateKey].(map[string]interface{})
	if !ok {
		return
	}
	days, _ := merged["days"].([]interface{})
	for key, value := range byDay {
		var dayNumber int
		if _, err := fmt.Sscanf(key, "%d", &dayNumber); err != nil {
			continue
		}
		if idx := findDay(days, dayNumber); idx != -1 {
			days[idx].(map[string]interface{})[dayField] = deepCopyValue(value)
		}
	}
}

func findDay(days []interface{}, dayNumber int) int {
	for i, raw := range days {
		day, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if n, ok := dayNumberOf(day); ok && n == dayNumber {
			return i
		}
	}
	return -1
}

func dayNumberOf(day map[string]interface{}) (int, bool) {
	switch v := day["day"].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// deepCopyValue copies a JSON-shaped tree. Versions are append-only and
// immutable, so merging must never alias the original document.
func deepCopyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = deepCopyValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = deepCopyValue(val)
		}
		return out
	default:
		return v
	}
}

const dayUnchangedOverlap = 0.8

// dayLooksUnchanged reports whether a proposed day is effectively the same
// as the original, judged by activity-name-set overlap. Optional quality
// check only; the merge path never consults it.
func dayLooksUnchanged(original, proposed map[string]interface{}) bool {
	origNames := activityNameSet(original)
	propNames := activityNameSet(proposed)
	if len(origNames) == 0 || len(propNames) == 0 {
		return false
	}
	common := 0
	for name := range propNames {
		if origNames[name] {
			common++
		}
	}
	return float64(common)/float64(len(propNames)) > dayUnchangedOverlap
}

func activityNameSet(day map[string]interface{}) map[string]bool {
	names := map[string]bool{}
	activities, _ := day["activities"].([]interface{})
	for _, raw := range activities {
		record, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		for _, key := range []string{"name", "activity_name", "title", "activity"} {
			if s, ok := record[key].(string); ok && s != "" {
				names[strings.ToLower(strings.TrimSpace(s))] = true
				break
			}
		}
	}
	return names
}
