package planner

import (
	"math"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// Budget allocation model. Accommodation and food are allocation assumptions
// rather than derived from activity data, because per-activity costs from the
// model rarely include lodging or meals.
const (
	accommodationShare = 0.35
	foodShare          = 0.25
	miscShare          = 0.10
	activityFloorShare = 0.20
	activityBandShare  = 0.40
)

// ReconcileBudget repairs per-activity costs against the stated budget and
// attaches a cost breakdown. When activities are under-priced (below 20% of
// budget) every activity cost is scaled into a 40%-of-budget band. It never
// adds or removes activities. The day/activity records are updated in place;
// callers pass the not-yet-persisted generation document.
func ReconcileBudget(itinerary types.GeneratedData, totalBudget float64) (float64, types.CostBreakdown) {
	activitiesCost := 0.0
	var records []map[string]interface{}

	for _, day := range daysOf(itinerary) {
		for _, raw := range listOf(day, "activities") {
			record, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			cost, _ := ParseCost(costValue(record))
			record["cost"] = cost
			records = append(records, record)
			activitiesCost += cost
		}
	}

	accommodationCost := accommodationShare * totalBudget
	foodCost := foodShare * totalBudget

	if activitiesCost < activityFloorShare*totalBudget {
		scale := (activityBandShare * totalBudget) / math.Max(activitiesCost, 1)
		activitiesCost = 0
		for _, record := range records {
			scaled := round2(record["cost"].(float64) * scale)
			record["cost"] = scaled
			activitiesCost += scaled
		}
	}

	total := round2(activitiesCost + accommodationCost + foodCost)
	breakdown := types.CostBreakdown{
		Activities:    round2(activitiesCost),
		Accommodation: round2(accommodationCost),
		Food:          round2(foodCost),
		Miscellaneous: round2(miscShare * totalBudget),
	}

	itinerary["total_estimated_cost"] = total
	return total, breakdown
}

// costValue finds the cost field under its usual aliases.
func costValue(record map[string]interface{}) interface{} {
	for _, k := range []string{"cost", "estimated_cost", "price"} {
		if v, ok := record[k]; ok {
			return v
		}
	}
	return nil
}

// DailyBudget is the per-day allocation used in prompts and summaries.
type DailyBudget struct {
	TotalPerDay   float64 `json:"total_per_day"`
	Accommodation float64 `json:"accommodation"`
	Food          float64 `json:"food"`
	Activities    float64 `json:"activities"`
	Transport     float64 `json:"transport"`
	Currency      string  `json:"currency"`
}

// EstimateDailyBudget splits a total budget across the trip's days.
func EstimateDailyBudget(totalBudget float64, durationDays int, currency string) DailyBudget {
	if durationDays < 1 {
		durationDays = 1
	}
	daily := totalBudget / float64(durationDays)
	return DailyBudget{
		TotalPerDay:   round2(daily),
		Accommodation: round2(daily * 0.35),
		Food:          round2(daily * 0.30),
		Activities:    round2(daily * 0.25),
		Transport:     round2(daily * 0.10),
		Currency:      currency,
	}
}

// Cost-of-living multipliers relative to US = 1.0.
var costOfLivingMultipliers = map[string]float64{
	"CH": 1.5, "NO": 1.4, "IS": 1.3, "JP": 1.2, "GB": 1.15,
	"AU": 1.1, "US": 1.0, "FR": 0.95, "IT": 0.9, "ES": 0.85,
	"GR": 0.75, "TH": 0.5, "VN": 0.4, "IN": 0.3,
}

// AdjustBudgetForDestination scales a budget by the destination's cost of
// living; unknown country codes pass through unchanged.
func AdjustBudgetForDestination(budget float64, countryCode string) (float64, float64) {
	multiplier, ok := costOfLivingMultipliers[countryCode]
	if !ok {
		multiplier = 1.0
	}
	return round2(budget * multiplier), multiplier
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// daysOf returns the itinerary's day records.
func daysOf(doc map[string]interface{}) []map[string]interface{} {
	var out []map[string]interface{}
	for _, raw := range listOf(doc, "days") {
		if day, ok := raw.(map[string]interface{}); ok {
			out = append(out, day)
		}
	}
	return out
}

func listOf(doc map[string]interface{}, key string) []interface{} {
	if list, ok := doc[key].([]interface{}); ok {
		return list
	}
	return nil
}
