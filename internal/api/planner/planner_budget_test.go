package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

func itineraryWithCosts(costs ...interface{}) types.GeneratedData {
	activities := make([]interface{}, 0, len(costs))
	for _, c := range costs {
		activities = append(activities, map[string]interface{}{"name": "x", "cost": c})
	}
	return types.GeneratedData{
		"days": []interface{}{
			map[string]interface{}{"day": float64(1), "activities": activities},
		},
	}
}

func TestReconcileBudgetScalesUnderPricedActivities(t *testing.T) {
	budget := 1000.0
	doc := itineraryWithCosts(10.0, 20.0, 30.0) // 60, well under 20% of budget

	total, breakdown := ReconcileBudget(doc, budget)

	// Scaled activity spend lands on the 40% band.
	assert.InDelta(t, 0.40*budget, breakdown.Activities, 1.0)
	assert.GreaterOrEqual(t, breakdown.Activities, activityFloorShare*budget)

	assert.InDelta(t, 0.35*budget, breakdown.Accommodation, 0.01)
	assert.InDelta(t, 0.25*budget, breakdown.Food, 0.01)
	assert.InDelta(t, 0.10*budget, breakdown.Miscellaneous, 0.01)

	assert.InDelta(t, breakdown.Activities+breakdown.Accommodation+breakdown.Food, total, 1.0)
	assert.Equal(t, total, doc["total_estimated_cost"])

	// Relative proportions survive scaling.
	activities := doc["days"].([]interface{})[0].(map[string]interface{})["activities"].([]interface{})
	first := activities[0].(map[string]interface{})["cost"].(float64)
	second := activities[1].(map[string]interface{})["cost"].(float64)
	assert.InDelta(t, 2.0, second/first, 0.01)
}

func TestReconcileBudgetKeepsWellPricedActivities(t *testing.T) {
	budget := 1000.0
	doc := itineraryWithCosts(100.0, 150.0) // 250 = 25% of budget, above floor

	_, breakdown := ReconcileBudget(doc, budget)
	assert.InDelta(t, 250.0, breakdown.Activities, 0.01)

	activities := doc["days"].([]interface{})[0].(map[string]interface{})["activities"].([]interface{})
	assert.Equal(t, 100.0, activities[0].(map[string]interface{})["cost"])
}

func TestReconcileBudgetParsesDecoratedCosts(t *testing.T) {
	doc := types.GeneratedData{
		"days": []interface{}{
			map[string]interface{}{"day": float64(1), "activities": []interface{}{
				map[string]interface{}{"name": "a", "estimated_cost": "$120"},
				map[string]interface{}{"name": "b", "price": "130 USD"},
			}},
		},
	}

	_, breakdown := ReconcileBudget(doc, 1000.0)
	assert.InDelta(t, 250.0, breakdown.Activities, 0.01)

	// Costs are rewritten onto the canonical key as numbers.
	activities := doc["days"].([]interface{})[0].(map[string]interface{})["activities"].([]interface{})
	assert.Equal(t, 120.0, activities[0].(map[string]interface{})["cost"])
}

func TestReconcileBudgetZeroCostActivities(t *testing.T) {
	budget := 500.0
	doc := itineraryWithCosts(0.0, 0.0)

	total, breakdown := ReconcileBudget(doc, budget)
	// Nothing to scale against, but allocations still apply.
	assert.Equal(t, 0.0, breakdown.Activities)
	assert.InDelta(t, 0.60*budget, total, 0.01)
}

func TestReconcileBudgetEmptyItinerary(t *testing.T) {
	doc := types.GeneratedData{}
	total, breakdown := ReconcileBudget(doc, 1000.0)
	assert.Equal(t, 0.0, breakdown.Activities)
	assert.InDelta(t, 600.0, total, 0.01)
}

func TestEstimateDailyBudget(t *testing.T) {
	daily := EstimateDailyBudget(700, 7, "EUR")
	assert.Equal(t, 100.0, daily.TotalPerDay)
	assert.Equal(t, 35.0, daily.Accommodation)
	assert.Equal(t, 30.0, daily.Food)
	assert.Equal(t, 25.0, daily.Activities)
	assert.Equal(t, 10.0, daily.Transport)
	assert.Equal(t, "EUR", daily.Currency)

	// Shares are a full partition of the day's budget.
	sum := daily.Accommodation + daily.Food + daily.Activities + daily.Transport
	assert.InDelta(t, daily.TotalPerDay, sum, 0.01)

	zeroDays := EstimateDailyBudget(500, 0, "USD")
	assert.Equal(t, 500.0, zeroDays.TotalPerDay)
}

func TestAdjustBudgetForDestination(t *testing.T) {
	adjusted, multiplier := AdjustBudgetForDestination(1000, "CH")
	assert.Equal(t, 1500.0, adjusted)
	assert.Equal(t, 1.5, multiplier)

	adjusted, multiplier = AdjustBudgetForDestination(1000, "XX")
	assert.Equal(t, 1000.0, adjusted)
	assert.Equal(t, 1.0, multiplier)
}
