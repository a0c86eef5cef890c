package planner

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

const travelPlannerSystemPrompt = `You are an expert travel planner with deep knowledge of destinations worldwide.
You create detailed, realistic, budget-conscious itineraries tailored to the traveler's style and interests.
Always respond with valid JSON only, no markdown fences and no surrounding prose.`

func getDestinationAnalysisPrompt(destination string, style types.TravelStyle, interests []string) string {
	return fmt.Sprintf(`%s

Analyze %s as a destination for a %s traveler interested in: %s.

Return the response STRICTLY as a JSON object with:
{
  "overview": "short destination overview",
  "best_areas": ["area 1", "area 2"],
  "highlights": ["highlight 1", "highlight 2"],
  "practical_notes": "visas, safety, getting around",
  "best_time_to_visit": "season guidance"
}`, travelPlannerSystemPrompt, destination, style, strings.Join(interests, ", "))
}

func getItineraryPrompt(trip *types.TripRequest, dailyBudget DailyBudget, ragContext, externalContext string) string {
	var b strings.Builder
	b.WriteString(travelPlannerSystemPrompt)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, `Create a %d-day itinerary for %s.
Travel style: %s. Group: %s. Interests: %s.
Total budget: %.2f %s (about %.2f %s per day; roughly %.2f for activities per day).
Start date: %s.
`, trip.DurationDays, trip.Destination, trip.TravelStyle, trip.GroupSize,
		strings.Join(trip.Interests, ", "), trip.Budget, trip.Currency,
		dailyBudget.TotalPerDay, trip.Currency, dailyBudget.Activities,
		trip.StartDate.Format("2006-01-02"))

	if len(trip.DietaryRestrictions) > 0 {
		fmt.Fprintf(&b, "Dietary restrictions: %s.\n", strings.Join(trip.DietaryRestrictions, ", "))
	}
	if trip.AccessibilityNotes != "" {
		fmt.Fprintf(&b, "Accessibility notes: %s.\n", trip.AccessibilityNotes)
	}
	if ragContext != "" {
		b.WriteString("\nUse this destination knowledge where relevant:\n")
		b.WriteString(ragContext)
		b.WriteString("\n")
	}
	if externalContext != "" {
		b.WriteString("\nCurrent conditions and attractions:\n")
		b.WriteString(externalContext)
		b.WriteString("\n")
	}

	b.WriteString(`
Return the response STRICTLY as a JSON object with:
{
  "trip_title": "catchy trip title",
  "overview": "2-3 sentence trip overview",
  "days": [
    {
      "day": 1,
      "theme": "theme of the day",
      "activities": [
        {
          "time": "09:00 AM",
          "name": "activity name",
          "location": "place name",
          "duration": "2 hours",
          "cost": 25.0,
          "description": "what and why",
          "tips": "insider tip",
          "category": "sightseeing"
        }
      ],
      "total_cost": 80.0
    }
  ],
  "total_estimated_cost": 450.0
}
Every day must have a populated activities list. Costs are numbers in ` + trip.Currency + `.`)
	return b.String()
}

func getLocalExperiencesPrompt(destination string, style types.TravelStyle, interests []string, ragContext string) string {
	var b strings.Builder
	b.WriteString(travelPlannerSystemPrompt)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, `Curate 8-10 authentic local experiences and hidden gems in %s for a %s traveler interested in: %s.
Avoid the obvious tourist checklist; favor places locals actually go.
`, destination, style, strings.Join(interests, ", "))
	if ragContext != "" {
		b.WriteString("\nKnown local experiences for grounding:\n")
		b.WriteString(ragContext)
		b.WriteString("\n")
	}
	b.WriteString(`
Return the response STRICTLY as a JSON object with:
{
  "experiences": [
    {
      "name": "experience name",
      "category": "food|culture|adventure|nightlife|shopping|nature|hidden_gem",
      "description": "what makes it special",
      "location": "where",
      "cost": 15.0,
      "best_time": "when to go",
      "insider_tip": "how to do it like a local"
    }
  ]
}`)
	return b.String()
}

func getBudgetOptimizationPrompt(trip *types.TripRequest, currentTotal float64, itinerarySummary string) string {
	return fmt.Sprintf(`%s

The itinerary below for %s totals %.2f %s against a stated budget of %.2f %s.
Suggest adjustments that bring the cost closer to budget without gutting the experience.

Itinerary summary:
%s

Return the response STRICTLY as a JSON object with:
{
  "status": "over_budget|under_budget|on_budget",
  "adjustments": [{"day": 1, "change": "what to swap or drop", "savings": 20.0}],
  "alternative_activities": [{"replaces": "activity name", "alternative": "cheaper option", "cost": 10.0}],
  "budget_tips": ["tip 1", "tip 2"],
  "revised_total": 0.0
}`, travelPlannerSystemPrompt, trip.Destination, currentTotal, trip.Currency, trip.Budget, trip.Currency, itinerarySummary)
}

func getRefinementPrompt(itinerarySummary, userMessage string) string {
	return fmt.Sprintf(`%s

A traveler wants to change their existing itinerary. Current itinerary:
%s

Traveler request: "%s"

Return ONLY the days and sections that change. For any day you touch, include its FULL activities list, not just the changed entries.

Return the response STRICTLY as a JSON object with:
{
  "understanding": "what the traveler wants",
  "changes": ["change 1", "change 2"],
  "updated_sections": {
    "days": [
      {
        "day": 2,
        "date": "2026-09-02",
        "title": "day title",
        "activities": [
          {
            "time_slot": "morning",
            "start_time": "09:00",
            "duration": 120,
            "name": "activity name",
            "description": "details",
            "type": "relaxation",
            "location": "place",
            "address": "street address",
            "latitude": 48.85,
            "longitude": 2.35,
            "cost": 20.0,
            "booking_required": false,
            "booking_url": "",
            "tips": "tip"
          }
        ],
        "accommodation": {},
        "transportation": {},
        "meals": {},
        "total_day_cost": 95.0
      }
    ]
  },
  "budget_impact": "how the budget shifts",
  "response_message": "friendly reply to the traveler"
}
If nothing needs to change, return an empty updated_sections object.`, travelPlannerSystemPrompt, itinerarySummary, userMessage)
}

func getWeatherAdjustmentPrompt(itinerarySummary string, forecast *types.WeatherForecast) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nThe forecast for %s suggests some activities may need rearranging:\n", travelPlannerSystemPrompt, forecast.Location)
	for _, day := range forecast.Days {
		fmt.Fprintf(&b, "- %s: %s, %.0f-%.0f C\n", day.Date, day.Condition, day.TempMin, day.TempMax)
	}
	fmt.Fprintf(&b, `
Itinerary:
%s

Return the response STRICTLY as a JSON object with:
{
  "updated_sections": {"days": []},
  "reasoning": "why these swaps"
}
Only include days whose activities should move because of weather.`, itinerarySummary)
	return b.String()
}
