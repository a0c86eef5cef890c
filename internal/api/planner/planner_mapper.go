package planner

import (
	"context"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// BuildActivityRows derives the queryable Activity cache from a generated
// document. The rows are recreated wholesale for every new version; the
// document stays the source of truth. A best-effort geocoding pass resolves
// missing coordinates, falling back to destination-level coordinates, and
// geocoding failures never fail persistence.
func BuildActivityRows(ctx context.Context, doc types.GeneratedData, trip *types.TripRequest,
	geo ExternalData, logger *slog.Logger) []types.Activity {

	var rows []types.Activity
	for dayIdx, day := range daysOf(doc) {
		dayNumber := dayIdx + 1
		if n := numberField(day, "day", "day_number"); n != nil && *n >= 1 {
			dayNumber = int(*n)
		}

		for i, raw := range listOf(day, "activities") {
			record, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}

			name, _ := ResolveName(record, i+1)
			startTime, _ := ParseStartTime(firstValue(record, "start_time", "time"))
			duration, _ := ParseDurationMinutes(firstValue(record, "duration", "duration_minutes"))
			cost, _ := ParseCost(costValue(record))
			explicitSlot, _ := stringField(record, "time_slot")
			slot, _ := ResolveTimeSlot(explicitSlot, startTime)
			rawType, _ := stringField(record, "category", "type", "activity_type")
			activityType, _ := ResolveActivityType(rawType)
			location, _ := ResolveLocation(record)
			description, _ := ResolveDescription(record)
			address, _ := stringField(record, "address")
			bookingURL, _ := stringField(record, "booking_url")
			tips, _ := stringField(record, "tips")

			lat, lng := ResolveCoordinates(record)
			if lat == nil && geo != nil && location != "" {
				lat, lng = geocodeActivity(ctx, geo, location, trip, logger)
			}

			rows = append(rows, types.Activity{
				ItineraryID:     trip.ID, // replaced with the version id at persist time
				DayNumber:       dayNumber,
				TimeSlot:        slot,
				StartTime:       startTime,
				DurationMinutes: duration,
				Name:            name,
				Description:     description,
				ActivityType:    activityType,
				LocationName:    location,
				Address:         address,
				Latitude:        lat,
				Longitude:       lng,
				EstimatedCost:   cost,
				Currency:        trip.Currency,
				BookingRequired: ParseBool(record["booking_required"]),
				BookingURL:      bookingURL,
				Tips:            tips,
				DisplayOrder:    i,
				IsCustom:        false,
			})
		}
	}
	return rows
}

func geocodeActivity(ctx context.Context, geo ExternalData, location string,
	trip *types.TripRequest, logger *slog.Logger) (*float64, *float64) {

	loc, err := geo.GeocodePlace(ctx, location, trip.Destination, "")
	if err == nil && loc != nil {
		return &loc.Lat, &loc.Lng
	}

	cityLoc, err := geo.Geocode(ctx, trip.Destination)
	if err == nil && cityLoc != nil {
		logger.DebugContext(ctx, "Using destination coordinates for activity",
			slog.String("location", location))
		return &cityLoc.Lat, &cityLoc.Lng
	}
	return nil, nil
}

var validExperienceCategories = map[types.ExperienceCategory]bool{
	types.ExperienceFood: true, types.ExperienceCulture: true,
	types.ExperienceAdventure: true, types.ExperienceNightlife: true,
	types.ExperienceShopping: true, types.ExperienceNature: true,
	types.ExperienceHiddenGem: true,
}

// BuildExperienceRows maps curated experience records to rows. Records
// without a recognizable name are dropped.
func BuildExperienceRows(experiences []interface{}, trip *types.TripRequest) []types.LocalExperience {
	var rows []types.LocalExperience
	for i, raw := range experiences {
		record, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		name, ok := stringField(record, "name", "title")
		if !ok {
			continue
		}

		category := types.ExperienceHiddenGem
		if rawCat, ok := stringField(record, "category"); ok {
			candidate := types.ExperienceCategory(strings.ToLower(strings.TrimSpace(rawCat)))
			if validExperienceCategories[candidate] {
				category = candidate
			}
		}

		description, _ := ResolveDescription(record)
		location, _ := ResolveLocation(record)
		bestTime, _ := stringField(record, "best_time")
		insiderTip, _ := stringField(record, "insider_tip", "tip")
		lat, lng := ResolveCoordinates(record)

		var cost *float64
		if _, present := record["cost"]; present {
			if c, defaulted := ParseCost(record["cost"]); !defaulted {
				cost = &c
			}
		}

		rows = append(rows, types.LocalExperience{
			ItineraryID:   trip.ID, // replaced with the version id at persist time
			Name:          name,
			Category:      category,
			Description:   description,
			LocationName:  location,
			Latitude:      lat,
			Longitude:     lng,
			EstimatedCost: cost,
			BestTime:      bestTime,
			InsiderTip:    insiderTip,
			PriorityRank:  i + 1,
		})
	}
	return rows
}

func firstValue(record map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := record[k]; ok && v != nil {
			return v
		}
	}
	return nil
}
