package itinerary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

func day(number int, activities ...string) map[string]interface{} {
	list := make([]interface{}, 0, len(activities))
	for _, name := range activities {
		list = append(list, map[string]interface{}{"name": name})
	}
	return map[string]interface{}{
		"day":        float64(number),
		"title":      "Day title",
		"activities": list,
	}
}

func baseItinerary() types.GeneratedData {
	return types.GeneratedData{
		"title":   "Lisbon Trip",
		"summary": "Three days in Lisbon",
		"days": []interface{}{
			day(1, "Tram 28", "Castle"),
			day(2, "Belem", "Pasteis"),
			day(3, "Sintra"),
		},
	}
}

func daysOf(t *testing.T, doc types.GeneratedData) []interface{} {
	t.Helper()
	days, ok := doc["days"].([]interface{})
	require.True(t, ok)
	return days
}

func TestMergePreservesUntouchedDays(t *testing.T) {
	original := baseItinerary()
	updated := map[string]interface{}{
		"days": []interface{}{day(2, "Oceanarium")},
	}

	merged := MergeUpdatedSections(original, updated)
	days := daysOf(t, merged)
	require.Len(t, days, 3)

	// Day 1 and 3 are byte-for-byte the originals.
	assert.Equal(t, day(1, "Tram 28", "Castle"), days[0])
	assert.Equal(t, day(3, "Sintra"), days[2])

	// Day 2's activities were replaced wholesale.
	day2 := days[1].(map[string]interface{})
	activities := day2["activities"].([]interface{})
	require.Len(t, activities, 1)
	assert.Equal(t, "Oceanarium", activities[0].(map[string]interface{})["name"])
}

func TestMergeDoesNotMutateOriginal(t *testing.T) {
	original := baseItinerary()
	updated := map[string]interface{}{
		"title": "New Title",
		"days":  []interface{}{day(1, "Replacement")},
	}

	merged := MergeUpdatedSections(original, updated)

	assert.Equal(t, "Lisbon Trip", original["title"])
	originalDay1 := daysOf(t, original)[0].(map[string]interface{})
	assert.Len(t, originalDay1["activities"], 2)

	assert.Equal(t, "New Title", merged["title"])
	mergedDay1 := daysOf(t, merged)[0].(map[string]interface{})
	assert.Len(t, mergedDay1["activities"], 1)
}

func TestMergeEmptyActivitiesKeepsOriginalList(t *testing.T) {
	original := baseItinerary()
	updated := map[string]interface{}{
		"days": []interface{}{map[string]interface{}{
			"day":        float64(1),
			"title":      "Quiet day",
			"activities": []interface{}{},
		}},
	}

	merged := MergeUpdatedSections(original, updated)
	day1 := daysOf(t, merged)[0].(map[string]interface{})
	assert.Len(t, day1["activities"], 2)
	assert.Equal(t, "Quiet day", day1["title"])
}

func TestMergeAppendsUnknownDays(t *testing.T) {
	original := baseItinerary()
	updated := map[string]interface{}{
		"days": []interface{}{day(4, "Cascais")},
	}

	merged := MergeUpdatedSections(original, updated)
	days := daysOf(t, merged)
	require.Len(t, days, 4)
	assert.Equal(t, float64(4), days[3].(map[string]interface{})["day"])
}

func TestMergeTopLevelFields(t *testing.T) {
	original := baseItinerary()
	updated := map[string]interface{}{
		"summary":    "Updated summary",
		"total_cost": float64(1234),
		"highlights": []interface{}{"Fado night"},
	}

	merged := MergeUpdatedSections(original, updated)
	assert.Equal(t, "Updated summary", merged["summary"])
	assert.Equal(t, float64(1234), merged["total_cost"])
	assert.Equal(t, []interface{}{"Fado night"}, merged["highlights"])
	assert.Equal(t, "Lisbon Trip", merged["title"])
}

func TestMergeDayFieldUpdatesByDayKey(t *testing.T) {
	original := baseItinerary()
	updated := map[string]interface{}{
		"accommodation_updates": map[string]interface{}{
			"2": map[string]interface{}{"name": "Hotel Baixa"},
		},
		"transportation_updates": map[string]interface{}{
			"3": "Train to Sintra",
		},
	}

	merged := MergeUpdatedSections(original, updated)
	days := daysOf(t, merged)

	day2 := days[1].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"name": "Hotel Baixa"}, day2["accommodation"])

	day3 := days[2].(map[string]interface{})
	assert.Equal(t, "Train to Sintra", day3["transportation"])

	// Unknown day keys are ignored.
	badUpdate := map[string]interface{}{
		"accommodation_updates": map[string]interface{}{"9": "nope", "x": "nope"},
	}
	merged = MergeUpdatedSections(original, badUpdate)
	assert.Len(t, daysOf(t, merged), 3)
}

func TestMergeEmptyUpdateIsIdentity(t *testing.T) {
	original := baseItinerary()
	merged := MergeUpdatedSections(original, map[string]interface{}{})
	assert.Equal(t, original, merged)
}

func TestDayLooksUnchanged(t *testing.T) {
	original := day(1, "a", "b", "c", "d", "e")

	same := day(1, "a", "b", "c", "d", "e")
	assert.True(t, dayLooksUnchanged(original, same))

	mostlySame := day(1, "a", "b", "c", "d", "e", "f")
	assert.True(t, dayLooksUnchanged(original, mostlySame))

	different := day(1, "x", "y", "z")
	assert.False(t, dayLooksUnchanged(original, different))

	empty := day(1)
	assert.False(t, dayLooksUnchanged(original, empty))
}
