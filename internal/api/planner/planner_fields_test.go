package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

func TestParseDurationMinutes(t *testing.T) {
	tests := []struct {
		name        string
		input       interface{}
		want        int
		wantDefault bool
	}{
		{"integer minutes", 120, 120, false},
		{"float minutes", float64(45), 45, false},
		{"hours text", "2 hours", 120, false},
		{"single hour", "1 hour", 60, false},
		{"abbreviated hr", "1.5 hr", 90, false},
		{"hours shorthand", "3h", 180, false},
		{"minutes text", "90 mins", 90, false},
		{"single minute word", "45 minutes", 45, false},
		{"bare number string", "75", 75, false},
		{"garbage", "bad", 120, true},
		{"nil", nil, 120, true},
		{"empty string", "", 120, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, defaulted := ParseDurationMinutes(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantDefault, defaulted)
		})
	}
}

func TestParseCost(t *testing.T) {
	tests := []struct {
		name        string
		input       interface{}
		want        float64
		wantDefault bool
	}{
		{"integer", 50, 50, false},
		{"float", 49.99, 49.99, false},
		{"dollar prefix", "$50", 50, false},
		{"currency suffix", "50 USD", 50, false},
		{"euro text", "about 12.50 EUR", 12.50, false},
		{"free text", "abc", 0, true},
		{"empty string", "", 0, true},
		{"nil", nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, defaulted := ParseCost(tt.input)
			assert.InDelta(t, tt.want, got, 0.001)
			assert.Equal(t, tt.wantDefault, defaulted)
		})
	}
}

func TestParseStartTime(t *testing.T) {
	tests := []struct {
		name        string
		input       interface{}
		want        string
		wantDefault bool
	}{
		{"24h clock", "14:30", "14:30", false},
		{"am clock", "9:00 AM", "09:00", false},
		{"pm clock", "2:30 PM", "14:30", false},
		{"noon pm", "12:00 PM", "12:00", false},
		{"midnight am", "12:15 AM", "00:15", false},
		{"bare hour", "9", "09:00", false},
		{"bare hour pm", "7pm", "19:00", false},
		{"garbage", "whenever", "09:00", true},
		{"nil", nil, "09:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, defaulted := ParseStartTime(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantDefault, defaulted)
		})
	}
}

func TestResolveTimeSlot(t *testing.T) {
	tests := []struct {
		name      string
		explicit  string
		startTime string
		want      types.TimeSlot
	}{
		{"explicit morning", "morning", "20:00", types.SlotMorning},
		{"synonym dinner", "dinner", "09:00", types.SlotEvening},
		{"synonym noon", "noon", "09:00", types.SlotAfternoon},
		{"derived morning", "", "08:00", types.SlotMorning},
		{"derived afternoon", "", "13:00", types.SlotAfternoon},
		{"derived evening", "", "18:30", types.SlotEvening},
		{"derived night", "", "22:00", types.SlotNight},
		{"unknown explicit falls back to start time", "whenever", "15:00", types.SlotAfternoon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := ResolveTimeSlot(tt.explicit, tt.startTime)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveActivityType(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  types.ActivityType
	}{
		{"direct match", "food", types.ActivityFood},
		{"dining keyword", "Fine Dining", types.ActivityFood},
		{"restaurant before rest", "restaurant", types.ActivityFood},
		{"museum keyword", "Museum Visit", types.ActivityCultural},
		{"rest keyword", "rest stop", types.ActivityRelaxation},
		{"transport keyword", "airport transfer by taxi", types.ActivityTransport},
		{"unknown defaults to sightseeing", "quantum computing", types.ActivitySightseeing},
		{"empty", "", types.ActivitySightseeing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := ResolveActivityType(tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveName(t *testing.T) {
	name, defaulted := ResolveName(map[string]interface{}{"activity_name": "Tram 28 ride"}, 3)
	assert.Equal(t, "Tram 28 ride", name)
	assert.False(t, defaulted)

	name, defaulted = ResolveName(map[string]interface{}{}, 3)
	assert.Equal(t, "Activity 3", name)
	assert.True(t, defaulted)
}

func TestResolveCoordinates(t *testing.T) {
	lat, lng := ResolveCoordinates(map[string]interface{}{
		"lat": 38.72, "lng": -9.14,
	})
	if assert.NotNil(t, lat) && assert.NotNil(t, lng) {
		assert.InDelta(t, 38.72, *lat, 0.001)
		assert.InDelta(t, -9.14, *lng, 0.001)
	}

	lat, lng = ResolveCoordinates(map[string]interface{}{"lat": 38.72})
	assert.Nil(t, lat)
	assert.Nil(t, lng)

	lat, lng = ResolveCoordinates(map[string]interface{}{
		"latitude": "35.68", "lon": "139.69",
	})
	if assert.NotNil(t, lat) && assert.NotNil(t, lng) {
		assert.InDelta(t, 35.68, *lat, 0.001)
		assert.InDelta(t, 139.69, *lng, 0.001)
	}
}

func TestParseBool(t *testing.T) {
	assert.True(t, ParseBool(true))
	assert.True(t, ParseBool("yes"))
	assert.True(t, ParseBool("True"))
	assert.True(t, ParseBool("1"))
	assert.True(t, ParseBool(float64(1)))
	assert.False(t, ParseBool(false))
	assert.False(t, ParseBool("no"))
	assert.False(t, ParseBool(nil))
	assert.False(t, ParseBool(float64(0)))
}
