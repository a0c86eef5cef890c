package external

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner/config"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

func testClient(cfg config.Config) *Client {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	cfg.External.Timeout = 2 * time.Second
	c := NewClient(cfg, logger)
	// API keys from the test environment must not leak into tests.
	c.weatherKey = ""
	return c
}

func TestForecastIsDeterministic(t *testing.T) {
	c := testClient(config.Config{})
	ctx := context.Background()

	first, err := c.Forecast(ctx, "Lisbon", 5)
	require.NoError(t, err)
	second, err := c.Forecast(ctx, "Lisbon", 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first.Days, 5)
}

func TestForecastClimateRanges(t *testing.T) {
	c := testClient(config.Config{})
	ctx := context.Background()

	tests := []struct {
		location         string
		tempMin, tempMax float64
	}{
		{"Bangkok", 25, 35},
		{"Reykjavik, Iceland", -5, 10},
		{"Dubai", 20, 40},
		{"Paris", 10, 25},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			forecast, err := c.Forecast(ctx, tt.location, 7)
			require.NoError(t, err)
			for _, day := range forecast.Days {
				assert.GreaterOrEqual(t, day.TempMin, tt.tempMin)
				assert.LessOrEqual(t, day.TempMax, tt.tempMax)
				assert.LessOrEqual(t, day.TempMin, day.TempMax)
				assert.NotEmpty(t, day.Condition)
			}
		})
	}
}

func TestForecastLiveParsesDailySummaries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "16", r.URL.Query().Get("cnt"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"list": [
			{"dt_txt": "2026-09-01 09:00:00",
			 "main": {"temp": 18, "temp_min": 15, "temp_max": 20, "humidity": 60},
			 "weather": [{"main": "Clouds", "description": "scattered clouds"}], "wind": {"speed": 4}},
			{"dt_txt": "2026-09-01 15:00:00",
			 "main": {"temp": 24, "temp_min": 21, "temp_max": 26, "humidity": 50},
			 "weather": [{"main": "Clear", "description": "clear sky"}], "wind": {"speed": 6}},
			{"dt_txt": "2026-09-01 21:00:00",
			 "main": {"temp": 21, "temp_min": 18, "temp_max": 22, "humidity": 55},
			 "weather": [{"main": "Clear", "description": "clear sky"}], "wind": {"speed": 5}},
			{"dt_txt": "2026-09-02 09:00:00",
			 "main": {"temp": 17, "temp_min": 14, "temp_max": 19, "humidity": 70},
			 "weather": [{"main": "Rain", "description": "light rain"}], "wind": {"speed": 7}}
		]}`))
	}))
	defer srv.Close()

	cfg := config.Config{}
	cfg.External.WeatherURL = srv.URL
	c := testClient(cfg)
	c.weatherKey = "secret"

	forecast, err := c.Forecast(context.Background(), "Lisbon", 2)
	require.NoError(t, err)
	require.Len(t, forecast.Days, 2)

	first := forecast.Days[0]
	assert.Equal(t, "2026-09-01", first.Date)
	assert.Equal(t, 15.0, first.TempMin)
	assert.Equal(t, 26.0, first.TempMax)
	assert.Equal(t, 21.0, first.TempAvg)
	assert.Equal(t, "Clear", first.Condition)
	assert.Equal(t, "clear sky", first.Description)
	assert.Equal(t, 55, first.Humidity)
	assert.Equal(t, 5.0, first.WindSpeed)

	assert.Equal(t, "Rain", forecast.Days[1].Condition)
}

func TestForecastFallsBackToModelOnProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := config.Config{}
	cfg.External.WeatherURL = srv.URL
	c := testClient(cfg)
	c.weatherKey = "secret"

	forecast, err := c.Forecast(context.Background(), "Reykjavik, Iceland", 3)
	require.NoError(t, err)
	require.Len(t, forecast.Days, 3)
	for _, day := range forecast.Days {
		assert.GreaterOrEqual(t, day.TempMin, -5.0)
		assert.LessOrEqual(t, day.TempMax, 10.0)
	}
}

func TestForecastMinimumOneDay(t *testing.T) {
	c := testClient(config.Config{})
	forecast, err := c.Forecast(context.Background(), "Lisbon", 0)
	require.NoError(t, err)
	assert.Len(t, forecast.Days, 1)
}

func TestGeocodeParsesAndCaches(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "go-trip-planner/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat": "38.7223", "lon": "-9.1393",
            "display_name": "Lisboa, Portugal",
            "address": {"city": "Lisboa", "country": "Portugal", "country_code": "pt"}}]`))
	}))
	defer srv.Close()

	cfg := config.Config{}
	cfg.External.NominatimURL = srv.URL
	c := testClient(cfg)

	loc, err := c.Geocode(context.Background(), "Lisbon")
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.InDelta(t, 38.7223, loc.Lat, 0.0001)
	assert.InDelta(t, -9.1393, loc.Lng, 0.0001)
	assert.Equal(t, "Lisboa", loc.City)
	assert.Equal(t, "PT", loc.CountryCode)

	// Second lookup is served from cache.
	_, err = c.Geocode(context.Background(), "Lisbon")
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestGeocodeNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	cfg := config.Config{}
	cfg.External.NominatimURL = srv.URL
	c := testClient(cfg)

	loc, err := c.Geocode(context.Background(), "Nowhereville")
	require.NoError(t, err)
	assert.Nil(t, loc)
}

func TestGeocodePlaceFallsBackToCity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "Lisbon" {
			w.Write([]byte(`[{"lat": "38.7", "lon": "-9.1", "display_name": "Lisboa", "address": {}}]`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	cfg := config.Config{}
	cfg.External.NominatimURL = srv.URL
	c := testClient(cfg)

	loc, err := c.GeocodePlace(context.Background(), "Obscure Alley Cafe", "Lisbon", "")
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.InDelta(t, 38.7, loc.Lat, 0.01)
}

func TestExchangeRateFallbackChain(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates": {"EUR": 0.92}}`))
	}))
	defer fallback.Close()

	cfg := config.Config{}
	cfg.External.ExchangeURL = primary.URL
	cfg.External.ExchangeAltURL = fallback.URL
	c := testClient(cfg)

	rate, err := c.ExchangeRate(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	assert.InDelta(t, 0.92, rate, 0.001)
}

func TestExchangeRateStaticFallback(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	cfg := config.Config{}
	cfg.External.ExchangeURL = down.URL
	cfg.External.ExchangeAltURL = down.URL
	c := testClient(cfg)

	// Majors fall back to the static table.
	rate, err := c.ExchangeRate(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	assert.InDelta(t, 0.92, rate, 0.001)

	// Unknown currencies degrade to 1.0.
	rate, err = c.ExchangeRate(context.Background(), "USD", "XYZ")
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)
}

func TestExchangeRateSameCurrency(t *testing.T) {
	c := testClient(config.Config{})
	rate, err := c.ExchangeRate(context.Background(), "usd", "USD")
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$49.90", FormatCurrency(49.9, "USD"))
	assert.Equal(t, "€100.00", FormatCurrency(100, "eur"))
	assert.Equal(t, "123.45 XYZ", FormatCurrency(123.45, "xyz"))
}

func TestTopAttractionsWithoutKey(t *testing.T) {
	c := testClient(config.Config{})
	c.placesKey = ""

	places, err := c.TopAttractions(context.Background(), "Lisbon", 15)
	require.NoError(t, err)
	assert.Nil(t, places)
}

func TestPlaceScoreOrdering(t *testing.T) {
	crowdFavorite := placeScore(types.Place{Rating: 4.5, UserRatingsTotal: 2000})
	lonePerfect := placeScore(types.Place{Rating: 5.0, UserRatingsTotal: 1})
	assert.Greater(t, crowdFavorite, lonePerfect)
}
