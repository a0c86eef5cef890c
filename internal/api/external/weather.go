package external

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// Live forecasts come from OpenWeatherMap when WEATHER_API_KEY is set; the
// upstream returns 3-hourly entries that are folded into per-day summaries.
// Without a key, or when the upstream misbehaves, a deterministic climate
// model stands in so generation stays reproducible.

// The live call gets its own ceiling; weather is an enhancement and must
// never stall the pipeline.
const weatherTimeout = 5 * time.Second

// OpenWeatherMap serves at most 40 three-hour entries (5 days).
const maxOWMEntries = 40

// Forecast returns a per-day forecast for the location starting today.
// The lookup chain is live API by coordinates, live API by city name,
// then the climate model.
func (c *Client) Forecast(ctx context.Context, location string, days int) (*types.WeatherForecast, error) {
	ctx, span := otel.Tracer("ExternalClient").Start(ctx, "Forecast")
	defer span.End()
	span.SetAttributes(attribute.String("weather.location", location), attribute.Int("weather.days", days))

	if days < 1 {
		days = 1
	}

	if c.weatherKey != "" {
		forecast, err := c.liveForecast(ctx, location, days)
		if err == nil {
			span.SetStatus(codes.Ok, "Live forecast")
			return forecast, nil
		}
		span.RecordError(err)
		c.logger.WarnContext(ctx, "Live weather lookup failed, using climate model",
			slog.String("location", location), slog.Any("error", err))
	}

	span.SetStatus(codes.Ok, "Modeled forecast")
	return c.modeledForecast(location, days), nil
}

type owmForecastResponse struct {
	List []struct {
		DtTxt string `json:"dt_txt"`
		Main  struct {
			Temp     float64 `json:"temp"`
			TempMin  float64 `json:"temp_min"`
			TempMax  float64 `json:"temp_max"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
	} `json:"list"`
}

func (c *Client) liveForecast(ctx context.Context, location string, days int) (*types.WeatherForecast, error) {
	cacheKey := fmt.Sprintf("weather:%s:%d", strings.ToLower(location), days)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(*types.WeatherForecast), nil
	}

	ctx, cancel := context.WithTimeout(ctx, weatherTimeout)
	defer cancel()

	entries := days * 8
	if entries > maxOWMEntries {
		entries = maxOWMEntries
	}
	params := url.Values{
		"appid": {c.weatherKey},
		"units": {"metric"},
		"cnt":   {strconv.Itoa(entries)},
	}
	if loc, err := c.Geocode(ctx, location); err == nil && loc != nil {
		params.Set("lat", strconv.FormatFloat(loc.Lat, 'f', 4, 64))
		params.Set("lon", strconv.FormatFloat(loc.Lng, 'f', 4, 64))
	} else {
		params.Set("q", location)
	}

	endpoint := fmt.Sprintf("%s/data/2.5/forecast?%s",
		strings.TrimRight(c.cfg.External.WeatherURL, "/"), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather provider returned status %d", resp.StatusCode)
	}

	var body owmForecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}
	if len(body.List) == 0 {
		return nil, fmt.Errorf("weather response carried no forecast entries")
	}

	forecast := summarizeByDay(location, body, days)
	c.cache.Set(cacheKey, forecast, weatherCacheTTL)
	return forecast, nil
}

// summarizeByDay folds 3-hourly entries into one record per calendar day:
// temperature extremes, mean temperature, the most frequent condition and
// averaged humidity and wind.
func summarizeByDay(location string, body owmForecastResponse, days int) *types.WeatherForecast {
	type dayAccum struct {
		tempMin, tempMax   float64
		tempSum, windSum   float64
		humiditySum, count int
		conditions         map[string]int
		descriptions       map[string]int
	}

	accums := map[string]*dayAccum{}
	var dates []string
	for _, entry := range body.List {
		if len(entry.DtTxt) < 10 {
			continue
		}
		date := entry.DtTxt[:10]
		acc, ok := accums[date]
		if !ok {
			acc = &dayAccum{
				tempMin: entry.Main.TempMin, tempMax: entry.Main.TempMax,
				conditions: map[string]int{}, descriptions: map[string]int{},
			}
			accums[date] = acc
			dates = append(dates, date)
		}
		acc.tempMin = math.Min(acc.tempMin, entry.Main.TempMin)
		acc.tempMax = math.Max(acc.tempMax, entry.Main.TempMax)
		acc.tempSum += entry.Main.Temp
		acc.windSum += entry.Wind.Speed
		acc.humiditySum += entry.Main.Humidity
		acc.count++
		if len(entry.Weather) > 0 {
			acc.conditions[entry.Weather[0].Main]++
			acc.descriptions[entry.Weather[0].Description]++
		}
	}

	sort.Strings(dates)
	if len(dates) > days {
		dates = dates[:days]
	}

	forecast := &types.WeatherForecast{Location: location}
	for _, date := range dates {
		acc := accums[date]
		n := float64(acc.count)
		forecast.Days = append(forecast.Days, types.WeatherDay{
			Date:        date,
			TempMin:     round1(acc.tempMin),
			TempMax:     round1(acc.tempMax),
			TempAvg:     round1(acc.tempSum / n),
			Condition:   mostFrequent(acc.conditions),
			Description: mostFrequent(acc.descriptions),
			Humidity:    int(math.Round(float64(acc.humiditySum) / n)),
			WindSpeed:   round1(acc.windSum / n),
		})
	}
	return forecast
}

// mostFrequent breaks ties alphabetically so summaries stay stable.
func mostFrequent(counts map[string]int) string {
	best, bestCount := "", 0
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}

type climate struct {
	tempMin, tempMax         float64
	humidityMin, humidityMax int
	conditions               []string
}

var climates = map[string]climate{
	"tropical": {25, 35, 70, 90, []string{
		"Sunny with afternoon showers", "Hot and humid", "Scattered thunderstorms", "Partly cloudy and warm"}},
	"temperate": {10, 25, 50, 70, []string{
		"Partly cloudy", "Mild and clear", "Light rain", "Overcast"}},
	"cold": {-5, 10, 40, 60, []string{
		"Snow flurries", "Cold and clear", "Overcast and chilly", "Freezing fog"}},
	"desert": {20, 40, 20, 40, []string{
		"Clear and dry", "Hot and sunny", "Dusty winds", "Cloudless"}},
}

// Substring match against the lowercased location, first hit wins.
var climateByPlace = []struct {
	substring string
	climate   string
}{
	{"bali", "tropical"}, {"bangkok", "tropical"}, {"singapore", "tropical"},
	{"rio", "tropical"}, {"cancun", "tropical"}, {"phuket", "tropical"},
	{"miami", "tropical"}, {"hawaii", "tropical"},
	{"dubai", "desert"}, {"cairo", "desert"}, {"marrakech", "desert"},
	{"phoenix", "desert"}, {"doha", "desert"},
	{"reykjavik", "cold"}, {"oslo", "cold"}, {"helsinki", "cold"},
	{"moscow", "cold"}, {"anchorage", "cold"}, {"tromso", "cold"},
}

func climateFor(location string) climate {
	lower := strings.ToLower(location)
	for _, entry := range climateByPlace {
		if strings.Contains(lower, entry.substring) {
			return climates[entry.climate]
		}
	}
	return climates["temperate"]
}

// modeledForecast produces a stable per-location, per-day forecast.
func (c *Client) modeledForecast(location string, days int) *types.WeatherForecast {
	cl := climateFor(location)

	forecast := &types.WeatherForecast{Location: location}
	today := time.Now().UTC()
	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, i).Format("2006-01-02")
		seed := hashSeed(location, date)

		tempSpread := cl.tempMax - cl.tempMin
		tempMin := cl.tempMin + tempSpread*0.2*fraction(seed)
		tempMax := cl.tempMax - tempSpread*0.2*fraction(seed>>8)
		humidity := cl.humidityMin + int(uint64(cl.humidityMax-cl.humidityMin)*(seed>>16%100)/100)
		condition := cl.conditions[seed>>24%uint64(len(cl.conditions))]

		forecast.Days = append(forecast.Days, types.WeatherDay{
			Date:        date,
			TempMin:     round1(tempMin),
			TempMax:     round1(tempMax),
			TempAvg:     round1((tempMin + tempMax) / 2),
			Condition:   condition,
			Description: condition,
			Humidity:    humidity,
			WindSpeed:   round1(5 + 15*fraction(seed>>32)),
		})
	}
	return forecast
}

func hashSeed(location, date string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(location)))
	h.Write([]byte(date))
	return h.Sum64()
}

func fraction(seed uint64) float64 {
	return float64(seed%1000) / 1000
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
