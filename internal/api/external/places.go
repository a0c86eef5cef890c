package external

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

const attractionsRadiusMeters = 10000

type placesResponse struct {
	Results []struct {
		Name     string `json:"name"`
		Vicinity string `json:"vicinity"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		Rating           float64  `json:"rating"`
		UserRatingsTotal int      `json:"user_ratings_total"`
		Types            []string `json:"types"`
	} `json:"results"`
	Status string `json:"status"`
}

// TopAttractions looks up tourist attractions around the city center, ranked
// by rating weighted with review volume. Without an API key the lookup is a
// silent no-op so the pipeline still runs in development.
func (c *Client) TopAttractions(ctx context.Context, city string, limit int) ([]types.Place, error) {
	ctx, span := otel.Tracer("ExternalClient").Start(ctx, "TopAttractions")
	defer span.End()
	span.SetAttributes(attribute.String("city", city), attribute.Int("limit", limit))

	if c.placesKey == "" {
		span.SetStatus(codes.Ok, "No places API key configured")
		return nil, nil
	}

	cacheKey := fmt.Sprintf("places:%s:%d", strings.ToLower(city), limit)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]types.Place), nil
	}

	center, err := c.Geocode(ctx, city)
	if err != nil || center == nil {
		c.logger.WarnContext(ctx, "Cannot locate city center for attraction search",
			slog.String("city", city), slog.Any("error", err))
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/nearbysearch/json?%s", strings.TrimRight(c.cfg.External.PlacesURL, "/"),
		url.Values{
			"location": {fmt.Sprintf("%f,%f", center.Lat, center.Lng)},
			"radius":   {fmt.Sprintf("%d", attractionsRadiusMeters)},
			"type":     {"tourist_attraction"},
			"key":      {c.placesKey},
		}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build places request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("places request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places search returned status %d", resp.StatusCode)
	}

	var body placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode places response: %w", err)
	}

	places := make([]types.Place, 0, len(body.Results))
	for _, r := range body.Results {
		places = append(places, types.Place{
			Name:             r.Name,
			Address:          r.Vicinity,
			Lat:              r.Geometry.Location.Lat,
			Lng:              r.Geometry.Location.Lng,
			Rating:           r.Rating,
			UserRatingsTotal: r.UserRatingsTotal,
			Categories:       r.Types,
		})
	}

	sort.SliceStable(places, func(i, j int) bool {
		return placeScore(places[i]) > placeScore(places[j])
	})
	if limit > 0 && len(places) > limit {
		places = places[:limit]
	}

	c.cache.Set(cacheKey, places, placesCacheTTL)
	span.SetStatus(codes.Ok, "Attractions fetched")
	span.SetAttributes(attribute.Int("places.count", len(places)))
	return places, nil
}

// placeScore ranks by rating weighted with review volume so a 4.5 with
// thousands of reviews beats a lone 5.0.
func placeScore(p types.Place) float64 {
	return p.Rating * float64(1+p.UserRatingsTotal)
}
