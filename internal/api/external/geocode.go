package external

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// Nominatim asks for a hard 5s ceiling regardless of the general client
// timeout; geocoding is an enhancement and must never stall the pipeline.
const geocodeTimeout = 5 * time.Second

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Address     struct {
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// Geocode resolves a free-form address or city name to coordinates.
func (c *Client) Geocode(ctx context.Context, address string) (*types.GeoLocation, error) {
	ctx, span := otel.Tracer("ExternalClient").Start(ctx, "Geocode")
	defer span.End()
	span.SetAttributes(attribute.String("geocode.query", address))

	cacheKey := "geocode:" + strings.ToLower(address)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(*types.GeoLocation), nil
	}

	loc, err := c.queryNominatim(ctx, address)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Geocoding failed")
		return nil, err
	}
	if loc != nil {
		c.cache.Set(cacheKey, loc, geocodeCacheTTL)
	}
	span.SetStatus(codes.Ok, "Geocoded")
	return loc, nil
}

// GeocodePlace resolves a named place scoped to a city, falling back to the
// city alone when the scoped query finds nothing.
func (c *Client) GeocodePlace(ctx context.Context, place, city, country string) (*types.GeoLocation, error) {
	parts := []string{place}
	if city != "" {
		parts = append(parts, city)
	}
	if country != "" {
		parts = append(parts, country)
	}

	loc, err := c.Geocode(ctx, strings.Join(parts, ", "))
	if err == nil && loc != nil {
		return loc, nil
	}
	if city == "" {
		return loc, err
	}

	c.logger.DebugContext(ctx, "Scoped geocoding missed, retrying with city only",
		slog.String("place", place), slog.String("city", city))
	return c.Geocode(ctx, city)
}

func (c *Client) queryNominatim(ctx context.Context, query string) (*types.GeoLocation, error) {
	ctx, cancel := context.WithTimeout(ctx, geocodeTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/search?%s", strings.TrimRight(c.cfg.External.NominatimURL, "/"),
		url.Values{
			"q":              {query},
			"format":         {"json"},
			"limit":          {"1"},
			"addressdetails": {"1"},
		}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocoding request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode geocoding response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	r := results[0]
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoding returned malformed latitude %q", r.Lat)
	}
	lng, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoding returned malformed longitude %q", r.Lon)
	}

	city := r.Address.City
	if city == "" {
		city = r.Address.Town
	}
	if city == "" {
		city = r.Address.Village
	}

	return &types.GeoLocation{
		Lat:              lat,
		Lng:              lng,
		FormattedAddress: r.DisplayName,
		City:             city,
		Country:          r.Address.Country,
		CountryCode:      strings.ToUpper(r.Address.CountryCode),
	}, nil
}
