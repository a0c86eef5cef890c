package external

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-trip-planner/config"
	"github.com/FACorreiaa/go-trip-planner/internal/api/planner"
)

// Cache lifetimes per upstream. Geocoding results are effectively static;
// rates and place rankings drift slowly.
const (
	geocodeCacheTTL  = 24 * time.Hour
	placesCacheTTL   = 6 * time.Hour
	currencyCacheTTL = 6 * time.Hour
	weatherCacheTTL  = 30 * time.Minute
)

var _ planner.ExternalData = (*Client)(nil)

// Client aggregates every outbound data source the pipeline consults:
// geocoding, weather, attractions and exchange rates. All lookups are
// best-effort and cached in memory.
type Client struct {
	cfg        config.Config
	http       *http.Client
	cache      *cache.Cache
	placesKey  string
	weatherKey string
	userAgent  string
	logger     *slog.Logger
}

func NewClient(cfg config.Config, logger *slog.Logger) *Client {
	timeout := cfg.External.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		http:       &http.Client{Timeout: timeout},
		cache:      cache.New(geocodeCacheTTL, 30*time.Minute),
		placesKey:  os.Getenv("PLACES_API_KEY"),
		weatherKey: os.Getenv("WEATHER_API_KEY"),
		userAgent:  "go-trip-planner/1.0",
		logger:     logger,
	}
}
