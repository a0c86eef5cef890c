package types

// WeatherDay is one day of forecast data.
type WeatherDay struct {
	Date        string  `json:"date"`
	TempMin     float64 `json:"temp_min"`
	TempMax     float64 `json:"temp_max"`
	TempAvg     float64 `json:"temp_avg"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
}

type WeatherForecast struct {
	Location string       `json:"location"`
	Days     []WeatherDay `json:"days"`
}

// GeoLocation is a geocoding result.
type GeoLocation struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formatted_address"`
	City             string  `json:"city,omitempty"`
	Country          string  `json:"country,omitempty"`
	CountryCode      string  `json:"country_code,omitempty"`
}

// Place is one nearby-search result, used to build attraction context.
type Place struct {
	Name             string   `json:"name"`
	Address          string   `json:"address,omitempty"`
	Lat              float64  `json:"lat"`
	Lng              float64  `json:"lng"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	Categories       []string `json:"categories,omitempty"`
}

// KnowledgeDocument is one vector-store search hit.
type KnowledgeDocument struct {
	ID         string                 `json:"id"`
	Collection string                 `json:"collection"`
	Document   string                 `json:"document"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Similarity float64                `json:"similarity"`
}
