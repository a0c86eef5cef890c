package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host     string `mapstructure:"host"`
			Password string `mapstructure:"password"`
			Port     string `mapstructure:"port"`
			Username string `mapstructure:"username"`
			DB       string `mapstructure:"db"`
			SSLMode  string `mapstructure:"sslmode"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Generation struct {
		Model         string        `mapstructure:"model"`
		EmbeddingModel string       `mapstructure:"embeddingModel"`
		Temperature   float64       `mapstructure:"temperature"`
		MaxRetries    int           `mapstructure:"maxRetries"`
		RetryBackoff  time.Duration `mapstructure:"retryBackoff"`
		QueueWorkers  int           `mapstructure:"queueWorkers"`
	} `mapstructure:"generation"`
	External struct {
		NominatimURL   string        `mapstructure:"nominatimURL"`
		PlacesURL      string        `mapstructure:"placesURL"`
		WeatherURL     string        `mapstructure:"weatherURL"`
		ExchangeURL    string        `mapstructure:"exchangeURL"`
		ExchangeAltURL string        `mapstructure:"exchangeAltURL"`
		Timeout        time.Duration `mapstructure:"timeout"`
	} `mapstructure:"external"`
}

// InitConfig loads config.yml from disk when present, falling back to the
// embedded copy, with env vars overriding file values.
func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Warning: no file-based config found (%s), using embedded config\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return config, nil
}
