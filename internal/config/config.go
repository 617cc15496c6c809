package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/i474232898/race-weather/internal/weather"
)

type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development" validate:"oneof=development production test"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	Port        string `envconfig:"PORT" default:"8080" validate:"required,numeric"`

	// Default point shown when a request carries no coordinates.
	HomeName string  `envconfig:"HOME_NAME" default:"Zandvoort"`
	HomeLat  float64 `envconfig:"HOME_LATITUDE" default:"52.387" validate:"gte=-90,lte=90"`
	HomeLon  float64 `envconfig:"HOME_LONGITUDE" default:"4.540" validate:"gte=-180,lte=180"`

	// Upstream forecast client.
	OpenMeteoURL      string        `envconfig:"OPENMETEO_URL" default:"https://api.open-meteo.com/v1/forecast" validate:"required,url"`
	HTTPTimeout       time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s" validate:"gt=0"`
	MaxRetries        int           `envconfig:"FETCH_MAX_RETRIES" default:"5" validate:"gte=0"`
	InitialBackoff    time.Duration `envconfig:"FETCH_BACKOFF" default:"200ms" validate:"gt=0"`
	MaxBackoff        time.Duration `envconfig:"FETCH_MAX_BACKOFF" default:"5s" validate:"gtefield=InitialBackoff"`
	RequestsPerSecond float64       `envconfig:"OPENMETEO_RPS" default:"5" validate:"gt=0"`
	Burst             int           `envconfig:"OPENMETEO_BURST" default:"10" validate:"gte=1"`

	// Forecast cache. Redis is used when RedisAddr is set.
	CacheTTL        time.Duration `envconfig:"CACHE_TTL" default:"2m" validate:"gte=0"`
	CacheMaxEntries int           `envconfig:"CACHE_MAX_ENTRIES" default:"256" validate:"gte=0"`
	RedisAddr       string        `envconfig:"REDIS_ADDR"`
	RedisPassword   string        `envconfig:"REDIS_PASSWORD"`
	RedisDB         int           `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`

	// FetchInterval controls how often the home point is refreshed.
	FetchInterval time.Duration `envconfig:"FETCH_INTERVAL" default:"2m" validate:"gte=0"`

	// Rally sampling.
	StepKm           float64 `envconfig:"RALLY_STEP_KM" default:"5" validate:"gt=0"`
	RallyConcurrency int     `envconfig:"RALLY_CONCURRENCY" default:"4" validate:"gte=1"`

	DisplayTimezone string `envconfig:"DISPLAY_TIMEZONE" default:"UTC" validate:"timezone"`
	GeocoderAPIKey  string `envconfig:"GEOCODER_API_KEY"`
	MaxUploadBytes  int    `envconfig:"MAX_UPLOAD_BYTES" default:"10485760" validate:"gt=0"`
}

// Load reads configuration from .env and the environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return FromEnv()
}

// FromEnv reads and validates configuration from the process environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Home returns the default point.
func (c *AppConfig) Home() weather.Location {
	return weather.Location{Name: c.HomeName, Lat: c.HomeLat, Lon: c.HomeLon}
}

// DisplayLocation resolves DisplayTimezone.
func (c *AppConfig) DisplayLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE: %w", err)
	}
	return loc, nil
}
