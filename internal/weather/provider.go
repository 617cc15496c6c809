package weather

import (
	"context"
	"time"
)

// Provider abstracts a short-range forecast source (e.g. Open-Meteo minutely_15).
type Provider interface {
	Name() string
	FetchForecast(ctx context.Context, loc Location) (ForecastSeries, error)
}

// Geocoder resolves a city/country pair into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, city, country string) (Location, error)
}

// Cache is the contract the in-memory cache (and the redis cache) must satisfy.
// A miss is reported as ok == false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (series ForecastSeries, ok bool, err error)
	Set(ctx context.Context, key string, series ForecastSeries, ttl time.Duration) error
	Purge(ctx context.Context) error
}
