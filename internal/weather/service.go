package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/race-weather/internal/logger"
	"github.com/i474232898/race-weather/internal/metrics"
)

var errNoProvider = errors.New("no forecast provider configured")

// Service fronts a Provider with a caller-owned cache. It is safe for
// concurrent use as long as the Provider and Cache are.
type Service struct {
	provider Provider
	cache    Cache
	ttl      time.Duration
	metrics  *metrics.Metrics
	log      *zap.SugaredLogger
}

// NewService creates a new Service. cache and m may be nil.
func NewService(provider Provider, cache Cache, ttl time.Duration, m *metrics.Metrics) *Service {
	return &Service{
		provider: provider,
		cache:    cache,
		ttl:      ttl,
		metrics:  m,
		log:      logger.GetLogger(),
	}
}

// Forecast returns the cached series for loc if present, otherwise fetches
// and caches it. Cache failures are logged and degrade to a direct fetch.
func (s *Service) Forecast(ctx context.Context, loc Location) (ForecastSeries, error) {
	key := loc.Key()

	if s.cache != nil {
		series, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.log.Warnw("forecast cache read failed", "key", key, "error", err)
		case ok:
			s.observe(metrics.OutcomeHit)
			return series, nil
		}
	}

	s.observe(metrics.OutcomeMiss)
	return s.fetchAndCache(ctx, loc)
}

// Refresh fetches loc from the provider regardless of cache state and stores
// the result. Used by the warm-up scheduler.
func (s *Service) Refresh(ctx context.Context, loc Location) error {
	_, err := s.fetchAndCache(ctx, loc)
	return err
}

// Purge drops every cached forecast.
func (s *Service) Purge(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Purge(ctx); err != nil {
		return fmt.Errorf("purge forecast cache: %w", err)
	}
	s.log.Infow("forecast cache purged")
	return nil
}

func (s *Service) fetchAndCache(ctx context.Context, loc Location) (ForecastSeries, error) {
	if s.provider == nil {
		return nil, errNoProvider
	}

	start := time.Now()
	series, err := s.provider.FetchForecast(ctx, loc)
	if s.metrics != nil {
		s.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.observe(metrics.OutcomeError)
		s.log.Warnw("forecast fetch failed",
			"provider", s.provider.Name(), "location", loc.Key(), "error", err)
		return nil, err
	}

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.Set(ctx, loc.Key(), series, s.ttl); err != nil {
			s.log.Warnw("forecast cache write failed", "key", loc.Key(), "error", err)
		}
	}

	s.log.Debugw("forecast fetched",
		"provider", s.provider.Name(), "location", loc.Key(), "samples", len(series))
	return series, nil
}

func (s *Service) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.ForecastFetches.WithLabelValues(outcome).Inc()
	}
}
