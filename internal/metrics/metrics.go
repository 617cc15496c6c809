package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcome label values.
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
)

// Metrics holds the collectors exported on /metrics.
type Metrics struct {
	ForecastFetches  *prometheus.CounterVec
	FetchDuration    prometheus.Histogram
	WaypointOutcomes *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests
// to avoid duplicate registration on the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ForecastFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "raceweather_forecast_fetches_total",
			Help: "Forecast lookups by cache outcome",
		}, []string{"outcome"}),
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "raceweather_forecast_fetch_duration_seconds",
			Help:    "Time taken to fetch a forecast from the upstream provider",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		WaypointOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "raceweather_waypoint_results_total",
			Help: "Rally and stage-scan waypoint results by status",
		}, []string{"status"}),
	}
}
