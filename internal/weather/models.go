package weather

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNetwork is returned when a forecast could not be fetched (transport,
	// upstream status, open circuit, cancelled rate-limit wait).
	ErrNetwork = errors.New("forecast fetch failed")

	// ErrDecode is returned when an upstream payload does not match the expected schema.
	ErrDecode = errors.New("forecast decode failed")

	// ErrUnknownMode is returned by ParseWindowMode for unsupported window names.
	ErrUnknownMode = errors.New("unknown window mode")
)

// Location is a geographic point we fetch forecasts for.
type Location struct {
	Name string  `json:"name,omitempty"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Key returns a canonical cache key for this location, rounded to the
// precision the dashboard accepts (4 decimals, ~11m).
func (l Location) Key() string {
	return fmt.Sprintf("%.4f:%.4f", l.Lat, l.Lon)
}

// ForecastSample is one 15-minute forecast step.
type ForecastSample struct {
	Time             time.Time `json:"time"` // always UTC
	TemperatureC     float64   `json:"temperatureC"`
	ApparentC        *float64  `json:"apparentC,omitempty"`
	PrecipMM         float64   `json:"precipMm"`
	WindSpeedKmh     float64   `json:"windSpeedKmh"`
	WindDirectionDeg float64   `json:"windDirectionDeg"`
	CloudLowPct      float64   `json:"cloudLowPct"`
	CloudMidPct      float64   `json:"cloudMidPct"`
	CloudHighPct     float64   `json:"cloudHighPct"`
}

// ForecastSeries is a time-ordered sequence of samples at a fixed 15-minute
// interval. Consumers must not rely on ordering or regularity.
type ForecastSeries []ForecastSample

// RainPoint is one entry of the rain trend chart.
type RainPoint struct {
	Time     time.Time `json:"time"`
	PrecipMM float64   `json:"precipMm"`
}

// RainTrend projects the series onto (time, precipitation) pairs.
func (s ForecastSeries) RainTrend() []RainPoint {
	out := make([]RainPoint, 0, len(s))
	for _, sample := range s {
		out = append(out, RainPoint{Time: sample.Time, PrecipMM: sample.PrecipMM})
	}
	return out
}
