// Package strategy turns forecast samples into track-condition and tire calls.
package strategy

import (
	"errors"
	"math"
	"time"

	"github.com/i474232898/race-weather/internal/common"
	"github.com/i474232898/race-weather/internal/weather"
)

const (
	// WindCoolingPerKmh is the track cooling per km/h of wind.
	WindCoolingPerKmh = 0.1

	// RainSunPenalty is the sun term used while it rains. It is clamped to
	// zero by the max(0, ...) in TrackTemperature, so it never takes effect.
	RainSunPenalty = -2.0

	// RallyRiskAboveMM is the max precipitation above which a waypoint is WET.
	RallyRiskAboveMM = 0.2

	timeLabelLayout = "15:04"
)

// ErrNoData is returned when a forecast window holds no samples.
var ErrNoData = errors.New("no forecast data in window")

// Risk is the rally waypoint risk tag.
type Risk string

const (
	RiskDry Risk = "DRY"
	RiskWet Risk = "WET"
)

// Verdict is the classified view of one forecast sample.
type Verdict struct {
	Time       time.Time `json:"time"`
	TimeLabel  string    `json:"timeLabel"`
	Condition  Condition `json:"condition"`
	RainMM     float64   `json:"rainMm"`
	Rain       string    `json:"rain"`
	AirFeel    string    `json:"airFeel"`
	TrackTempC float64   `json:"trackTempC"`
	TrackTemp  string    `json:"trackTemp"`
	Wind       string    `json:"wind"`
	Tire       Tire      `json:"tire"`
	Highlight  bool      `json:"highlight"`
}

// Summary is the aggregate risk view of a waypoint's forecast window.
type Summary struct {
	Risk        Risk    `json:"risk"`
	MaxRainMM   float64 `json:"maxRainMm"`
	MeanWindKmh float64 `json:"meanWindKmh"`
	MeanTempC   float64 `json:"meanTempC"`
	Samples     int     `json:"samples"`
	MaxRain     string  `json:"maxRain"`
	MeanWind    string  `json:"meanWind"`
	MeanTemp    string  `json:"meanTemp"`
}

// TrackTemperature estimates the road surface temperature of a sample.
func TrackTemperature(s weather.ForecastSample) float64 {
	sun := RainSunPenalty
	if s.PrecipMM == 0 {
		sun = (100 - (s.CloudLowPct+s.CloudMidPct)/2) / 10
	}
	cooling := s.WindSpeedKmh * WindCoolingPerKmh
	return s.TemperatureC + math.Max(0, sun) - cooling
}

// Classify derives the verdict for one sample under preset. loc selects the
// zone of the time label; nil means UTC. Classify is pure.
func Classify(s weather.ForecastSample, preset Preset, loc *time.Location) Verdict {
	if loc == nil {
		loc = time.UTC
	}

	track := TrackTemperature(s)
	cond, tire := preset.decide(s.PrecipMM, track)

	feel := "-"
	if s.ApparentC != nil {
		feel = common.FormatFixed(*s.ApparentC, 1)
	}

	return Verdict{
		Time:       s.Time,
		TimeLabel:  s.Time.In(loc).Format(timeLabelLayout),
		Condition:  cond,
		RainMM:     s.PrecipMM,
		Rain:       common.FormatFixed(s.PrecipMM, 1),
		AirFeel:    common.FormatFixed(s.TemperatureC, 1) + " / " + feel,
		TrackTempC: track,
		TrackTemp:  common.FormatFixed(track, 1),
		Wind:       common.FormatFixed(s.WindSpeedKmh, 0) + " km/h",
		Tire:       tire,
		Highlight:  IsWetCall(tire),
	}
}

// ClassifySeries classifies every sample in order.
func ClassifySeries(series weather.ForecastSeries, preset Preset, loc *time.Location) []Verdict {
	out := make([]Verdict, 0, len(series))
	for _, s := range series {
		out = append(out, Classify(s, preset, loc))
	}
	return out
}

// IsWetCall reports whether the tire call involves wet-weather rubber; such
// rows are highlighted on the dashboard.
func IsWetCall(t Tire) bool {
	return common.HasAny(string(t), "WET", "INTER")
}

// Summarize aggregates a waypoint window. An empty window yields ErrNoData;
// it is never reported as DRY.
func Summarize(window weather.ForecastSeries) (Summary, error) {
	stats, ok := weather.AggregateWindow(window)
	if !ok {
		return Summary{}, ErrNoData
	}

	risk := RiskDry
	if stats.MaxPrecipMM > RallyRiskAboveMM {
		risk = RiskWet
	}

	return Summary{
		Risk:        risk,
		MaxRainMM:   stats.MaxPrecipMM,
		MeanWindKmh: stats.MeanWindKmh,
		MeanTempC:   stats.MeanTempC,
		Samples:     stats.Samples,
		MaxRain:     common.FormatFixed(stats.MaxPrecipMM, 1),
		MeanWind:    common.FormatFixed(stats.MeanWindKmh, 0) + " km/h",
		MeanTemp:    common.FormatFixed(stats.MeanTempC, 1),
	}, nil
}
