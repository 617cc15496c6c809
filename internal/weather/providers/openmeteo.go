package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/race-weather/internal/weather"
)

// DefaultOpenMeteoURL is the public forecast endpoint.
const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

// Requested minutely_15 variables, in the order the payload fields are decoded.
var minutely15Variables = []string{
	"temperature_2m",
	"apparent_temperature",
	"precipitation",
	"wind_speed_10m",
	"wind_direction_10m",
	"cloud_cover_low",
	"cloud_cover_mid",
	"cloud_cover_high",
}

// OpenMeteoOptions tunes the Open-Meteo client. Zero values fall back to defaults.
type OpenMeteoOptions struct {
	BaseURL string
	Backoff BackoffConfig
	Limiter *rate.Limiter
}

// OpenMeteoProvider implements weather.Provider for Open-Meteo's 15-minute forecast.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client, opts OpenMeteoOptions) *OpenMeteoProvider {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}

	backoff := opts.Backoff
	if backoff.InitialInterval <= 0 {
		backoff = BackoffConfig{
			MaxRetries:      5,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		}
	}

	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
			Limiter: opts.Limiter,
		},
		circuit: newBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type minutely15Payload struct {
	Minutely15 struct {
		Time          []int64    `json:"time"`
		Temperature   []*float64 `json:"temperature_2m"`
		Apparent      []*float64 `json:"apparent_temperature"`
		Precipitation []*float64 `json:"precipitation"`
		WindSpeed     []*float64 `json:"wind_speed_10m"`
		WindDirection []*float64 `json:"wind_direction_10m"`
		CloudLow      []*float64 `json:"cloud_cover_low"`
		CloudMid      []*float64 `json:"cloud_cover_mid"`
		CloudHigh     []*float64 `json:"cloud_cover_high"`
	} `json:"minutely_15"`
}

func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, loc weather.Location) (weather.ForecastSeries, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(loc.Lat, 'f', 4, 64))
		values.Set("longitude", strconv.FormatFloat(loc.Lon, 'f', 4, 64))
		values.Set("minutely_15", strings.Join(minutely15Variables, ","))
		values.Set("forecast_days", "1")
		values.Set("models", "best_match")
		values.Set("timeformat", "unixtime")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload minutely15Payload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrDecode, err)
	}

	return payload.series()
}

// series zips the parallel arrays into samples. Steps with a null required
// variable are skipped; a null apparent temperature is kept as nil.
func (p minutely15Payload) series() (weather.ForecastSeries, error) {
	m := p.Minutely15
	n := len(m.Time)
	if n == 0 {
		return nil, fmt.Errorf("%w: no minutely_15 data in response", weather.ErrDecode)
	}

	columns := map[string][]*float64{
		"temperature_2m":       m.Temperature,
		"apparent_temperature": m.Apparent,
		"precipitation":        m.Precipitation,
		"wind_speed_10m":       m.WindSpeed,
		"wind_direction_10m":   m.WindDirection,
		"cloud_cover_low":      m.CloudLow,
		"cloud_cover_mid":      m.CloudMid,
		"cloud_cover_high":     m.CloudHigh,
	}
	for _, name := range minutely15Variables {
		if got := len(columns[name]); got != n {
			return nil, fmt.Errorf("%w: %s has %d values, want %d", weather.ErrDecode, name, got, n)
		}
	}

	series := make(weather.ForecastSeries, 0, n)
	for i := 0; i < n; i++ {
		if anyNil(m.Temperature[i], m.Precipitation[i], m.WindSpeed[i], m.WindDirection[i],
			m.CloudLow[i], m.CloudMid[i], m.CloudHigh[i]) {
			continue
		}

		series = append(series, weather.ForecastSample{
			Time:             time.Unix(m.Time[i], 0).UTC(),
			TemperatureC:     *m.Temperature[i],
			ApparentC:        m.Apparent[i],
			PrecipMM:         *m.Precipitation[i],
			WindSpeedKmh:     *m.WindSpeed[i],
			WindDirectionDeg: *m.WindDirection[i],
			CloudLowPct:      *m.CloudLow[i],
			CloudMidPct:      *m.CloudMid[i],
			CloudHighPct:     *m.CloudHigh[i],
		})
	}

	return series, nil
}

func anyNil(values ...*float64) bool {
	for _, v := range values {
		if v == nil {
			return true
		}
	}
	return false
}
