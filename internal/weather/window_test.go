package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) ForecastSample {
	return ForecastSample{Time: now.Add(d), PrecipMM: d.Hours()}
}

func times(series ForecastSeries) []time.Duration {
	out := make([]time.Duration, 0, len(series))
	for _, s := range series {
		out = append(out, s.Time.Sub(now))
	}
	return out
}

func TestSelectWindowPointTimeline(t *testing.T) {
	series := ForecastSeries{
		at(-20 * time.Minute),
		at(-10 * time.Minute),
		at(time.Hour),
		at(4 * time.Hour),
	}

	got := SelectWindow(series, now, WindowPointTimeline)
	assert.Equal(t, []time.Duration{-10 * time.Minute, time.Hour}, times(got))
}

func TestSelectWindowBoundsAreInclusive(t *testing.T) {
	series := ForecastSeries{
		at(-15*time.Minute - time.Second),
		at(-15 * time.Minute),
		at(0),
		at(time.Hour),
		at(time.Hour + time.Second),
		at(3 * time.Hour),
		at(3*time.Hour + time.Second),
	}

	assert.Equal(t,
		[]time.Duration{-15 * time.Minute, 0, time.Hour, time.Hour + time.Second, 3 * time.Hour},
		times(SelectWindow(series, now, WindowPointTimeline)))

	assert.Equal(t,
		[]time.Duration{0, time.Hour},
		times(SelectWindow(series, now, WindowPointLookahead)))

	assert.Equal(t,
		[]time.Duration{0, time.Hour, time.Hour + time.Second, 3 * time.Hour},
		times(SelectWindow(series, now, WindowRouteScan)))
}

func TestSelectWindowEmpty(t *testing.T) {
	series := ForecastSeries{at(-2 * time.Hour), at(5 * time.Hour)}

	assert.Empty(t, SelectWindow(series, now, WindowPointLookahead))
	assert.Empty(t, SelectWindow(nil, now, WindowRouteScan))
	assert.Empty(t, SelectWindow(series, now, WindowMode("nowcast")))
}

func TestSelectWindowToleratesUnsortedInput(t *testing.T) {
	series := ForecastSeries{
		at(45 * time.Minute),
		at(15 * time.Minute),
		at(30 * time.Minute),
	}

	got := SelectWindow(series, now, WindowPointLookahead)
	assert.Equal(t, []time.Duration{15 * time.Minute, 30 * time.Minute, 45 * time.Minute}, times(got))

	// Input order untouched.
	assert.Equal(t, now.Add(45*time.Minute), series[0].Time)
}

func TestParseWindowMode(t *testing.T) {
	for _, s := range []string{"point-timeline", "point-lookahead", "route-scan"} {
		m, err := ParseWindowMode(s)
		require.NoError(t, err)
		assert.Equal(t, WindowMode(s), m)
	}

	_, err := ParseWindowMode("POINT-TIMELINE")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestAggregateWindow(t *testing.T) {
	_, ok := AggregateWindow(nil)
	assert.False(t, ok)

	stats, ok := AggregateWindow(ForecastSeries{
		{PrecipMM: 0.4, TemperatureC: 10, WindSpeedKmh: 5},
		{PrecipMM: 0.1, TemperatureC: 20, WindSpeedKmh: 15},
	})
	require.True(t, ok)
	assert.Equal(t, 2, stats.Samples)
	assert.Equal(t, 0.4, stats.MaxPrecipMM)
	assert.InDelta(t, 0.5, stats.TotalPrecipMM, 1e-9)
	assert.InDelta(t, 15.0, stats.MeanTempC, 1e-9)
	assert.InDelta(t, 10.0, stats.MeanWindKmh, 1e-9)
}

func TestLocationKeyAndRainTrend(t *testing.T) {
	assert.Equal(t, "52.3870:4.5400", Location{Lat: 52.387, Lon: 4.54}.Key())

	trend := ForecastSeries{at(0), at(time.Hour)}.RainTrend()
	require.Len(t, trend, 2)
	assert.Equal(t, now.Add(time.Hour), trend[1].Time)
	assert.Equal(t, 1.0, trend[1].PrecipMM)
}
