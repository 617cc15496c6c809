package weather

// WindowStats holds the aggregate values of a forecast window.
type WindowStats struct {
	Samples       int
	MaxPrecipMM   float64
	MeanTempC     float64
	MeanWindKmh   float64
	TotalPrecipMM float64
}

// AggregateWindow folds a series into its max precipitation and mean
// temperature and wind. ok is false for an empty series; callers must not
// treat the zero WindowStats as a real reading.
func AggregateWindow(series ForecastSeries) (stats WindowStats, ok bool) {
	if len(series) == 0 {
		return WindowStats{}, false
	}

	var sumTemp, sumWind float64
	stats.MaxPrecipMM = series[0].PrecipMM

	for _, s := range series {
		sumTemp += s.TemperatureC
		sumWind += s.WindSpeedKmh
		stats.TotalPrecipMM += s.PrecipMM
		if s.PrecipMM > stats.MaxPrecipMM {
			stats.MaxPrecipMM = s.PrecipMM
		}
	}

	n := float64(len(series))
	stats.Samples = len(series)
	stats.MeanTempC = sumTemp / n
	stats.MeanWindKmh = sumWind / n
	return stats, true
}
