// Package racecontrol implements the dashboard flows: a single-point
// tactical forecast, the per-waypoint rally check and the stage scan.
package racecontrol

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/race-weather/internal/common"
	"github.com/i474232898/race-weather/internal/logger"
	"github.com/i474232898/race-weather/internal/metrics"
	"github.com/i474232898/race-weather/internal/route"
	"github.com/i474232898/race-weather/internal/strategy"
	"github.com/i474232898/race-weather/internal/weather"
)

// Forecaster fetches the raw 15-minute series for a location.
type Forecaster interface {
	Forecast(ctx context.Context, loc weather.Location) (weather.ForecastSeries, error)
}

// Status describes the outcome of a point or waypoint lookup.
type Status string

const (
	StatusOK          Status = "ok"
	StatusNoData      Status = "no_data"
	StatusFetchFailed Status = "fetch_failed"
	StatusUnavailable Status = "unavailable"
)

const defaultConcurrency = 4

// Options configures a Controller. Zero values fall back to defaults.
type Options struct {
	// Concurrency bounds the waypoint fan-out.
	Concurrency int
	// Location is the display zone for time labels.
	Location *time.Location
	// Now overrides the clock.
	Now func() time.Time
	// PointPreset and ScanPreset select the threshold sets per view.
	PointPreset *strategy.Preset
	ScanPreset  *strategy.Preset
	Metrics     *metrics.Metrics
}

// Controller answers dashboard requests. It holds no per-request state.
type Controller struct {
	forecaster  Forecaster
	concurrency int
	loc         *time.Location
	now         func() time.Time
	pointPreset strategy.Preset
	scanPreset  strategy.Preset
	metrics     *metrics.Metrics
	log         *zap.SugaredLogger
}

// New creates a Controller.
func New(forecaster Forecaster, opts Options) *Controller {
	c := &Controller{
		forecaster:  forecaster,
		concurrency: opts.Concurrency,
		loc:         opts.Location,
		now:         opts.Now,
		pointPreset: strategy.Standard,
		scanPreset:  strategy.Simplified,
		metrics:     opts.Metrics,
		log:         logger.GetLogger(),
	}
	if c.concurrency <= 0 {
		c.concurrency = defaultConcurrency
	}
	if c.loc == nil {
		c.loc = time.UTC
	}
	if c.now == nil {
		c.now = time.Now
	}
	if opts.PointPreset != nil {
		c.pointPreset = *opts.PointPreset
	}
	if opts.ScanPreset != nil {
		c.scanPreset = *opts.ScanPreset
	}
	return c
}

// CurrentConditions are the KPI cards of the point view.
type CurrentConditions struct {
	Time         time.Time `json:"time"`
	RainMM       float64   `json:"rainMm"`
	Rain         string    `json:"rain"`
	WindKmh      float64   `json:"windKmh"`
	Wind         string    `json:"wind"`
	TemperatureC float64   `json:"temperatureC"`
	Temperature  string    `json:"temperature"`
}

// PointReport is the single-location tactical forecast.
type PointReport struct {
	ReportID    string              `json:"reportId"`
	Location    weather.Location    `json:"location"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Preset      string              `json:"preset"`
	Status      Status              `json:"status"`
	Error       string              `json:"error,omitempty"`
	Current     *CurrentConditions  `json:"current,omitempty"`
	Rows        []strategy.Verdict  `json:"rows"`
	RainTrend   []weather.RainPoint `json:"rainTrend"`
}

// Point builds the rolling table for one location. Fetch failures and empty
// windows are reported through Status, never as an error.
func (c *Controller) Point(ctx context.Context, loc weather.Location) PointReport {
	now := c.now().UTC()
	report := PointReport{
		ReportID:    uuid.NewString(),
		Location:    loc,
		GeneratedAt: now,
		Preset:      c.pointPreset.Name,
		Rows:        []strategy.Verdict{},
		RainTrend:   []weather.RainPoint{},
	}

	series, err := c.forecaster.Forecast(ctx, loc)
	if err != nil {
		c.log.Warnw("point forecast unavailable", "location", loc.Key(), "error", err)
		report.Status = StatusUnavailable
		report.Error = err.Error()
		return report
	}

	window := weather.SelectWindow(series, now, weather.WindowPointTimeline)
	if len(window) == 0 {
		report.Status = StatusNoData
		return report
	}

	first := window[0]
	report.Status = StatusOK
	report.Current = currentConditions(first)
	report.Rows = strategy.ClassifySeries(window, c.pointPreset, c.loc)
	report.RainTrend = window.RainTrend()
	return report
}

// WaypointResult is the rally view of one waypoint. Summary is set only
// when Status is ok.
type WaypointResult struct {
	route.Waypoint
	Status  Status            `json:"status"`
	Error   string            `json:"error,omitempty"`
	Summary *strategy.Summary `json:"summary,omitempty"`
}

// RallyReport lists waypoint results in route order.
type RallyReport struct {
	ReportID    string           `json:"reportId"`
	GeneratedAt time.Time        `json:"generatedAt"`
	StepKm      float64          `json:"stepKm"`
	Waypoints   []WaypointResult `json:"waypoints"`
	Counts      map[Status]int   `json:"counts"`
}

// Rally samples the route every stepKm and summarizes the next hour at each
// waypoint. Waypoint failures are isolated; only an invalid step fails the call.
func (c *Controller) Rally(ctx context.Context, points []route.RoutePoint, stepKm float64) (RallyReport, error) {
	waypoints, err := route.Sample(points, stepKm)
	if err != nil {
		return RallyReport{}, err
	}

	now := c.now().UTC()
	results := make([]WaypointResult, len(waypoints))

	c.fanOut(ctx, waypoints, func(ctx context.Context, i int, wp route.Waypoint) {
		res := WaypointResult{Waypoint: wp}
		series, err := c.forecaster.Forecast(ctx, waypointLocation(wp))
		if err != nil {
			res.Status = StatusFetchFailed
			res.Error = err.Error()
			results[i] = res
			return
		}

		summary, err := strategy.Summarize(weather.SelectWindow(series, now, weather.WindowPointLookahead))
		if err != nil {
			res.Status = StatusNoData
			res.Error = err.Error()
			results[i] = res
			return
		}
		res.Status = StatusOK
		res.Summary = &summary
		results[i] = res
	})

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Index < results[b].Index
	})

	report := RallyReport{
		ReportID:    uuid.NewString(),
		GeneratedAt: now,
		StepKm:      stepKm,
		Waypoints:   results,
		Counts:      map[Status]int{},
	}
	for _, r := range results {
		report.Counts[r.Status]++
		c.observe(r.Status)
	}

	c.log.Infow("rally report built",
		"waypoints", len(results), "ok", report.Counts[StatusOK],
		"no_data", report.Counts[StatusNoData], "fetch_failed", report.Counts[StatusFetchFailed])
	return report, nil
}

// ScanResult is the stage-scan timeline of one waypoint.
type ScanResult struct {
	route.Waypoint
	Status   Status             `json:"status"`
	Error    string             `json:"error,omitempty"`
	Verdicts []strategy.Verdict `json:"verdicts,omitempty"`
}

// ScanReport lists stage-scan results in route order.
type ScanReport struct {
	ReportID    string         `json:"reportId"`
	GeneratedAt time.Time      `json:"generatedAt"`
	StepKm      float64        `json:"stepKm"`
	Preset      string         `json:"preset"`
	Waypoints   []ScanResult   `json:"waypoints"`
	Counts      map[Status]int `json:"counts"`
}

// StageScan classifies the next three hours at each waypoint with the scan preset.
func (c *Controller) StageScan(ctx context.Context, points []route.RoutePoint, stepKm float64) (ScanReport, error) {
	waypoints, err := route.Sample(points, stepKm)
	if err != nil {
		return ScanReport{}, err
	}

	now := c.now().UTC()
	results := make([]ScanResult, len(waypoints))

	c.fanOut(ctx, waypoints, func(ctx context.Context, i int, wp route.Waypoint) {
		res := ScanResult{Waypoint: wp}
		series, err := c.forecaster.Forecast(ctx, waypointLocation(wp))
		if err != nil {
			res.Status = StatusFetchFailed
			res.Error = err.Error()
			results[i] = res
			return
		}

		window := weather.SelectWindow(series, now, weather.WindowRouteScan)
		if len(window) == 0 {
			res.Status = StatusNoData
			res.Error = strategy.ErrNoData.Error()
			results[i] = res
			return
		}
		res.Status = StatusOK
		res.Verdicts = strategy.ClassifySeries(window, c.scanPreset, c.loc)
		results[i] = res
	})

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Index < results[b].Index
	})

	report := ScanReport{
		ReportID:    uuid.NewString(),
		GeneratedAt: now,
		StepKm:      stepKm,
		Preset:      c.scanPreset.Name,
		Waypoints:   results,
		Counts:      map[Status]int{},
	}
	for _, r := range results {
		report.Counts[r.Status]++
		c.observe(r.Status)
	}
	return report, nil
}

// fanOut runs fn for every waypoint with bounded concurrency. fn must record
// its own outcome; it never aborts its siblings.
func (c *Controller) fanOut(ctx context.Context, waypoints []route.Waypoint, fn func(context.Context, int, route.Waypoint)) {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, wp := range waypoints {
		g.Go(func() error {
			fn(gCtx, i, wp)
			return nil
		})
	}

	// Goroutines never return errors.
	_ = g.Wait()
}

func (c *Controller) observe(s Status) {
	if c.metrics != nil {
		c.metrics.WaypointOutcomes.WithLabelValues(string(s)).Inc()
	}
}

func waypointLocation(wp route.Waypoint) weather.Location {
	return weather.Location{Name: wp.Label, Lat: wp.Lat, Lon: wp.Lon}
}

func currentConditions(s weather.ForecastSample) *CurrentConditions {
	return &CurrentConditions{
		Time:         s.Time,
		RainMM:       s.PrecipMM,
		Rain:         common.FormatFixed(s.PrecipMM, 1) + " mm",
		WindKmh:      s.WindSpeedKmh,
		Wind:         common.FormatFixed(s.WindSpeedKmh, 0) + " km/h",
		TemperatureC: s.TemperatureC,
		Temperature:  common.FormatFixed(s.TemperatureC, 1) + " °C",
	}
}
