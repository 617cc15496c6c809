// Package route reads GPS tracks and samples them into stage waypoints.
package route

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tidwall/geodesic"
)

const (
	LabelStart  = "START"
	LabelFinish = "FINISH"
)

// ErrInvalidStep is returned when the sampling step is not a positive distance.
var ErrInvalidStep = errors.New("step_km must be a positive number")

// RoutePoint is one GPS track point in file order.
type RoutePoint struct {
	Index     int       `json:"index"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Elevation *float64  `json:"elevation,omitempty"`
	Time      time.Time `json:"time,omitempty"`
}

// Waypoint is a named point on the route used for localized forecasting.
type Waypoint struct {
	Index int     `json:"index"`
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// DistanceKm returns the WGS84 geodesic distance between two points in km.
func DistanceKm(aLat, aLon, bLat, bLon float64) float64 {
	var meters float64
	geodesic.WGS84.Inverse(aLat, aLon, bLat, bLon, &meters, nil, nil)
	return meters / 1000
}

// Sample walks points in order and emits a waypoint each time the distance
// from the last emitted point reaches stepKm. START and FINISH are always
// emitted for non-empty input, even when FINISH repeats the last waypoint.
func Sample(points []RoutePoint, stepKm float64) ([]Waypoint, error) {
	if !(stepKm > 0) || math.IsInf(stepKm, 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidStep, stepKm)
	}
	if len(points) == 0 {
		return []Waypoint{}, nil
	}

	first := points[0]
	out := []Waypoint{{Label: LabelStart, Lat: first.Lat, Lon: first.Lon}}

	anchor := first
	var cumulative float64
	for _, p := range points[1:] {
		d := DistanceKm(anchor.Lat, anchor.Lon, p.Lat, p.Lon)
		// Written so a NaN distance is never emitted.
		if !(d >= stepKm) {
			continue
		}
		cumulative += d
		out = append(out, Waypoint{
			Label: fmt.Sprintf("KM %d", int(math.Floor(cumulative))),
			Lat:   p.Lat,
			Lon:   p.Lon,
		})
		anchor = p
	}

	last := points[len(points)-1]
	out = append(out, Waypoint{Label: LabelFinish, Lat: last.Lat, Lon: last.Lon})

	for i := range out {
		out[i].Index = i
	}
	return out, nil
}
