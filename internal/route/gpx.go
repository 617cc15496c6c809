package route

import (
	"errors"
	"fmt"
	"io"

	"github.com/tkrajina/gpxgo/gpx"
)

// ErrParse is returned for unreadable or empty route files.
var ErrParse = errors.New("invalid route file")

// ParseGPX reads a GPX document and returns its track points in file order.
// Files without track points fall back to their route points.
func ParseGPX(r io.Reader) ([]RoutePoint, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrParse, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrParse)
	}

	doc, err := gpx.ParseBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var points []RoutePoint
	for _, track := range doc.Tracks {
		for _, segment := range track.Segments {
			for _, p := range segment.Points {
				if points, err = appendPoint(points, p); err != nil {
					return nil, err
				}
			}
		}
	}
	if len(points) == 0 {
		for _, rte := range doc.Routes {
			for _, p := range rte.Points {
				if points, err = appendPoint(points, p); err != nil {
					return nil, err
				}
			}
		}
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no track or route points", ErrParse)
	}
	return points, nil
}

func appendPoint(points []RoutePoint, p gpx.GPXPoint) ([]RoutePoint, error) {
	if !validCoordinate(p.Latitude, p.Longitude) {
		return nil, fmt.Errorf("%w: point %d has invalid coordinates (%v, %v)",
			ErrParse, len(points), p.Latitude, p.Longitude)
	}
	rp := RoutePoint{
		Index: len(points),
		Lat:   p.Latitude,
		Lon:   p.Longitude,
		Time:  p.Timestamp,
	}
	if p.Elevation.NotNull() {
		ele := p.Elevation.Value()
		rp.Elevation = &ele
	}
	return append(points, rp), nil
}

// validCoordinate rejects NaN and out-of-range latitude/longitude.
func validCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
