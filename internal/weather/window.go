package weather

import (
	"sort"
	"time"
)

// WindowMode names an operational forecast horizon.
type WindowMode string

const (
	// WindowPointTimeline is the single-location rolling table: a 15 minute
	// grace period behind now and three hours ahead.
	WindowPointTimeline WindowMode = "point-timeline"
	// WindowPointLookahead is the per-waypoint rally check: the next hour.
	WindowPointLookahead WindowMode = "point-lookahead"
	// WindowRouteScan is the stage scan: the next three hours.
	WindowRouteScan WindowMode = "route-scan"
)

// ParseWindowMode validates a mode name.
func ParseWindowMode(s string) (WindowMode, error) {
	switch m := WindowMode(s); m {
	case WindowPointTimeline, WindowPointLookahead, WindowRouteScan:
		return m, nil
	default:
		return "", ErrUnknownMode
	}
}

// bounds returns the inclusive [from, to] range for the mode.
func (m WindowMode) bounds(now time.Time) (from, to time.Time, ok bool) {
	switch m {
	case WindowPointTimeline:
		return now.Add(-15 * time.Minute), now.Add(3 * time.Hour), true
	case WindowPointLookahead:
		return now, now.Add(time.Hour), true
	case WindowRouteScan:
		return now, now.Add(3 * time.Hour), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// SelectWindow returns the samples of series whose timestamps fall inside the
// mode's horizon relative to now, ordered by time. An empty result means
// "no data" and is not an error. The input is not modified.
func SelectWindow(series ForecastSeries, now time.Time, mode WindowMode) ForecastSeries {
	from, to, ok := mode.bounds(now)
	if !ok {
		return nil
	}

	var out ForecastSeries
	for _, s := range series {
		if s.Time.Before(from) || s.Time.After(to) {
			continue
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}
