package goals

import (
	"errors"
	"fmt"
	"strings"

	"fitinsight/internal/analysis"
	"fitinsight/internal/store"
)

// ErrUnknownCategory is returned for a goal category with no metric
var ErrUnknownCategory = errors.New("unknown goal category")

// Metric is the quantity a goal accumulates. It is one of
// DistanceMetric, FrequencyMetric, DurationMetric or ZoneMetric.
type Metric interface {
	Category() string
	metric()
}

// DistanceMetric accumulates distance covered
type DistanceMetric struct {
	Unit string // km, mi or m
}

// FrequencyMetric counts sessions
type FrequencyMetric struct{}

// DurationMetric accumulates moving time
type DurationMetric struct {
	Unit string // hours or minutes
}

// ZoneMetric accumulates moving time spent in one heart-rate zone
type ZoneMetric struct {
	Zone int
	Unit string // hours or minutes
}

func (DistanceMetric) Category() string  { return store.CategoryDistance }
func (FrequencyMetric) Category() string { return store.CategoryFrequency }
func (DurationMetric) Category() string  { return store.CategoryTime }
func (ZoneMetric) Category() string      { return store.CategoryZone }

func (DistanceMetric) metric()  {}
func (FrequencyMetric) metric() {}
func (DurationMetric) metric()  {}
func (ZoneMetric) metric()      {}

// MetricFor returns the metric a goal accumulates
func MetricFor(g store.Goal) (Metric, error) {
	switch g.Category {
	case store.CategoryDistance:
		return DistanceMetric{Unit: distanceUnit(g.Unit)}, nil
	case store.CategoryFrequency:
		return FrequencyMetric{}, nil
	case store.CategoryTime:
		return DurationMetric{Unit: timeUnit(g.Unit)}, nil
	case store.CategoryZone:
		if g.TargetZone < 1 {
			return nil, fmt.Errorf("zone goal %s has no target zone", g.ID)
		}
		return ZoneMetric{Zone: g.TargetZone, Unit: timeUnit(g.Unit)}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, g.Category)
}

func distanceUnit(u string) string {
	switch strings.ToLower(u) {
	case "mi", "mile", "miles":
		return "mi"
	case "m", "meter", "meters":
		return "m"
	}
	return "km"
}

func timeUnit(u string) string {
	switch strings.ToLower(u) {
	case "min", "mins", "minute", "minutes":
		return "minutes"
	}
	return "hours"
}

// Contribution returns the amount one session adds to a metric, in the metric's unit.
// Zone metrics classify the session's average heart rate with model.
func Contribution(m Metric, s store.Session, model analysis.ZoneModel) float64 {
	switch m := m.(type) {
	case DistanceMetric:
		if s.Distance == nil || *s.Distance <= 0 {
			return 0
		}
		return convertDistance(*s.Distance, m.Unit)
	case FrequencyMetric:
		return 1
	case DurationMetric:
		return convertSeconds(float64(s.MovingTime), m.Unit)
	case ZoneMetric:
		for _, sample := range analysis.SamplesFromSessions([]store.Session{s}) {
			if z := model.Classify(sample.HeartRate); z != nil && z.Number == m.Zone {
				return convertSeconds(sample.Duration, m.Unit)
			}
		}
	}
	return 0
}

func convertDistance(meters float64, unit string) float64 {
	switch unit {
	case "mi":
		return meters / 1609.344
	case "m":
		return meters
	}
	return meters / 1000
}

func convertSeconds(seconds float64, unit string) float64 {
	if seconds <= 0 {
		return 0
	}
	if unit == "minutes" {
		return seconds / 60
	}
	return seconds / 3600
}
