package analysis

import (
	"math"
	"strings"

	"fitinsight/internal/store"
)

// HRSample is a heart rate (or power) value held for a duration in seconds
type HRSample struct {
	HeartRate float64 `json:"heartRate"`
	Duration  float64 `json:"duration"`
}

// ZoneTime is the time spent in one zone
type ZoneTime struct {
	Zone         Zone    `json:"zone"`
	TotalSeconds float64 `json:"totalTime"`
	Percentage   float64 `json:"percentage"`
}

// Classify returns the zone containing value, or nil when the value is outside the model.
// A value on a shared boundary belongs to the lower-numbered zone:
// zone 1 covers [min, max] and every later zone covers (min, max].
func (m ZoneModel) Classify(value float64) *Zone {
	for i, z := range m.Zones {
		lo, hi := m.bounds(z)
		if value > hi {
			continue
		}
		if value > lo || (i == 0 && value == lo) {
			zone := z
			return &zone
		}
		return nil
	}
	return nil
}

// Distribution sums sample time per zone. Every zone is listed.
// Samples outside the model are excluded from the totals and the percentage base,
// so percentages sum to 100 over classified time only.
func (m ZoneModel) Distribution(samples []HRSample) []ZoneTime {
	if m.IsEmpty() {
		return nil
	}

	result := make([]ZoneTime, len(m.Zones))
	for i, z := range m.Zones {
		result[i].Zone = z
	}

	var classified float64
	for _, s := range samples {
		if s.Duration <= 0 || math.IsNaN(s.Duration) || math.IsInf(s.Duration, 0) {
			continue
		}
		z := m.Classify(s.HeartRate)
		if z == nil {
			continue
		}
		result[z.Number-1].TotalSeconds += s.Duration
		classified += s.Duration
	}

	if classified > 0 {
		for i := range result {
			result[i].Percentage = result[i].TotalSeconds / classified * 100
		}
	}
	return result
}

// intentZones maps workout intent keywords to a zone number
var intentZones = map[string]int{
	"recovery":  1,
	"easy":      2,
	"aerobic":   2,
	"endurance": 2,
	"long":      2,
	"tempo":     3,
	"threshold": 4,
	"lactate":   4,
	"vo2max":    5,
	"interval":  5,
	"anaerobic": 6,
	"sprint":    6,
}

// RecommendZoneFor returns the target zone for a workout intent, or nil for unknown intents.
// Targets beyond the model's highest zone are clamped to it.
func (m ZoneModel) RecommendZoneFor(intent string) *Zone {
	if m.IsEmpty() {
		return nil
	}
	n, ok := intentZones[strings.ToLower(strings.TrimSpace(intent))]
	if !ok {
		return nil
	}
	if n > len(m.Zones) {
		n = len(m.Zones)
	}
	zone := m.Zones[n-1]
	return &zone
}

// SamplesFromSessions approximates time-in-zone with one sample per session
// at its average heart rate for its moving time.
func SamplesFromSessions(sessions []store.Session) []HRSample {
	var samples []HRSample
	for _, s := range sessions {
		hr, ok := plausibleHR(s.AverageHeartrate)
		if !ok || s.MovingTime <= 0 {
			continue
		}
		samples = append(samples, HRSample{HeartRate: hr, Duration: float64(s.MovingTime)})
	}
	return samples
}
