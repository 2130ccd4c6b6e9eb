package goals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitinsight/internal/analysis"
	"fitinsight/internal/store"
)

func floatPtr(f float64) *float64 {
	return &f
}

func testZoneModel() analysis.ZoneModel {
	// Bounds: 95 | 114 | 133 | 152 | 171 | 190
	return analysis.BuildZoneModel(analysis.ModelFiveZone, analysis.EstimateThresholds(nil, analysis.Overrides{MaxHR: 190}))
}

func TestMetricFor(t *testing.T) {
	tests := []struct {
		name     string
		goal     store.Goal
		expected Metric
	}{
		{"distance defaults to km", store.Goal{Category: store.CategoryDistance}, DistanceMetric{Unit: "km"}},
		{"distance in miles", store.Goal{Category: store.CategoryDistance, Unit: "Miles"}, DistanceMetric{Unit: "mi"}},
		{"frequency", store.Goal{Category: store.CategoryFrequency, Unit: "sessions"}, FrequencyMetric{}},
		{"time in minutes", store.Goal{Category: store.CategoryTime, Unit: "min"}, DurationMetric{Unit: "minutes"}},
		{"zone", store.Goal{Category: store.CategoryZone, TargetZone: 2, Unit: "hours"}, ZoneMetric{Zone: 2, Unit: "hours"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := MetricFor(tt.goal)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, m)
			assert.Equal(t, tt.goal.Category, m.Category())
		})
	}
}

func TestMetricForInvalid(t *testing.T) {
	_, err := MetricFor(store.Goal{Category: "elevation"})
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = MetricFor(store.Goal{ID: "g1", Category: store.CategoryZone})
	assert.Error(t, err)
}

func TestContribution(t *testing.T) {
	model := testZoneModel()
	session := store.Session{
		MovingTime:       5400,
		Distance:         floatPtr(16093.44),
		AverageHeartrate: floatPtr(120), // zone 2
	}

	tests := []struct {
		name     string
		metric   Metric
		session  store.Session
		expected float64
	}{
		{"distance km", DistanceMetric{Unit: "km"}, session, 16.09344},
		{"distance miles", DistanceMetric{Unit: "mi"}, session, 10},
		{"distance missing", DistanceMetric{Unit: "km"}, store.Session{MovingTime: 600}, 0},
		{"frequency", FrequencyMetric{}, session, 1},
		{"duration hours", DurationMetric{Unit: "hours"}, session, 1.5},
		{"duration minutes", DurationMetric{Unit: "minutes"}, session, 90},
		{"time in target zone", ZoneMetric{Zone: 2, Unit: "hours"}, session, 1.5},
		{"time in other zone", ZoneMetric{Zone: 3, Unit: "hours"}, session, 0},
		{"zone without heart rate", ZoneMetric{Zone: 2, Unit: "hours"}, store.Session{MovingTime: 3600}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Contribution(tt.metric, tt.session, model), 1e-9)
		})
	}
}

func TestContributionEmptyModel(t *testing.T) {
	session := store.Session{MovingTime: 3600, AverageHeartrate: floatPtr(120)}
	assert.Zero(t, Contribution(ZoneMetric{Zone: 2, Unit: "hours"}, session, analysis.ZoneModel{}))
}

func TestProgressFromSessions(t *testing.T) {
	created := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	target := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	goal := store.Goal{
		ID:         "g1",
		Category:   store.CategoryDistance,
		Sport:      "run",
		Unit:       "km",
		CreatedAt:  created,
		TargetDate: &target,
	}

	sessions := []store.Session{
		{ID: 1, Sport: "Run", StartDate: created.Add(-24 * time.Hour), Distance: floatPtr(5000)},   // before creation
		{ID: 2, Sport: "Run", StartDate: created.Add(-6 * time.Hour), Distance: floatPtr(8000)},    // same day, counts
		{ID: 3, Sport: "Ride", StartDate: created.Add(48 * time.Hour), Distance: floatPtr(30000)},  // other sport
		{ID: 4, Sport: "TrailRun", StartDate: created.Add(72 * time.Hour), Distance: floatPtr(12000)},
		{ID: 5, Sport: "Run", StartDate: created.Add(72 * time.Hour)},                               // no distance
		{ID: 6, Sport: "Run", StartDate: target.Add(36 * time.Hour), Distance: floatPtr(10000)},     // after target
	}

	records, err := ProgressFromSessions(goal, sessions, analysis.ZoneModel{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, int64(2), *records[0].SessionID)
	assert.Equal(t, "g1", records[0].GoalID)
	assert.InDelta(t, 8.0, records[0].Amount, 1e-9)
	assert.Equal(t, int64(4), *records[1].SessionID)
	assert.InDelta(t, 20.0, TotalProgress(records), 1e-9)
}

func TestStatusFor(t *testing.T) {
	goal := store.Goal{TargetValue: floatPtr(100), Status: store.GoalStatusActive}

	assert.Equal(t, store.GoalStatusActive, StatusFor(goal, 50))
	assert.Equal(t, store.GoalStatusCompleted, StatusFor(goal, 100))

	goal.Status = store.GoalStatusCompleted
	assert.Equal(t, store.GoalStatusActive, StatusFor(goal, 20), "completed goal reopens when progress drops")

	goal.Status = store.GoalStatusPaused
	assert.Equal(t, store.GoalStatusPaused, StatusFor(goal, 200))

	assert.Equal(t, store.GoalStatusActive, StatusFor(store.Goal{}, 1000), "goals without a target never complete")
}
