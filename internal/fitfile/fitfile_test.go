package fitfile

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tormoder/fit"

	"fitinsight/internal/analysis"
	"fitinsight/internal/store"
)

var start = time.Date(2024, 3, 10, 7, 30, 0, 0, time.UTC)

func record(offset int, hr uint8) *fit.RecordMsg {
	r := fit.NewRecordMsg()
	r.Timestamp = start.Add(time.Duration(offset) * time.Second)
	r.HeartRate = hr
	return r
}

func runSession() *fit.SessionMsg {
	msg := fit.NewSessionMsg()
	msg.StartTime = start
	msg.Sport = fit.SportRunning
	msg.TotalTimerTime = 1800 * 1000
	msg.TotalDistance = 6000 * 100
	msg.AvgHeartRate = 150
	msg.MaxHeartRate = 172
	msg.TotalCalories = 420
	msg.TotalAscent = 35
	return msg
}

func TestFromMessagesSession(t *testing.T) {
	imp := FromMessages(runSession(), nil)
	s := imp.Session

	assert.Equal(t, -start.Unix(), s.ID)
	assert.Equal(t, analysis.SportRun, s.Sport)
	assert.Equal(t, store.SourceFIT, s.Source)
	assert.Equal(t, start, s.StartDate)
	assert.Equal(t, 1800, s.MovingTime)
	require.NotNil(t, s.Distance)
	assert.InDelta(t, 6000, *s.Distance, 1e-9)
	require.NotNil(t, s.AverageHeartrate)
	assert.InDelta(t, 150, *s.AverageHeartrate, 1e-9)
	require.NotNil(t, s.MaxHeartrate)
	assert.InDelta(t, 172, *s.MaxHeartrate, 1e-9)
	assert.Nil(t, s.AveragePower)
	require.NotNil(t, s.Calories)
	assert.InDelta(t, 420, *s.Calories, 1e-9)
	assert.Contains(t, s.Name, "2024-03-10 07:30")
	assert.Empty(t, imp.Samples)
}

func TestFromMessagesInvalidSummaryFallsBackToRecords(t *testing.T) {
	msg := fit.NewSessionMsg()
	msg.StartTime = start
	msg.Sport = fit.SportCycling
	msg.AvgPower = 210

	records := []*fit.RecordMsg{
		record(0, 120),
		record(10, 140),
		record(40, 0xFF), // dropped sensor
		record(50, 160),
		record(60, 150),
	}
	imp := FromMessages(msg, records)
	s := imp.Session

	assert.Equal(t, analysis.SportRide, s.Sport)
	assert.Equal(t, 0, s.MovingTime)
	assert.Nil(t, s.Distance)
	assert.Nil(t, s.Calories)
	require.NotNil(t, s.AveragePower)
	assert.InDelta(t, 210, *s.AveragePower, 1e-9)

	require.Len(t, imp.Samples, 3)
	assert.Equal(t, analysis.HRSample{HeartRate: 120, Duration: 10}, imp.Samples[0])
	assert.Equal(t, analysis.HRSample{HeartRate: 140, Duration: 30}, imp.Samples[1])
	assert.Equal(t, analysis.HRSample{HeartRate: 160, Duration: 10}, imp.Samples[2])

	// (120*10 + 140*30 + 160*10) / 50 = 140
	require.NotNil(t, s.AverageHeartrate)
	assert.InDelta(t, 140, *s.AverageHeartrate, 1e-9)
	require.NotNil(t, s.MaxHeartrate)
	assert.InDelta(t, 160, *s.MaxHeartrate, 1e-9)
}

func TestHeartRateSamplesSkipsPauses(t *testing.T) {
	records := []*fit.RecordMsg{
		record(0, 130),
		record(5, 132),
		record(5+MaxSampleGap+1, 135), // resumed after a pause
		record(5+MaxSampleGap+6, 138),
	}

	samples := heartRateSamples(records)
	require.Len(t, samples, 2)
	assert.Equal(t, 130.0, samples[0].HeartRate)
	assert.Equal(t, 135.0, samples[1].HeartRate)
}

func TestSamplesClassifyIntoZones(t *testing.T) {
	records := []*fit.RecordMsg{
		record(0, 100),
		record(60, 130),
		record(120, 170),
		record(180, 170),
	}
	imp := FromMessages(runSession(), records)

	model := analysis.BuildZoneModel(analysis.ModelFiveZone, analysis.AthleteThresholds{
		MaxHR: analysis.Threshold{Value: 190, Source: analysis.SourceMeasured},
	})
	dist := model.Distribution(imp.Samples)
	require.Len(t, dist, 5)

	var total float64
	for _, zt := range dist {
		total += zt.TotalSeconds
	}
	assert.InDelta(t, 180, total, 1e-9)
	// Bounds at max 190: 95, 114, 133, 152, 171, 190
	assert.InDelta(t, 60, dist[0].TotalSeconds, 1e-9)
	assert.InDelta(t, 60, dist[1].TotalSeconds, 1e-9)
	assert.InDelta(t, 60, dist[3].TotalSeconds, 1e-9)
	assert.InDelta(t, 0, dist[4].TotalSeconds, 1e-9)
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("definitely not a fit file")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding fit file")
}

func TestLocalOffset(t *testing.T) {
	at := time.Date(2024, 3, 5, 22, 0, 0, 0, time.UTC)
	activity := func(local time.Time) *fit.ActivityMsg {
		msg := fit.NewActivityMsg()
		msg.Timestamp = at
		msg.LocalTimestamp = local
		return msg
	}

	tests := []struct {
		name   string
		msg    *fit.ActivityMsg
		offset time.Duration
		ok     bool
	}{
		{"no activity message", nil, 0, false},
		{"local timestamp unset", fit.NewActivityMsg(), 0, false},
		{"sydney", activity(at.Add(11 * time.Hour)), 11 * time.Hour, true},
		{"new york", activity(at.Add(-5 * time.Hour)), -5 * time.Hour, true},
		{"rounded to quarter hour", activity(at.Add(5*time.Hour + 30*time.Minute + 2*time.Second)), 5*time.Hour + 30*time.Minute, true},
		{"implausible", activity(at.Add(30 * time.Hour)), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, ok := localOffset(tt.msg)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.offset, offset)
		})
	}
}
