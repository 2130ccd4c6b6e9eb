// Package fitfile imports activity FIT files as sessions with heart rate samples.
package fitfile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/tormoder/fit"

	"fitinsight/internal/analysis"
	"fitinsight/internal/store"
)

// ErrNoSession is returned when a FIT activity holds no session message
var ErrNoSession = errors.New("fit file has no session")

// MaxSampleGap is the longest gap between records still counted as continuous.
// Longer gaps are paused recording and add no time in zone.
const MaxSampleGap = 60 // seconds

// Invalid values per the FIT profile
const (
	invalidUint8  = 0xFF
	invalidUint16 = 0xFFFF
	invalidUint32 = 0xFFFFFFFF
)

// Import is a session decoded from a FIT file plus its heart rate samples
type Import struct {
	Session store.Session
	Samples []analysis.HRSample
}

// ReadFile decodes the FIT file at path
func ReadFile(path string) (*Import, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening fit file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a FIT activity file
func Read(r io.Reader) (*Import, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding fit file: %w", err)
	}

	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("reading fit activity: %w", err)
	}
	if len(activity.Sessions) == 0 {
		return nil, ErrNoSession
	}

	imp := FromMessages(activity.Sessions[0], activity.Records)
	if offset, ok := localOffset(activity.Activity); ok {
		imp.Session.StartDateLocal = imp.Session.StartDate.Add(offset)
	}
	return imp, nil
}

// localOffset returns the device's UTC offset from the activity message.
// The FIT local timestamp is the activity timestamp read on the local clock.
func localOffset(msg *fit.ActivityMsg) (time.Duration, bool) {
	if msg == nil {
		return 0, false
	}
	unset := fit.NewActivityMsg()
	if msg.Timestamp.Equal(unset.Timestamp) || msg.LocalTimestamp.Equal(unset.LocalTimestamp) {
		return 0, false
	}
	offset := msg.LocalTimestamp.Sub(msg.Timestamp)
	// Real offsets lie within a day and on a quarter hour
	if offset <= -24*time.Hour || offset >= 24*time.Hour {
		return 0, false
	}
	return offset.Round(15 * time.Minute), true
}

// FromMessages converts a session message and its records into an Import.
// The session ID is derived from the start time so re-importing a file upserts
// the same session; it is negative to stay clear of provider IDs.
func FromMessages(msg *fit.SessionMsg, records []*fit.RecordMsg) *Import {
	start := msg.StartTime.UTC()
	sport := analysis.NormalizeSport(msg.Sport.String())

	sess := store.Session{
		ID:        -start.Unix(),
		Name:      sessionName(sport, msg),
		Sport:     sport,
		StartDate: start,
		Source:    store.SourceFIT,
	}

	// Raw FIT scaling: total_timer_time is ms, total_distance is cm
	if msg.TotalTimerTime != invalidUint32 {
		sess.MovingTime = int(msg.TotalTimerTime / 1000)
	}
	if msg.TotalDistance != invalidUint32 && msg.TotalDistance > 0 {
		sess.Distance = floatPtr(float64(msg.TotalDistance) / 100)
	}
	if msg.AvgPower != invalidUint16 && msg.AvgPower > 0 {
		sess.AveragePower = floatPtr(float64(msg.AvgPower))
	}
	if msg.TotalCalories != invalidUint16 && msg.TotalCalories > 0 {
		sess.Calories = floatPtr(float64(msg.TotalCalories))
	}
	if msg.TotalAscent != invalidUint16 {
		sess.ElevationGain = floatPtr(float64(msg.TotalAscent))
	}

	samples := heartRateSamples(records)

	// Prefer the device's summary values and fall back to the records
	if msg.AvgHeartRate != invalidUint8 && msg.AvgHeartRate > 0 {
		sess.AverageHeartrate = floatPtr(float64(msg.AvgHeartRate))
	} else if avg, ok := weightedAverage(samples); ok {
		sess.AverageHeartrate = floatPtr(math.Round(avg))
	}
	if msg.MaxHeartRate != invalidUint8 && msg.MaxHeartRate > 0 {
		sess.MaxHeartrate = floatPtr(float64(msg.MaxHeartRate))
	} else if peak, ok := maxHeartRate(records); ok {
		sess.MaxHeartrate = floatPtr(peak)
	}

	return &Import{Session: sess, Samples: samples}
}

// heartRateSamples holds each record's heart rate until the next record
func heartRateSamples(records []*fit.RecordMsg) []analysis.HRSample {
	var samples []analysis.HRSample
	for i := 0; i+1 < len(records); i++ {
		cur, next := records[i], records[i+1]
		if cur == nil || next == nil || !validHR(cur.HeartRate) {
			continue
		}
		gap := next.Timestamp.Sub(cur.Timestamp).Seconds()
		if gap <= 0 || gap > MaxSampleGap {
			continue
		}
		samples = append(samples, analysis.HRSample{HeartRate: float64(cur.HeartRate), Duration: gap})
	}
	return samples
}

func weightedAverage(samples []analysis.HRSample) (float64, bool) {
	var sum, total float64
	for _, s := range samples {
		sum += s.HeartRate * s.Duration
		total += s.Duration
	}
	if total == 0 {
		return 0, false
	}
	return sum / total, true
}

func maxHeartRate(records []*fit.RecordMsg) (float64, bool) {
	var peak uint8
	for _, r := range records {
		if r != nil && validHR(r.HeartRate) && r.HeartRate > peak {
			peak = r.HeartRate
		}
	}
	return float64(peak), peak > 0
}

func validHR(hr uint8) bool {
	return hr != 0 && hr != invalidUint8
}

func sessionName(sport string, msg *fit.SessionMsg) string {
	if msg.StartTime.IsZero() {
		return "Imported " + sport
	}
	return fmt.Sprintf("Imported %s %s", sport, msg.StartTime.UTC().Format("2006-01-02 15:04"))
}

func floatPtr(v float64) *float64 {
	return &v
}
