package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fitinsight/internal/config"
	"fitinsight/internal/store"
)

// now is a Friday
var now = time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func newTestService(t *testing.T, sessions SessionRepository, goals GoalRepository, athlete config.AthleteConfig) *Service {
	t.Helper()
	svc, err := New(Config{
		Sessions: sessions,
		Goals:    goals,
		Athlete:  athlete,
		Logger:   discardLogger(),
		Now:      func() time.Time { return now },
	})
	require.NoError(t, err)
	return svc
}

// hrSession builds a run with heart rate, daysAgo days before now
func hrSession(id int64, daysAgo int, avgHR, maxHR float64) store.Session {
	dist := 8000.0
	return store.Session{
		ID:               id,
		AthleteID:        1,
		Name:             "Run",
		Sport:            "run",
		StartDate:        now.AddDate(0, 0, -daysAgo).Truncate(time.Hour),
		MovingTime:       2700,
		Distance:         &dist,
		AverageHeartrate: floatPtr(avgHR),
		MaxHeartrate:     floatPtr(maxHR),
		Source:           store.SourceManual,
	}
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return v
}
