package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitinsight/internal/analysis"
	"fitinsight/internal/config"
	"fitinsight/internal/store"
	"fitinsight/internal/strava"
)

func stravaActivity(id int64, daysAgo int, sportType string) strava.Activity {
	return strava.Activity{
		ID:               id,
		Athlete:          strava.Athlete{ID: 555},
		Name:             "Morning " + sportType,
		Type:             sportType,
		SportType:        sportType,
		StartDate:        now.AddDate(0, 0, -daysAgo),
		Distance:         10000,
		MovingTime:       3000,
		HasHeartrate:     true,
		AverageHeartrate: 148,
		MaxHeartrate:     177,
	}
}

func newTestSync(t *testing.T, st *store.Store, source ActivitySource) *SyncService {
	t.Helper()
	svc := newTestService(t, st, st, config.AthleteConfig{})
	sync, err := NewSyncService(SyncConfig{
		Source:    source,
		Sessions:  st,
		State:     st,
		Service:   svc,
		AthleteID: 1,
		Logger:    discardLogger(),
	})
	require.NoError(t, err)
	return sync
}

func TestSyncAll(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	createGoal(t, st, store.Goal{
		UserID: 1, Title: "Twice", Category: store.CategoryFrequency,
		TargetValue: floatPtr(2), CreatedAt: now.AddDate(0, 0, -30),
	})

	source := &fakeSource{activities: []strava.Activity{
		stravaActivity(101, 3, "TrailRun"),
		stravaActivity(102, 2, "VirtualRide"),
	}}
	sync := newTestSync(t, st, source)

	progress := make(chan SyncProgress, 64)
	result, err := sync.SyncAll(ctx, progress)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ActivitiesFetched)
	assert.Equal(t, 2, result.SessionsStored)
	assert.Equal(t, 2, result.LoadsComputed)
	assert.Equal(t, 1, result.GoalsUpdated)
	assert.Empty(t, result.Errors)

	var phases []string
	for p := range progress {
		require.NoError(t, p.Error)
		if len(phases) == 0 || phases[len(phases)-1] != p.Phase {
			phases = append(phases, p.Phase)
		}
	}
	assert.Equal(t, []string{PhaseActivities, PhaseLoads, PhaseProgress}, phases)

	sess, err := st.GetSession(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sess.AthleteID)
	assert.Equal(t, analysis.SportRun, sess.Sport)
	assert.Equal(t, store.SourceStrava, sess.Source)

	ride, err := st.GetSession(ctx, 102)
	require.NoError(t, err)
	assert.Equal(t, analysis.SportRide, ride.Sport)

	goalsList, err := st.ListGoals(ctx, 1)
	require.NoError(t, err)
	require.Len(t, goalsList, 1)
	assert.Equal(t, store.GoalStatusCompleted, goalsList[0].Status)

	lastSync, err := st.GetSyncState(ctx, LastSyncKey)
	require.NoError(t, err)
	_, err = time.Parse(time.RFC3339, lastSync)
	assert.NoError(t, err)

	// A second sync asks only for activities after the recorded time
	_, err = sync.SyncAll(ctx, nil)
	require.NoError(t, err)
	require.Len(t, source.afters, 2)
	assert.True(t, source.afters[0].IsZero())
	assert.False(t, source.afters[1].IsZero())
}

func TestSyncAllClassifiesProviderErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"rate limited", &strava.APIError{StatusCode: 429}, true},
		{"server error", &strava.APIError{StatusCode: 500}, true},
		{"bad credentials", &strava.APIError{StatusCode: 401}, false},
		{"timeout", context.DeadlineExceeded, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := openTestStore(t)
			sync := newTestSync(t, st, &fakeSource{err: tt.err})

			progress := make(chan SyncProgress, 16)
			_, err := sync.SyncAll(context.Background(), progress)
			require.Error(t, err)

			var ferr *FetchError
			require.True(t, errors.As(err, &ferr))
			assert.Equal(t, "fetching activities", ferr.Op)
			assert.Equal(t, tt.retryable, ferr.Retryable)

			var reported error
			for p := range progress {
				if p.Error != nil {
					reported = p.Error
				}
			}
			assert.Error(t, reported)

			lastSync, err := st.GetSyncState(context.Background(), LastSyncKey)
			require.NoError(t, err)
			assert.Empty(t, lastSync)
		})
	}
}

func TestNewSyncServiceRequiresAthlete(t *testing.T) {
	st := openTestStore(t)
	svc := newTestService(t, st, st, config.AthleteConfig{})

	_, err := NewSyncService(SyncConfig{Source: &fakeSource{}, Sessions: st, State: st, Service: svc})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestConvertActivity(t *testing.T) {
	a := stravaActivity(7, 0, "Ride")
	a.AverageWatts = 180
	a.DeviceWatts = false
	a.Calories = 650
	a.TotalElevationGain = 120
	a.StartDate = time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	a.StartDateLocal = time.Date(2024, 3, 2, 5, 0, 0, 0, time.UTC)

	sess := convertActivity(a, 3)
	assert.Equal(t, int64(3), sess.AthleteID)
	assert.Equal(t, 2, sess.LocalStart().Day(), "local start keeps the athlete's calendar day")
	assert.Equal(t, analysis.SportRide, sess.Sport)
	assert.Nil(t, sess.AveragePower, "estimated watts are dropped")
	require.NotNil(t, sess.Calories)
	assert.Equal(t, 650.0, *sess.Calories)

	a.DeviceWatts = true
	sess = convertActivity(a, 3)
	require.NotNil(t, sess.AveragePower)
	assert.Equal(t, 180.0, *sess.AveragePower)

	a.HasHeartrate = false
	sess = convertActivity(a, 3)
	assert.Nil(t, sess.AverageHeartrate)
	assert.False(t, sess.HasHeartrate())
}
