package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fitinsight/internal/analysis"
	"fitinsight/internal/config"
	"fitinsight/internal/store"
)

func seedSessions(t *testing.T, st *store.Store, sessions ...store.Session) {
	t.Helper()
	for i := range sessions {
		require.NoError(t, st.UpsertSession(context.Background(), &sessions[i]))
	}
}

func TestRecalculateLoadsIsIdempotent(t *testing.T) {
	st := openTestStore(t)
	ride := hrSession(3, 1, 0, 0)
	ride.Sport = "ride"
	ride.AverageHeartrate, ride.MaxHeartrate = nil, nil
	ride.AveragePower = floatPtr(200)
	seedSessions(t, st, hrSession(1, 5, 150, 180), hrSession(2, 3, 140, 175), ride)

	svc := newTestService(t, st, st, config.AthleteConfig{RestingHR: 50, MaxHR: 190, FTP: 250})
	ctx := context.Background()

	n, err := svc.RecalculateLoads(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	first, err := st.GetSessionLoad(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, string(analysis.LoadSourcePower), first.Source)
	// 45 minutes at IF 0.8: 0.75h * 0.64 * 100
	assert.InDelta(t, 48, first.TSS, 1e-6)

	n, err = svc.RecalculateLoads(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, loads, err := st.ListSessionsWithLoads(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, loads, 3)

	second, err := st.GetSessionLoad(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, first.NormalizedLoad, second.NormalizedLoad)

	hr, err := st.GetSessionLoad(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, string(analysis.LoadSourceHeartRate), hr.Source)
	assert.Greater(t, hr.TRIMP, 0.0)
}

func TestRecalculateLoadsRejectsBadUser(t *testing.T) {
	sessions := new(MockSessionRepository)
	svc := newTestService(t, sessions, new(MockGoalRepository), config.AthleteConfig{})

	_, err := svc.RecalculateLoads(context.Background(), 0)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	sessions.AssertNotCalled(t, "ListSessions", mock.Anything, mock.Anything)
}

func TestGetLoadSummary(t *testing.T) {
	st := openTestStore(t)
	seedSessions(t, st,
		hrSession(1, 60, 150, 180),
		hrSession(2, 20, 150, 180),
		hrSession(3, 2, 150, 180),  // Wednesday of the current week
		hrSession(4, 0, 150, 180),  // today
		hrSession(5, 200, 150, 180), // outside the chart window
	)
	svc := newTestService(t, st, st, config.AthleteConfig{RestingHR: 50, MaxHR: 190})
	ctx := context.Background()

	_, err := svc.RecalculateLoads(ctx, 1)
	require.NoError(t, err)

	summary, err := svc.GetLoadSummary(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.WeekSessionCount)
	assert.Equal(t, 2*2700, summary.WeekTime)
	assert.Greater(t, summary.WeekLoad, 0.0)

	require.Len(t, summary.WeeklyLoads, ChartWeeks)
	require.Len(t, summary.WeeklyLabels, ChartWeeks)
	assert.Equal(t, "Mar 11", summary.WeeklyLabels[ChartWeeks-1])
	assert.InDelta(t, summary.WeekLoad, summary.WeeklyLoads[ChartWeeks-1], 1e-9)

	var charted float64
	for _, l := range summary.WeeklyLoads {
		charted += l
	}
	// Session 5 is older than the chart window
	assert.InDelta(t, 4*summary.WeekLoad/2, charted, 1e-6)

	require.Len(t, summary.RecentSessions, 5)
	assert.Equal(t, int64(4), summary.RecentSessions[0].Session.ID)
	assert.Equal(t, int64(5), summary.RecentSessions[4].Session.ID)

	require.Len(t, summary.Trend, TrendHistoryDays)
	last := summary.Trend[len(summary.Trend)-1]
	assert.Equal(t, "2024-03-15", last.Date.Format("2006-01-02"))
	assert.InDelta(t, last.CTL, summary.CurrentFitness, 1e-9)
	assert.InDelta(t, last.CTL-last.ATL, summary.CurrentForm, 1e-9)
	assert.Equal(t, analysis.FormDescription(summary.CurrentForm), summary.FormDescription)
}

func TestGetLoadSummaryWithoutLoads(t *testing.T) {
	st := openTestStore(t)
	svc := newTestService(t, st, st, config.AthleteConfig{})

	summary, err := svc.GetLoadSummary(context.Background(), 1)
	require.NoError(t, err)

	assert.Zero(t, summary.CurrentFitness)
	assert.Empty(t, summary.Trend)
	assert.Empty(t, summary.RecentSessions)
	assert.Len(t, summary.WeeklyLoads, ChartWeeks)
}

func TestWeekStatsUseLocalStart(t *testing.T) {
	sessions := []store.Session{
		// Sunday evening in UTC, Monday morning at home
		{ID: 1, StartDate: mustParse(t, "2024-03-10T20:00:00Z"), StartDateLocal: mustParse(t, "2024-03-11T07:00:00+11:00"), MovingTime: 600},
		// Monday in UTC, Sunday afternoon at home
		{ID: 2, StartDate: mustParse(t, "2024-03-11T01:00:00Z"), StartDateLocal: mustParse(t, "2024-03-10T15:00:00-10:00"), MovingTime: 900},
	}
	loads := []store.SessionLoad{{SessionID: 1, NormalizedLoad: 10}, {SessionID: 2, NormalizedLoad: 20}}

	count, load, seconds := weekStats(sessions, loads, now)
	assert.Equal(t, 1, count)
	assert.InDelta(t, 10, load, 1e-9)
	assert.Equal(t, 600, seconds)

	weekly, labels := weeklyLoads(sessions, loads, now)
	assert.Equal(t, "Mar 04", labels[ChartWeeks-2])
	assert.InDelta(t, 20, weekly[ChartWeeks-2], 1e-9)
	assert.InDelta(t, 10, weekly[ChartWeeks-1], 1e-9)
}
