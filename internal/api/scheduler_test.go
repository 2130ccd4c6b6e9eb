package api

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunOnce(t *testing.T) {
	svc := new(MockService)
	svc.On("RecalculateLoads", mock.Anything, int64(1)).Return(12, nil).Once()
	svc.On("RecalculateAllProgress", mock.Anything, int64(1)).Return(3, nil).Once()

	s, err := NewScheduler(SchedulerConfig{Service: svc, AthleteID: 1, Schedule: "@every 6h", Logger: discardLogger()})
	require.NoError(t, err)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.False(t, s.LastRun().IsZero())
	svc.AssertExpectations(t)
}

func TestSchedulerStopsAfterLoadFailure(t *testing.T) {
	svc := new(MockService)
	svc.On("RecalculateLoads", mock.Anything, int64(1)).Return(0, errors.New("database is locked"))

	s, err := NewScheduler(SchedulerConfig{Service: svc, AthleteID: 1, Schedule: "@every 1h", Logger: discardLogger()})
	require.NoError(t, err)

	err = s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recalculating loads")
	assert.True(t, s.LastRun().IsZero())
	svc.AssertNotCalled(t, "RecalculateAllProgress", mock.Anything, mock.Anything)
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewScheduler(SchedulerConfig{Service: new(MockService), AthleteID: 1, Schedule: "every so often"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing schedule")
}

func TestSchedulerStartStop(t *testing.T) {
	s, err := NewScheduler(SchedulerConfig{Service: new(MockService), AthleteID: 1, Schedule: "@every 24h", Logger: discardLogger()})
	require.NoError(t, err)
	s.Start()
	s.Stop()
}
