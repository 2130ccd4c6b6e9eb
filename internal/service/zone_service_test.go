package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fitinsight/internal/analysis"
	"fitinsight/internal/config"
	"fitinsight/internal/store"
)

func TestCustomZoneAnalysisValidatesBeforeFetching(t *testing.T) {
	tests := []struct {
		name   string
		userID int64
		req    ZoneRequest
		field  string
	}{
		{"zero user", 0, ZoneRequest{}, "userID"},
		{"negative user", -4, ZoneRequest{}, "userID"},
		{"max hr too low", 1, ZoneRequest{MaxHeartRate: floatPtr(40)}, "maxHeartRate"},
		{"max hr too high", 1, ZoneRequest{MaxHeartRate: floatPtr(260)}, "maxHeartRate"},
		{"unknown model", 1, ZoneRequest{ZoneModel: "7-zone"}, "zoneModel"},
		{"unknown sport", 1, ZoneRequest{SportFilter: "curling"}, "sportFilter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := new(MockSessionRepository)
			svc := newTestService(t, sessions, new(MockGoalRepository), config.AthleteConfig{})

			_, err := svc.CustomZoneAnalysis(context.Background(), tt.userID, tt.req)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			sessions.AssertNotCalled(t, "ListSessions", mock.Anything, mock.Anything)
		})
	}
}

func TestGetZoneAnalysisFetchError(t *testing.T) {
	sessions := new(MockSessionRepository)
	sessions.On("ListSessions", mock.Anything, int64(1)).Return(nil, context.DeadlineExceeded)
	svc := newTestService(t, sessions, new(MockGoalRepository), config.AthleteConfig{})

	_, err := svc.GetZoneAnalysis(context.Background(), 1)

	var ferr *FetchError
	require.True(t, errors.As(err, &ferr))
	assert.True(t, ferr.Retryable)
	assert.Equal(t, "listing sessions", ferr.Op)
	sessions.AssertExpectations(t)
}

func TestGetZoneAnalysisEmptyHistory(t *testing.T) {
	sessions := new(MockSessionRepository)
	sessions.On("ListSessions", mock.Anything, int64(1)).Return([]store.Session{}, nil)
	svc := newTestService(t, sessions, new(MockGoalRepository), config.AthleteConfig{})

	result, err := svc.GetZoneAnalysis(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, analysis.QualityNone, result.Overall.DataQuality)
	assert.Equal(t, analysis.ConfidenceLow, result.Confidence)
	assert.True(t, result.NeedsMoreData)
	assert.NotEmpty(t, result.Recommendations)
	assert.False(t, result.Custom)
}

func TestGetZoneAnalysisUsesConfiguredThresholds(t *testing.T) {
	var history []store.Session
	for i := 0; i < 12; i++ {
		history = append(history, hrSession(int64(i+1), i*2, 145, 176))
	}
	sessions := new(MockSessionRepository)
	sessions.On("ListSessions", mock.Anything, int64(1)).Return(history, nil)
	svc := newTestService(t, sessions, new(MockGoalRepository), config.AthleteConfig{MaxHR: 190})

	result, err := svc.GetZoneAnalysis(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 190.0, result.Thresholds.MaxHR.Value)
	assert.Equal(t, analysis.SourceMeasured, result.Thresholds.MaxHR.Source)
	assert.Equal(t, analysis.ModelFiveZone, result.SuggestedModel.Kind)
	assert.Equal(t, 190, result.SuggestedModel.Zones[4].MaxHR)
}

func TestCustomZoneAnalysis(t *testing.T) {
	ride := hrSession(99, 1, 130, 160)
	ride.Sport = "ride"
	history := []store.Session{hrSession(1, 3, 150, 182), hrSession(2, 2, 148, 179), ride}

	sessions := new(MockSessionRepository)
	sessions.On("ListSessions", mock.Anything, int64(7)).Return(history, nil)
	svc := newTestService(t, sessions, new(MockGoalRepository), config.AthleteConfig{})

	result, err := svc.CustomZoneAnalysis(context.Background(), 7, ZoneRequest{
		MaxHeartRate: floatPtr(190),
		ZoneModel:    "3-Zone",
		SportFilter:  "TrailRun",
	})
	require.NoError(t, err)

	assert.True(t, result.Custom)
	assert.Equal(t, analysis.ModelThreeZone, result.SuggestedModel.Kind)
	assert.Equal(t, 190.0, result.Thresholds.MaxHR.Value)
	assert.Equal(t, 2, result.Overall.TotalSessions)
	require.Len(t, result.SportBreakdowns, 1)
	assert.Equal(t, analysis.SportRun, result.SportBreakdowns[0].Sport)
}
