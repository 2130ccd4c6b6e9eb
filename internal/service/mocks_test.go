package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"fitinsight/internal/store"
	"fitinsight/internal/strava"
)

// MockSessionRepository is a mock type for the SessionRepository interface
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) GetSession(ctx context.Context, id int64) (*store.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Session), args.Error(1)
}

func (m *MockSessionRepository) DeleteSession(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionRepository) GetSessionLoad(ctx context.Context, sessionID int64) (*store.SessionLoad, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.SessionLoad), args.Error(1)
}

func (m *MockSessionRepository) ListSessions(ctx context.Context, athleteID int64) ([]store.Session, error) {
	args := m.Called(ctx, athleteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Session), args.Error(1)
}

func (m *MockSessionRepository) UpsertSession(ctx context.Context, sess *store.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *MockSessionRepository) SaveSessionLoad(ctx context.Context, l *store.SessionLoad) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockSessionRepository) ListSessionsWithLoads(ctx context.Context, athleteID int64) ([]store.Session, []store.SessionLoad, error) {
	args := m.Called(ctx, athleteID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]store.Session), args.Get(1).([]store.SessionLoad), args.Error(2)
}

// MockGoalRepository is a mock type for the GoalRepository interface
type MockGoalRepository struct {
	mock.Mock
}

func (m *MockGoalRepository) CreateGoal(ctx context.Context, g *store.Goal) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *MockGoalRepository) GetGoal(ctx context.Context, id string) (*store.Goal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Goal), args.Error(1)
}

func (m *MockGoalRepository) ListGoals(ctx context.Context, userID int64) ([]store.Goal, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Goal), args.Error(1)
}

func (m *MockGoalRepository) ListProgressRecords(ctx context.Context, goalID string) ([]store.ProgressRecord, error) {
	args := m.Called(ctx, goalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.ProgressRecord), args.Error(1)
}

func (m *MockGoalRepository) AddProgressRecord(ctx context.Context, r *store.ProgressRecord) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockGoalRepository) ReplaceSessionProgress(ctx context.Context, goalID string, records []store.ProgressRecord) error {
	args := m.Called(ctx, goalID, records)
	return args.Error(0)
}

func (m *MockGoalRepository) UpdateGoalProgress(ctx context.Context, id string, progress float64, status string) error {
	args := m.Called(ctx, id, progress, status)
	return args.Error(0)
}

// fakeSource serves a fixed list of activities
type fakeSource struct {
	activities []strava.Activity
	err        error
	afters     []time.Time
}

func (f *fakeSource) GetAllActivities(ctx context.Context, after time.Time, onProgress func(int)) ([]strava.Activity, error) {
	f.afters = append(f.afters, after)
	if f.err != nil {
		return nil, f.err
	}
	var out []strava.Activity
	for _, a := range f.activities {
		if a.StartDate.After(after) {
			out = append(out, a)
		}
	}
	if onProgress != nil {
		onProgress(len(out))
	}
	return out, nil
}

func (f *fakeSource) RateLimitStatus() (int, int) {
	return 100, 1000
}
