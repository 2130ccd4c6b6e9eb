package service

import (
	"context"

	"fitinsight/internal/store"
)

// SessionRepository provides an athlete's sessions and their computed loads
type SessionRepository interface {
	GetSession(ctx context.Context, id int64) (*store.Session, error)
	ListSessions(ctx context.Context, athleteID int64) ([]store.Session, error)
	UpsertSession(ctx context.Context, sess *store.Session) error
	DeleteSession(ctx context.Context, id int64) error
	SaveSessionLoad(ctx context.Context, l *store.SessionLoad) error
	GetSessionLoad(ctx context.Context, sessionID int64) (*store.SessionLoad, error)
	ListSessionsWithLoads(ctx context.Context, athleteID int64) ([]store.Session, []store.SessionLoad, error)
}

// GoalRepository provides goals and their progress records
type GoalRepository interface {
	CreateGoal(ctx context.Context, g *store.Goal) error
	GetGoal(ctx context.Context, id string) (*store.Goal, error)
	ListGoals(ctx context.Context, userID int64) ([]store.Goal, error)
	ListProgressRecords(ctx context.Context, goalID string) ([]store.ProgressRecord, error)
	AddProgressRecord(ctx context.Context, r *store.ProgressRecord) error
	ReplaceSessionProgress(ctx context.Context, goalID string, records []store.ProgressRecord) error
	UpdateGoalProgress(ctx context.Context, id string, progress float64, status string) error
}

// SyncStateRepository stores sync bookkeeping values
type SyncStateRepository interface {
	GetSyncState(ctx context.Context, key string) (string, error)
	SetSyncState(ctx context.Context, key, value string) error
}

var (
	_ SessionRepository   = (*store.Store)(nil)
	_ GoalRepository      = (*store.Store)(nil)
	_ SyncStateRepository = (*store.Store)(nil)
)
