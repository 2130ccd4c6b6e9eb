package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fitinsight/internal/analysis"
	"fitinsight/internal/store"
	"fitinsight/internal/strava"
)

// ActivitySource fetches activity summaries from a provider
type ActivitySource interface {
	GetAllActivities(ctx context.Context, after time.Time, onProgress func(fetched int)) ([]strava.Activity, error)
	RateLimitStatus() (shortRemaining, dailyRemaining int)
}

// Sync phases
const (
	PhaseActivities = "activities"
	PhaseLoads      = "loads"
	PhaseProgress   = "progress"
)

// SyncConfig configures a SyncService
type SyncConfig struct {
	Source    ActivitySource
	Sessions  SessionRepository
	State     SyncStateRepository
	Service   *Service
	AthleteID int64
	Logger    *slog.Logger
}

// SyncService orchestrates syncing sessions from Strava
type SyncService struct {
	source    ActivitySource
	sessions  SessionRepository
	state     SyncStateRepository
	service   *Service
	athleteID int64
	logger    *slog.Logger
}

// NewSyncService creates a new sync service
func NewSyncService(cfg SyncConfig) (*SyncService, error) {
	if cfg.Source == nil || cfg.Sessions == nil || cfg.State == nil || cfg.Service == nil {
		return nil, errors.New("sync service requires a source, repositories and a service")
	}
	if cfg.AthleteID <= 0 {
		return nil, &ValidationError{Field: "athleteID", Message: "must be a positive integer"}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &SyncService{
		source:    cfg.Source,
		sessions:  cfg.Sessions,
		state:     cfg.State,
		service:   cfg.Service,
		athleteID: cfg.AthleteID,
		logger:    cfg.Logger,
	}, nil
}

// SyncProgress reports progress during sync
type SyncProgress struct {
	Phase           string
	Total           int
	Completed       int
	CurrentActivity string
	Error           error
}

// SyncResult contains the results of a sync operation
type SyncResult struct {
	ActivitiesFetched int
	SessionsStored    int
	LoadsComputed     int
	GoalsUpdated      int
	Errors            []error
}

// SyncAll fetches new activities, stores them as sessions, then recomputes
// loads and goal progress
func (s *SyncService) SyncAll(ctx context.Context, progress chan<- SyncProgress) (*SyncResult, error) {
	if progress != nil {
		defer close(progress)
	}

	result := &SyncResult{}

	// Phase 1: Sync activity summaries
	if err := s.syncActivities(ctx, progress, result); err != nil {
		s.report(progress, SyncProgress{Phase: PhaseActivities, Error: err})
		return result, fmt.Errorf("syncing activities: %w", err)
	}

	// Phase 2: Recompute loads, thresholds may have moved with the new sessions
	s.report(progress, SyncProgress{Phase: PhaseLoads})
	loads, err := s.service.RecalculateLoads(ctx, s.athleteID)
	if err != nil {
		s.report(progress, SyncProgress{Phase: PhaseLoads, Error: err})
		return result, fmt.Errorf("computing loads: %w", err)
	}
	result.LoadsComputed = loads
	s.report(progress, SyncProgress{Phase: PhaseLoads, Total: loads, Completed: loads})

	// Phase 3: Goal progress
	s.report(progress, SyncProgress{Phase: PhaseProgress})
	updated, err := s.service.RecalculateAllProgress(ctx, s.athleteID)
	if err != nil {
		s.report(progress, SyncProgress{Phase: PhaseProgress, Error: err})
		return result, fmt.Errorf("computing goal progress: %w", err)
	}
	result.GoalsUpdated = updated
	s.report(progress, SyncProgress{Phase: PhaseProgress, Total: updated, Completed: updated})

	s.logger.Info("sync complete",
		"fetched", result.ActivitiesFetched,
		"stored", result.SessionsStored,
		"loads", result.LoadsComputed,
		"goals", result.GoalsUpdated,
		"errors", len(result.Errors))
	return result, nil
}

// syncActivities fetches all activities since the last sync and stores them
func (s *SyncService) syncActivities(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	lastSync, err := s.state.GetSyncState(ctx, LastSyncKey)
	if err != nil {
		return fetchError("reading sync state", err)
	}
	var after time.Time
	if lastSync != "" {
		if after, err = time.Parse(time.RFC3339, lastSync); err != nil {
			s.logger.Warn("ignoring malformed sync state", "value", lastSync, "error", err)
			after = time.Time{}
		}
	}

	// Recorded before fetching so activities uploaded mid-sync are picked up next time
	started := time.Now().UTC()

	s.report(progress, SyncProgress{Phase: PhaseActivities})
	activities, err := s.source.GetAllActivities(ctx, after, func(fetched int) {
		s.report(progress, SyncProgress{Phase: PhaseActivities, Total: fetched})
	})
	if err != nil {
		return fetchError("fetching activities", err)
	}
	result.ActivitiesFetched = len(activities)

	for i, a := range activities {
		if err := ctx.Err(); err != nil {
			return fetchError("storing sessions", err)
		}
		s.report(progress, SyncProgress{
			Phase:           PhaseActivities,
			Total:           len(activities),
			Completed:       i,
			CurrentActivity: a.Name,
		})

		sess := convertActivity(a, s.athleteID)
		if err := s.sessions.UpsertSession(ctx, sess); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("storing activity %d: %w", a.ID, err))
			continue
		}
		result.SessionsStored++
	}

	if err := s.state.SetSyncState(ctx, LastSyncKey, started.Format(time.RFC3339)); err != nil {
		return fetchError("writing sync state", err)
	}

	short, daily := s.source.RateLimitStatus()
	s.logger.Debug("activities synced",
		"after", after,
		"fetched", len(activities),
		"short_remaining", short,
		"daily_remaining", daily)
	return nil
}

func (s *SyncService) report(progress chan<- SyncProgress, p SyncProgress) {
	if progress != nil {
		progress <- p
	}
}

// RateLimitStatus returns the current rate limit status from the source
func (s *SyncService) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return s.source.RateLimitStatus()
}

// convertActivity converts a Strava API activity to a stored session
func convertActivity(a strava.Activity, athleteID int64) *store.Session {
	sess := &store.Session{
		ID:             a.ID,
		AthleteID:      athleteID,
		Name:           a.Name,
		Sport:          analysis.NormalizeSport(a.Sport()),
		StartDate:      a.StartDate.UTC(),
		StartDateLocal: a.StartDateLocal,
		MovingTime:     a.MovingTime,
		Source:         store.SourceStrava,
	}

	if a.Distance > 0 {
		sess.Distance = floatPtr(a.Distance)
	}
	if a.HasHeartrate && a.AverageHeartrate > 0 {
		sess.AverageHeartrate = floatPtr(a.AverageHeartrate)
	}
	if a.HasHeartrate && a.MaxHeartrate > 0 {
		sess.MaxHeartrate = floatPtr(a.MaxHeartrate)
	}
	// Estimated watts are too coarse for power TSS
	if a.DeviceWatts && a.AverageWatts > 0 {
		sess.AveragePower = floatPtr(a.AverageWatts)
	}
	if a.Calories > 0 {
		sess.Calories = floatPtr(a.Calories)
	}
	if a.TotalElevationGain > 0 {
		sess.ElevationGain = floatPtr(a.TotalElevationGain)
	}

	return sess
}

func floatPtr(v float64) *float64 {
	return &v
}
