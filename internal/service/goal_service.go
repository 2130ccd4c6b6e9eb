package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fitinsight/internal/analysis"
	"fitinsight/internal/goals"
	"fitinsight/internal/store"
)

// GetGoalAnalytics summarizes all goals of a user
func (s *Service) GetGoalAnalytics(ctx context.Context, userID int64) (*goals.Analytics, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	list, err := s.goals.ListGoals(ctx, userID)
	if err != nil {
		return nil, fetchError("listing goals", err)
	}

	analytics := goals.Analyze(list)
	return &analytics, nil
}

// GetGoalRecommendations ranks the dashboard-level recommendations across a user's goals
func (s *Service) GetGoalRecommendations(ctx context.Context, userID int64) ([]goals.DashboardRecommendation, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	list, err := s.goals.ListGoals(ctx, userID)
	if err != nil {
		return nil, fetchError("listing goals", err)
	}

	records := make(map[string][]store.ProgressRecord, len(list))
	for _, g := range list {
		recs, err := s.goals.ListProgressRecords(ctx, g.ID)
		if err != nil {
			return nil, fetchError("listing progress records", err)
		}
		records[g.ID] = recs
	}

	return goals.DashboardRecommendations(list, records, s.now()), nil
}

// GetGoalInsights computes the insight for one goal
func (s *Service) GetGoalInsights(ctx context.Context, goalID string) (*goals.Insight, error) {
	if _, err := uuid.Parse(goalID); err != nil {
		return nil, &ValidationError{Field: "goalID", Message: "must be a UUID"}
	}

	g, err := s.goals.GetGoal(ctx, goalID)
	if errors.Is(err, store.ErrGoalNotFound) {
		return nil, fmt.Errorf("goal %s: %w", goalID, err)
	}
	if err != nil {
		return nil, fetchError("getting goal", err)
	}

	records, err := s.goals.ListProgressRecords(ctx, goalID)
	if err != nil {
		return nil, fetchError("listing progress records", err)
	}

	insight := goals.GenerateInsight(*g, records, s.now())
	return &insight, nil
}

// LogProgress stores a manual progress record and refreshes the goal's progress and status.
// Manual records are kept when progress is rebuilt from sessions.
func (s *Service) LogProgress(ctx context.Context, goalID string, req ProgressRequest) (*store.Goal, error) {
	if _, err := uuid.Parse(goalID); err != nil {
		return nil, &ValidationError{Field: "goalID", Message: "must be a UUID"}
	}
	if req.Amount <= 0 {
		return nil, &ValidationError{Field: "amount", Message: "must be positive"}
	}
	date := s.now()
	if req.Date != nil {
		if req.Date.After(date) {
			return nil, &ValidationError{Field: "date", Message: "must not be in the future"}
		}
		date = *req.Date
	}

	g, err := s.goals.GetGoal(ctx, goalID)
	if errors.Is(err, store.ErrGoalNotFound) {
		return nil, fmt.Errorf("goal %s: %w", goalID, err)
	}
	if err != nil {
		return nil, fetchError("getting goal", err)
	}

	record := &store.ProgressRecord{GoalID: g.ID, ActivityDate: date, Amount: req.Amount}
	if err := s.goals.AddProgressRecord(ctx, record); err != nil {
		return nil, fetchError("adding progress record", err)
	}

	records, err := s.goals.ListProgressRecords(ctx, g.ID)
	if err != nil {
		return nil, fetchError("listing progress records", err)
	}
	progress := goals.TotalProgress(records)
	status := goals.StatusFor(*g, progress)
	if err := s.goals.UpdateGoalProgress(ctx, g.ID, progress, status); err != nil {
		return nil, fetchError("updating goal progress", err)
	}

	s.logger.Info("progress logged", "goal_id", g.ID, "amount", req.Amount, "progress", progress, "status", status)
	g.CurrentProgress = progress
	g.Status = status
	return g, nil
}

// RecalculateAllProgress rebuilds session-derived progress of every goal of a user
// and stores each goal's absolute progress and status.
// Goals whose metric cannot be built are skipped and logged.
func (s *Service) RecalculateAllProgress(ctx context.Context, userID int64) (int, error) {
	if err := validateUserID(userID); err != nil {
		return 0, err
	}

	list, err := s.goals.ListGoals(ctx, userID)
	if err != nil {
		return 0, fetchError("listing goals", err)
	}
	if len(list) == 0 {
		return 0, nil
	}

	sessions, err := s.sessions.ListSessions(ctx, userID)
	if err != nil {
		return 0, fetchError("listing sessions", err)
	}
	model := s.heartRateModel(analysis.EstimateThresholds(sessions, s.overrides))

	updated := 0
	for _, g := range list {
		if err := ctx.Err(); err != nil {
			return updated, fetchError("recalculating progress", err)
		}

		derived, err := goals.ProgressFromSessions(g, sessions, model)
		if err != nil {
			s.logger.Warn("skipping goal", "goal_id", g.ID, "title", g.Title, "error", err)
			continue
		}
		if err := s.goals.ReplaceSessionProgress(ctx, g.ID, derived); err != nil {
			return updated, fetchError("replacing goal progress", err)
		}

		all, err := s.goals.ListProgressRecords(ctx, g.ID)
		if err != nil {
			return updated, fetchError("listing progress records", err)
		}
		progress := goals.TotalProgress(all)
		status := goals.StatusFor(g, progress)
		if err := s.goals.UpdateGoalProgress(ctx, g.ID, progress, status); err != nil {
			return updated, fetchError("updating goal progress", err)
		}

		if status != g.Status {
			s.logger.Info("goal status changed", "goal_id", g.ID, "from", g.Status, "to", status)
		}
		updated++
	}

	s.logger.Info("goal progress recalculated", "user_id", userID, "updated", updated)
	return updated, nil
}

// heartRateModel returns the configured zone model, or the 5-zone model when
// the configured one is power based. Zone goals classify heart rate.
func (s *Service) heartRateModel(t analysis.AthleteThresholds) analysis.ZoneModel {
	model := analysis.BuildZoneModel(s.zoneModel, t)
	if model.Basis == analysis.BasisFTP {
		model = analysis.BuildZoneModel(analysis.ModelFiveZone, t)
	}
	return model
}
