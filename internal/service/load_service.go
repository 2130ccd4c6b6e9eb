package service

import (
	"context"
	"sort"
	"time"

	"fitinsight/internal/analysis"
	"fitinsight/internal/store"
)

// LoadSummary contains everything needed to show an athlete's training load
type LoadSummary struct {
	// Current fitness
	CurrentFitness  float64 `json:"fitness"` // CTL
	CurrentFatigue  float64 `json:"fatigue"` // ATL
	CurrentForm     float64 `json:"form"`    // TSB
	FormDescription string  `json:"formDescription"`

	// This week
	WeekSessionCount int     `json:"weekSessionCount"`
	WeekLoad         float64 `json:"weekLoad"`
	WeekTime         int     `json:"weekTime"` // seconds

	RecentSessions []SessionWithLoad `json:"recentSessions"`

	// For charts
	Trend        []analysis.FitnessMetrics `json:"trend"`        // last TrendHistoryDays days
	WeeklyLoads  []float64                 `json:"weeklyLoads"`  // last ChartWeeks weeks
	WeeklyLabels []string                  `json:"weeklyLabels"` // e.g. "Jan 06"

	Thresholds analysis.AthleteThresholds `json:"thresholds"`
}

// SessionWithLoad combines a session and its computed load
type SessionWithLoad struct {
	Session store.Session     `json:"session"`
	Load    store.SessionLoad `json:"load"`
}

// RecalculateLoads recomputes and stores the load of every session of a user.
// Stored values are overwritten, so repeated runs converge on the same result.
func (s *Service) RecalculateLoads(ctx context.Context, userID int64) (int, error) {
	if err := validateUserID(userID); err != nil {
		return 0, err
	}

	sessions, err := s.sessions.ListSessions(ctx, userID)
	if err != nil {
		return 0, fetchError("listing sessions", err)
	}

	updated, err := s.saveLoads(ctx, sessions, analysis.EstimateThresholds(sessions, s.overrides))
	if err != nil {
		return updated, err
	}

	s.logger.Info("session loads recalculated", "user_id", userID, "updated", updated)
	return updated, nil
}

// saveLoads computes and stores the load of each session against one set of thresholds
func (s *Service) saveLoads(ctx context.Context, sessions []store.Session, thresholds analysis.AthleteThresholds) (int, error) {
	now := s.now()
	updated := 0
	for _, sess := range sessions {
		if err := ctx.Err(); err != nil {
			return updated, fetchError("recalculating loads", err)
		}
		load := analysis.ComputeSessionLoad(sess, thresholds, now)
		if err := s.sessions.SaveSessionLoad(ctx, &load); err != nil {
			return updated, fetchError("saving session load", err)
		}
		updated++
	}
	return updated, nil
}

// GetLoadSummary builds the load report from stored session loads
func (s *Service) GetLoadSummary(ctx context.Context, userID int64) (*LoadSummary, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	sessions, loads, err := s.sessions.ListSessionsWithLoads(ctx, userID)
	if err != nil {
		return nil, fetchError("listing session loads", err)
	}

	now := s.now()
	summary := &LoadSummary{
		Thresholds: analysis.EstimateThresholds(sessions, s.overrides),
	}

	daily := analysis.DailyLoads(sessions, loads)
	if len(daily) > 0 {
		// Carry the decay forward to today
		daily = append(daily, analysis.DailyLoad{Date: analysis.Day(now), Load: 0})
		trend := analysis.CalculateFitnessTrend(daily)
		current := trend[len(trend)-1]
		summary.CurrentFitness = current.CTL
		summary.CurrentFatigue = current.ATL
		summary.CurrentForm = current.TSB
		summary.FormDescription = analysis.FormDescription(current.TSB)

		if len(trend) > TrendHistoryDays {
			trend = trend[len(trend)-TrendHistoryDays:]
		}
		summary.Trend = trend
	}

	summary.WeekSessionCount, summary.WeekLoad, summary.WeekTime = weekStats(sessions, loads, now)
	summary.WeeklyLoads, summary.WeeklyLabels = weeklyLoads(sessions, loads, now)
	summary.RecentSessions = recentSessions(sessions, loads, RecentSessionsLimit)

	return summary, nil
}

// weekStats totals the sessions of the current Monday-start week.
// Sessions are placed by their local start, compared with now's wall clock.
func weekStats(sessions []store.Session, loads []store.SessionLoad, now time.Time) (count int, load float64, seconds int) {
	monday := analysis.WeekStart(now)
	until := store.WallClock(now)
	for i, sess := range sessions {
		start := store.WallClock(sess.LocalStart())
		if start.Before(monday) || start.After(until) {
			continue
		}
		count++
		load += loads[i].NormalizedLoad
		seconds += sess.MovingTime
	}
	return count, load, seconds
}

// weeklyLoads sums normalized load per week over the last ChartWeeks weeks, oldest first
func weeklyLoads(sessions []store.Session, loads []store.SessionLoad, now time.Time) ([]float64, []string) {
	currentMonday := analysis.WeekStart(now)
	firstMonday := currentMonday.AddDate(0, 0, -7*(ChartWeeks-1))

	totals := make([]float64, ChartWeeks)
	labels := make([]string, ChartWeeks)
	for i := range labels {
		labels[i] = firstMonday.AddDate(0, 0, 7*i).Format("Jan 02")
	}

	for i, sess := range sessions {
		monday := analysis.WeekStart(sess.LocalStart())
		if monday.Before(firstMonday) || monday.After(currentMonday) {
			continue
		}
		week := int(monday.Sub(firstMonday).Hours()/24+0.5) / 7
		totals[week] += loads[i].NormalizedLoad
	}
	return totals, labels
}

// recentSessions returns up to limit sessions, newest first
func recentSessions(sessions []store.Session, loads []store.SessionLoad, limit int) []SessionWithLoad {
	result := make([]SessionWithLoad, len(sessions))
	for i := range sessions {
		result[i] = SessionWithLoad{Session: sessions[i], Load: loads[i]}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Session.StartDate.After(result[j].Session.StartDate)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}
