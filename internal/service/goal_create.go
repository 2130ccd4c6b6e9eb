package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"fitinsight/internal/analysis"
	"fitinsight/internal/goals"
	"fitinsight/internal/store"
)

// GoalRequest describes a goal to create
type GoalRequest struct {
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Sport       string     `json:"sport,omitempty"`
	TargetValue *float64   `json:"targetValue,omitempty"`
	Unit        string     `json:"unit,omitempty"`
	TargetZone  int        `json:"targetZone,omitempty"`
	TargetDate  *time.Time `json:"targetDate,omitempty"`
	Context     string     `json:"context,omitempty"`
	OnDashboard bool       `json:"onDashboard"`
}

// ProgressRequest logs manual progress towards a goal
type ProgressRequest struct {
	Amount float64    `json:"amount"`
	Date   *time.Time `json:"date,omitempty"` // defaults to now
}

// GoalWithInsight pairs a goal with its current insight
type GoalWithInsight struct {
	Goal    store.Goal    `json:"goal"`
	Insight goals.Insight `json:"insight"`
}

// CreateGoal validates and stores a new goal, then computes its progress
// from the sessions already recorded on the creation day.
// The goal is stored once the insert succeeds, so a failed progress
// computation is logged and left to the next recalculation.
func (s *Service) CreateGoal(ctx context.Context, userID int64, req GoalRequest) (*store.Goal, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	g, err := s.goalFromRequest(userID, req)
	if err != nil {
		return nil, err
	}

	if err := s.goals.CreateGoal(ctx, g); err != nil {
		return nil, fetchError("creating goal", err)
	}
	s.logger.Info("goal created", "goal_id", g.ID, "user_id", userID, "category", g.Category)

	if _, err := s.RecalculateAllProgress(ctx, userID); err != nil {
		s.logger.Warn("goal progress not computed", "goal_id", g.ID, "error", err)
		return g, nil
	}
	return g, nil
}

func (s *Service) goalFromRequest(userID int64, req GoalRequest) (*store.Goal, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Message: "must not be empty"}
	}
	if req.TargetValue != nil && *req.TargetValue <= 0 {
		return nil, &ValidationError{Field: "targetValue", Message: "must be positive"}
	}
	if req.Sport != "" && !analysis.IsKnownSport(req.Sport) {
		return nil, &ValidationError{Field: "sport", Message: "unknown sport " + req.Sport}
	}

	now := s.now()
	if req.TargetDate != nil && !req.TargetDate.After(now) {
		return nil, &ValidationError{Field: "targetDate", Message: "must be in the future"}
	}

	switch req.Context {
	case "", store.ContextDashboard, store.ContextPlan, store.ContextManual:
	default:
		return nil, &ValidationError{Field: "context", Message: "unknown context " + req.Context}
	}

	sport := ""
	if req.Sport != "" {
		sport = analysis.NormalizeSport(req.Sport)
	}

	g := &store.Goal{
		UserID:      userID,
		Title:       title,
		Category:    req.Category,
		Sport:       sport,
		Context:     req.Context,
		TargetValue: req.TargetValue,
		Unit:        req.Unit,
		TargetZone:  req.TargetZone,
		CreatedAt:   now,
		TargetDate:  req.TargetDate,
		OnDashboard: req.OnDashboard,
	}
	if _, err := goals.MetricFor(*g); err != nil {
		field := "category"
		if !errors.Is(err, goals.ErrUnknownCategory) {
			field = "targetZone"
		}
		return nil, &ValidationError{Field: field, Message: err.Error()}
	}
	return g, nil
}

// ListGoalInsights returns every goal of a user with its insight
func (s *Service) ListGoalInsights(ctx context.Context, userID int64) ([]GoalWithInsight, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	list, err := s.goals.ListGoals(ctx, userID)
	if err != nil {
		return nil, fetchError("listing goals", err)
	}

	now := s.now()
	out := make([]GoalWithInsight, 0, len(list))
	for _, g := range list {
		records, err := s.goals.ListProgressRecords(ctx, g.ID)
		if err != nil {
			return nil, fetchError("listing progress records", err)
		}
		out = append(out, GoalWithInsight{Goal: g, Insight: goals.GenerateInsight(g, records, now)})
	}
	return out, nil
}
