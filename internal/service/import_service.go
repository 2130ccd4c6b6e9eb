package service

import (
	"context"
	"errors"

	"fitinsight/internal/analysis"
	"fitinsight/internal/fitfile"
	"fitinsight/internal/store"
)

// ImportResult is a stored FIT session with its load and time in zone
type ImportResult struct {
	Session      store.Session       `json:"session"`
	Load         store.SessionLoad   `json:"load"`
	Model        analysis.ZoneModel  `json:"model"`
	Distribution []analysis.ZoneTime `json:"distribution"`
	GoalsUpdated int                 `json:"goalsUpdated"`
	Replaced     bool                `json:"replaced"` // the session was imported before
}

// ImportSession stores an imported session for a user and refreshes goal progress.
// A new session can move the estimated thresholds, so the load of every session
// is recomputed against thresholds estimated from the full history.
func (s *Service) ImportSession(ctx context.Context, userID int64, imp *fitfile.Import) (*ImportResult, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if imp == nil {
		return nil, &ValidationError{Field: "file", Message: "no session to import"}
	}

	sess := imp.Session
	sess.AthleteID = userID

	_, err := s.sessions.GetSession(ctx, sess.ID)
	if err != nil && !errors.Is(err, store.ErrSessionNotFound) {
		return nil, fetchError("looking up session", err)
	}
	replaced := err == nil

	if err := s.sessions.UpsertSession(ctx, &sess); err != nil {
		return nil, fetchError("storing session", err)
	}

	sessions, err := s.sessions.ListSessions(ctx, userID)
	if err != nil {
		return nil, fetchError("listing sessions", err)
	}
	thresholds := analysis.EstimateThresholds(sessions, s.overrides)
	if _, err := s.saveLoads(ctx, sessions, thresholds); err != nil {
		return nil, err
	}
	load := analysis.ComputeSessionLoad(sess, thresholds, s.now())

	model := s.heartRateModel(thresholds)
	samples := imp.Samples
	if len(samples) == 0 {
		samples = analysis.SamplesFromSessions([]store.Session{sess})
	}

	updated, err := s.RecalculateAllProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("session imported",
		"session_id", sess.ID,
		"sport", sess.Sport,
		"load", load.NormalizedLoad,
		"load_source", load.Source,
		"replaced", replaced,
		"loads_updated", len(sessions),
		"samples", len(imp.Samples))

	return &ImportResult{
		Session:      sess,
		Load:         load,
		Model:        model,
		Distribution: model.Distribution(samples),
		GoalsUpdated: updated,
		Replaced:     replaced,
	}, nil
}
