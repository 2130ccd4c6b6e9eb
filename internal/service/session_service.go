package service

import (
	"context"
	"errors"
	"fmt"

	"fitinsight/internal/store"
)

// GetSession returns one session of a user with its stored load.
// Load is zero when loads have not been computed yet.
func (s *Service) GetSession(ctx context.Context, userID, sessionID int64) (*SessionWithLoad, error) {
	sess, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	load, err := s.sessions.GetSessionLoad(ctx, sessionID)
	if err != nil {
		return nil, fetchError("getting session load", err)
	}

	result := &SessionWithLoad{Session: *sess}
	if load != nil {
		result.Load = *load
	}
	return result, nil
}

// DeleteSession removes a session of a user with its load, then refreshes the
// remaining loads and goal progress, since thresholds may have moved.
func (s *Service) DeleteSession(ctx context.Context, userID, sessionID int64) error {
	if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return err
	}

	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return fmt.Errorf("session %d: %w", sessionID, err)
		}
		return fetchError("deleting session", err)
	}
	s.logger.Info("session deleted", "session_id", sessionID, "user_id", userID)

	if _, err := s.RecalculateLoads(ctx, userID); err != nil {
		return err
	}
	_, err := s.RecalculateAllProgress(ctx, userID)
	return err
}

// ownedSession fetches a session, reporting sessions of other athletes as not found
func (s *Service) ownedSession(ctx context.Context, userID, sessionID int64) (*store.Session, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	sess, err := s.sessions.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrSessionNotFound) {
		return nil, fmt.Errorf("session %d: %w", sessionID, err)
	}
	if err != nil {
		return nil, fetchError("getting session", err)
	}
	if sess.AthleteID != userID {
		return nil, fmt.Errorf("session %d: %w", sessionID, store.ErrSessionNotFound)
	}
	return sess, nil
}
