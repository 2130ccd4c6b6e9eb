package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SaveSessionLoad stores the computed load for a session, replacing any previous value
func (s *Store) SaveSessionLoad(ctx context.Context, l *SessionLoad) error {
	computedAt := l.ComputedAt
	if computedAt.IsZero() {
		computedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_loads (session_id, trimp, tss, normalized_load, source, computed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			trimp = excluded.trimp,
			tss = excluded.tss,
			normalized_load = excluded.normalized_load,
			source = excluded.source,
			computed_at = excluded.computed_at
	`,
		l.SessionID, l.TRIMP, l.TSS, l.NormalizedLoad, l.Source,
		computedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// GetSessionLoad retrieves the computed load for a session.
// Returns nil, nil when the session has no load yet.
func (s *Store) GetSessionLoad(ctx context.Context, sessionID int64) (*SessionLoad, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, trimp, tss, normalized_load, source, computed_at
		FROM session_loads
		WHERE session_id = ?
	`, sessionID)

	l, err := scanLoad(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return l, err
}

// ListSessionsWithLoads retrieves an athlete's sessions that have computed loads,
// ordered by start date ascending. The two slices are index-aligned.
func (s *Store) ListSessionsWithLoads(ctx context.Context, athleteID int64) ([]Session, []SessionLoad, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+joinedSessionColumns+`,
			l.trimp, l.tss, l.normalized_load, l.source, l.computed_at
		FROM sessions s
		JOIN session_loads l ON s.id = l.session_id
		WHERE s.athlete_id = ?
		ORDER BY s.start_date ASC, s.id ASC
	`, athleteID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var sessions []Session
	var loads []SessionLoad

	for rows.Next() {
		var l SessionLoad
		var computedAt string

		sess, err := scanSession(rows, &l.TRIMP, &l.TSS, &l.NormalizedLoad, &l.Source, &computedAt)
		if err != nil {
			return nil, nil, err
		}
		l.SessionID = sess.ID
		if l.ComputedAt, err = parseTime(computedAt); err != nil {
			return nil, nil, fmt.Errorf("parsing computed_at %q: %w", computedAt, err)
		}

		sessions = append(sessions, *sess)
		loads = append(loads, l)
	}
	return sessions, loads, rows.Err()
}

func scanLoad(row rowScanner) (*SessionLoad, error) {
	var l SessionLoad
	var computedAt string
	if err := row.Scan(&l.SessionID, &l.TRIMP, &l.TSS, &l.NormalizedLoad, &l.Source, &computedAt); err != nil {
		return nil, err
	}
	t, err := parseTime(computedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing computed_at %q: %w", computedAt, err)
	}
	l.ComputedAt = t
	return &l, nil
}
