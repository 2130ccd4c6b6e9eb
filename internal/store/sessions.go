package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const sessionColumns = `id, athlete_id, name, sport, start_date, start_date_local, moving_time, distance,
	average_heartrate, max_heartrate, average_power, calories, elevation_gain, source`

// joinedSessionColumns selects sessionColumns from the sessions table aliased s
const joinedSessionColumns = `s.id, s.athlete_id, s.name, s.sport, s.start_date, s.start_date_local, s.moving_time,
	s.distance, s.average_heartrate, s.max_heartrate, s.average_power, s.calories, s.elevation_gain, s.source`

// UpsertSession inserts or updates a session
func (s *Store) UpsertSession(ctx context.Context, sess *Session) error {
	source := sess.Source
	if source == "" {
		source = SourceManual
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			athlete_id = excluded.athlete_id,
			name = excluded.name,
			sport = excluded.sport,
			start_date = excluded.start_date,
			start_date_local = excluded.start_date_local,
			moving_time = excluded.moving_time,
			distance = excluded.distance,
			average_heartrate = excluded.average_heartrate,
			max_heartrate = excluded.max_heartrate,
			average_power = excluded.average_power,
			calories = excluded.calories,
			elevation_gain = excluded.elevation_gain,
			source = excluded.source,
			updated_at = CURRENT_TIMESTAMP
	`,
		sess.ID, sess.AthleteID, sess.Name, sess.Sport,
		sess.StartDate.UTC().Format(time.RFC3339), wallClockToNullString(sess.StartDateLocal), sess.MovingTime,
		ptrToNullFloat64(sess.Distance), ptrToNullFloat64(sess.AverageHeartrate),
		ptrToNullFloat64(sess.MaxHeartrate), ptrToNullFloat64(sess.AveragePower),
		ptrToNullFloat64(sess.Calories), ptrToNullFloat64(sess.ElevationGain),
		source,
	)
	return err
}

// GetSession retrieves a session by ID
func (s *Store) GetSession(ctx context.Context, id int64) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE id = ?
	`, id)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// ListSessions returns all sessions of an athlete ordered by start date ascending
func (s *Store) ListSessions(ctx context.Context, athleteID int64) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE athlete_id = ?
		ORDER BY start_date ASC, id ASC
	`, athleteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSessions(rows)
}

// DeleteSession removes a session and, through cascades, its load
func (s *Store) DeleteSession(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSessionNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanSession scans a single session from a row.
// Columns selected after the session's are scanned into extra.
func scanSession(row rowScanner, extra ...any) (*Session, error) {
	var sess Session
	var startDate string
	var startDateLocal sql.NullString
	var distance, avgHR, maxHR, power, calories, elevation sql.NullFloat64

	dest := []any{
		&sess.ID, &sess.AthleteID, &sess.Name, &sess.Sport, &startDate, &startDateLocal, &sess.MovingTime,
		&distance, &avgHR, &maxHR, &power, &calories, &elevation, &sess.Source,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	var err error
	sess.StartDate, err = parseTime(startDate)
	if err != nil {
		return nil, fmt.Errorf("parsing start_date %q: %w", startDate, err)
	}
	local, err := nullStringToTimePtr(startDateLocal)
	if err != nil {
		return nil, fmt.Errorf("parsing start_date_local %q: %w", startDateLocal.String, err)
	}
	if local != nil {
		sess.StartDateLocal = *local
	}
	sess.Distance = nullFloat64ToPtr(distance)
	sess.AverageHeartrate = nullFloat64ToPtr(avgHR)
	sess.MaxHeartrate = nullFloat64ToPtr(maxHR)
	sess.AveragePower = nullFloat64ToPtr(power)
	sess.Calories = nullFloat64ToPtr(calories)
	sess.ElevationGain = nullFloat64ToPtr(elevation)

	return &sess, nil
}

// scanSessions scans multiple sessions from rows
func scanSessions(rows *sql.Rows) ([]Session, error) {
	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}
