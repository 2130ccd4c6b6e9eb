package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AddProgressRecord appends a manual contribution to a goal.
// ActivityDate is stored as its local wall clock.
func (s *Store) AddProgressRecord(ctx context.Context, r *ProgressRecord) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goal_progress (id, goal_id, activity_date, amount, value_achieved, session_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		r.ID, r.GoalID, WallClock(r.ActivityDate).Format(time.RFC3339), r.Amount,
		ptrToNullFloat64(r.ValueAchieved), ptrToNullInt64(r.SessionID),
	)
	return err
}

// ReplaceSessionProgress atomically replaces every session-derived record of a goal
// with records. Manual records are kept.
func (s *Store) ReplaceSessionProgress(ctx context.Context, goalID string, records []ProgressRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM goal_progress WHERE goal_id = ? AND session_id IS NOT NULL
	`, goalID); err != nil {
		return fmt.Errorf("clearing session progress: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO goal_progress (id, goal_id, activity_date, amount, value_achieved, session_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(goal_id, session_id) DO UPDATE SET
			activity_date = excluded.activity_date,
			amount = excluded.amount,
			value_achieved = excluded.value_achieved
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		id := r.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx,
			id, goalID, WallClock(r.ActivityDate).Format(time.RFC3339), r.Amount,
			ptrToNullFloat64(r.ValueAchieved), ptrToNullInt64(r.SessionID),
		); err != nil {
			return fmt.Errorf("inserting progress record: %w", err)
		}
	}

	return tx.Commit()
}

// ListProgressRecords returns a goal's records ordered by activity date
func (s *Store) ListProgressRecords(ctx context.Context, goalID string) ([]ProgressRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, goal_id, activity_date, amount, value_achieved, session_id
		FROM goal_progress
		WHERE goal_id = ?
		ORDER BY activity_date ASC, id ASC
	`, goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ProgressRecord
	for rows.Next() {
		var r ProgressRecord
		var activityDate string
		var value sql.NullFloat64
		var sessionID sql.NullInt64

		if err := rows.Scan(&r.ID, &r.GoalID, &activityDate, &r.Amount, &value, &sessionID); err != nil {
			return nil, err
		}
		if r.ActivityDate, err = parseTime(activityDate); err != nil {
			return nil, fmt.Errorf("parsing activity_date %q: %w", activityDate, err)
		}
		r.ValueAchieved = nullFloat64ToPtr(value)
		r.SessionID = nullInt64ToPtr(sessionID)
		records = append(records, r)
	}
	return records, rows.Err()
}
