package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const goalColumns = `id, user_id, title, category, sport, context, target_value, unit, target_zone,
	created_at, target_date, current_progress, status, on_dashboard`

// CreateGoal inserts a new goal. A missing ID, status, context or creation time is filled in.
// CreatedAt keeps its UTC offset so the local creation day survives a round trip.
func (s *Store) CreateGoal(ctx context.Context, g *Goal) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Status == "" {
		g.Status = GoalStatusActive
	}
	if g.Context == "" {
		g.Context = ContextManual
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (`+goalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		g.ID, g.UserID, g.Title, g.Category, g.Sport, g.Context,
		ptrToNullFloat64(g.TargetValue), g.Unit, g.TargetZone,
		g.CreatedAt.Format(time.RFC3339), ptrTimeToNullString(g.TargetDate),
		g.CurrentProgress, g.Status, boolToInt64(g.OnDashboard),
	)
	return err
}

// GetGoal retrieves a goal by ID
func (s *Store) GetGoal(ctx context.Context, id string) (*Goal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+goalColumns+`
		FROM goals
		WHERE id = ?
	`, id)

	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

// ListGoals returns all goals of a user ordered by creation time
func (s *Store) ListGoals(ctx context.Context, userID int64) ([]Goal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+goalColumns+`
		FROM goals
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// UpdateGoalProgress overwrites a goal's current progress and status
func (s *Store) UpdateGoalProgress(ctx context.Context, id string, progress float64, status string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE goals
		SET current_progress = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, progress, status, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrGoalNotFound
	}
	return nil
}

func scanGoal(row rowScanner) (*Goal, error) {
	var g Goal
	var targetValue sql.NullFloat64
	var createdAt string
	var targetDate sql.NullString
	var onDashboard int64

	err := row.Scan(
		&g.ID, &g.UserID, &g.Title, &g.Category, &g.Sport, &g.Context,
		&targetValue, &g.Unit, &g.TargetZone,
		&createdAt, &targetDate, &g.CurrentProgress, &g.Status, &onDashboard,
	)
	if err != nil {
		return nil, err
	}

	g.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	g.TargetDate, err = nullStringToTimePtr(targetDate)
	if err != nil {
		return nil, fmt.Errorf("parsing target_date %q: %w", targetDate.String, err)
	}
	g.TargetValue = nullFloat64ToPtr(targetValue)
	g.OnDashboard = onDashboard == 1

	return &g, nil
}
