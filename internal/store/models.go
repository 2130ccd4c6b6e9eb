package store

import "time"

// Session sources
const (
	SourceStrava = "strava"
	SourceFIT    = "fit"
	SourceManual = "manual"
)

// Goal categories. Each maps to one goal metric kind.
const (
	CategoryDistance  = "distance"
	CategoryFrequency = "frequency"
	CategoryTime      = "time"
	CategoryZone      = "zone"
)

// Goal creation contexts
const (
	ContextDashboard = "dashboard"
	ContextPlan      = "plan"
	ContextManual    = "manual"
)

// Goal statuses
const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
	GoalStatusPaused    = "paused"
)

// Session represents one recorded exercise session
type Session struct {
	ID               int64     `db:"id" json:"id"`
	AthleteID        int64     `db:"athlete_id" json:"athleteId"`
	Name             string    `db:"name" json:"name"`
	Sport            string    `db:"sport" json:"sport"`
	StartDate        time.Time `db:"start_date" json:"startDate"`
	StartDateLocal   time.Time `db:"start_date_local" json:"startDateLocal"` // wall clock where the session took place
	MovingTime       int       `db:"moving_time" json:"movingTime"`             // seconds
	Distance         *float64  `db:"distance" json:"distance"`                  // meters, nullable
	AverageHeartrate *float64  `db:"average_heartrate" json:"averageHeartrate"` // nullable
	MaxHeartrate     *float64  `db:"max_heartrate" json:"maxHeartrate"`         // nullable
	AveragePower     *float64  `db:"average_power" json:"averagePower"`         // watts, nullable
	Calories         *float64  `db:"calories" json:"calories"`                  // kcal, nullable
	ElevationGain    *float64  `db:"elevation_gain" json:"elevationGain"`       // meters, nullable
	Source           string    `db:"source" json:"source"`
}

// HasHeartrate reports whether the session carries any heart rate reading
func (s Session) HasHeartrate() bool {
	return (s.AverageHeartrate != nil && *s.AverageHeartrate > 0) ||
		(s.MaxHeartrate != nil && *s.MaxHeartrate > 0)
}

// LocalStart returns the session's local wall-clock start labelled UTC.
// Sessions recorded without a local start use StartDate's own wall clock.
func (s Session) LocalStart() time.Time {
	if !s.StartDateLocal.IsZero() {
		return WallClock(s.StartDateLocal)
	}
	return WallClock(s.StartDate)
}

// WallClock returns t's wall-clock reading in its own location, labelled UTC.
// Calendar dates of two wall-clock times compare without time zone shifts.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// SessionLoad represents the computed training load for a session
type SessionLoad struct {
	SessionID      int64     `db:"session_id" json:"sessionId"`
	TRIMP          float64   `db:"trimp" json:"trimp"`
	TSS            float64   `db:"tss" json:"tss"`
	NormalizedLoad float64   `db:"normalized_load" json:"normalizedLoad"`
	Source         string    `db:"source" json:"source"` // strategy that produced NormalizedLoad
	ComputedAt     time.Time `db:"computed_at" json:"computedAt"`
}

// Goal represents a user's training goal
type Goal struct {
	ID              string     `db:"id" json:"id"`
	UserID          int64      `db:"user_id" json:"userId"`
	Title           string     `db:"title" json:"title"`
	Category        string     `db:"category" json:"category"`
	Sport           string     `db:"sport" json:"sport,omitempty"` // empty = any sport
	Context         string     `db:"context" json:"context"`       // where the goal was created
	TargetValue     *float64   `db:"target_value" json:"targetValue"`
	Unit            string     `db:"unit" json:"unit,omitempty"`
	TargetZone      int        `db:"target_zone" json:"targetZone,omitempty"` // zone goals only
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	TargetDate      *time.Time `db:"target_date" json:"targetDate"`
	CurrentProgress float64    `db:"current_progress" json:"currentProgress"`
	Status          string     `db:"status" json:"status"`
	OnDashboard     bool       `db:"on_dashboard" json:"onDashboard"`
}

// ProgressRecord represents one contribution toward a goal
type ProgressRecord struct {
	ID            string    `db:"id" json:"id"`
	GoalID        string    `db:"goal_id" json:"goalId"`
	ActivityDate  time.Time `db:"activity_date" json:"activityDate"` // local wall clock
	Amount        float64   `db:"amount" json:"amount"`
	ValueAchieved *float64  `db:"value_achieved" json:"valueAchieved"` // nullable
	SessionID     *int64    `db:"session_id" json:"sessionId"`         // nullable, set when derived from a session
}
