package analysis

import "time"

// Day returns t's calendar date at midnight, labelled UTC.
// The date is read from t's own location, so a wall-clock time keeps its local day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday of the week containing t's calendar date
func WeekStart(t time.Time) time.Time {
	daysFromMonday := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return Day(t).AddDate(0, 0, -daysFromMonday)
}
