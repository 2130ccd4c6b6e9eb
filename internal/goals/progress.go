package goals

import (
	"fitinsight/internal/analysis"
	"fitinsight/internal/store"
)

// ProgressFromSessions derives one progress record per contributing session.
// Sessions count from the goal's creation day through its target date, filtered by sport.
// Days are the athlete's local calendar days.
func ProgressFromSessions(g store.Goal, sessions []store.Session, model analysis.ZoneModel) ([]store.ProgressRecord, error) {
	m, err := MetricFor(g)
	if err != nil {
		return nil, err
	}

	from := analysis.Day(g.CreatedAt)
	sport := ""
	if g.Sport != "" {
		sport = analysis.NormalizeSport(g.Sport)
	}

	var records []store.ProgressRecord
	for _, s := range sessions {
		day := analysis.Day(s.LocalStart())
		if day.Before(from) {
			continue
		}
		if g.TargetDate != nil && day.After(analysis.Day(*g.TargetDate)) {
			continue
		}
		if sport != "" && analysis.NormalizeSport(s.Sport) != sport {
			continue
		}

		amount := Contribution(m, s, model)
		if amount <= 0 {
			continue
		}
		id := s.ID
		records = append(records, store.ProgressRecord{
			GoalID:       g.ID,
			ActivityDate: s.LocalStart(),
			Amount:       amount,
			SessionID:    &id,
		})
	}
	return records, nil
}

// TotalProgress sums record amounts
func TotalProgress(records []store.ProgressRecord) float64 {
	total := 0.0
	for _, r := range records {
		if r.Amount > 0 {
			total += r.Amount
		}
	}
	return total
}

// StatusFor returns the goal status after progress reaches the given value.
// Paused goals stay paused; reaching the target completes an active goal.
func StatusFor(g store.Goal, progress float64) string {
	if g.Status == store.GoalStatusPaused {
		return g.Status
	}
	if g.TargetValue != nil && *g.TargetValue > 0 && progress >= *g.TargetValue {
		return store.GoalStatusCompleted
	}
	return store.GoalStatusActive
}
