package goals

import (
	"sort"
	"time"

	"fitinsight/internal/store"
)

// MaxDashboardRecommendations caps the dashboard recommendation list
const MaxDashboardRecommendations = 5

// Analytics aggregates a user's goals
type Analytics struct {
	TotalGoals      int            `json:"totalGoals"`
	ActiveGoals     int            `json:"activeGoals"`
	CompletedGoals  int            `json:"completedGoals"`
	PausedGoals     int            `json:"pausedGoals"`
	DashboardGoals  int            `json:"dashboardGoals"`
	ByCategory      map[string]int `json:"byCategory"`
	ByContext       map[string]int `json:"byContext"`
	AverageProgress float64        `json:"averageProgress"` // percent, over goals with a target
	CompletionRate  float64        `json:"completionRate"`  // percent of all goals
}

// Analyze computes aggregate goal analytics
func Analyze(goals []store.Goal) Analytics {
	a := Analytics{
		TotalGoals: len(goals),
		ByCategory: make(map[string]int),
		ByContext:  make(map[string]int),
	}

	var progressSum float64
	var withTarget int
	for _, g := range goals {
		switch {
		case isComplete(g):
			a.CompletedGoals++
		case g.Status == store.GoalStatusPaused:
			a.PausedGoals++
		default:
			a.ActiveGoals++
		}
		if g.OnDashboard {
			a.DashboardGoals++
		}
		a.ByCategory[g.Category]++
		a.ByContext[g.Context]++

		if g.TargetValue != nil && *g.TargetValue > 0 {
			progressSum += ProgressPercentage(g)
			withTarget++
		}
	}

	if withTarget > 0 {
		a.AverageProgress = progressSum / float64(withTarget)
	}
	if a.TotalGoals > 0 {
		a.CompletionRate = float64(a.CompletedGoals) / float64(a.TotalGoals) * 100
	}
	return a
}

// DashboardRecommendation is one ranked recommendation across all of a user's goals
type DashboardRecommendation struct {
	GoalID    string `json:"goalId,omitempty"`
	GoalTitle string `json:"goalTitle,omitempty"`
	Priority  int    `json:"priority"`
	Message   string `json:"message"`
}

// DashboardRecommendations ranks the most urgent recommendation of each active goal,
// plus account-level suggestions. records is keyed by goal ID.
func DashboardRecommendations(goals []store.Goal, records map[string][]store.ProgressRecord, now time.Time) []DashboardRecommendation {
	if len(goals) == 0 {
		return []DashboardRecommendation{{
			Priority: priorityLowProgress,
			Message:  "Create your first goal to start tracking progress.",
		}}
	}

	var recs []DashboardRecommendation
	onDashboard := 0
	for _, g := range goals {
		if g.OnDashboard {
			onDashboard++
		}
		if g.Status != store.GoalStatusActive || isComplete(g) {
			continue
		}
		insight := GenerateInsight(g, records[g.ID], now)
		top := recommend(g, insight)
		if len(top) == 0 {
			continue
		}
		recs = append(recs, DashboardRecommendation{
			GoalID:    g.ID,
			GoalTitle: g.Title,
			Priority:  top[0].priority,
			Message:   top[0].message,
		})
	}

	if onDashboard == 0 {
		recs = append(recs, DashboardRecommendation{
			Priority: priorityCategoryHint,
			Message:  "Pin a goal to your dashboard to see its progress at a glance.",
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Priority != recs[j].Priority {
			return recs[i].Priority < recs[j].Priority
		}
		return recs[i].GoalTitle < recs[j].GoalTitle
	})
	if len(recs) > MaxDashboardRecommendations {
		recs = recs[:MaxDashboardRecommendations]
	}
	return recs
}
