package goals

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"fitinsight/internal/analysis"
	"fitinsight/internal/store"
)

// Trend is the direction of recent goal activity
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Insight tuning constants
const (
	TrendPeriodWeeks       = 3
	TrendChangeThreshold   = 0.10
	MinTrendWeeks          = 2
	DefaultRemainingWeeks  = 52
	ProjectionHorizonWeeks = DefaultRemainingWeeks * 10

	// NewActivityImprovementRate is reported when activity resumes after an empty prior period
	NewActivityImprovementRate = 100

	NeutralSuccessProbability  = 50
	CompleteSuccessProbability = 100

	LowProgressPercent = 25
	AheadOfPaceRatio   = 1.2
	AtRiskProbability  = 50

	MaxRecommendations = 3
)

// successTiers maps weeklyAverage/required ratios to a probability, best first
var successTiers = []struct {
	minRatio    float64
	probability int
}{
	{1.2, 95},
	{1.0, 85},
	{0.8, 70},
	{0.6, 50},
	{0, 25},
}

// Insight is a read-only report on one goal's progress
type Insight struct {
	GoalID              string   `json:"goalId"`
	CurrentStreak       int      `json:"currentStreak"`
	WeeklyAverage       float64  `json:"weeklyAverage"`
	BestWeek            float64  `json:"bestWeek"`
	ImprovementRate     float64  `json:"improvementRate"`
	Trend               Trend    `json:"trend"`
	TrendDescription    string   `json:"trendDescription"`
	ProgressPercentage  float64  `json:"progressPercentage"`
	DaysRemaining       *int     `json:"daysRemaining"`
	RequiredWeeklyRate  float64  `json:"requiredWeeklyRate"`
	ProjectedCompletion string   `json:"projectedCompletion"`
	SuccessProbability  int      `json:"successProbability"`
	Recommendations     []string `json:"recommendations"`
}

// GenerateInsight builds the insight report for a goal from its progress records
func GenerateInsight(g store.Goal, records []store.ProgressRecord, now time.Time) Insight {
	weekly := weeklyTotals(records)

	insight := Insight{
		GoalID:             g.ID,
		CurrentStreak:      CurrentStreak(records, now),
		ProgressPercentage: ProgressPercentage(g),
	}

	for _, v := range weekly {
		insight.BestWeek = math.Max(insight.BestWeek, v)
	}

	weeks := math.Max(1, math.Floor(now.Sub(g.CreatedAt).Hours()/24/7))
	insight.WeeklyAverage = TotalProgress(records) / weeks

	insight.Trend, insight.ImprovementRate, insight.TrendDescription = trend(weekly, now)

	remainingWeeks := float64(DefaultRemainingWeeks)
	if g.TargetDate != nil {
		days := daysBetween(now, *g.TargetDate)
		if days < 0 {
			days = 0
		}
		insight.DaysRemaining = &days
		remainingWeeks = float64(days) / 7
	}

	if g.TargetValue != nil {
		remaining := math.Max(0, *g.TargetValue-g.CurrentProgress)
		insight.RequiredWeeklyRate = remaining / math.Max(1, remainingWeeks)
	}

	insight.SuccessProbability = successProbability(g, insight.WeeklyAverage, insight.RequiredWeeklyRate)
	insight.ProjectedCompletion = projectedCompletion(g, insight.WeeklyAverage, now)

	recs := recommend(g, insight)
	for i := 0; i < len(recs) && i < MaxRecommendations; i++ {
		insight.Recommendations = append(insight.Recommendations, recs[i].message)
	}
	return insight
}

// ProgressPercentage returns current progress as a percentage of the target, capped at 100
func ProgressPercentage(g store.Goal) float64 {
	if g.TargetValue == nil || *g.TargetValue <= 0 {
		return 0
	}
	pct := g.CurrentProgress / *g.TargetValue * 100
	return math.Min(100, math.Max(0, pct))
}

func isComplete(g store.Goal) bool {
	if g.Status == store.GoalStatusCompleted {
		return true
	}
	return g.TargetValue != nil && *g.TargetValue > 0 && g.CurrentProgress >= *g.TargetValue
}

// CurrentStreak counts consecutive days with progress, ending at the most recent record day.
// The streak is broken when that day is before yesterday. Record dates are local wall
// clock and now is read in its own location.
func CurrentStreak(records []store.ProgressRecord, now time.Time) int {
	days := make(map[time.Time]bool)
	var latest time.Time
	for _, r := range records {
		d := analysis.Day(r.ActivityDate)
		days[d] = true
		if d.After(latest) {
			latest = d
		}
	}
	if len(days) == 0 {
		return 0
	}

	yesterday := analysis.Day(now).AddDate(0, 0, -1)
	if latest.Before(yesterday) {
		return 0
	}

	streak := 0
	for d := latest; days[d]; d = d.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

// SuccessProbability maps pace against the required pace onto a fixed tier
func SuccessProbability(weeklyAverage, required float64) int {
	if required <= 0 {
		return CompleteSuccessProbability
	}
	ratio := weeklyAverage / required
	for _, tier := range successTiers {
		if ratio >= tier.minRatio {
			return tier.probability
		}
	}
	return successTiers[len(successTiers)-1].probability
}

func successProbability(g store.Goal, weeklyAverage, required float64) int {
	if isComplete(g) {
		return CompleteSuccessProbability
	}
	if g.TargetValue == nil || *g.TargetValue <= 0 || g.TargetDate == nil {
		return NeutralSuccessProbability
	}
	return SuccessProbability(weeklyAverage, required)
}

func projectedCompletion(g store.Goal, weeklyAverage float64, now time.Time) string {
	switch {
	case isComplete(g):
		return "completed"
	case g.TargetValue == nil || *g.TargetValue <= 0:
		return "ongoing"
	case weeklyAverage <= 0:
		return "no recent progress"
	}

	weeksNeeded := (*g.TargetValue - g.CurrentProgress) / weeklyAverage
	if weeksNeeded > ProjectionHorizonWeeks {
		return "more than 10 years from now"
	}
	eta := now.Add(time.Duration(weeksNeeded * 7 * 24 * float64(time.Hour)))
	return humanize.RelTime(eta, now, "ago", "from now")
}

// weeklyTotals sums record amounts per Monday-start week
func weeklyTotals(records []store.ProgressRecord) map[time.Time]float64 {
	weekly := make(map[time.Time]float64)
	for _, r := range records {
		if r.Amount > 0 {
			weekly[analysis.WeekStart(r.ActivityDate)] += r.Amount
		}
	}
	return weekly
}

// trend compares the mean of the last TrendPeriodWeeks weeks (ending this week)
// with the mean of the weeks before them
func trend(weekly map[time.Time]float64, now time.Time) (Trend, float64, string) {
	if len(weekly) < MinTrendWeeks {
		return TrendStable, 0, "Not enough data yet to detect a trend."
	}

	current := analysis.WeekStart(now)
	var recent, prior float64
	for i := 0; i < TrendPeriodWeeks; i++ {
		recent += weekly[current.AddDate(0, 0, -7*i)]
		prior += weekly[current.AddDate(0, 0, -7*(i+TrendPeriodWeeks))]
	}
	recent /= TrendPeriodWeeks
	prior /= TrendPeriodWeeks

	rate := 0.0
	switch {
	case prior > 0:
		rate = (recent - prior) / prior * 100
	case recent > 0:
		rate = NewActivityImprovementRate
	}

	switch {
	case recent > prior*(1+TrendChangeThreshold):
		return TrendImproving, rate, "Your recent weeks are stronger than the weeks before."
	case recent < prior*(1-TrendChangeThreshold):
		return TrendDeclining, rate, "Your activity has dropped compared with the weeks before."
	default:
		return TrendStable, rate, "Your weekly activity is holding steady."
	}
}

// Recommendation priorities, most urgent first
const (
	priorityLowProgress = iota + 1
	priorityDeclining
	priorityAtRisk
	priorityAheadOfPace
	priorityCategoryHint
)

type recommendation struct {
	priority int
	message  string
}

func recommend(g store.Goal, in Insight) []recommendation {
	if isComplete(g) {
		return []recommendation{{priorityCategoryHint, "Goal complete. Set a new target to keep building."}}
	}

	var recs []recommendation
	hasTarget := g.TargetValue != nil && *g.TargetValue > 0

	if hasTarget && in.ProgressPercentage < LowProgressPercent {
		msg := "Break this goal into smaller weekly targets."
		if in.RequiredWeeklyRate > 0 {
			msg = fmt.Sprintf("Break this goal into smaller weekly targets of about %s %s.",
				humanize.FtoaWithDigits(in.RequiredWeeklyRate, 1), g.Unit)
		}
		recs = append(recs, recommendation{priorityLowProgress, msg})
	}

	if in.Trend == TrendDeclining {
		recs = append(recs, recommendation{priorityDeclining,
			"Your activity has dropped recently. Schedule your next session now to get back on track."})
	}

	if hasTarget && g.TargetDate != nil && in.SuccessProbability <= AtRiskProbability {
		recs = append(recs, recommendation{priorityAtRisk,
			"At the current pace this goal is at risk. Consider extending the target date or lowering the target."})
	}

	if in.RequiredWeeklyRate > 0 && in.WeeklyAverage >= in.RequiredWeeklyRate*AheadOfPaceRatio {
		recs = append(recs, recommendation{priorityAheadOfPace,
			"You're well ahead of pace. Consider raising the target."})
	}

	if hint := categoryHint(g); hint != "" {
		recs = append(recs, recommendation{priorityCategoryHint, hint})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].priority < recs[j].priority
	})
	return recs
}

func categoryHint(g store.Goal) string {
	switch g.Category {
	case store.CategoryFrequency:
		return "Block fixed training days in your calendar to keep sessions consistent."
	case store.CategoryDistance:
		return "Build distance gradually, about 10% per week, to stay injury free."
	case store.CategoryTime:
		return "Spread training time across the week rather than one long session."
	case store.CategoryZone:
		return fmt.Sprintf("Wear a heart rate monitor and keep efforts inside zone %d.", g.TargetZone)
	}
	return ""
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(analysis.Day(to).Sub(analysis.Day(from)).Hours() / 24))
}
