package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fitinsight/internal/goals"
	"fitinsight/internal/service"
	"fitinsight/internal/store"
)

// chromeHeight is the header, nav and footer space around a scrolling screen
const chromeHeight = 6

// GoalsModel lists every goal with its insight in a scrolling viewport
type GoalsModel struct {
	reports   Reports
	athleteID int64
	goals     []service.GoalWithInsight
	recs      []goals.DashboardRecommendation
	viewport  viewport.Model
	ready     bool
	loading   bool
	requested bool
	err       error
	now       func() time.Time
}

// NewGoalsModel creates the goals screen
func NewGoalsModel(reports Reports, athleteID int64) GoalsModel {
	return GoalsModel{
		reports:   reports,
		athleteID: athleteID,
		loading:   true,
		now:       time.Now,
	}
}

type goalsMsg struct {
	goals []service.GoalWithInsight
	recs  []goals.DashboardRecommendation
	err   error
}

// Init loads goals and the dashboard recommendations
func (m GoalsModel) Init() tea.Cmd {
	reports, id := m.reports, m.athleteID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		list, err := reports.ListGoalInsights(ctx, id)
		if err != nil {
			return goalsMsg{err: err}
		}
		recs, err := reports.GetGoalRecommendations(ctx, id)
		return goalsMsg{goals: list, recs: recs, err: err}
	}
}

// Update handles messages
func (m GoalsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case goalsMsg:
		m.loading = false
		m.goals = msg.goals
		m.recs = msg.recs
		m.err = msg.err
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}
		return m, nil

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-chromeHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - chromeHeight
		}
		if !m.loading {
			m.viewport.SetContent(m.renderContent())
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "r" && !m.loading {
			m.loading = true
			return m, m.Init()
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the goals screen
func (m GoalsModel) View() string {
	if m.loading {
		return "\n  Loading goals..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}
	footer := statusStyle.Render(fmt.Sprintf("%d goals  'r' refresh  j/k scroll", len(m.goals)))
	if !m.ready {
		return lipgloss.JoinVertical(lipgloss.Left, m.renderContent(), footer)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m GoalsModel) renderContent() string {
	var sections []string

	if len(m.recs) > 0 {
		lines := []string{sectionStyle.Render("Recommendations")}
		for _, r := range m.recs {
			prefix := ""
			if r.GoalTitle != "" {
				prefix = r.GoalTitle + ": "
			}
			lines = append(lines, fmt.Sprintf("  %d. %s%s", r.Priority, prefix, r.Message))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(m.goals) == 0 {
		sections = append(sections, "\n  No goals yet. Create one with POST /api/v1/users/{id}/goals.")
		return strings.Join(sections, "\n")
	}

	for _, g := range m.goals {
		sections = append(sections, m.renderGoal(g.Goal, g.Insight))
	}
	return strings.Join(sections, "\n")
}

func (m GoalsModel) renderGoal(g store.Goal, in goals.Insight) string {
	now := m.now()

	title := cardTitleStyle.Render(g.Title)
	status := mutedStyle.Render(g.Status)
	if g.Status == store.GoalStatusCompleted {
		status = successStyle.Render(g.Status)
	}

	progress := fmt.Sprintf("%.1f", g.CurrentProgress)
	if g.TargetValue != nil {
		progress = fmt.Sprintf("%.1f / %.1f %s", g.CurrentProgress, *g.TargetValue, g.Unit)
	}

	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", status),
		RenderProgressBar(in.ProgressPercentage/100, 30) + fmt.Sprintf(" %3.0f%%  %s", in.ProgressPercentage, progress),
		RenderMetric("Trend", string(in.Trend), in.TrendDescription),
		RenderMetric("Streak", fmt.Sprintf("%d days", in.CurrentStreak), ""),
		RenderMetric("Weekly avg", fmt.Sprintf("%.1f", in.WeeklyAverage), fmt.Sprintf("best %.1f", in.BestWeek)),
	}
	if g.TargetDate != nil {
		lines = append(lines,
			RenderMetric("Target date", g.TargetDate.Format("Jan 02 2006"), formatWhen(*g.TargetDate, now)),
			RenderMetric("Needed per week", fmt.Sprintf("%.1f", in.RequiredWeeklyRate), ""),
		)
	}
	lines = append(lines,
		RenderMetric("Projected", in.ProjectedCompletion, ""),
		RenderMetric("Success chance", fmt.Sprintf("%d%%", in.SuccessProbability), ""),
	)
	for _, rec := range in.Recommendations {
		lines = append(lines, mutedStyle.Render("  • "+rec))
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
