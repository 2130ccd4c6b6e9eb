package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"fitinsight/internal/service"
)

// LoadsModel shows fitness, fatigue and form with the training load history
type LoadsModel struct {
	reports   Reports
	athleteID int64
	units     Units
	data      *service.LoadSummary
	loading   bool
	err       error
}

// NewLoadsModel creates the loads screen
func NewLoadsModel(reports Reports, athleteID int64, units Units) LoadsModel {
	return LoadsModel{
		reports:   reports,
		athleteID: athleteID,
		units:     units,
		loading:   true,
	}
}

type loadsMsg struct {
	data *service.LoadSummary
	err  error
}

// Init loads the summary
func (m LoadsModel) Init() tea.Cmd {
	reports, id := m.reports, m.athleteID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		data, err := reports.GetLoadSummary(ctx, id)
		return loadsMsg{data: data, err: err}
	}
}

// Update handles messages
func (m LoadsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadsMsg:
		m.loading = false
		m.data = msg.data
		m.err = msg.err
	case tea.KeyMsg:
		if msg.String() == "r" && !m.loading {
			m.loading = true
			return m, m.Init()
		}
	}
	return m, nil
}

// View renders the loads screen
func (m LoadsModel) View() string {
	if m.loading {
		return "\n  Loading training loads..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}
	if m.data == nil || len(m.data.RecentSessions) == 0 {
		return "\n  No sessions yet. Press '4' to sync, or import a FIT file with -import."
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top, m.renderFitnessCard(), "  ", m.renderWeekCard())
	sections := []string{top}
	if chart := m.renderTrend(); chart != "" {
		sections = append(sections, chart)
	}
	sections = append(sections,
		lipgloss.JoinHorizontal(lipgloss.Top, m.renderWeekly(), "  ", m.renderRecent()),
		statusStyle.Render("Press 'r' to refresh"),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m LoadsModel) renderFitnessCard() string {
	d := m.data
	lines := []string{
		cardTitleStyle.Render("Current Form"),
		RenderMetric("Fitness (CTL)", fmt.Sprintf("%.0f", d.CurrentFitness), ""),
		RenderMetric("Fatigue (ATL)", fmt.Sprintf("%.0f", d.CurrentFatigue), ""),
		metricLabelStyle.Render("Form (TSB)") + formStyle(d.CurrentForm).Bold(true).Render(fmt.Sprintf("%+.0f", d.CurrentForm)),
		"",
		mutedStyle.Render(d.FormDescription),
	}
	return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m LoadsModel) renderWeekCard() string {
	d := m.data
	t := d.Thresholds
	lines := []string{
		cardTitleStyle.Render("This Week"),
		RenderMetric("Sessions", fmt.Sprintf("%d", d.WeekSessionCount), ""),
		RenderMetric("Load", fmt.Sprintf("%.0f", d.WeekLoad), ""),
		RenderMetric("Time", formatDuration(d.WeekTime), ""),
		"",
		RenderMetric("Max HR", fmt.Sprintf("%.0f", t.MaxHR.Value), string(t.MaxHR.Source)),
		RenderMetric("Threshold HR", fmt.Sprintf("%.0f", t.ThresholdHR.Value), string(t.ThresholdHR.Source)),
	}
	if t.ThresholdPace != nil {
		lines = append(lines, RenderMetric("Threshold pace", m.units.FormatPace(t.ThresholdPace.Value), string(t.ThresholdPace.Source)))
	}
	return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderTrend plots fitness and fatigue over the trend window
func (m LoadsModel) renderTrend() string {
	if len(m.data.Trend) < 3 {
		return ""
	}
	ctl := make([]float64, len(m.data.Trend))
	atl := make([]float64, len(m.data.Trend))
	for i, p := range m.data.Trend {
		ctl[i] = p.CTL
		atl[i] = p.ATL
	}

	graph := asciigraph.PlotMany([][]float64{ctl, atl},
		asciigraph.Height(8),
		asciigraph.Width(70),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red),
		asciigraph.Caption(fmt.Sprintf("fitness (blue) and fatigue (red), last %d days", len(m.data.Trend))),
	)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, cardTitleStyle.Render("Fitness Trend"), graph))
}

func (m LoadsModel) renderWeekly() string {
	peak := 0.0
	for _, l := range m.data.WeeklyLoads {
		if l > peak {
			peak = l
		}
	}

	lines := []string{cardTitleStyle.Render("Weekly Load")}
	for i, l := range m.data.WeeklyLoads {
		pct := 0.0
		if peak > 0 {
			pct = l / peak
		}
		label := ""
		if i < len(m.data.WeeklyLabels) {
			label = m.data.WeeklyLabels[i]
		}
		lines = append(lines, fmt.Sprintf("%-6s %s %4.0f", label, RenderProgressBar(pct, 20), l))
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m LoadsModel) renderRecent() string {
	var b strings.Builder
	b.WriteString(tableHeaderStyle.Render(fmt.Sprintf("%-6s  %-22s  %-6s  %9s  %7s  %5s",
		"Date", "Name", "Sport", "Distance", "Time", "Load")))
	for _, sw := range m.data.RecentSessions {
		s := sw.Session
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%-6s  %-22s  %-6s  %9s  %7s  %5.0f",
			s.LocalStart().Format("Jan 02"),
			truncateName(s.Name, 22),
			s.Sport,
			m.units.FormatDistance(s.Distance),
			formatDuration(s.MovingTime),
			sw.Load.NormalizedLoad,
		))
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, cardTitleStyle.Render("Recent Sessions"), b.String()))
}
