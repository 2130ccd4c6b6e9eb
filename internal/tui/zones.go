package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fitinsight/internal/analysis"
	"fitinsight/internal/service"
)

// ZonesModel shows the suggested zone model and the data behind it.
// 'm' cycles through the zone model kinds.
type ZonesModel struct {
	reports   Reports
	athleteID int64
	kind      int // index into analysis.ZoneModelKinds, -1 for the automatic analysis
	result    *analysis.ZoneAnalysisResult
	loading   bool
	requested bool
	err       error
}

// NewZonesModel creates the zones screen
func NewZonesModel(reports Reports, athleteID int64) ZonesModel {
	return ZonesModel{
		reports:   reports,
		athleteID: athleteID,
		kind:      -1,
		loading:   true,
	}
}

type zonesMsg struct {
	result *analysis.ZoneAnalysisResult
	err    error
}

// Init runs the zone analysis for the selected model
func (m ZonesModel) Init() tea.Cmd {
	reports, id, kind := m.reports, m.athleteID, m.kind
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		if kind < 0 {
			result, err := reports.GetZoneAnalysis(ctx, id)
			return zonesMsg{result: result, err: err}
		}
		req := service.ZoneRequest{ZoneModel: string(analysis.ZoneModelKinds[kind])}
		result, err := reports.CustomZoneAnalysis(ctx, id, req)
		return zonesMsg{result: result, err: err}
	}
}

// Update handles messages
func (m ZonesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case zonesMsg:
		m.loading = false
		m.result = msg.result
		m.err = msg.err
	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		switch msg.String() {
		case "m":
			m.kind = (m.kind + 1) % len(analysis.ZoneModelKinds)
			m.loading = true
			return m, m.Init()
		case "a":
			m.kind = -1
			m.loading = true
			return m, m.Init()
		case "r":
			m.loading = true
			return m, m.Init()
		}
	}
	return m, nil
}

// View renders the zones screen
func (m ZonesModel) View() string {
	if m.loading {
		return "\n  Analyzing heart rate data..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}
	if m.result == nil {
		return "\n  No zone analysis available."
	}

	r := m.result
	top := lipgloss.JoinHorizontal(lipgloss.Top, m.renderModel(r.SuggestedModel), "  ", m.renderData(r))
	sections := []string{top}
	if len(r.SportBreakdowns) > 0 {
		sections = append(sections, m.renderSports(r.SportBreakdowns))
	}
	if len(r.Recommendations) > 0 {
		lines := []string{sectionStyle.Render("Recommendations")}
		for _, rec := range r.Recommendations {
			lines = append(lines, "  • "+rec)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	sections = append(sections, statusStyle.Render("'m' next model  'a' automatic  'r' refresh"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ZonesModel) renderModel(model analysis.ZoneModel) string {
	title := cardTitleStyle.Render(model.Name)
	if model.IsEmpty() {
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "No zones: thresholds are unknown."))
	}

	unit := "bpm"
	if model.Basis == analysis.BasisFTP {
		unit = "W"
	}
	lines := []string{title}
	for _, z := range model.Zones {
		lo, hi := z.MinHR, z.MaxHR
		if model.Basis == analysis.BasisFTP {
			lo, hi = z.MinWatts, z.MaxWatts
		}
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(z.Color)).Render("██")
		bounds := fmt.Sprintf("%d-%d %s", lo, hi, unit)
		if hi == 0 {
			bounds = fmt.Sprintf("%d+ %s", lo, unit)
		}
		lines = append(lines, fmt.Sprintf("%s Z%d %-16s %-13s %3.0f-%3.0f%%",
			swatch, z.Number, truncateName(z.Name, 16), bounds, z.MinPercent, z.MaxPercent))
	}
	lines = append(lines, "", mutedStyle.Render(fmt.Sprintf("basis %s, reference %.0f", model.Basis, model.Reference)))
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m ZonesModel) renderData(r *analysis.ZoneAnalysisResult) string {
	o := r.Overall
	confidence := successStyle
	switch r.Confidence {
	case analysis.ConfidenceMedium:
		confidence = warningStyle
	case analysis.ConfidenceLow:
		confidence = errorStyle
	}

	lines := []string{
		cardTitleStyle.Render("Data"),
		RenderMetric("Sessions", fmt.Sprintf("%d", o.TotalSessions), fmt.Sprintf("%d with HR", o.HRSessionCount)),
		RenderMetric("Quality", string(o.DataQuality), ""),
		metricLabelStyle.Render("Confidence") + confidence.Bold(true).Render(string(r.Confidence)),
		"",
		RenderMetric("Max HR", fmt.Sprintf("%.0f", r.Thresholds.MaxHR.Value), string(r.Thresholds.MaxHR.Source)),
		RenderMetric("Resting HR", fmt.Sprintf("%.0f", r.Thresholds.RestingHR.Value), string(r.Thresholds.RestingHR.Source)),
		RenderMetric("Threshold HR", fmt.Sprintf("%.0f", r.Thresholds.ThresholdHR.Value), string(r.Thresholds.ThresholdHR.Source)),
	}
	if r.Thresholds.FTP != nil {
		lines = append(lines, RenderMetric("FTP", fmt.Sprintf("%.0f W", r.Thresholds.FTP.Value), string(r.Thresholds.FTP.Source)))
	}
	if o.HRSessionCount > 0 {
		lines = append(lines, "", RenderMetric("Avg HR p50/p85", fmt.Sprintf("%.0f / %.0f", o.Percentiles.P50, o.Percentiles.P85), ""))
	}
	if r.NeedsMoreData {
		lines = append(lines, "", warningStyle.Render("More heart rate sessions needed"))
	}
	return cardStyle.Width(44).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m ZonesModel) renderSports(breakdowns []analysis.SportBreakdown) string {
	var b strings.Builder
	b.WriteString(tableHeaderStyle.Render(fmt.Sprintf("%-8s  %8s  %6s  %7s  %7s", "Sport", "Sessions", "w/ HR", "Max HR", "Avg HR")))
	for _, s := range breakdowns {
		b.WriteString(fmt.Sprintf("\n%-8s  %8d  %6d  %7.0f  %7.0f", s.Sport, s.SessionCount, s.HRSessionCount, s.MaxHR, s.AvgHR))
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, cardTitleStyle.Render("By Sport"), b.String()))
}
