package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel is the help screen model
type HelpModel struct{}

// NewHelpModel creates a new help model
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// Init initializes the help screen
func (m HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

type keyHelp struct {
	key  string
	desc string
}

// View renders the help screen
func (m HelpModel) View() string {
	sections := []string{
		cardTitleStyle.Render("Keyboard Shortcuts"),
		renderKeys("Navigation", []keyHelp{
			{"1", "Training loads"},
			{"2", "Heart rate zones"},
			{"3", "Goals"},
			{"4", "Strava sync"},
			{"?", "This screen"},
			{"esc", "Close help"},
			{"q", "Quit"},
		}),
		renderKeys("Screens", []keyHelp{
			{"r", "Refresh the current report"},
			{"m", "Zones: try the next zone model"},
			{"a", "Zones: back to the automatic analysis"},
			{"j / k", "Goals: scroll"},
			{"s / enter", "Sync: start"},
		}),
		renderTerms(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderKeys(title string, keys []keyHelp) string {
	lines := []string{"", sectionStyle.Render(title)}
	for _, k := range keys {
		lines = append(lines, "  "+RenderKeyHelp(k.key, k.desc))
	}
	return strings.Join(lines, "\n")
}

func renderTerms() string {
	terms := []keyHelp{
		{"TRIMP", "Heart rate training impulse: duration weighted by heart rate reserve."},
		{"TSS", "Training stress score: 100 is one hour at threshold."},
		{"Load", "The best available score per session, TSS where possible."},
		{"CTL", "Fitness: 42-day weighted average of daily load."},
		{"ATL", "Fatigue: 7-day weighted average of daily load."},
		{"TSB", "Form: fitness minus fatigue. Positive means fresh."},
		{"Confidence", "How far the zone thresholds can be trusted given the data."},
	}

	lines := []string{"", sectionStyle.Render("Terms")}
	for _, t := range terms {
		lines = append(lines, "  "+RenderKeyHelp(t.key, t.desc))
	}
	return strings.Join(lines, "\n")
}
