// Package tui renders the load, zone and goal reports in the terminal.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fitinsight/internal/analysis"
	"fitinsight/internal/goals"
	"fitinsight/internal/service"
)

// Reports is the read side the screens render
type Reports interface {
	GetLoadSummary(ctx context.Context, userID int64) (*service.LoadSummary, error)
	GetZoneAnalysis(ctx context.Context, userID int64) (*analysis.ZoneAnalysisResult, error)
	CustomZoneAnalysis(ctx context.Context, userID int64, req service.ZoneRequest) (*analysis.ZoneAnalysisResult, error)
	ListGoalInsights(ctx context.Context, userID int64) ([]service.GoalWithInsight, error)
	GetGoalRecommendations(ctx context.Context, userID int64) ([]goals.DashboardRecommendation, error)
}

// Syncer pulls new sessions from the activity provider
type Syncer interface {
	SyncAll(ctx context.Context, progress chan<- service.SyncProgress) (*service.SyncResult, error)
	RateLimitStatus() (shortRemaining, dailyRemaining int)
}

// Screen identifiers
type Screen int

const (
	ScreenLoads Screen = iota
	ScreenZones
	ScreenGoals
	ScreenSync
	ScreenHelp
)

// loadTimeout bounds a single report query
const loadTimeout = 30 * time.Second

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	loads      LoadsModel
	zones      ZonesModel
	goals      GoalsModel
	syncScreen SyncModel
	help       HelpModel

	width  int
	height int
}

// NewApp creates the app for one athlete. syncer may be nil when no
// provider credentials are configured.
func NewApp(reports Reports, syncer Syncer, athleteID int64, units Units) *App {
	return &App{
		screen:     ScreenLoads,
		loads:      NewLoadsModel(reports, athleteID, units),
		zones:      NewZonesModel(reports, athleteID),
		goals:      NewGoalsModel(reports, athleteID),
		syncScreen: NewSyncModel(syncer),
		help:       NewHelpModel(),
	}
}

// Init loads the first screen
func (a *App) Init() tea.Cmd {
	return a.loads.Init()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Navigation is locked while a sync runs
		if !a.syncScreen.syncing {
			switch msg.String() {
			case "q", "ctrl+c":
				return a, tea.Quit
			case "1":
				return a, a.show(ScreenLoads)
			case "2":
				return a, a.show(ScreenZones)
			case "3":
				return a, a.show(ScreenGoals)
			case "4":
				return a, a.show(ScreenSync)
			case "?":
				if a.screen != ScreenHelp {
					a.prevScreen = a.screen
					a.screen = ScreenHelp
				}
				return a, nil
			case "esc":
				if a.screen == ScreenHelp {
					a.screen = a.prevScreen
					return a, nil
				}
			}
		} else if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// The goals viewport tracks the window even when hidden
		m, cmd := a.goals.Update(msg)
		a.goals = m.(GoalsModel)
		return a, cmd

	case syncDoneMsg:
		// Fresh sessions change every report
		m, cmd := a.syncScreen.Update(msg)
		a.syncScreen = m.(SyncModel)
		a.loads.loading, a.zones.loading, a.goals.loading = true, true, true
		a.zones.requested, a.goals.requested = true, true
		return a, tea.Batch(cmd, a.loads.Init(), a.zones.Init(), a.goals.Init())

	case loadsMsg:
		m, cmd := a.loads.Update(msg)
		a.loads = m.(LoadsModel)
		return a, cmd
	case zonesMsg:
		m, cmd := a.zones.Update(msg)
		a.zones = m.(ZonesModel)
		return a, cmd
	case goalsMsg:
		m, cmd := a.goals.Update(msg)
		a.goals = m.(GoalsModel)
		return a, cmd
	}

	return a, a.delegate(msg)
}

// show switches screens, loading the screen's data the first time
func (a *App) show(s Screen) tea.Cmd {
	if a.screen == s {
		return nil
	}
	a.screen = s
	switch s {
	case ScreenZones:
		if !a.zones.requested {
			a.zones.requested = true
			return a.zones.Init()
		}
	case ScreenGoals:
		if !a.goals.requested {
			a.goals.requested = true
			return a.goals.Init()
		}
	case ScreenSync:
		return a.syncScreen.Init()
	}
	return nil
}

func (a *App) delegate(msg tea.Msg) tea.Cmd {
	var m tea.Model
	var cmd tea.Cmd
	switch a.screen {
	case ScreenLoads:
		m, cmd = a.loads.Update(msg)
		a.loads = m.(LoadsModel)
	case ScreenZones:
		m, cmd = a.zones.Update(msg)
		a.zones = m.(ZonesModel)
	case ScreenGoals:
		m, cmd = a.goals.Update(msg)
		a.goals = m.(GoalsModel)
	case ScreenSync:
		m, cmd = a.syncScreen.Update(msg)
		a.syncScreen = m.(SyncModel)
	case ScreenHelp:
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}
	return cmd
}

// View renders the app
func (a *App) View() string {
	var content string
	switch a.screen {
	case ScreenLoads:
		content = a.loads.View()
	case ScreenZones:
		content = a.zones.View()
	case ScreenGoals:
		content = a.goals.View()
	case ScreenSync:
		content = a.syncScreen.View()
	case ScreenHelp:
		content = a.help.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render("fitinsight"),
		a.renderNav(),
		content,
	)
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Loads", ScreenLoads},
		{"2", "Zones", ScreenZones},
		{"3", "Goals", ScreenGoals},
		{"4", "Sync", ScreenSync},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}
		label := "[" + item.key + "] " + item.label
		if a.screen == item.screen {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}
	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}
