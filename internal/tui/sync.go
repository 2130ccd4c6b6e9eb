package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fitinsight/internal/service"
)

// SyncModel runs a provider sync and streams its progress
type SyncModel struct {
	syncer   Syncer
	syncing  bool
	progress chan service.SyncProgress
	latest   service.SyncProgress
	result   *service.SyncResult
	err      error
	done     bool
}

// NewSyncModel creates the sync screen. A nil syncer disables syncing.
func NewSyncModel(syncer Syncer) SyncModel {
	return SyncModel{syncer: syncer}
}

// Init initializes the sync screen
func (m SyncModel) Init() tea.Cmd {
	return nil
}

type syncProgressMsg struct {
	progress service.SyncProgress
	ok       bool
}

type syncDoneMsg struct {
	result *service.SyncResult
	err    error
}

// Update handles messages
func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case syncProgressMsg:
		if !msg.ok {
			return m, nil
		}
		m.latest = msg.progress
		return m, waitForProgress(m.progress)

	case syncDoneMsg:
		m.syncing = false
		m.done = true
		m.result = msg.result
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if m.syncer == nil || m.syncing {
			return m, nil
		}
		switch msg.String() {
		case "enter", "s":
			m.syncing = true
			m.done = false
			m.err = nil
			m.result = nil
			m.latest = service.SyncProgress{}
			m.progress = make(chan service.SyncProgress, 16)
			return m, tea.Batch(runSync(m.syncer, m.progress), waitForProgress(m.progress))
		}
	}
	return m, nil
}

// runSync runs the sync; SyncAll closes progress when it returns
func runSync(syncer Syncer, progress chan service.SyncProgress) tea.Cmd {
	return func() tea.Msg {
		result, err := syncer.SyncAll(context.Background(), progress)
		return syncDoneMsg{result: result, err: err}
	}
}

func waitForProgress(progress <-chan service.SyncProgress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-progress
		return syncProgressMsg{progress: p, ok: ok}
	}
}

// View renders the sync screen
func (m SyncModel) View() string {
	sections := []string{cardTitleStyle.Render("Strava Sync")}

	switch {
	case m.syncer == nil:
		sections = append(sections,
			warningStyle.Render("  Strava is not configured."),
			mutedStyle.Render("  Add client_id, client_secret and refresh_token to the config, or run with -login."))
	case m.syncing:
		sections = append(sections, m.renderProgress())
	case m.done:
		sections = append(sections, m.renderSummary())
	default:
		sections = append(sections, m.renderStartPrompt())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m SyncModel) renderStartPrompt() string {
	short, daily := m.syncer.RateLimitStatus()
	lines := []string{
		"  Sync will:",
		"  1. Fetch activities recorded since the last sync",
		"  2. Recompute training loads",
		"  3. Recompute goal progress",
		"",
		mutedStyle.Render(fmt.Sprintf("  API requests left: %d (15 min), %d (today)", short, daily)),
		statusStyle.Render("  Press 's' or Enter to start"),
	}
	return strings.Join(lines, "\n")
}

func (m SyncModel) renderProgress() string {
	p := m.latest
	phases := []struct {
		name  string
		label string
	}{
		{service.PhaseActivities, "Fetching activities"},
		{service.PhaseLoads, "Computing loads"},
		{service.PhaseProgress, "Updating goals"},
	}

	current := -1
	for i, ph := range phases {
		if ph.name == p.Phase {
			current = i
		}
	}

	var lines []string
	for i, ph := range phases {
		mark := "  "
		style := mutedStyle
		switch {
		case i < current:
			mark, style = "✓ ", successStyle
		case i == current:
			mark, style = "› ", metricValueStyle
		}
		lines = append(lines, "  "+style.Render(mark+ph.label))
	}

	if p.Total > 0 {
		pct := float64(p.Completed) / float64(p.Total)
		lines = append(lines, "", "  "+RenderProgressBar(pct, 30)+fmt.Sprintf(" %d/%d", p.Completed, p.Total))
	}
	if p.CurrentActivity != "" {
		lines = append(lines, mutedStyle.Render("  "+truncateName(p.CurrentActivity, 50)))
	}
	if p.Error != nil {
		lines = append(lines, warningStyle.Render(fmt.Sprintf("  %v", p.Error)))
	}
	return strings.Join(lines, "\n")
}

func (m SyncModel) renderSummary() string {
	var lines []string
	if m.err != nil {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("  Sync failed: %v", m.err)))
		if service.IsRetryable(m.err) {
			lines = append(lines, mutedStyle.Render("  The failure looks temporary; try again shortly."))
		}
	} else {
		lines = append(lines, successStyle.Render("  Sync complete"))
	}

	if r := m.result; r != nil {
		lines = append(lines,
			"",
			RenderMetric("  Fetched", fmt.Sprintf("%d", r.ActivitiesFetched), ""),
			RenderMetric("  Stored", fmt.Sprintf("%d", r.SessionsStored), ""),
			RenderMetric("  Loads", fmt.Sprintf("%d", r.LoadsComputed), ""),
			RenderMetric("  Goals", fmt.Sprintf("%d", r.GoalsUpdated), ""),
		)
		if len(r.Errors) > 0 {
			lines = append(lines, "", warningStyle.Render(fmt.Sprintf("  %d sessions could not be stored", len(r.Errors))))
		}
	}
	lines = append(lines, statusStyle.Render("  Press 's' to sync again, '1' for loads"))
	return strings.Join(lines, "\n")
}
