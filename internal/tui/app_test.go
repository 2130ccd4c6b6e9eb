package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"fitinsight/internal/analysis"
	"fitinsight/internal/config"
	"fitinsight/internal/goals"
	"fitinsight/internal/service"
	"fitinsight/internal/store"
)

type fakeReports struct {
	zoneRequests []service.ZoneRequest
	goalsErr     error
}

func (f *fakeReports) GetLoadSummary(ctx context.Context, userID int64) (*service.LoadSummary, error) {
	dist := 10000.0
	return &service.LoadSummary{
		CurrentFitness:  48,
		CurrentFatigue:  60,
		CurrentForm:     -12,
		FormDescription: "Fatigued",
		RecentSessions: []service.SessionWithLoad{{
			Session: store.Session{ID: 1, Name: "Tempo", Sport: "run", MovingTime: 3000, Distance: &dist},
			Load:    store.SessionLoad{SessionID: 1, NormalizedLoad: 72},
		}},
		Trend: []analysis.FitnessMetrics{{CTL: 40, ATL: 50}, {CTL: 44, ATL: 58}, {CTL: 48, ATL: 60}},
	}, nil
}

func (f *fakeReports) GetZoneAnalysis(ctx context.Context, userID int64) (*analysis.ZoneAnalysisResult, error) {
	return &analysis.ZoneAnalysisResult{Confidence: analysis.ConfidenceHigh}, nil
}

func (f *fakeReports) CustomZoneAnalysis(ctx context.Context, userID int64, req service.ZoneRequest) (*analysis.ZoneAnalysisResult, error) {
	f.zoneRequests = append(f.zoneRequests, req)
	return &analysis.ZoneAnalysisResult{Custom: true}, nil
}

func (f *fakeReports) ListGoalInsights(ctx context.Context, userID int64) ([]service.GoalWithInsight, error) {
	if f.goalsErr != nil {
		return nil, f.goalsErr
	}
	target := 100.0
	return []service.GoalWithInsight{{
		Goal:    store.Goal{ID: "g", Title: "Run 100 km", TargetValue: &target, Unit: "km", CurrentProgress: 40, Status: store.GoalStatusActive},
		Insight: goals.Insight{GoalID: "g", ProgressPercentage: 40, Trend: goals.TrendImproving},
	}}, nil
}

func (f *fakeReports) GetGoalRecommendations(ctx context.Context, userID int64) ([]goals.DashboardRecommendation, error) {
	return []goals.DashboardRecommendation{{Priority: 1, Message: "Keep going"}}, nil
}

type fakeSyncer struct {
	progress []service.SyncProgress
	err      error
}

func (f *fakeSyncer) SyncAll(ctx context.Context, progress chan<- service.SyncProgress) (*service.SyncResult, error) {
	defer close(progress)
	for _, p := range f.progress {
		progress <- p
	}
	return &service.SyncResult{ActivitiesFetched: 3, SessionsStored: 3}, f.err
}

func (f *fakeSyncer) RateLimitStatus() (int, int) { return 99, 999 }

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain runs cmd and feeds resulting messages back into the app, expanding batches
func drain(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 100 {
			t.Fatal("too many commands")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		if msg == nil {
			continue
		}
		_, next := a.Update(msg)
		queue = append(queue, next)
	}
}

func newTestApp(reports Reports, syncer Syncer) *App {
	return NewApp(reports, syncer, 1, NewUnits(config.DisplayConfig{DistanceUnit: "km"}))
}

func TestAppLoadsScreen(t *testing.T) {
	a := newTestApp(&fakeReports{}, nil)
	drain(t, a, a.Init())

	view := a.View()
	for _, want := range []string{"Current Form", "Tempo", "10.0 km", "Fatigued"} {
		if !strings.Contains(view, want) {
			t.Errorf("loads view missing %q", want)
		}
	}
}

func TestAppNavigation(t *testing.T) {
	reports := &fakeReports{}
	a := newTestApp(reports, nil)
	drain(t, a, a.Init())

	_, cmd := a.Update(key("2"))
	drain(t, a, cmd)
	if a.screen != ScreenZones {
		t.Fatalf("screen = %v, want zones", a.screen)
	}
	if !strings.Contains(a.View(), "high") {
		t.Errorf("zones view missing confidence")
	}

	_, cmd = a.Update(key("m"))
	drain(t, a, cmd)
	if len(reports.zoneRequests) != 1 || reports.zoneRequests[0].ZoneModel != string(analysis.ZoneModelKinds[0]) {
		t.Errorf("zone requests = %+v, want one for %s", reports.zoneRequests, analysis.ZoneModelKinds[0])
	}

	_, cmd = a.Update(key("3"))
	drain(t, a, cmd)
	view := a.View()
	if !strings.Contains(view, "Run 100 km") || !strings.Contains(view, "Keep going") {
		t.Errorf("goals view missing goal or recommendation:\n%s", view)
	}

	a.Update(key("?"))
	if a.screen != ScreenHelp {
		t.Fatalf("screen = %v, want help", a.screen)
	}
	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if a.screen != ScreenGoals {
		t.Errorf("esc returned to %v, want goals", a.screen)
	}
}

func TestAppGoalsError(t *testing.T) {
	a := newTestApp(&fakeReports{goalsErr: errors.New("database is locked")}, nil)
	_, cmd := a.Update(key("3"))
	drain(t, a, cmd)

	if !strings.Contains(a.View(), "database is locked") {
		t.Errorf("goals view should show the error")
	}
}

func TestAppSync(t *testing.T) {
	syncer := &fakeSyncer{progress: []service.SyncProgress{
		{Phase: service.PhaseActivities, Total: 3},
		{Phase: service.PhaseLoads},
	}}
	a := newTestApp(&fakeReports{}, syncer)

	_, cmd := a.Update(key("4"))
	drain(t, a, cmd)
	if !strings.Contains(a.View(), "99 (15 min)") {
		t.Errorf("sync view should show rate limits")
	}

	_, cmd = a.Update(key("s"))
	if !a.syncScreen.syncing {
		t.Fatal("sync did not start")
	}
	drain(t, a, cmd)

	if a.syncScreen.syncing || !a.syncScreen.done {
		t.Fatal("sync did not finish")
	}
	if !strings.Contains(a.View(), "Sync complete") {
		t.Errorf("sync view should report completion:\n%s", a.View())
	}
	if a.loads.loading {
		t.Error("loads should be reloaded after sync")
	}
}

func TestSyncDisabledWithoutSyncer(t *testing.T) {
	a := newTestApp(&fakeReports{}, nil)
	a.Update(key("4"))
	_, cmd := a.Update(key("s"))
	if cmd != nil || a.syncScreen.syncing {
		t.Error("sync should not start without a syncer")
	}
	if !strings.Contains(a.View(), "not configured") {
		t.Error("sync view should explain the missing configuration")
	}
}
