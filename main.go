package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/oauth2"

	"fitinsight/internal/analysis"
	"fitinsight/internal/api"
	"fitinsight/internal/config"
	"fitinsight/internal/fitfile"
	"fitinsight/internal/service"
	"fitinsight/internal/store"
	"fitinsight/internal/strava"
	"fitinsight/internal/tui"
)

type options struct {
	configPath string
	dbPath     string
	importPath string
	serve      bool
	sync       bool
	recalc     bool
	login      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "config file (default ~/.fitinsight/config.{json,yaml,yml,toml})")
	flag.StringVar(&opts.dbPath, "db", "", "database file (default ~/.fitinsight/data.db)")
	flag.StringVar(&opts.importPath, "import", "", "import a FIT file and print its time in zone")
	flag.BoolVar(&opts.serve, "serve", false, "serve the HTTP API with scheduled recalculation")
	flag.BoolVar(&opts.sync, "sync", false, "sync from Strava once and exit")
	flag.BoolVar(&opts.recalc, "recalc", false, "recalculate loads and goal progress and exit")
	flag.BoolVar(&opts.login, "login", false, "authorize with Strava and store the refresh token")
	flag.Parse()

	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func run(opts options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, cfgPath, err := loadConfig(opts.configPath)
	if errors.Is(err, config.ErrNoConfig) {
		fmt.Println("No config file found. Creating example config...")
		if err := config.CreateExample(); err != nil {
			return fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Printf("\nPlease edit the config file at:\n  %s/config.json\n\n", configDir)
		fmt.Println("Add your athlete thresholds, and Strava API credentials to sync.")
		fmt.Println("Get them from: https://www.strava.com/settings/api")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Config validation failed: %v\n\nPlease edit the config file at:\n  %s\n", err, cfgPath)
		return nil
	}

	interactive := opts.importPath == "" && !opts.serve && !opts.sync && !opts.recalc && !opts.login
	logger, closeLog, err := newLogger(cfg, interactive)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	if opts.login {
		return login(ctx, cfg, cfgPath)
	}

	st, err := store.Open(opts.dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	model, err := analysis.ParseZoneModelKind(cfg.Zones.Model)
	if err != nil {
		return err
	}
	svc, err := service.New(service.Config{
		Sessions:  st,
		Goals:     st,
		Athlete:   cfg.Athlete,
		ZoneModel: model,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}

	syncSvc, err := newSyncService(cfg, cfgPath, st, svc, logger)
	if err != nil {
		return err
	}

	switch {
	case opts.importPath != "":
		return importFile(ctx, svc, cfg, opts.importPath)
	case opts.sync:
		if syncSvc == nil {
			return cfg.ValidateStrava()
		}
		return syncOnce(ctx, syncSvc)
	case opts.recalc:
		return recalculate(ctx, svc, cfg.Athlete.ID)
	case opts.serve:
		return serve(ctx, svc, cfg, logger)
	}

	// The TUI takes a nil interface, not a nil *SyncService
	var syncer tui.Syncer
	if syncSvc != nil {
		syncer = syncSvc
	}
	app := tui.NewApp(svc, syncer, cfg.Athlete.ID, tui.NewUnits(cfg.Display))
	if _, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// loadConfig loads path, or the first config file in the config directory
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		found, err := config.Find()
		if err != nil {
			return nil, "", err
		}
		path = found
	}
	cfg, err := config.LoadFile(path)
	return cfg, path, err
}

// newLogger logs to stderr, or to a file next to the config while the TUI owns the terminal
func newLogger(cfg *config.Config, interactive bool) (*slog.Logger, func(), error) {
	var w io.Writer = os.Stderr
	closer := func() {}
	if interactive {
		dir, err := config.GetConfigDir()
		if err != nil {
			return nil, nil, err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("creating config directory: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(dir, "fitinsight.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w = f
		closer = func() { f.Close() }
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})
	return slog.New(handler), closer, nil
}

// newSyncService wires the Strava client, or returns nil when credentials are missing.
// Rotated refresh tokens are written back to the config file.
func newSyncService(cfg *config.Config, cfgPath string, st *store.Store, svc *service.Service, logger *slog.Logger) (*service.SyncService, error) {
	if err := cfg.ValidateStrava(); err != nil {
		logger.Info("strava sync disabled", "reason", err)
		return nil, nil
	}

	tokens := strava.NewTokenSource(credentials(cfg), func(t *oauth2.Token) error {
		cfg.Strava.RefreshToken = t.RefreshToken
		return config.SaveFile(cfg, cfgPath)
	})
	client := strava.NewClient(tokens)

	return service.NewSyncService(service.SyncConfig{
		Source:    client,
		Sessions:  st,
		State:     st,
		Service:   svc,
		AthleteID: cfg.Athlete.ID,
		Logger:    logger,
	})
}

func credentials(cfg *config.Config) strava.Credentials {
	return strava.Credentials{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
		RefreshToken: cfg.Strava.RefreshToken,
	}
}

// login runs the browser authorization and saves the refresh token
func login(ctx context.Context, cfg *config.Config, cfgPath string) error {
	result, err := strava.Login(ctx, credentials(cfg), strava.DefaultCallbackAddr, func(url string) {
		fmt.Println("To authorize fitinsight with Strava, open this URL in your browser:")
		fmt.Printf("\n  %s\n\nWaiting for authorization...\n", url)
	})
	if err != nil {
		return fmt.Errorf("authorizing: %w", err)
	}

	cfg.Strava.RefreshToken = result.Token.RefreshToken
	if err := config.SaveFile(cfg, cfgPath); err != nil {
		return fmt.Errorf("saving refresh token: %w", err)
	}
	fmt.Printf("Authorized as Strava athlete %d. Refresh token saved to %s\n", result.AthleteID, cfgPath)
	return nil
}

func importFile(ctx context.Context, svc *service.Service, cfg *config.Config, path string) error {
	imp, err := fitfile.ReadFile(path)
	if err != nil {
		return err
	}
	result, err := svc.ImportSession(ctx, cfg.Athlete.ID, imp)
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}

	units := tui.NewUnits(cfg.Display)
	s := result.Session
	fmt.Printf("%s  %s  %s  %d min\n", s.LocalStart().Format("2006-01-02 15:04"), s.Name, units.FormatDistance(s.Distance), s.MovingTime/60)
	if result.Replaced {
		fmt.Println("Already imported, replaced the stored copy.")
	}
	fmt.Printf("Load %.0f (%s), TRIMP %.0f, TSS %.0f\n\n", result.Load.NormalizedLoad, result.Load.Source, result.Load.TRIMP, result.Load.TSS)

	if len(result.Distribution) == 0 {
		fmt.Println("No heart rate data to classify.")
	} else {
		fmt.Println(result.Model.Name)
		for _, zt := range result.Distribution {
			fmt.Printf("  Z%d %-16s %6.1f min  %5.1f%%\n", zt.Zone.Number, zt.Zone.Name, zt.TotalSeconds/60, zt.Percentage)
		}
	}
	if result.GoalsUpdated > 0 {
		fmt.Printf("\n%d goals updated\n", result.GoalsUpdated)
	}
	return nil
}

func syncOnce(ctx context.Context, syncSvc *service.SyncService) error {
	progress := make(chan service.SyncProgress, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			if p.Error != nil {
				fmt.Printf("%s: %v\n", p.Phase, p.Error)
			}
		}
	}()

	result, err := syncSvc.SyncAll(ctx, progress)
	<-done
	if err != nil {
		return err
	}
	fmt.Printf("Fetched %d, stored %d, loads %d, goals %d\n",
		result.ActivitiesFetched, result.SessionsStored, result.LoadsComputed, result.GoalsUpdated)
	for _, e := range result.Errors {
		fmt.Printf("  %v\n", e)
	}
	return nil
}

func recalculate(ctx context.Context, svc *service.Service, athleteID int64) error {
	loads, err := svc.RecalculateLoads(ctx, athleteID)
	if err != nil {
		return err
	}
	goals, err := svc.RecalculateAllProgress(ctx, athleteID)
	if err != nil {
		return err
	}
	fmt.Printf("Recalculated %d loads and %d goals\n", loads, goals)
	return nil
}

func serve(ctx context.Context, svc *service.Service, cfg *config.Config, logger *slog.Logger) error {
	scheduler, err := api.NewScheduler(api.SchedulerConfig{
		Service:   svc,
		AthleteID: cfg.Athlete.ID,
		Schedule:  cfg.Server.RecalculateSchedule,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	server, err := api.NewServer(api.Config{
		Addr:    cfg.Server.Addr,
		Service: svc,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	return server.ListenAndServe(ctx)
}
