package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron"
)

// Recalculator recomputes loads and goal progress for one athlete
type Recalculator interface {
	RecalculateLoads(ctx context.Context, userID int64) (int, error)
	RecalculateAllProgress(ctx context.Context, userID int64) (int, error)
}

// SchedulerConfig configures the recalculation scheduler.
type SchedulerConfig struct {
	Service   Recalculator
	AthleteID int64
	Schedule  string // cron spec, e.g. "@every 6h"
	Timeout   time.Duration
	Logger    *slog.Logger
}

// Scheduler periodically recalculates loads and goal progress
type Scheduler struct {
	cron      *cron.Cron
	service   Recalculator
	athleteID int64
	timeout   time.Duration
	logger    *slog.Logger

	mu      sync.Mutex // serializes runs
	lastRun time.Time
}

// NewScheduler validates the schedule and creates a stopped scheduler
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Service == nil {
		return nil, errors.New("service is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}

	s := &Scheduler{
		cron:      cron.New(),
		service:   cfg.Service,
		athleteID: cfg.AthleteID,
		timeout:   cfg.Timeout,
		logger:    cfg.Logger,
	}
	if err := s.cron.AddFunc(cfg.Schedule, s.runScheduled); err != nil {
		return nil, fmt.Errorf("parsing schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

// Start begins running on schedule
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("recalculation scheduler started", "athlete_id", s.athleteID)
}

// Stop stops scheduling new runs
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// LastRun returns when the last successful run finished
func (s *Scheduler) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

func (s *Scheduler) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("scheduled recalculation failed", "error", err)
	}
}

// RunOnce recalculates loads, then goal progress
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loads, err := s.service.RecalculateLoads(ctx, s.athleteID)
	if err != nil {
		return fmt.Errorf("recalculating loads: %w", err)
	}
	goals, err := s.service.RecalculateAllProgress(ctx, s.athleteID)
	if err != nil {
		return fmt.Errorf("recalculating goal progress: %w", err)
	}

	s.lastRun = time.Now()
	s.logger.Info("scheduled recalculation complete", "loads", loads, "goals", goals)
	return nil
}
