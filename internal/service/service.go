package service

import (
	"errors"
	"log/slog"
	"time"

	"fitinsight/internal/analysis"
	"fitinsight/internal/config"
)

// Config configures a Service
type Config struct {
	Sessions SessionRepository
	Goals    GoalRepository
	Athlete  config.AthleteConfig
	// ZoneModel is the default model kind; empty means 5-zone
	ZoneModel analysis.ZoneModelKind
	Logger    *slog.Logger
	Now       func() time.Time
}

// Service computes zone, load and goal reports from repository data.
// It holds no state between calls.
type Service struct {
	sessions  SessionRepository
	goals     GoalRepository
	overrides analysis.Overrides
	zoneModel analysis.ZoneModelKind
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Service
func New(cfg Config) (*Service, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("session repository is required")
	}
	if cfg.Goals == nil {
		return nil, errors.New("goal repository is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ZoneModel == "" {
		cfg.ZoneModel = analysis.ModelFiveZone
	}
	return &Service{
		sessions:  cfg.Sessions,
		goals:     cfg.Goals,
		overrides: OverridesFromConfig(cfg.Athlete),
		zoneModel: cfg.ZoneModel,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}, nil
}

// OverridesFromConfig converts configured athlete thresholds into analysis overrides.
// Zero values stay zero and are estimated from data.
func OverridesFromConfig(a config.AthleteConfig) analysis.Overrides {
	return analysis.Overrides{
		MaxHR:         a.MaxHR,
		RestingHR:     a.RestingHR,
		ThresholdHR:   a.ThresholdHR,
		FTP:           a.FTP,
		ThresholdPace: a.ThresholdPace,
	}
}

func validateUserID(userID int64) error {
	if userID <= 0 {
		return &ValidationError{Field: "userID", Message: "must be a positive integer"}
	}
	return nil
}
