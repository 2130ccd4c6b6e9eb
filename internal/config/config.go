package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron"
	"gopkg.in/yaml.v3"

	"fitinsight/internal/analysis"
)

// Config represents the application configuration
type Config struct {
	Strava  StravaConfig  `json:"strava" yaml:"strava" toml:"strava"`
	Athlete AthleteConfig `json:"athlete" yaml:"athlete" toml:"athlete"`
	Zones   ZonesConfig   `json:"zones" yaml:"zones" toml:"zones"`
	Server  ServerConfig  `json:"server" yaml:"server" toml:"server"`
	Display DisplayConfig `json:"display" yaml:"display" toml:"display"`
	Log     LogConfig     `json:"log" yaml:"log" toml:"log"`
}

// StravaConfig holds Strava API credentials
type StravaConfig struct {
	ClientID     string `json:"client_id" yaml:"client_id" toml:"client_id"`
	ClientSecret string `json:"client_secret" yaml:"client_secret" toml:"client_secret"`
	RefreshToken string `json:"refresh_token" yaml:"refresh_token" toml:"refresh_token"`
}

// AthleteConfig holds athlete-specific settings.
// Zero thresholds are estimated from session history.
type AthleteConfig struct {
	ID            int64   `json:"id" yaml:"id" toml:"id"`
	RestingHR     float64 `json:"resting_hr" yaml:"resting_hr" toml:"resting_hr"`
	MaxHR         float64 `json:"max_hr" yaml:"max_hr" toml:"max_hr"`
	ThresholdHR   float64 `json:"threshold_hr" yaml:"threshold_hr" toml:"threshold_hr"`
	FTP           float64 `json:"ftp" yaml:"ftp" toml:"ftp"`                                  // watts
	ThresholdPace float64 `json:"threshold_pace" yaml:"threshold_pace" toml:"threshold_pace"` // seconds per km
}

// ZonesConfig selects the default zone model
type ZonesConfig struct {
	Model string `json:"model" yaml:"model" toml:"model"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr                string `json:"addr" yaml:"addr" toml:"addr"`
	RecalculateSchedule string `json:"recalculate_schedule" yaml:"recalculate_schedule" toml:"recalculate_schedule"`
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	DistanceUnit string `json:"distance_unit" yaml:"distance_unit" toml:"distance_unit"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `json:"level" yaml:"level" toml:"level"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// configNames lists config file names in lookup order
var configNames = []string{"config.json", "config.yaml", "config.yml", "config.toml"}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Athlete: AthleteConfig{
			ID: 1,
		},
		Zones: ZonesConfig{
			Model: string(analysis.ModelFiveZone),
		},
		Server: ServerConfig{
			Addr:                ":8080",
			RecalculateSchedule: "@every 6h",
		},
		Display: DisplayConfig{
			DistanceUnit: "km",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the first config file found in ~/.fitinsight
func Load() (*Config, error) {
	path, err := Find()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// Find returns the path of the first config file present in ~/.fitinsight
func Find() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrNoConfig
}

// LoadFile reads a config file, decoding it by extension (json, yaml, yml or toml)
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills missing values from DefaultConfig
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Athlete.ID == 0 {
		c.Athlete.ID = defaults.Athlete.ID
	}
	if c.Zones.Model == "" {
		c.Zones.Model = defaults.Zones.Model
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.RecalculateSchedule == "" {
		c.Server.RecalculateSchedule = defaults.Server.RecalculateSchedule
	}
	if c.Display.DistanceUnit == "" {
		c.Display.DistanceUnit = defaults.Display.DistanceUnit
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// Save writes the configuration to ~/.fitinsight/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(cfg, path)
}

// SaveFile writes the configuration to path in the format given by its extension
func SaveFile(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	var data []byte
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	case ".toml":
		data, err = toml.Marshal(cfg)
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	if _, err := Load(); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Strava = StravaConfig{
		ClientID:     "YOUR_CLIENT_ID",
		ClientSecret: "YOUR_CLIENT_SECRET",
		RefreshToken: "YOUR_REFRESH_TOKEN",
	}
	return Save(&example)
}

// Validate checks settings used by every command
func (c *Config) Validate() error {
	if c.Athlete.ID <= 0 {
		return fmt.Errorf("athlete.id must be positive, got %d", c.Athlete.ID)
	}

	for name, v := range map[string]float64{
		"resting_hr":     c.Athlete.RestingHR,
		"max_hr":         c.Athlete.MaxHR,
		"threshold_hr":   c.Athlete.ThresholdHR,
		"ftp":            c.Athlete.FTP,
		"threshold_pace": c.Athlete.ThresholdPace,
	} {
		if v < 0 {
			return fmt.Errorf("athlete.%s must not be negative, got %v", name, v)
		}
	}
	if c.Athlete.MaxHR > 0 && (c.Athlete.MaxHR < analysis.MinPlausibleHR || c.Athlete.MaxHR > analysis.MaxPlausibleHR) {
		return fmt.Errorf("athlete.max_hr must be between %d and %d, got %v",
			analysis.MinPlausibleHR, analysis.MaxPlausibleHR, c.Athlete.MaxHR)
	}
	// Validate threshold_hr < max_hr when both are set
	if c.Athlete.ThresholdHR > 0 && c.Athlete.MaxHR > 0 && c.Athlete.ThresholdHR >= c.Athlete.MaxHR {
		return fmt.Errorf("athlete.threshold_hr (%v) must be less than athlete.max_hr (%v)", c.Athlete.ThresholdHR, c.Athlete.MaxHR)
	}
	if c.Athlete.RestingHR > 0 && c.Athlete.MaxHR > 0 && c.Athlete.RestingHR >= c.Athlete.MaxHR {
		return fmt.Errorf("athlete.resting_hr (%v) must be less than athlete.max_hr (%v)", c.Athlete.RestingHR, c.Athlete.MaxHR)
	}

	if c.Zones.Model != "" {
		if _, err := analysis.ParseZoneModelKind(c.Zones.Model); err != nil {
			return fmt.Errorf("zones.model: %w", err)
		}
	}

	if c.Server.RecalculateSchedule != "" {
		if _, err := cron.Parse(c.Server.RecalculateSchedule); err != nil {
			return fmt.Errorf("server.recalculate_schedule: %w", err)
		}
	}

	if c.Display.DistanceUnit != "" && c.Display.DistanceUnit != "km" && c.Display.DistanceUnit != "mi" {
		return fmt.Errorf("display.distance_unit must be \"km\" or \"mi\", got %q", c.Display.DistanceUnit)
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}

	return nil
}

// ValidateStrava checks the credentials needed to sync from Strava
func (c *Config) ValidateStrava() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.RefreshToken == "" || c.Strava.RefreshToken == "YOUR_REFRESH_TOKEN" {
		return errors.New("strava.refresh_token is required - authorize the app once and copy the refresh token")
	}
	return nil
}

// SlogLevel maps the configured level onto a slog level
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// getConfigPath returns the path to the default config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configNames[0]), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".fitinsight"), nil
}
