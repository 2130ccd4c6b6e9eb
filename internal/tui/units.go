package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"fitinsight/internal/config"
)

const (
	metersPerMile = 1609.344
	metersPerKm   = 1000.0
)

// Units formats distances and paces in the configured unit
type Units struct {
	miles bool
}

// NewUnits creates a Units helper from the display config
func NewUnits(cfg config.DisplayConfig) Units {
	return Units{miles: strings.EqualFold(cfg.DistanceUnit, "mi")}
}

// FormatDistance formats meters in the preferred unit, or "-" when unknown
func (u Units) FormatDistance(meters *float64) string {
	if meters == nil || *meters <= 0 {
		return "-"
	}
	if u.miles {
		return fmt.Sprintf("%.1f mi", *meters/metersPerMile)
	}
	return fmt.Sprintf("%.1f km", *meters/metersPerKm)
}

// FormatPace formats seconds per kilometer in the preferred unit
func (u Units) FormatPace(secondsPerKm float64) string {
	if secondsPerKm <= 0 {
		return "-"
	}
	pace := secondsPerKm
	label := "/km"
	if u.miles {
		pace = secondsPerKm * metersPerMile / metersPerKm
		label = "/mi"
	}
	total := int(pace + 0.5)
	return fmt.Sprintf("%d:%02d%s", total/60, total%60, label)
}

// DistanceLabel returns "mi" or "km"
func (u Units) DistanceLabel() string {
	if u.miles {
		return "mi"
	}
	return "km"
}

// formatDuration renders seconds as "1h 05m" or "45m"
func formatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// formatWhen renders a past or future time relative to now
func formatWhen(t time.Time, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

func truncateName(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
