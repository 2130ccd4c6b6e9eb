package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownZoneModel is returned for an unrecognized zone model name
var ErrUnknownZoneModel = errors.New("unknown zone model")

// ZoneModelKind identifies a zone model family
type ZoneModelKind string

const (
	ModelFiveZone  ZoneModelKind = "5-zone"
	ModelThreeZone ZoneModelKind = "3-zone"
	ModelCoggan    ZoneModelKind = "coggan"
)

// ZoneModelKinds lists every supported kind in display order
var ZoneModelKinds = []ZoneModelKind{ModelFiveZone, ModelThreeZone, ModelCoggan}

// ParseZoneModelKind parses a zone model name, case-insensitively
func ParseZoneModelKind(s string) (ZoneModelKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, k := range ZoneModelKinds {
		if name == string(k) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownZoneModel, s)
}

// ZoneBasis is the threshold a model's percentages refer to
type ZoneBasis string

const (
	BasisMaxHR       ZoneBasis = "max_hr"
	BasisThresholdHR ZoneBasis = "threshold_hr"
	BasisFTP         ZoneBasis = "ftp"
)

// Zone is one effort band of a zone model.
// Absolute bounds are set for HR models (MinHR/MaxHR) or power models (MinWatts/MaxWatts).
type Zone struct {
	Number     int     `json:"number"`
	Name       string  `json:"name"`
	MinPercent float64 `json:"minPercent"`
	MaxPercent float64 `json:"maxPercent"`
	MinHR      int     `json:"minHR,omitempty"`
	MaxHR      int     `json:"maxHR,omitempty"`
	MinWatts   int     `json:"minWatts,omitempty"`
	MaxWatts   int     `json:"maxWatts,omitempty"`
	Color      string  `json:"color"`
}

// ZoneModel is an ordered, contiguous partition of an intensity range
type ZoneModel struct {
	Name      string        `json:"name"`
	Kind      ZoneModelKind `json:"kind"`
	Basis     ZoneBasis     `json:"basis"`
	Reference float64       `json:"reference"`
	Zones     []Zone        `json:"zones"`
}

// IsEmpty reports whether the model has no zones
func (m ZoneModel) IsEmpty() bool {
	return len(m.Zones) == 0
}

// bounds returns the absolute lower and upper bound of a zone in the model's units
func (m ZoneModel) bounds(z Zone) (float64, float64) {
	if m.Basis == BasisFTP {
		return float64(z.MinWatts), float64(z.MaxWatts)
	}
	return float64(z.MinHR), float64(z.MaxHR)
}

type zoneBand struct {
	name     string
	min, max float64 // percent of reference
	color    string
}

var (
	fiveZoneBands = []zoneBand{
		{"Recovery", 50, 60, "#9CA3AF"},
		{"Endurance", 60, 70, "#3B82F6"},
		{"Tempo", 70, 80, "#10B981"},
		{"Threshold", 80, 90, "#F59E0B"},
		{"VO2 Max", 90, 100, "#EF4444"},
	}

	threeZoneBands = []zoneBand{
		{"Low Intensity", 50, 82, "#3B82F6"},
		{"Threshold", 82, 88, "#F59E0B"},
		{"High Intensity", 88, 100, "#EF4444"},
	}

	cogganPowerBands = []zoneBand{
		{"Active Recovery", 0, 55, "#9CA3AF"},
		{"Endurance", 55, 75, "#3B82F6"},
		{"Tempo", 75, 90, "#10B981"},
		{"Lactate Threshold", 90, 105, "#F59E0B"},
		{"VO2 Max", 105, 120, "#EF4444"},
		{"Anaerobic Capacity", 120, 150, "#8B5CF6"},
	}

	// Heart-rate rendition of the Coggan levels on lactate threshold HR
	cogganHRBands = []zoneBand{
		{"Active Recovery", 50, 81, "#9CA3AF"},
		{"Endurance", 81, 90, "#3B82F6"},
		{"Tempo", 90, 94, "#10B981"},
		{"Threshold", 94, 100, "#F59E0B"},
		{"VO2 Max", 100, 106, "#EF4444"},
		{"Anaerobic Capacity", 106, 115, "#8B5CF6"},
	}
)

// BuildZoneModel builds a zone model of the given kind from athlete thresholds.
// Coggan uses FTP when known and falls back to threshold heart rate.
func BuildZoneModel(kind ZoneModelKind, t AthleteThresholds) ZoneModel {
	switch kind {
	case ModelFiveZone:
		return buildModel("5-Zone Heart Rate", kind, BasisMaxHR, t.MaxHR.Value, fiveZoneBands)
	case ModelThreeZone:
		return buildModel("3-Zone Polarized", kind, BasisMaxHR, t.MaxHR.Value, threeZoneBands)
	case ModelCoggan:
		if t.FTP != nil && t.FTP.Value > 0 {
			return buildModel("Coggan Power", kind, BasisFTP, t.FTP.Value, cogganPowerBands)
		}
		return buildModel("Coggan Heart Rate", kind, BasisThresholdHR, t.ThresholdHR.Value, cogganHRBands)
	}
	return ZoneModel{Kind: kind}
}

// buildModel derives absolute bounds from percent bands.
// Adjacent bands share the same percent so their rounded bounds are equal.
func buildModel(name string, kind ZoneModelKind, basis ZoneBasis, reference float64, bands []zoneBand) ZoneModel {
	m := ZoneModel{Name: name, Kind: kind, Basis: basis, Reference: reference}
	if reference <= 0 || math.IsNaN(reference) || math.IsInf(reference, 0) {
		return m
	}

	m.Zones = make([]Zone, len(bands))
	for i, b := range bands {
		lo := int(math.Round(b.min / 100 * reference))
		hi := int(math.Round(b.max / 100 * reference))
		z := Zone{
			Number:     i + 1,
			Name:       b.name,
			MinPercent: b.min,
			MaxPercent: b.max,
			Color:      b.color,
		}
		if basis == BasisFTP {
			z.MinWatts, z.MaxWatts = lo, hi
		} else {
			z.MinHR, z.MaxHR = lo, hi
		}
		m.Zones[i] = z
	}
	return m
}
