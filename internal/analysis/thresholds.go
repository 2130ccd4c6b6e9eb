package analysis

import (
	"math"

	"fitinsight/internal/store"
)

// ThresholdSource tells whether a threshold was observed or supplied, or estimated
type ThresholdSource string

const (
	SourceEstimated ThresholdSource = "estimated"
	SourceMeasured  ThresholdSource = "measured"
)

// Threshold estimation constants
const (
	DefaultMaxHR     = 185 // population default when no HR data exists
	DefaultRestingHR = 50

	MinPlausibleHR = 60
	MaxPlausibleHR = 230

	// Stable low-intensity sessions anchor the resting HR estimate
	StableSessionMinSeconds = 15 * 60
	LowIntensityMaxFraction = 0.75 // of max HR
	EasySessionReserve      = 0.60 // assumed HR reserve fraction of the easiest session
	MinRestingHR            = 35
	MaxRestingHR            = 80

	ThresholdHRFraction = 0.89 // lactate threshold HR as a fraction of max HR

	FTPMinSeconds      = 20 * 60
	FTPFullHourSeconds = 60 * 60
	FTPShortFactor     = 0.95 // 20-minute rule
	MaxPlausiblePower  = 2000
)

// Threshold is one physiological threshold value with its provenance
type Threshold struct {
	Value  float64         `json:"value"`
	Source ThresholdSource `json:"source"`
}

// AthleteThresholds holds the thresholds that personalize loads and zones
type AthleteThresholds struct {
	MaxHR         Threshold  `json:"maxHeartRate"`
	RestingHR     Threshold  `json:"restingHeartRate"`
	ThresholdHR   Threshold  `json:"thresholdHeartRate"`
	FTP           *Threshold `json:"functionalThresholdPower,omitempty"` // watts
	ThresholdPace *Threshold `json:"thresholdPace,omitempty"`            // seconds per km

	SessionCount   int `json:"sessionCount"`
	HRSessionCount int `json:"heartRateSessionCount"`
}

// HRReserve returns max minus resting heart rate
func (t AthleteThresholds) HRReserve() float64 {
	return t.MaxHR.Value - t.RestingHR.Value
}

// Overrides are athlete-supplied thresholds. Zero values mean "estimate from data".
type Overrides struct {
	MaxHR         float64
	RestingHR     float64
	ThresholdHR   float64
	FTP           float64
	ThresholdPace float64
}

// EstimateThresholds derives athlete thresholds from the session history.
// It never fails: missing data falls back to defaults tagged as estimated.
func EstimateThresholds(sessions []store.Session, o Overrides) AthleteThresholds {
	t := AthleteThresholds{SessionCount: len(sessions)}

	observedMax := 0.0
	for _, s := range sessions {
		avg, hasAvg := plausibleHR(s.AverageHeartrate)
		peak, hasPeak := plausibleHR(s.MaxHeartrate)
		if !hasAvg && !hasPeak {
			continue
		}
		t.HRSessionCount++
		if !hasPeak {
			peak = avg
		}
		if peak > observedMax {
			observedMax = peak
		}
	}

	switch {
	case o.MaxHR > 0:
		t.MaxHR = Threshold{Value: o.MaxHR, Source: SourceMeasured}
	case observedMax > 0:
		t.MaxHR = Threshold{Value: observedMax, Source: SourceMeasured}
	default:
		t.MaxHR = Threshold{Value: DefaultMaxHR, Source: SourceEstimated}
	}

	if o.RestingHR > 0 {
		t.RestingHR = Threshold{Value: o.RestingHR, Source: SourceMeasured}
	} else {
		t.RestingHR = Threshold{Value: estimateRestingHR(sessions, t.MaxHR.Value), Source: SourceEstimated}
	}

	if o.ThresholdHR > 0 {
		t.ThresholdHR = Threshold{Value: o.ThresholdHR, Source: SourceMeasured}
	} else {
		t.ThresholdHR = Threshold{Value: math.Round(t.MaxHR.Value * ThresholdHRFraction), Source: SourceEstimated}
	}

	if o.FTP > 0 {
		t.FTP = &Threshold{Value: o.FTP, Source: SourceMeasured}
	} else if ftp := estimateFTP(sessions); ftp > 0 {
		t.FTP = &Threshold{Value: ftp, Source: SourceEstimated}
	}

	if o.ThresholdPace > 0 {
		t.ThresholdPace = &Threshold{Value: o.ThresholdPace, Source: SourceMeasured}
	}

	return t
}

// estimateRestingHR inverts the Karvonen relation for the easiest stable session:
// low = rest + EasySessionReserve*(max-rest)
func estimateRestingHR(sessions []store.Session, maxHR float64) float64 {
	lowest := 0.0
	for _, s := range sessions {
		if s.MovingTime < StableSessionMinSeconds {
			continue
		}
		avg, ok := plausibleHR(s.AverageHeartrate)
		if !ok || avg > maxHR*LowIntensityMaxFraction {
			continue
		}
		if lowest == 0 || avg < lowest {
			lowest = avg
		}
	}
	if lowest == 0 {
		return DefaultRestingHR
	}

	rest := (lowest - EasySessionReserve*maxHR) / (1 - EasySessionReserve)
	return math.Round(clamp(rest, MinRestingHR, MaxRestingHR))
}

// estimateFTP takes the best sustained average power, discounting efforts under an hour
func estimateFTP(sessions []store.Session) float64 {
	best := 0.0
	for _, s := range sessions {
		if s.AveragePower == nil || s.MovingTime < FTPMinSeconds {
			continue
		}
		p := *s.AveragePower
		if p <= 0 || p > MaxPlausiblePower || math.IsNaN(p) {
			continue
		}
		if s.MovingTime < FTPFullHourSeconds {
			p *= FTPShortFactor
		}
		if p > best {
			best = p
		}
	}
	return math.Round(best)
}

// plausibleHR returns the heart rate if present and physiologically plausible
func plausibleHR(hr *float64) (float64, bool) {
	if hr == nil {
		return 0, false
	}
	v := *hr
	if math.IsNaN(v) || v < MinPlausibleHR || v > MaxPlausibleHR {
		return 0, false
	}
	return v, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
