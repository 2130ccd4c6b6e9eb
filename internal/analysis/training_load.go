package analysis

import (
	"math"
	"sort"
	"time"

	"fitinsight/internal/store"
)

// Training load constants
const (
	// Banister gender coefficient (male default)
	TRIMPCoefficient = 1.92

	// Approximately 100 TRIMP for 1 hour at threshold
	ThresholdTRIMP = 100.0

	// Pace-based TSS is skipped below this speed (m/s); the session was mostly stopped
	MinPaceSpeed = 0.5
)

// LoadSource names the strategy that produced a normalized load
type LoadSource string

const (
	LoadSourcePower     LoadSource = "power"
	LoadSourceHeartRate LoadSource = "heart_rate"
	LoadSourcePace      LoadSource = "pace"
	LoadSourceDuration  LoadSource = "duration"
	LoadSourceNone      LoadSource = "none"
)

// TRIMP calculates Training Impulse (Banister model)
// TRIMP = duration (min) * ΔHR ratio * e^(b * ΔHR ratio)
// where b = 1.92 for men, 1.67 for women (using male default)
func TRIMP(session store.Session, t AthleteThresholds) float64 {
	trimp, _ := trimp(session, t)
	return trimp
}

// trimp reports false when the session has no usable heart rate
func trimp(session store.Session, t AthleteThresholds) (float64, bool) {
	avgHR, ok := plausibleHR(session.AverageHeartrate)
	if !ok {
		return 0, false
	}

	hrReserve := t.HRReserve()
	if hrReserve <= 0 {
		return 0, false
	}

	duration := float64(session.MovingTime) / 60.0
	hrRatio := clamp((avgHR-t.RestingHR.Value)/hrReserve, 0, 1)

	return nonNegative(duration * hrRatio * math.Exp(TRIMPCoefficient*hrRatio)), true
}

// HRSS calculates Heart Rate Stress Score
// Normalized to ~100 for a 1-hour threshold effort
func HRSS(session store.Session, t AthleteThresholds) float64 {
	return nonNegative(TRIMP(session, t) / ThresholdTRIMP * 100)
}

// TSS calculates Training Stress Score: duration(s) * IF² / 3600 * 100.
// Power is preferred; pace is used for foot sports when a threshold pace is known.
func TSS(session store.Session, t AthleteThresholds) float64 {
	if tss, ok := powerTSS(session, t); ok {
		return tss
	}
	if tss, ok := paceTSS(session, t); ok {
		return tss
	}
	return 0
}

func powerTSS(session store.Session, t AthleteThresholds) (float64, bool) {
	if t.FTP == nil || t.FTP.Value <= 0 || session.AveragePower == nil {
		return 0, false
	}
	power := *session.AveragePower
	if power <= 0 || power > MaxPlausiblePower || math.IsNaN(power) {
		return 0, false
	}
	return stressScore(session.MovingTime, power/t.FTP.Value), true
}

func paceTSS(session store.Session, t AthleteThresholds) (float64, bool) {
	if t.ThresholdPace == nil || t.ThresholdPace.Value <= 0 || !isPaceSport(session.Sport) {
		return 0, false
	}
	if session.Distance == nil || *session.Distance <= 0 || session.MovingTime <= 0 {
		return 0, false
	}
	speed := *session.Distance / float64(session.MovingTime)
	if speed < MinPaceSpeed || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return 0, false
	}
	thresholdSpeed := 1000 / t.ThresholdPace.Value
	return stressScore(session.MovingTime, speed/thresholdSpeed), true
}

func stressScore(seconds int, intensityFactor float64) float64 {
	return nonNegative(float64(seconds) * intensityFactor * intensityFactor / 3600 * 100)
}

// LoadStrategy computes a normalized load from one kind of session data.
// Compute returns false to decline when its data is missing.
type LoadStrategy struct {
	Source  LoadSource
	Compute func(store.Session, AthleteThresholds) (float64, bool)
}

// LoadStrategies lists load strategies in priority order
var LoadStrategies = []LoadStrategy{
	{Source: LoadSourcePower, Compute: powerTSS},
	{Source: LoadSourceHeartRate, Compute: trimp},
	{Source: LoadSourcePace, Compute: paceTSS},
	{Source: LoadSourceDuration, Compute: durationLoad},
}

func durationLoad(session store.Session, _ AthleteThresholds) (float64, bool) {
	if session.MovingTime <= 0 {
		return 0, false
	}
	return float64(session.MovingTime) / 60 * SportIntensity(session.Sport), true
}

// NormalizedLoad returns the load from the first strategy that accepts the session
func NormalizedLoad(session store.Session, t AthleteThresholds) (float64, LoadSource) {
	return normalizedLoadWith(LoadStrategies, session, t)
}

func normalizedLoadWith(strategies []LoadStrategy, session store.Session, t AthleteThresholds) (float64, LoadSource) {
	for _, s := range strategies {
		if load, ok := s.Compute(session, t); ok {
			return nonNegative(load), s.Source
		}
	}
	return 0, LoadSourceNone
}

// LoadResult holds every load score computed for one session
type LoadResult struct {
	TRIMP          float64    `json:"trimp"`
	HRSS           float64    `json:"hrss"`
	TSS            float64    `json:"tss"`
	NormalizedLoad float64    `json:"normalizedLoad"`
	Source         LoadSource `json:"source"`
}

// ComputeLoad calculates all load scores for a session
func ComputeLoad(session store.Session, t AthleteThresholds) LoadResult {
	load, source := NormalizedLoad(session, t)
	return LoadResult{
		TRIMP:          TRIMP(session, t),
		HRSS:           HRSS(session, t),
		TSS:            TSS(session, t),
		NormalizedLoad: load,
		Source:         source,
	}
}

// nonNegative maps NaN, infinities and negatives onto a finite load
func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, -1) || v < 0 {
		return 0
	}
	if math.IsInf(v, 1) {
		return math.MaxFloat64
	}
	return v
}

// DailyLoad represents training load for a single day
type DailyLoad struct {
	Date time.Time
	Load float64
}

// FitnessMetrics represents CTL/ATL/TSB for a day
type FitnessMetrics struct {
	Date time.Time `json:"date"`
	CTL  float64   `json:"ctl"` // Chronic Training Load (42-day EMA) - "Fitness"
	ATL  float64   `json:"atl"` // Acute Training Load (7-day EMA) - "Fatigue"
	TSB  float64   `json:"tsb"` // Training Stress Balance (CTL - ATL) - "Form"
}

// CalculateFitnessTrend computes CTL/ATL/TSB from daily loads
func CalculateFitnessTrend(dailyLoads []DailyLoad) []FitnessMetrics {
	if len(dailyLoads) == 0 {
		return nil
	}

	sorted := make([]DailyLoad, len(dailyLoads))
	copy(sorted, dailyLoads)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	// EMA decay constants
	ctlDecay := 2.0 / (42.0 + 1.0) // 42-day time constant
	atlDecay := 2.0 / (7.0 + 1.0)  // 7-day time constant

	var metrics []FitnessMetrics
	var ctl, atl float64

	// Fill in missing days with zero load
	startDate := Day(sorted[0].Date)
	endDate := Day(sorted[len(sorted)-1].Date)

	// Sum multiple sessions on the same day
	loadMap := make(map[string]float64)
	for _, dl := range sorted {
		loadMap[Day(dl.Date).Format("2006-01-02")] += nonNegative(dl.Load)
	}

	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		load := loadMap[d.Format("2006-01-02")]

		ctl = ctl + ctlDecay*(load-ctl)
		atl = atl + atlDecay*(load-atl)

		metrics = append(metrics, FitnessMetrics{
			Date: d,
			CTL:  ctl,
			ATL:  atl,
			TSB:  ctl - atl,
		})
	}

	return metrics
}

// FormDescription returns a human-readable description of TSB
func FormDescription(tsb float64) string {
	switch {
	case tsb > 25:
		return "Very fresh (possibly detrained)"
	case tsb > 10:
		return "Fresh and ready to race"
	case tsb > 0:
		return "Neutral - good for training"
	case tsb > -10:
		return "Slightly fatigued"
	case tsb > -25:
		return "Tired but building fitness"
	default:
		return "Very fatigued - rest needed"
	}
}
