package analysis

import (
	"fmt"
	"math"
	"sort"

	"fitinsight/internal/store"
)

// DataQuality grades how much heart-rate history grounds the zones
type DataQuality string

const (
	QualityExcellent DataQuality = "excellent"
	QualityGood      DataQuality = "good"
	QualityFair      DataQuality = "fair"
	QualityPoor      DataQuality = "poor"
	QualityNone      DataQuality = "none"
)

// qualityRank orders grades from none (0) to excellent (4)
var qualityRank = map[DataQuality]int{
	QualityNone:      0,
	QualityPoor:      1,
	QualityFair:      2,
	QualityGood:      3,
	QualityExcellent: 4,
}

// AtLeast reports whether q is as good as other
func (q DataQuality) AtLeast(other DataQuality) bool {
	return qualityRank[q] >= qualityRank[other]
}

// Confidence summarizes how trustworthy the derived zones are
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Grading thresholds
const (
	FairMinHRSessions      = 5
	GoodMinHRSessions      = 10
	ExcellentMinHRSessions = 20
	GoodMinHRRatio         = 0.5
	ExcellentMinHRRatio    = 0.75

	HighConfidenceMinSessions   = 20
	MediumConfidenceMinSessions = 10
)

// GradeDataQuality grades HR coverage from the number of HR-bearing sessions out of total
func GradeDataQuality(hrSessions, totalSessions int) DataQuality {
	if hrSessions <= 0 {
		return QualityNone
	}
	ratio := 0.0
	if totalSessions > 0 {
		ratio = float64(hrSessions) / float64(totalSessions)
	}

	switch {
	case hrSessions < FairMinHRSessions:
		return QualityPoor
	case hrSessions < GoodMinHRSessions || ratio < GoodMinHRRatio:
		return QualityFair
	case hrSessions < ExcellentMinHRSessions || ratio < ExcellentMinHRRatio:
		return QualityGood
	default:
		return QualityExcellent
	}
}

// GradeConfidence combines data quality with history length
func GradeConfidence(quality DataQuality, totalSessions int) Confidence {
	switch {
	case quality.AtLeast(QualityGood) && totalSessions >= HighConfidenceMinSessions:
		return ConfidenceHigh
	case quality.AtLeast(QualityFair) && totalSessions >= MediumConfidenceMinSessions:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// PercentileTable holds session average HR percentiles
type PercentileTable struct {
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P85 float64 `json:"p85"`
	P90 float64 `json:"p90"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// Percentile returns the p-th percentile of sorted values, interpolating between closest ranks
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := clamp(p, 0, 100) / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func percentileTable(values []float64) PercentileTable {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return PercentileTable{
		P50: Percentile(sorted, 50),
		P75: Percentile(sorted, 75),
		P85: Percentile(sorted, 85),
		P90: Percentile(sorted, 90),
		P95: Percentile(sorted, 95),
		P99: Percentile(sorted, 99),
	}
}

// OverallStats summarizes the heart-rate history
type OverallStats struct {
	MaxHR          float64         `json:"maxHeartRate"`
	AvgHR          float64         `json:"avgHeartRate"`
	RestingHR      float64         `json:"restingHeartRate"`
	HRSessionCount int             `json:"heartRateSessionCount"`
	TotalSessions  int             `json:"totalSessions"`
	DataQuality    DataQuality     `json:"dataQuality"`
	Percentiles    PercentileTable `json:"percentiles"`
}

// SportBreakdown summarizes one sport's sessions
type SportBreakdown struct {
	Sport          string  `json:"sport"`
	SessionCount   int     `json:"sessionCount"`
	HRSessionCount int     `json:"heartRateSessionCount"`
	MaxHR          float64 `json:"maxHeartRate"`
	AvgHR          float64 `json:"avgHeartRate"`
}

// ZoneAnalysisResult is a complete zone analysis. It is computed fresh per request.
type ZoneAnalysisResult struct {
	Overall           OverallStats      `json:"overall"`
	SportBreakdowns   []SportBreakdown  `json:"sportBreakdowns"`
	SuggestedModel    ZoneModel         `json:"suggestedModel"`
	AlternativeModels []ZoneModel       `json:"alternativeModels"`
	Confidence        Confidence        `json:"confidence"`
	NeedsMoreData     bool              `json:"needsMoreData"`
	Recommendations   []string          `json:"recommendations"`
	Thresholds        AthleteThresholds `json:"thresholds"`
	Custom            bool              `json:"custom"`
}

// ZoneOptions customizes a zone analysis. Zero values keep the automatic behaviour.
type ZoneOptions struct {
	MaxHeartRate float64
	Model        ZoneModelKind
	SportFilter  string
}

// AnalyzeZones runs the automatic pipeline: estimate thresholds, grade the data
// and build the suggested model of the given kind (5-zone when empty).
func AnalyzeZones(sessions []store.Session, overrides Overrides, kind ZoneModelKind) ZoneAnalysisResult {
	return analyzeZones(sessions, overrides, kind, false)
}

// AnalyzeZonesCustom applies caller options on top of the overrides and marks the result custom
func AnalyzeZonesCustom(sessions []store.Session, overrides Overrides, opts ZoneOptions) ZoneAnalysisResult {
	if opts.SportFilter != "" {
		sport := NormalizeSport(opts.SportFilter)
		var filtered []store.Session
		for _, s := range sessions {
			if NormalizeSport(s.Sport) == sport {
				filtered = append(filtered, s)
			}
		}
		sessions = filtered
	}
	if opts.MaxHeartRate > 0 {
		overrides.MaxHR = opts.MaxHeartRate
	}
	return analyzeZones(sessions, overrides, opts.Model, true)
}

func analyzeZones(sessions []store.Session, overrides Overrides, kind ZoneModelKind, custom bool) ZoneAnalysisResult {
	if kind == "" {
		kind = ModelFiveZone
	}

	thresholds := EstimateThresholds(sessions, overrides)
	overall := overallStats(sessions, thresholds)
	confidence := GradeConfidence(overall.DataQuality, overall.TotalSessions)

	result := ZoneAnalysisResult{
		Overall:         overall,
		SportBreakdowns: sportBreakdowns(sessions),
		SuggestedModel:  BuildZoneModel(kind, thresholds),
		Confidence:      confidence,
		NeedsMoreData:   confidence == ConfidenceLow,
		Thresholds:      thresholds,
		Custom:          custom,
	}

	for _, k := range ZoneModelKinds {
		if k == kind {
			continue
		}
		if m := BuildZoneModel(k, thresholds); !m.IsEmpty() {
			result.AlternativeModels = append(result.AlternativeModels, m)
		}
	}

	result.Recommendations = zoneRecommendations(result)
	return result
}

func overallStats(sessions []store.Session, t AthleteThresholds) OverallStats {
	stats := OverallStats{
		RestingHR:      t.RestingHR.Value,
		HRSessionCount: t.HRSessionCount,
		TotalSessions:  len(sessions),
	}

	var avgs []float64
	for _, s := range sessions {
		if avg, ok := plausibleHR(s.AverageHeartrate); ok {
			avgs = append(avgs, avg)
			stats.MaxHR = math.Max(stats.MaxHR, avg)
		}
		if peak, ok := plausibleHR(s.MaxHeartrate); ok {
			stats.MaxHR = math.Max(stats.MaxHR, peak)
		}
	}

	if len(avgs) > 0 {
		sum := 0.0
		for _, v := range avgs {
			sum += v
		}
		stats.AvgHR = math.Round(sum / float64(len(avgs)))
		stats.Percentiles = percentileTable(avgs)
	}

	stats.DataQuality = GradeDataQuality(stats.HRSessionCount, stats.TotalSessions)
	return stats
}

func sportBreakdowns(sessions []store.Session) []SportBreakdown {
	bySport := make(map[string]*SportBreakdown)
	sums := make(map[string]float64)
	avgCounts := make(map[string]int)

	for _, s := range sessions {
		sport := NormalizeSport(s.Sport)
		b, ok := bySport[sport]
		if !ok {
			b = &SportBreakdown{Sport: sport}
			bySport[sport] = b
		}
		b.SessionCount++

		avg, hasAvg := plausibleHR(s.AverageHeartrate)
		peak, hasPeak := plausibleHR(s.MaxHeartrate)
		if hasAvg || hasPeak {
			b.HRSessionCount++
		}
		if hasAvg {
			sums[sport] += avg
			avgCounts[sport]++
			b.MaxHR = math.Max(b.MaxHR, avg)
		}
		if hasPeak {
			b.MaxHR = math.Max(b.MaxHR, peak)
		}
	}

	breakdowns := make([]SportBreakdown, 0, len(bySport))
	for sport, b := range bySport {
		if n := avgCounts[sport]; n > 0 {
			b.AvgHR = math.Round(sums[sport] / float64(n))
		}
		breakdowns = append(breakdowns, *b)
	}
	sort.Slice(breakdowns, func(i, j int) bool {
		if breakdowns[i].SessionCount != breakdowns[j].SessionCount {
			return breakdowns[i].SessionCount > breakdowns[j].SessionCount
		}
		return breakdowns[i].Sport < breakdowns[j].Sport
	})
	return breakdowns
}

func zoneRecommendations(r ZoneAnalysisResult) []string {
	var recs []string
	o := r.Overall

	switch o.DataQuality {
	case QualityNone:
		recs = append(recs, "No heart rate data found. Record sessions with a heart rate monitor to personalize your zones.")
	case QualityPoor:
		recs = append(recs, fmt.Sprintf("Only %d sessions include heart rate. Record at least %d more with a heart rate monitor for usable zones.",
			o.HRSessionCount, GoodMinHRSessions-o.HRSessionCount))
	case QualityFair:
		recs = append(recs, fmt.Sprintf("%d of %d sessions include heart rate. Wear a heart rate monitor more often to sharpen your zones.",
			o.HRSessionCount, o.TotalSessions))
	case QualityGood:
		if o.HRSessionCount < ExcellentMinHRSessions {
			recs = append(recs, fmt.Sprintf("Good heart rate coverage. %d more heart rate sessions will make the estimate excellent.",
				ExcellentMinHRSessions-o.HRSessionCount))
		} else {
			recs = append(recs, "Good heart rate coverage. Recording heart rate on every session will make the estimate excellent.")
		}
	}

	if o.TotalSessions < MediumConfidenceMinSessions {
		recs = append(recs, fmt.Sprintf("Only %d sessions recorded. Zones will sharpen as your history grows.", o.TotalSessions))
	}

	if r.Thresholds.MaxHR.Source == SourceEstimated {
		recs = append(recs, "Max heart rate is a population default. A field test or race effort will calibrate your zones.")
	}

	if r.Custom && r.Thresholds.MaxHR.Source == SourceMeasured {
		recs = append(recs, fmt.Sprintf("Zones use a max heart rate of %.0f bpm.", r.Thresholds.MaxHR.Value))
	}

	if r.Confidence == ConfidenceHigh {
		recs = append(recs, fmt.Sprintf("Your zones are well calibrated from %d heart rate sessions.", o.HRSessionCount))
	}

	if r.SuggestedModel.Kind == ModelCoggan && r.SuggestedModel.Basis != BasisFTP {
		recs = append(recs, "No power data found, so Coggan levels use your threshold heart rate.")
	}

	return recs
}
