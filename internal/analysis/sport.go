package analysis

import "strings"

// Sport categories used across the analysis
const (
	SportRun      = "run"
	SportRide     = "ride"
	SportSwim     = "swim"
	SportWalk     = "walk"
	SportHike     = "hike"
	SportStrength = "strength"
	SportOther    = "other"
)

var sportAliases = map[string]string{
	"run":              SportRun,
	"running":          SportRun,
	"trailrun":         SportRun,
	"virtualrun":       SportRun,
	"treadmill":        SportRun,
	"ride":             SportRide,
	"cycling":          SportRide,
	"virtualride":      SportRide,
	"ebikeride":        SportRide,
	"gravelride":       SportRide,
	"mountainbikeride": SportRide,
	"swim":             SportSwim,
	"swimming":         SportSwim,
	"walk":             SportWalk,
	"walking":          SportWalk,
	"hike":             SportHike,
	"hiking":           SportHike,
	"strength":         SportStrength,
	"weighttraining":   SportStrength,
	"training":         SportStrength,
	"crossfit":         SportStrength,
	"workout":          SportStrength,
}

// NormalizeSport maps provider and file sport names onto a sport category
func NormalizeSport(s string) string {
	if sport, ok := sportAliases[sportKey(s)]; ok {
		return sport
	}
	return SportOther
}

func sportKey(s string) string {
	key := strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
}

// IsKnownSport reports whether s names a sport category or one of its aliases
func IsKnownSport(s string) bool {
	key := sportKey(s)
	_, ok := sportAliases[key]
	return ok || key == SportOther
}

// sportIntensity is the duration-only load per moving minute.
// A steady hour of running scores about 60, roughly an easy-to-moderate TSS hour.
var sportIntensity = map[string]float64{
	SportRun:      1.0,
	SportRide:     0.75,
	SportSwim:     0.9,
	SportHike:     0.7,
	SportWalk:     0.4,
	SportStrength: 0.6,
	SportOther:    0.6,
}

// SportIntensity returns the duration-only load multiplier for a sport
func SportIntensity(sport string) float64 {
	return sportIntensity[NormalizeSport(sport)]
}

// isPaceSport reports whether pace is a meaningful intensity proxy for the sport
func isPaceSport(sport string) bool {
	switch NormalizeSport(sport) {
	case SportRun, SportWalk, SportHike:
		return true
	}
	return false
}
