package music

import (
	"math"
	"strings"

	"github.com/Conceptual-Machines/magda-jam/internal/models"
)

const (
	defaultLevel = 0.5
	levelStep    = 0.2

	doubleFactor   = 2.0
	fasterFactor   = 1.2
	slowerFactor   = 0.8
	muchFaster     = 1.5
	muchSlower     = 0.6
	veryMinimalLvl = 0.1
)

// CalculateBPMChange applies a spoken tempo modification to the current BPM.
// The result is clamped to [models.MinBPM, models.MaxBPM]; an unrecognised
// modification returns current unchanged.
func CalculateBPMChange(current int, modification string) int {
	mod := strings.ToLower(modification)
	bpm := float64(current)

	switch {
	case containsAny(mod, "much faster", "way faster"):
		return faster(bpm * muchFaster)
	case containsAny(mod, "much slower", "way slower"):
		return slower(bpm * muchSlower)
	case containsAny(mod, "double", "twice"):
		return faster(bpm * doubleFactor)
	case containsAny(mod, "half", "slow down"):
		return slower(bpm / doubleFactor)
	case containsAny(mod, "faster", "speed up", "quicker"):
		return faster(bpm * fasterFactor)
	case containsAny(mod, "slower", "slow"):
		return slower(bpm * slowerFactor)
	}
	return current
}

func faster(bpm float64) int {
	return min(models.MaxBPM, int(math.Round(bpm)))
}

func slower(bpm float64) int {
	return max(models.MinBPM, int(math.Round(bpm)))
}

// CalculateDensityChange moves density (0 sparse, 1 busy) per the modification.
// A nil current density starts from the midpoint.
func CalculateDensityChange(current *float64, modification string) float64 {
	mod := strings.ToLower(modification)
	level := levelOrDefault(current)

	switch {
	case containsAny(mod, "very busy", "maximum"):
		return 1.0
	case containsAny(mod, "very sparse", "very minimal"):
		return veryMinimalLvl
	case containsAny(mod, "busier", "more busy", "denser", "fuller"):
		return step(level, levelStep)
	case containsAny(mod, "sparser", "more sparse", "minimal", "simpler", "stripped down"):
		return step(level, -levelStep)
	}
	return level
}

// CalculateBrightnessChange moves brightness (0 dark, 1 bright) per the modification.
// A nil current brightness starts from the midpoint.
func CalculateBrightnessChange(current *float64, modification string) float64 {
	mod := strings.ToLower(modification)
	level := levelOrDefault(current)

	switch {
	case containsAny(mod, "very bright", "brightest"):
		return 1.0
	case containsAny(mod, "very dark", "darkest"):
		return 0.0
	case containsAny(mod, "brighter", "lighter", "more bright"):
		return step(level, levelStep)
	case containsAny(mod, "darker", "more dark", "dimmer"):
		return step(level, -levelStep)
	}
	return level
}

func levelOrDefault(v *float64) float64 {
	if v == nil {
		return defaultLevel
	}
	return *v
}

// step moves level by delta, clamped to [0, 1] and rounded to two decimals
// so repeated nudges do not drift.
func step(level, delta float64) float64 {
	v := max(0.0, min(1.0, level+delta))
	return math.Round(v*100) / 100
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
