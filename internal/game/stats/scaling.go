package stats

import "math"

// Floor scaling constants.
const (
	// FloorGrowthRate is the per-floor exponential growth of enemy HP, damage and rewards.
	FloorGrowthRate = 1.15
	// BaseArmorConstant is the armor mitigation constant on floor 1.
	BaseArmorConstant = 200.0
	// ArmorConstantDecay is the per-floor geometric decay of the mitigation constant.
	ArmorConstantDecay = 0.97
	// MinArmorConstant bounds the decayed mitigation constant from below.
	MinArmorConstant = 10.0
	// XPBase is the experience needed to go from level 1 to level 2.
	XPBase = 50.0
	// XPGrowthRate is the per-level growth of the experience threshold.
	XPGrowthRate = 1.35
	// MaxLevel is the hero level cap.
	MaxLevel = 100
)

// FloorGrowth returns the enemy scaling factor for floor.
//
// Postcondition: FloorGrowth(1) == 1; strictly increasing for floor >= 1.
func FloorGrowth(floor int) float64 {
	if floor < 1 {
		floor = 1
	}
	return math.Pow(FloorGrowthRate, float64(floor-1))
}

// MitigationConstant returns the armor formula denominator for floor.
// It decays geometrically so raw armor stays meaningful deeper in the dungeon.
//
// Postcondition: Returns a value in [MinArmorConstant, BaseArmorConstant].
func MitigationConstant(floor int) float64 {
	if floor < 1 {
		floor = 1
	}
	return math.Max(MinArmorConstant, BaseArmorConstant*math.Pow(ArmorConstantDecay, float64(floor-1)))
}

// Reduction returns the fraction of incoming damage absorbed by armor.
//
// Precondition: c > 0.
// Postcondition: 0 <= result < 1 for armor >= 0; strictly increasing in armor.
func Reduction(armor, c float64) float64 {
	if armor <= 0 || c <= 0 {
		return 0
	}
	return armor / (armor + c)
}

// XPThreshold returns the experience needed to advance from level to level+1.
//
// Postcondition: Returns >= 1.
func XPThreshold(level int) int {
	if level < 1 {
		level = 1
	}
	return int(math.Max(1, math.Round(XPBase*math.Pow(XPGrowthRate, float64(level-1)))))
}
