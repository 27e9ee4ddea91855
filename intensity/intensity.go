// Package intensity converts between the three representations of a
// prompt's strength: the continuous weight in [0, 2], the discrete UI
// level in 0..5 and the MIDI control-change value in 0..127.
//
// The conversions are lossy. Only level -> weight -> level is an identity.
package intensity

import "math"

const (
	MaxWeight  = 2.0
	MaxLevel   = 5
	MaxCCValue = 127

	levelsPerWeight = MaxLevel / MaxWeight // 2.5
)

// WeightToLevel returns the nearest level for a weight in [0, 2].
func WeightToLevel(weight float64) int {
	return int(round(weight * levelsPerWeight))
}

// LevelToWeight returns the canonical weight for a level in 0..5.
func LevelToWeight(level int) float64 {
	return float64(level) / levelsPerWeight
}

// CCToLevel quantizes a CC value in 0..127 to a level.
func CCToLevel(value int) int {
	return int(round(float64(value) / MaxCCValue * MaxLevel))
}

// LevelToCC returns the CC value that CCToLevel maps back to level.
func LevelToCC(level int) int {
	return int(round(float64(level) / MaxLevel * MaxCCValue))
}

// ClampWeight forces w into [0, MaxWeight].
func ClampWeight(w float64) float64 {
	switch {
	case math.IsNaN(w), w < 0:
		return 0
	case w > MaxWeight:
		return MaxWeight
	}
	return w
}

// round is half-away-from-zero. Inputs are non-negative, so this never
// differs from JavaScript-style rounding; banker's rounding would.
func round(v float64) float64 {
	return math.Round(v)
}
