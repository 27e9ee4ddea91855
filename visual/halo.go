package visual

const (
	// HaloLevelSpan is the scale added between level 1 and level 5.
	HaloLevelSpan = 1.2
	// HaloAudioGain scales the live audio level into the halo.
	HaloAudioGain = 1.0
)

// HaloScale returns the halo scale for a level widget. Level 0 hides the
// halo. A filtered prompt ignores audio entirely.
func HaloScale(level int, audioLevel float64, filtered bool) (scale float64, visible bool) {
	if level <= 0 {
		return 1, false
	}
	if filtered {
		audioLevel = 0
	}
	return 1 + float64(level-1)/4*HaloLevelSpan + audioLevel*HaloAudioGain, true
}
