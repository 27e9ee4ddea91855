// Package visual derives the decorative state drawn from prompt weights:
// the ensemble background and the per-prompt halo.
package visual

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/jmacd/promptdj/palette"
	"github.com/jmacd/promptdj/prompt"
)

const (
	// MaxAlpha is the opacity of a layer whose weight is 1 or more.
	MaxAlpha = 0.6

	placeMin  = 0.2
	placeSpan = 0.6
)

type (
	// Layer is one radial gradient of the background. X, Y and Stop are
	// fractions of the container.
	Layer struct {
		PromptID string
		Color    palette.Color
		Alpha    float64
		Stop     float64
		X, Y     float64
	}

	Background struct {
		Layers []Layer
	}

	// Placer picks a layer centre in [0.2, 0.8] on each axis.
	Placer func() (x, y float64)
)

// RandomPlacer places layers uniformly inside the central 60% of each
// axis. A nil r uses the global source.
func RandomPlacer(r *rand.Rand) Placer {
	f := rand.Float64
	if r != nil {
		f = r.Float64
	}
	return func() (float64, float64) {
		return placeMin + f()*placeSpan, placeMin + f()*placeSpan
	}
}

// ComputeBackground builds one layer per prompt with positive weight, in
// the order given. Opacity saturates at weight 1; beyond that only the
// gradient's reach (Stop = weight/2) grows. Placement comes from place,
// so with a RandomPlacer every call jitters: that is decoration, not state.
func ComputeBackground(prompts []prompt.Prompt, place Placer) Background {
	var bg Background
	for _, p := range prompts {
		if p.Weight <= 0 {
			continue
		}
		x, y := place()
		bg.Layers = append(bg.Layers, Layer{
			PromptID: p.ID,
			Color:    p.Color,
			Alpha:    math.Min(p.Weight, 1) * MaxAlpha,
			Stop:     p.Weight / 2,
			X:        x,
			Y:        y,
		})
	}
	return bg
}

// CSS renders the background as a comma-separated list of radial
// gradients, or "none" when there are no layers.
func (b Background) CSS() string {
	if len(b.Layers) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(b.Layers))
	for _, l := range b.Layers {
		parts = append(parts, fmt.Sprintf(
			"radial-gradient(circle at %s %s, %s%02x 0px, %s00 %s)",
			pct(l.X), pct(l.Y), l.Color, alphaByte(l.Alpha), l.Color, pct(l.Stop),
		))
	}
	return strings.Join(parts, ", ")
}

func alphaByte(a float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(a, 1)) * 0xff))
}

func pct(f float64) string {
	return fmt.Sprintf("%g%%", math.Round(f*10000)/100)
}
