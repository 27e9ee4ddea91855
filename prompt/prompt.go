// Package prompt holds the per-prompt record and the widget-side state
// that mutates it in response to the level selector, MIDI and dragging.
package prompt

import (
	"github.com/jmacd/promptdj/geometry"
	"github.com/jmacd/promptdj/intensity"
	"github.com/jmacd/promptdj/midi/controller"
	"github.com/jmacd/promptdj/palette"
)

// Prompt is the full record for one prompt. ID doubles as the display
// text and the collection key; Text, CC and Color never change after
// creation.
type Prompt struct {
	ID     string             `json:"promptId"`
	Text   string             `json:"text"`
	Weight float64            `json:"weight"`
	CC     controller.Control `json:"cc"`
	Color  palette.Color      `json:"color"`
	X      float64            `json:"x"`
	Y      float64            `json:"y"`
}

// Level is the UI level derived from Weight.
func (p Prompt) Level() int {
	return intensity.WeightToLevel(p.Weight)
}

func (p Prompt) Position() geometry.Point {
	return geometry.Point{X: p.X, Y: p.Y}
}
