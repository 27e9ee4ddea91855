// Package palette holds the candidate prompt names and the colour each one
// is drawn with.
package palette

import "slices"

type (
	// Color is a CSS hex colour, "#rrggbb".
	Color string

	Entry struct {
		Name  string `toml:"name"`
		Color Color  `toml:"color"`
	}

	// Palette is an ordered list of entries. Names are unique.
	Palette []Entry
)

const (
	ColorPurple Color = "#9900ff"
	ColorIndigo Color = "#5200ff"
	ColorPink   Color = "#ff25f6"
	ColorTeal   Color = "#2af6de"
	ColorYellow Color = "#ffdd28"
	ColorMint   Color = "#3dffab"
	ColorLime   Color = "#d8ff3e"
	ColorLilac  Color = "#d9b2ff"

	// ColorNeutral replaces the colour of filtered prompts.
	ColorNeutral Color = "#888888"
)

var (
	EightColors = []Color{
		ColorPurple,
		ColorIndigo,
		ColorPink,
		ColorTeal,
		ColorYellow,
		ColorMint,
		ColorLime,
		ColorLilac,
	}

	Default = Palette{
		{"Bossa Nova", ColorPurple},
		{"Chillwave", ColorIndigo},
		{"Drum and Bass", ColorPink},
		{"Post Punk", ColorTeal},
		{"Shoegaze", ColorYellow},
		{"Funk", ColorTeal},
		{"Chiptune", ColorPurple},
		{"Lush Strings", ColorMint},
		{"Sparkling Arpeggios", ColorLime},
		{"Staccato Rhythms", ColorLilac},
		{"Punchy Kick", ColorMint},
		{"Dubstep", ColorYellow},
		{"K Pop", ColorPink},
		{"Neo Soul", ColorLime},
		{"Trip Hop", ColorIndigo},
		{"Thrash", ColorLilac},
	}
)

// Names returns the entry names in palette order.
func (p Palette) Names() []string {
	names := make([]string, 0, len(p))
	for _, e := range p {
		names = append(names, e.Name)
	}
	return names
}

// Lookup returns the colour bound to name.
func (p Palette) Lookup(name string) (Color, bool) {
	i := slices.IndexFunc(p, func(e Entry) bool { return e.Name == name })
	if i < 0 {
		return "", false
	}
	return p[i].Color, true
}

// ColorFor returns the colour bound to name, or a colour from EightColors
// chosen by seed for names outside the palette.
func (p Palette) ColorFor(name string, seed int) Color {
	if c, ok := p.Lookup(name); ok {
		return c
	}
	if seed < 0 {
		seed = -seed
	}
	return EightColors[seed%len(EightColors)]
}
