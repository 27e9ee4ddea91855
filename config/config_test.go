package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmacd/promptdj/geometry"
	"github.com/jmacd/promptdj/midi/controller"
	"github.com/jmacd/promptdj/palette"
)

const sample = `
[log]
level = "debug"

[midi]
backend = "portmidi"
input = "launch"
lights = true
template = 8

[board]
throttle_interval = "50ms"
width = 800
height = 600
first_cc = 10

[[palette]]
name = "Funk"
color = "#2af6de"

[[palette]]
name = "Thrash"
color = "#d9b2ff"

[[prompts]]
name = "Funk"
weight = 1.2

[[prompts]]
name = "Thrash"
x = 5000
`

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "promptdj.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, BackendPortmidi, cfg.MIDI.Backend)
	assert.Equal(t, "launch", cfg.MIDI.Input)
	assert.True(t, cfg.MIDI.Lights)
	assert.Equal(t, 8, cfg.MIDI.Template)
	assert.Equal(t, 50*time.Millisecond, cfg.ThrottleInterval())
	assert.Equal(t, geometry.Extent{W: 800, H: 600}, cfg.Container())
	assert.Equal(t, geometry.Extent{W: 50, H: 50}, cfg.HalfExtent())
	assert.Equal(t, []string{"Funk", "Thrash"}, cfg.Palette.Names())

	seeds := cfg.Seeds()
	require.Len(t, seeds, 2)
	assert.Equal(t, controller.Control(10), seeds[0].CC)
	assert.Equal(t, palette.ColorTeal, seeds[0].Color)
	assert.Equal(t, 1.2, seeds[0].Weight)
	assert.Equal(t, geometry.Point{X: 400, Y: 300}, seeds[0].Position())
	assert.Equal(t, controller.Control(11), seeds[1].CC)
	assert.Equal(t, geometry.Point{X: 750, Y: 300}, seeds[1].Position())
}

func TestDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, slog.LevelInfo, cfg.Level())
	assert.Equal(t, BackendRtmidi, cfg.MIDI.Backend)
	assert.Equal(t, 30*time.Millisecond, cfg.ThrottleInterval())
	assert.Equal(t, palette.Default, cfg.Palette)
	assert.Empty(t, cfg.Seeds())
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("PROMPTDJ_MIDI_BACKEND", "rtmidi")
	t.Setenv("PROMPTDJ_LOG_LEVEL", "warn")
	t.Setenv("PROMPTDJ_WIDTH", "1200")

	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	assert.Equal(t, BackendRtmidi, cfg.MIDI.Backend)
	assert.Equal(t, slog.LevelWarn, cfg.Level())
	assert.Equal(t, 1200.0, cfg.Board.Width)
}

func TestInvalid(t *testing.T) {
	tests := map[string]string{
		"backend":  "[midi]\nbackend = \"alsa\"\n",
		"level":    "[log]\nlevel = \"loud\"\n",
		"interval": "[board]\nthrottle_interval = \"soon\"\n",
		"weight":   "[[prompts]]\nname = \"Funk\"\nweight = 3\n",
		"dup":      "[[prompts]]\nname = \"Funk\"\n[[prompts]]\nname = \"Funk\"\n",
		"cc":       "[board]\nfirst_cc = 200\n",
		"template": "[midi]\ntemplate = 16\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestParseError(t *testing.T) {
	_, err := Parse([]byte("[log]\nlevel = "))
	assert.Error(t, err)
}
