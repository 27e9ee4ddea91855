// Package config loads promptdj settings from an optional TOML file and
// PROMPTDJ_* environment variables. Environment values win over the file;
// defaults fill whatever is left.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"

	"github.com/jmacd/promptdj/geometry"
	"github.com/jmacd/promptdj/intensity"
	"github.com/jmacd/promptdj/midi/controller"
	"github.com/jmacd/promptdj/palette"
	"github.com/jmacd/promptdj/prompt"
	"github.com/jmacd/promptdj/visual"
)

const (
	DefaultFile = "promptdj.toml"
	EnvPrefix   = "PROMPTDJ_"

	BackendRtmidi   = "rtmidi"
	BackendPortmidi = "portmidi"
)

var ErrInvalid = errors.New("invalid config")

type (
	Config struct {
		Log     LogConfig       `toml:"log"`
		MIDI    MIDIConfig      `toml:"midi"`
		Board   BoardConfig     `toml:"board"`
		Palette palette.Palette `toml:"palette"`
		Prompts []PromptConfig  `toml:"prompts"`
	}

	LogConfig struct {
		Level string `toml:"level" env:"LOG_LEVEL"`
	}

	MIDIConfig struct {
		Backend string `toml:"backend" env:"MIDI_BACKEND"`
		// Input selects the first device whose name contains it.
		Input string `toml:"input" env:"MIDI_INPUT"`
		// Lights shows prompt levels on a Launch Control XL.
		Lights   bool `toml:"lights" env:"MIDI_LIGHTS"`
		Template int  `toml:"template" env:"MIDI_TEMPLATE"`
	}

	BoardConfig struct {
		ThrottleInterval string  `toml:"throttle_interval" env:"THROTTLE_INTERVAL"`
		Width            float64 `toml:"width" env:"WIDTH"`
		Height           float64 `toml:"height" env:"HEIGHT"`
		HalfWidth        float64 `toml:"half_width" env:"HALF_WIDTH"`
		HalfHeight       float64 `toml:"half_height" env:"HALF_HEIGHT"`
		FirstCC          int     `toml:"first_cc" env:"FIRST_CC"`
	}

	// PromptConfig is a prompt present at startup. A nil position means
	// the centre of the board.
	PromptConfig struct {
		Name   string   `toml:"name"`
		Weight float64  `toml:"weight"`
		X      *float64 `toml:"x"`
		Y      *float64 `toml:"y"`
	}
)

// Load reads path if it is non-empty, or DefaultFile if that exists, then
// applies the environment and defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes TOML without applying the environment or defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) finalize() error {
	if err := c.loadEnv(); err != nil {
		return err
	}
	c.loadDefaults()
	return c.validate()
}

// loadEnv overrides the scalar sections. The palette and prompt lists
// are file-only.
func (c *Config) loadEnv() error {
	opts := env.Options{Prefix: EnvPrefix}
	for _, section := range []any{&c.Log, &c.MIDI, &c.Board} {
		if err := env.ParseWithOptions(section, opts); err != nil {
			return fmt.Errorf("environment: %w", err)
		}
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.MIDI.Backend == "" {
		c.MIDI.Backend = BackendRtmidi
	}
	if c.Board.ThrottleInterval == "" {
		c.Board.ThrottleInterval = visual.DefaultInterval.String()
	}
	if c.Board.Width == 0 {
		c.Board.Width = 1000
	}
	if c.Board.Height == 0 {
		c.Board.Height = 1000
	}
	if c.Board.HalfWidth == 0 {
		c.Board.HalfWidth = 50
	}
	if c.Board.HalfHeight == 0 {
		c.Board.HalfHeight = 50
	}
	if len(c.Palette) == 0 {
		c.Palette = palette.Default
	}
}

func (c *Config) validate() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}
	switch c.MIDI.Backend {
	case BackendRtmidi, BackendPortmidi:
	default:
		return fmt.Errorf("%w: midi.backend %q", ErrInvalid, c.MIDI.Backend)
	}
	if c.MIDI.Template < 0 || c.MIDI.Template > 15 {
		return fmt.Errorf("%w: midi.template %d", ErrInvalid, c.MIDI.Template)
	}
	d, err := time.ParseDuration(c.Board.ThrottleInterval)
	if err != nil || d <= 0 {
		return fmt.Errorf("%w: board.throttle_interval %q", ErrInvalid, c.Board.ThrottleInterval)
	}
	if c.Board.Width < 0 || c.Board.Height < 0 || c.Board.HalfWidth < 0 || c.Board.HalfHeight < 0 {
		return fmt.Errorf("%w: board extents must not be negative", ErrInvalid)
	}
	if c.Board.FirstCC < 0 || c.Board.FirstCC+len(c.Prompts) > controller.NumControls {
		return fmt.Errorf("%w: board.first_cc %d", ErrInvalid, c.Board.FirstCC)
	}

	seen := map[string]bool{}
	for _, e := range c.Palette {
		if e.Name == "" || seen[e.Name] {
			return fmt.Errorf("%w: palette name %q", ErrInvalid, e.Name)
		}
		seen[e.Name] = true
	}
	seen = map[string]bool{}
	for _, p := range c.Prompts {
		if p.Name == "" || seen[p.Name] {
			return fmt.Errorf("%w: prompt name %q", ErrInvalid, p.Name)
		}
		if p.Weight < 0 || p.Weight > intensity.MaxWeight {
			return fmt.Errorf("%w: prompt %q weight %v", ErrInvalid, p.Name, p.Weight)
		}
		seen[p.Name] = true
	}
	return nil
}

// Level is the parsed log level.
func (c *Config) Level() slog.Level {
	var level slog.Level
	_ = level.UnmarshalText([]byte(c.Log.Level))
	return level
}

func (c *Config) ThrottleInterval() time.Duration {
	d, _ := time.ParseDuration(c.Board.ThrottleInterval)
	return d
}

func (c *Config) Container() geometry.Extent {
	return geometry.Extent{W: c.Board.Width, H: c.Board.Height}
}

func (c *Config) HalfExtent() geometry.Extent {
	return geometry.Extent{W: c.Board.HalfWidth, H: c.Board.HalfHeight}
}

// Seeds returns the startup prompts with CC numbers counting up from
// first_cc and positions clamped to the board.
func (c *Config) Seeds() []prompt.Prompt {
	center := c.Container().Center()
	seeds := make([]prompt.Prompt, 0, len(c.Prompts))
	for i, pc := range c.Prompts {
		cc := c.Board.FirstCC + i
		pt := center
		if pc.X != nil {
			pt.X = *pc.X
		}
		if pc.Y != nil {
			pt.Y = *pc.Y
		}
		pt = geometry.Clamp(pt, c.HalfExtent(), c.Container())
		seeds = append(seeds, prompt.Prompt{
			ID:     pc.Name,
			Text:   pc.Name,
			Weight: pc.Weight,
			CC:     controller.Control(cc),
			Color:  c.Palette.ColorFor(pc.Name, cc),
			X:      pt.X,
			Y:      pt.Y,
		})
	}
	return seeds
}
