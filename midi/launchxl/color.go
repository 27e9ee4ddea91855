package launchxl

import "github.com/jmacd/promptdj/intensity"

const (
	ColorOff Color = 0

	ColorBrightRed    Color = 0xc
	ColorBrightOrange Color = 0xd
	ColorBrightYellow Color = 0xf
	ColorBrightGreen  Color = 0x3

	ColorDimRed    Color = 0x4
	ColorDimOrange Color = 0x9
	ColorDimYellow Color = 0x5
	ColorDimGreen  Color = 0x1

	ColorFlash Color = 0x10
)

var (
	EightColors = []Color{
		ColorBrightRed,
		ColorBrightOrange,
		ColorBrightYellow,
		ColorBrightGreen,
		ColorDimRed,
		ColorDimOrange,
		ColorDimYellow,
		ColorDimGreen,
	}

	// levelColors runs from off through green to red as the level rises.
	levelColors = [intensity.MaxLevel + 1]Color{
		ColorOff,
		ColorDimGreen,
		ColorBrightGreen,
		ColorBrightYellow,
		ColorBrightOrange,
		ColorBrightRed,
	}
)

// Color is a two-bit red and two-bit green LED colour plus the flash bit.
type Color byte

func Flash(c Color) Color {
	return c | ColorFlash
}

// LevelColor is the LED colour for a prompt level. Filtered prompts blink.
func LevelColor(level int, filtered bool) Color {
	level = min(max(level, 0), intensity.MaxLevel)
	c := levelColors[level]
	if filtered && c != ColorOff {
		c = Flash(c)
	}
	return c
}

func (c Color) toByte(flashOff bool) byte {
	if flashOff && c&ColorFlash != 0 {
		return 0
	}
	red := (byte(c) & 0xc) >> 2
	green := byte(c) & 0x3
	return red + green<<4
}
