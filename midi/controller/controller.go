package controller

import "github.com/jmacd/promptdj/intensity"

// Control is a MIDI control-change number, 0-127.
type Control int

// Value is a control-change value, 0-127.
type Value uint8

// Message is one control-change event as delivered by an input device.
type Message struct {
	Channel int
	Control Control
	Value   Value
}

type Callback func(Message)

const (
	NumControls = 128

	StatusControlChange = 0xb0
	StatusCodeMask      = 0xf0
	ChannelMask         = 0x0f
)

// Level quantizes v to a UI level 0..5.
func (v Value) Level() int {
	return intensity.CCToLevel(int(v))
}

// Float maps v onto [0, 1], placing the centre detent of 64 at exactly 0.5.
func (v Value) Float() float64 {
	switch {
	case v == 0:
		return 0
	case v == 64:
		return 0.5
	case v == 127:
		return 1
	case v < 64:
		return float64(v) / 128
	default:
		return float64(v-1) / 126
	}
}

// Decode interprets a three-byte short message. ok is false for anything
// other than control change.
func Decode(status, data1, data2 byte) (msg Message, ok bool) {
	if status&StatusCodeMask != StatusControlChange {
		return Message{}, false
	}
	return Message{
		Channel: int(status & ChannelMask),
		Control: Control(data1 & 0x7f),
		Value:   Value(data2 & 0x7f),
	}, true
}
