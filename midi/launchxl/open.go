package launchxl

import (
	"errors"
	"fmt"
	"log/slog"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

var ErrNoLaunchControl = errors.New("launchxl: no launch control xl is connected")

// Output is an open connection to the device's MIDI output.
type Output struct {
	*Feedback
	out drivers.Out
}

// Open finds the Launch Control XL output port of the registered gomidi
// driver.
func Open(template int, logger *slog.Logger) (*Output, error) {
	out, err := gomidi.FindOutPort(DeviceName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoLaunchControl, err)
	}
	if err := out.Open(); err != nil {
		return nil, fmt.Errorf("midi: open %s: %w", out.String(), err)
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		_ = out.Close()
		return nil, fmt.Errorf("midi: send to %s: %w", out.String(), err)
	}
	return &Output{
		Feedback: NewFeedback(func(data []byte) error { return send(gomidi.Message(data)) }, template, logger),
		out:      out,
	}, nil
}

func (o *Output) Close() error {
	if err := o.out.Close(); err != nil {
		return fmt.Errorf("midi: close output: %w", err)
	}
	return nil
}
