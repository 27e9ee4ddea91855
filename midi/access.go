// Package midi is the boundary to MIDI input hardware: device access,
// a control-change bus that prompts subscribe to, and the lazily opened
// device panel.
package midi

import (
	"context"
	"errors"

	"github.com/jmacd/promptdj/midi/controller"
)

type (
	// DeviceID identifies an input port within one Access.
	DeviceID int

	Device struct {
		ID   DeviceID
		Name string
	}

	// Access is an acquired handle on the platform's MIDI inputs.
	Access interface {
		Inputs() ([]DeviceID, error)
		Name(id DeviceID) string

		// Listen delivers control-change messages from id until stop is
		// called. Callbacks may run on a device goroutine.
		Listen(id DeviceID, cb controller.Callback) (stop func(), err error)

		Close() error
	}

	// Opener acquires Access. It is called at most once per successful
	// acquisition and may fail when MIDI is unsupported or denied.
	Opener func(ctx context.Context) (Access, error)
)

var (
	ErrNoDevices     = errors.New("midi: no input devices")
	ErrUnknownDevice = errors.New("midi: unknown input device")
	ErrPanelClosed   = errors.New("midi: panel is not open")
)
