// Package rtmidi provides MIDI input access through gomidi. The binary
// must register a driver, e.g. by importing
// gitlab.com/gomidi/midi/v2/drivers/rtmididrv.
package rtmidi

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/jmacd/promptdj/midi"
	"github.com/jmacd/promptdj/midi/controller"
)

// Access represents the input ports known to the registered driver.
type Access struct {
	logger *slog.Logger

	lock  sync.Mutex
	ports map[midi.DeviceID]drivers.In
	order []midi.DeviceID
}

// Opener returns a midi.Opener that enumerates the driver's input ports.
func Opener(logger *slog.Logger) midi.Opener {
	return func(ctx context.Context) (midi.Access, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return Open(logger)
	}
}

// Open enumerates the input ports of the registered driver.
func Open(logger *slog.Logger) (*Access, error) {
	a := &Access{
		logger: logger.With("system", "rtmidi"),
		ports:  map[midi.DeviceID]drivers.In{},
	}
	if err := a.refresh(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Access) refresh() (err error) {
	defer func() {
		// Some drivers panic when the platform has no MIDI support.
		if r := recover(); r != nil {
			err = fmt.Errorf("midi: driver unavailable: %v", r)
		}
	}()

	a.lock.Lock()
	defer a.lock.Unlock()

	a.ports = map[midi.DeviceID]drivers.In{}
	a.order = a.order[:0]
	for _, in := range gomidi.GetInPorts() {
		id := midi.DeviceID(in.Number())
		a.ports[id] = in
		a.order = append(a.order, id)
	}
	return nil
}

func (a *Access) Inputs() ([]midi.DeviceID, error) {
	if err := a.refresh(); err != nil {
		return nil, err
	}
	a.lock.Lock()
	defer a.lock.Unlock()
	return append([]midi.DeviceID(nil), a.order...), nil
}

func (a *Access) Name(id midi.DeviceID) string {
	a.lock.Lock()
	defer a.lock.Unlock()
	if in, ok := a.ports[id]; ok {
		return in.String()
	}
	return ""
}

// Listen opens the port and delivers its control changes until stop.
func (a *Access) Listen(id midi.DeviceID, cb controller.Callback) (func(), error) {
	a.lock.Lock()
	in, ok := a.ports[id]
	a.lock.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d", midi.ErrUnknownDevice, id)
	}

	if !in.IsOpen() {
		if err := in.Open(); err != nil {
			return nil, fmt.Errorf("midi: open %s: %w", in.String(), err)
		}
	}

	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, _ int32) {
		if m, ok := decode(msg); ok {
			cb(m)
		}
	}, gomidi.HandleError(func(err error) {
		a.logger.Warn("midi listener error", "device", in.String(), "error", err)
	}))
	if err != nil {
		_ = in.Close()
		return nil, fmt.Errorf("midi: listen %s: %w", in.String(), err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			if err := in.Close(); err != nil {
				a.logger.Warn("midi close failed", "device", in.String(), "error", err)
			}
		})
	}, nil
}

func (a *Access) Close() error {
	gomidi.CloseDriver()
	return nil
}

func decode(msg gomidi.Message) (controller.Message, bool) {
	var ch, cc, val uint8
	if !msg.GetControlChange(&ch, &cc, &val) {
		return controller.Message{}, false
	}
	return controller.Message{
		Channel: int(ch),
		Control: controller.Control(cc),
		Value:   controller.Value(val),
	}, true
}
