package midi

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Panel is the device-selection surface. MIDI access is acquired on the
// first Open and kept until Close; the active input's messages are
// published on the Bus.
type Panel struct {
	open      Opener
	bus       *Bus
	logger    *slog.Logger
	onError   func(message string)
	preferred string

	lock      sync.Mutex
	access    Access
	shown     bool
	active    DeviceID
	hasActive bool
	stopFn    func()
}

type PanelOption func(*Panel)

// WithErrorHandler sets the receiver of acquisition failures.
func WithErrorHandler(fn func(message string)) PanelOption {
	return func(p *Panel) { p.onError = fn }
}

// WithPreferredInput makes Open select the first device whose name
// contains s (case-insensitive), falling back to the first device.
func WithPreferredInput(s string) PanelOption {
	return func(p *Panel) { p.preferred = s }
}

func NewPanel(open Opener, bus *Bus, logger *slog.Logger, opts ...PanelOption) *Panel {
	p := &Panel{
		open:    open,
		bus:     bus,
		logger:  logger.With("system", "midi"),
		onError: func(string) {},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Open shows the panel, acquiring MIDI access if this is the first
// successful activation. On failure the panel stays hidden, the error
// handler is called once, and the error is returned. There is no retry.
func (p *Panel) Open(ctx context.Context) error {
	p.lock.Lock()
	p.shown = true
	if p.access != nil {
		p.lock.Unlock()
		return nil
	}
	p.lock.Unlock()

	access, err := p.open(ctx)
	if err != nil {
		p.lock.Lock()
		p.shown = false
		p.lock.Unlock()

		err = fmt.Errorf("midi: acquire access: %w", err)
		p.logger.Error("midi access failed", "error", err)
		p.onError(err.Error())
		return err
	}

	p.lock.Lock()
	if p.access != nil {
		// Lost a race with a concurrent Open.
		p.lock.Unlock()
		_ = access.Close()
		return nil
	}
	p.access = access
	p.lock.Unlock()

	devices, err := p.Devices()
	if err != nil {
		p.logger.Warn("midi device enumeration failed", "error", err)
		return nil
	}
	p.logger.Info("midi access acquired", "devices", len(devices))
	if len(devices) == 0 {
		return nil
	}

	pick := devices[0]
	if p.preferred != "" {
		for _, d := range devices {
			if strings.Contains(strings.ToLower(d.Name), strings.ToLower(p.preferred)) {
				pick = d
				break
			}
		}
	}
	if err := p.SetActiveInput(pick.ID); err != nil {
		p.logger.Warn("midi input selection failed", "device", pick.Name, "error", err)
	}
	return nil
}

// Hide closes the panel without releasing access or the active input.
func (p *Panel) Hide() {
	p.lock.Lock()
	p.shown = false
	p.lock.Unlock()
}

func (p *Panel) Shown() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.shown
}

// Devices lists the available inputs with their display names.
func (p *Panel) Devices() ([]Device, error) {
	p.lock.Lock()
	access := p.access
	p.lock.Unlock()

	if access == nil {
		return nil, ErrPanelClosed
	}
	ids, err := access.Inputs()
	if err != nil {
		return nil, fmt.Errorf("midi: list inputs: %w", err)
	}
	devices := make([]Device, 0, len(ids))
	for _, id := range ids {
		devices = append(devices, Device{ID: id, Name: access.Name(id)})
	}
	return devices, nil
}

// SetActiveInput switches listening to id. The previous input's listener
// is stopped first.
func (p *Panel) SetActiveInput(id DeviceID) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.access == nil {
		return ErrPanelClosed
	}
	if p.hasActive && p.active == id {
		return nil
	}

	ids, err := p.access.Inputs()
	if err != nil {
		return fmt.Errorf("midi: list inputs: %w", err)
	}
	known := false
	for _, have := range ids {
		known = known || have == id
	}
	if !known {
		return fmt.Errorf("%w: %d", ErrUnknownDevice, id)
	}

	p.stopLocked()

	stop, err := p.access.Listen(id, p.bus.Publish)
	if err != nil {
		return fmt.Errorf("midi: listen %d: %w", id, err)
	}
	p.stopFn = stop
	p.active = id
	p.hasActive = true
	p.logger.Info("midi input selected", "device", p.access.Name(id))
	return nil
}

func (p *Panel) ActiveInput() (DeviceID, bool) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.active, p.hasActive
}

func (p *Panel) stopLocked() {
	if p.stopFn != nil {
		p.stopFn()
		p.stopFn = nil
	}
	p.hasActive = false
}

// Close stops the active listener and releases access.
func (p *Panel) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.stopLocked()
	p.shown = false
	if p.access == nil {
		return nil
	}
	err := p.access.Close()
	p.access = nil
	if err != nil {
		return fmt.Errorf("midi: close access: %w", err)
	}
	return nil
}
