// Copyright 2013 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package launchxl lights the LEDs of a Novation Launch Control XL to show
// prompt levels. Prompts are assigned to the 24 knob LEDs in collection
// order.
package launchxl

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmacd/promptdj/collection"
)

const (
	DeviceName = "Launch Control XL"

	FlashPeriod = 433 * time.Millisecond

	statusControlChange = 0xb0
)

var sysexHeader = []byte{0xf0, 0x00, 0x20, 0x29, 0x02, 0x11}

// Sender writes one raw MIDI message to the device.
type Sender func(data []byte) error

// Feedback holds the LED colours of one template and writes them to the
// device, double buffered.
type Feedback struct {
	send     Sender
	template int
	logger   *slog.Logger

	lock    sync.Mutex
	color   [NumLEDs]Color
	swaps   int64
	flashes int64
}

func NewFeedback(send Sender, template int, logger *slog.Logger) *Feedback {
	return &Feedback{
		send:     send,
		template: template & 0x0f,
		logger:   logger.With("system", "launchxl"),
	}
}

// Show assigns the snapshot's prompts to the knob LEDs and updates the
// device. Prompts past the last LED are not shown.
func (f *Feedback) Show(snap collection.Snapshot) {
	f.lock.Lock()
	for i := range f.color {
		f.color[i] = ColorOff
	}
	for i, p := range snap.Prompts {
		if i >= len(promptLEDs) {
			break
		}
		f.color[promptLEDs[i]] = LevelColor(p.Level(), snap.Filtered[p.ID])
	}
	f.lock.Unlock()

	if err := f.SwapBuffers(); err != nil {
		f.logger.Warn("led update failed", "error", err)
	}
}

func (f *Feedback) SetColor(ctrl Control, color Color) {
	if ctrl < 0 || ctrl >= NumLEDs {
		return
	}
	f.lock.Lock()
	f.color[ctrl] = color
	f.lock.Unlock()
}

func (f *Feedback) Colors() [NumLEDs]Color {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.color
}

// Frame is the SysEx message setting all 48 LEDs. Flashing colours are
// dark in odd flash phases.
func Frame(template int, colors [NumLEDs]Color, flashOff bool) []byte {
	data := make([]byte, 0, 2*NumLEDs+len(sysexHeader)+3)
	data = append(data, sysexHeader...)
	data = append(data, 0x78, byte(template))
	for i, c := range colors {
		data = append(data, byte(i), c.toByte(flashOff))
	}
	return append(data, 0xf7)
}

// SwapBuffers writes the current colours to the back buffer and flips it
// to the front.
func (f *Feedback) SwapBuffers() error {
	f.lock.Lock()
	swapNum := f.swaps
	f.swaps++
	frame := Frame(f.template, f.color, f.flashes%2 == 1)
	f.lock.Unlock()

	if err := f.send(frame); err != nil {
		return fmt.Errorf("midi: write sysex: %w", err)
	}

	var data byte = 0x21
	if swapNum%2 == 1 {
		data = 0x24
	}
	if err := f.send([]byte{statusControlChange + byte(f.template), 0, data}); err != nil {
		return fmt.Errorf("midi: swap buffers: %w", err)
	}
	return nil
}

// Reset turns every LED off.
func (f *Feedback) Reset() error {
	if err := f.send([]byte{statusControlChange + byte(f.template), 0, 0}); err != nil {
		return fmt.Errorf("midi: reset: %w", err)
	}
	return nil
}

// SetTemplate selects the template shown on the device.
func (f *Feedback) SetTemplate() error {
	data := append(append([]byte{}, sysexHeader...), 0x77, byte(f.template), 0xf7)
	if err := f.send(data); err != nil {
		return fmt.Errorf("midi: set template: %w", err)
	}
	return nil
}

// Run resets the device and blinks flashing LEDs until ctx is done.
func (f *Feedback) Run(ctx context.Context) error {
	if err := f.Reset(); err != nil {
		return err
	}
	// The first swap enables double buffering.
	if err := f.SwapBuffers(); err != nil {
		return err
	}
	if err := f.SetTemplate(); err != nil {
		return err
	}

	ticker := time.NewTicker(FlashPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			f.lock.Lock()
			f.flashes++
			f.lock.Unlock()
			if err := f.SwapBuffers(); err != nil {
				return err
			}
		}
	}
}
