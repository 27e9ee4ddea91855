// Package miditest provides an in-memory midi.Access for tests.
package miditest

import (
	"context"
	"errors"
	"sync"

	"github.com/jmacd/promptdj/midi"
	"github.com/jmacd/promptdj/midi/controller"
)

// Access is a fake set of input devices. Send injects a message as if it
// arrived on a device.
type Access struct {
	lock      sync.Mutex
	names     map[midi.DeviceID]string
	order     []midi.DeviceID
	listeners map[midi.DeviceID]map[int]controller.Callback
	nextID    int
	closed    bool
	InputsErr error
}

func New(names ...string) *Access {
	a := &Access{
		names:     map[midi.DeviceID]string{},
		listeners: map[midi.DeviceID]map[int]controller.Callback{},
	}
	for i, n := range names {
		id := midi.DeviceID(i)
		a.names[id] = n
		a.order = append(a.order, id)
	}
	return a
}

// Opener returns an Opener yielding a, counting calls in *calls if non-nil.
func (a *Access) Opener(calls *int) midi.Opener {
	return func(context.Context) (midi.Access, error) {
		if calls != nil {
			*calls++
		}
		return a, nil
	}
}

// FailingOpener returns an Opener that always fails with err.
func FailingOpener(err error, calls *int) midi.Opener {
	return func(context.Context) (midi.Access, error) {
		if calls != nil {
			*calls++
		}
		return nil, err
	}
}

var ErrDenied = errors.New("permission denied")

func (a *Access) Inputs() ([]midi.DeviceID, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.InputsErr != nil {
		return nil, a.InputsErr
	}
	return append([]midi.DeviceID(nil), a.order...), nil
}

func (a *Access) Name(id midi.DeviceID) string {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.names[id]
}

func (a *Access) Listen(id midi.DeviceID, cb controller.Callback) (func(), error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if _, ok := a.names[id]; !ok {
		return nil, midi.ErrUnknownDevice
	}
	a.nextID++
	key := a.nextID
	if a.listeners[id] == nil {
		a.listeners[id] = map[int]controller.Callback{}
	}
	a.listeners[id][key] = cb
	return func() {
		a.lock.Lock()
		delete(a.listeners[id], key)
		a.lock.Unlock()
	}, nil
}

// Listening reports the number of live listeners on id.
func (a *Access) Listening(id midi.DeviceID) int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return len(a.listeners[id])
}

// Send delivers a control change on device id.
func (a *Access) Send(id midi.DeviceID, control, value int) {
	a.lock.Lock()
	var cbs []controller.Callback
	for _, cb := range a.listeners[id] {
		cbs = append(cbs, cb)
	}
	a.lock.Unlock()

	msg := controller.Message{Control: controller.Control(control), Value: controller.Value(value)}
	for _, cb := range cbs {
		cb(msg)
	}
}

func (a *Access) Close() error {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.closed = true
	a.listeners = map[midi.DeviceID]map[int]controller.Callback{}
	return nil
}

func (a *Access) Closed() bool {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.closed
}
