// Package portmidi provides MIDI input access through PortMidi.
package portmidi

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rakyll/portmidi"

	"github.com/jmacd/promptdj/midi"
	"github.com/jmacd/promptdj/midi/controller"
)

const (
	MaxEventsPerPoll = 1024
	PollingPeriod    = 10 * time.Millisecond
)

// Access is an initialized PortMidi session.
type Access struct {
	logger *slog.Logger

	lock    sync.Mutex
	streams map[midi.DeviceID]*listener
}

type listener struct {
	stream *portmidi.Stream
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func Opener(logger *slog.Logger) midi.Opener {
	return func(ctx context.Context) (midi.Access, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return Open(logger)
	}
}

// Open initializes PortMidi. It fails when the library cannot start.
func Open(logger *slog.Logger) (*Access, error) {
	if err := portmidi.Initialize(); err != nil {
		return nil, fmt.Errorf("midi: portmidi initialize: %w", err)
	}
	return &Access{
		logger:  logger.With("system", "portmidi"),
		streams: map[midi.DeviceID]*listener{},
	}, nil
}

func (a *Access) Inputs() ([]midi.DeviceID, error) {
	var ids []midi.DeviceID
	for i := 0; i < portmidi.CountDevices(); i++ {
		info := portmidi.Info(portmidi.DeviceID(i))
		if info != nil && info.IsInputAvailable {
			ids = append(ids, midi.DeviceID(i))
		}
	}
	return ids, nil
}

func (a *Access) Name(id midi.DeviceID) string {
	info := portmidi.Info(portmidi.DeviceID(id))
	if info == nil {
		return ""
	}
	return info.Name
}

// Listen opens an input stream on id and polls it until stop is called.
func (a *Access) Listen(id midi.DeviceID, cb controller.Callback) (func(), error) {
	info := portmidi.Info(portmidi.DeviceID(id))
	if info == nil || !info.IsInputAvailable {
		return nil, fmt.Errorf("%w: %d", midi.ErrUnknownDevice, id)
	}

	stream, err := portmidi.NewInputStream(portmidi.DeviceID(id), MaxEventsPerPoll)
	if err != nil {
		return nil, fmt.Errorf("midi: open %s: %w", info.Name, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &listener{stream: stream, cancel: cancel}

	a.lock.Lock()
	a.streams[id] = l
	a.lock.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		a.poll(ctx, info.Name, stream, cb)
	}()

	return func() {
		a.lock.Lock()
		if a.streams[id] == l {
			delete(a.streams, id)
		}
		a.lock.Unlock()
		l.close(a.logger)
	}, nil
}

func (a *Access) poll(ctx context.Context, name string, stream *portmidi.Stream, cb controller.Callback) {
	ticker := time.NewTicker(PollingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		evts, err := stream.Read(MaxEventsPerPoll)
		if err != nil {
			a.logger.Error("midi read failed", "device", name, "error", err)
			return
		}
		for _, evt := range evts {
			if msg, ok := controller.Decode(byte(evt.Status), byte(evt.Data1), byte(evt.Data2)); ok {
				cb(msg)
			}
		}
	}
}

func (l *listener) close(logger *slog.Logger) {
	l.once.Do(func() {
		l.cancel()
		l.wg.Wait()
		if err := l.stream.Close(); err != nil {
			logger.Warn("midi close stream failed", "error", err)
		}
	})
}

// Close stops every listener and terminates PortMidi.
func (a *Access) Close() error {
	a.lock.Lock()
	streams := a.streams
	a.streams = map[midi.DeviceID]*listener{}
	a.lock.Unlock()

	for _, l := range streams {
		l.close(a.logger)
	}
	if err := portmidi.Terminate(); err != nil {
		return fmt.Errorf("midi: portmidi terminate: %w", err)
	}
	return nil
}
