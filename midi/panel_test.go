package midi_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmacd/promptdj/midi"
	"github.com/jmacd/promptdj/midi/controller"
	"github.com/jmacd/promptdj/midi/miditest"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPanelLazyAcquire(t *testing.T) {
	access := miditest.New("Launch Control XL", "nanoKONTROL2")
	calls := 0
	bus := midi.NewBus()
	p := midi.NewPanel(access.Opener(&calls), bus, discard())

	assert.Zero(t, calls)
	_, err := p.Devices()
	assert.ErrorIs(t, err, midi.ErrPanelClosed)

	require.NoError(t, p.Open(context.Background()))
	require.NoError(t, p.Open(context.Background()))
	assert.Equal(t, 1, calls)
	assert.True(t, p.Shown())

	devices, err := p.Devices()
	require.NoError(t, err)
	assert.Equal(t, []midi.Device{{ID: 0, Name: "Launch Control XL"}, {ID: 1, Name: "nanoKONTROL2"}}, devices)

	id, ok := p.ActiveInput()
	assert.True(t, ok)
	assert.Equal(t, midi.DeviceID(0), id)
}

func TestPanelAcquireFailure(t *testing.T) {
	calls := 0
	var errs []string
	p := midi.NewPanel(
		miditest.FailingOpener(miditest.ErrDenied, &calls),
		midi.NewBus(),
		discard(),
		midi.WithErrorHandler(func(msg string) { errs = append(errs, msg) }),
	)

	err := p.Open(context.Background())
	assert.ErrorIs(t, err, miditest.ErrDenied)
	assert.False(t, p.Shown(), "panel reverts to closed")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "permission denied")
	assert.Equal(t, 1, calls, "no automatic retry")
}

func TestPanelPreferredInput(t *testing.T) {
	access := miditest.New("IAC Bus", "Launch Control XL")
	p := midi.NewPanel(access.Opener(nil), midi.NewBus(), discard(), midi.WithPreferredInput("launch"))

	require.NoError(t, p.Open(context.Background()))
	id, ok := p.ActiveInput()
	assert.True(t, ok)
	assert.Equal(t, midi.DeviceID(1), id)
}

func TestPanelSwitchInput(t *testing.T) {
	access := miditest.New("a", "b")
	bus := midi.NewBus()
	p := midi.NewPanel(access.Opener(nil), bus, discard())
	require.NoError(t, p.Open(context.Background()))

	var got []controller.Value
	bus.Subscribe(midi.AllControls, func(m controller.Message) { got = append(got, m.Value) })

	access.Send(0, 1, 10)
	require.NoError(t, p.SetActiveInput(1))
	assert.Zero(t, access.Listening(0), "previous listener stopped")
	assert.Equal(t, 1, access.Listening(1))

	access.Send(0, 1, 20) // no longer active
	access.Send(1, 1, 30)
	assert.Equal(t, []controller.Value{10, 30}, got)

	assert.ErrorIs(t, p.SetActiveInput(9), midi.ErrUnknownDevice)
	id, _ := p.ActiveInput()
	assert.Equal(t, midi.DeviceID(1), id)
}

func TestPanelHideKeepsListening(t *testing.T) {
	access := miditest.New("a")
	p := midi.NewPanel(access.Opener(nil), midi.NewBus(), discard())
	require.NoError(t, p.Open(context.Background()))

	p.Hide()
	assert.False(t, p.Shown())
	assert.Equal(t, 1, access.Listening(0))
}

func TestPanelClose(t *testing.T) {
	access := miditest.New("a")
	p := midi.NewPanel(access.Opener(nil), midi.NewBus(), discard())
	require.NoError(t, p.Open(context.Background()))

	require.NoError(t, p.Close())
	assert.True(t, access.Closed())
	_, ok := p.ActiveInput()
	assert.False(t, ok)
	assert.ErrorIs(t, p.SetActiveInput(0), midi.ErrPanelClosed)
}
