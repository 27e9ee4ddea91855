package board_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/jmacd/promptdj/board"
	"github.com/jmacd/promptdj/collection"
	"github.com/jmacd/promptdj/geometry"
	"github.com/jmacd/promptdj/midi/miditest"
	"github.com/jmacd/promptdj/visual"
)

type events struct {
	lock        sync.Mutex
	snapshots   []collection.Snapshot
	backgrounds []visual.Background
	errors      []string
	playPause   int

	// edit, when set, runs on every snapshot the host receives.
	edit func(collection.Snapshot)
}

func (e *events) PromptsChanged(s collection.Snapshot) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.edit != nil {
		e.edit(s)
	}
	e.snapshots = append(e.snapshots, s)
}

func (e *events) PlayPause() {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.playPause++
}

func (e *events) Error(msg string) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.errors = append(e.errors, msg)
}

func (e *events) Background(bg visual.Background) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.backgrounds = append(e.backgrounds, bg)
}

func (e *events) backgroundCount() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return len(e.backgrounds)
}

func (e *events) background(i int) visual.Background {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.backgrounds[i]
}

func (e *events) waitBackgrounds(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return e.backgroundCount() >= n }, time.Second, time.Millisecond)
}

func (e *events) last() collection.Snapshot {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.snapshots[len(e.snapshots)-1]
}

type fixture struct {
	board  *board.Board
	events *events
	access *miditest.Access
	clock  *testingclock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		events: &events{},
		access: miditest.New("nanoKONTROL2", "Launch Control XL"),
		clock:  testingclock.NewFakeClock(time.Unix(0, 0)),
	}
	f.board = board.New(f.events, f.access.Opener(nil),
		board.WithClock(f.clock),
		board.WithPlacer(func() (float64, float64) { return 0.5, 0.5 }),
		board.WithHalfExtent(geometry.Extent{W: 50, H: 50}),
		board.WithPreferredInput("launch"),
		board.WithCollection(collection.WithBounds(geometry.Extent{W: 1000, H: 1000})),
	)
	t.Cleanup(func() { f.board.Close() })
	return f
}

func TestAddPublishes(t *testing.T) {
	f := newFixture(t)

	p, ok := f.board.Add("Funk")
	require.True(t, ok)
	assert.Equal(t, geometry.Point{X: 500, Y: 500}, p.Position())

	require.Len(t, f.events.snapshots, 1)
	assert.Equal(t, []string{"Funk"}, f.events.last().IDs())
	require.Len(t, f.events.backgrounds, 1)
	assert.Empty(t, f.events.backgrounds[0].Layers, "weight 0 draws nothing")
	assert.NotContains(t, f.board.AvailableNames(), "Funk")
}

func TestMIDISetsWeight(t *testing.T) {
	f := newFixture(t)
	funk, _ := f.board.Add("Funk")
	shoe, _ := f.board.Add("Shoegaze")

	require.NoError(t, f.board.OpenMIDI(context.Background()))
	id, ok := f.board.ActiveInput()
	require.True(t, ok)
	assert.Equal(t, 1, int(id), "preferred input selected")

	f.access.Send(id, int(shoe.CC), 64)

	got, _ := f.board.Snapshot().Get("Shoegaze")
	assert.Equal(t, 3, got.Level())
	assert.Equal(t, shoe.Position(), got.Position(), "CC does not move the prompt")
	other, _ := f.board.Snapshot().Get("Funk")
	assert.Zero(t, other.Weight)
	assert.Equal(t, funk.CC, other.CC)

	f.access.Send(0, int(shoe.CC), 127)
	got, _ = f.board.Snapshot().Get("Shoegaze")
	assert.Equal(t, 3, got.Level(), "inactive device is not heard")
}

func TestRemoveUnbinds(t *testing.T) {
	f := newFixture(t)
	p, _ := f.board.Add("Funk")
	assert.Equal(t, 1, f.board.Bus().Subscribers(p.CC))

	require.True(t, f.board.Remove("Funk"))
	assert.Zero(t, f.board.Bus().Subscribers(p.CC))
	assert.False(t, f.board.SetLevel("Funk", 3))

	again, _ := f.board.Add("Funk")
	assert.Greater(t, again.CC, p.CC)
}

func TestOpenMIDIFailure(t *testing.T) {
	ev := &events{}
	calls := 0
	b := board.New(ev, miditest.FailingOpener(miditest.ErrDenied, &calls))
	defer b.Close()

	err := b.OpenMIDI(context.Background())
	assert.ErrorIs(t, err, miditest.ErrDenied)
	assert.False(t, b.MIDIShown())
	assert.Equal(t, 1, calls)
	require.Len(t, ev.errors, 1)
	assert.Contains(t, ev.errors[0], "permission denied")
}

func TestDragUpdatesCollectionOnce(t *testing.T) {
	f := newFixture(t)
	f.board.Add("Funk")
	before := len(f.events.snapshots)

	d, ok := f.board.Drag("Funk")
	require.True(t, ok)
	require.True(t, d.PointerDown(500, 500, false))
	for x := 510.0; x < 700; x += 10 {
		f.board.Pointer().Move(x, 500)
	}
	assert.Len(t, f.events.snapshots, before)

	f.board.Pointer().Up(2000, 400)
	require.Len(t, f.events.snapshots, before+1)
	got, _ := f.events.last().Get("Funk")
	assert.Equal(t, geometry.Point{X: 950, Y: 400}, got.Position())
	assert.Zero(t, f.board.Pointer().Listeners())
}

func TestRemoveWhileDragging(t *testing.T) {
	f := newFixture(t)
	f.board.Add("Funk")

	d, _ := f.board.Drag("Funk")
	d.PointerDown(500, 500, false)
	assert.Equal(t, 1, f.board.Pointer().Listeners())

	f.board.Remove("Funk")
	assert.Zero(t, f.board.Pointer().Listeners())
	assert.False(t, d.Dragging())
}

func TestHalo(t *testing.T) {
	f := newFixture(t)
	f.board.Add("Funk")

	_, visible := f.board.Halo("Funk")
	assert.False(t, visible)

	f.board.SetLevel("Funk", 3)
	f.board.SetAudioLevel("Funk", 0.9)
	scale, visible := f.board.Halo("Funk")
	assert.True(t, visible)
	assert.InDelta(t, 2.5, scale, 1e-12)

	f.board.SetFiltered("Funk")
	scale, _ = f.board.Halo("Funk")
	assert.InDelta(t, 1.6, scale, 1e-12)
	got, _ := f.board.Snapshot().Get("Funk")
	assert.Equal(t, 3, got.Level(), "filtering keeps the weight")
}

func TestBackgroundThrottled(t *testing.T) {
	f := newFixture(t)
	f.board.Add("Funk")
	require.Len(t, f.events.backgrounds, 1)

	for l := 0; l <= 5; l++ {
		f.board.SetLevel("Funk", l)
	}
	assert.Len(t, f.events.backgrounds, 1)

	f.clock.Step(visual.DefaultInterval)
	f.events.waitBackgrounds(t, 2)
	assert.Equal(t, 2, f.events.backgroundCount())
	layers := f.events.background(1).Layers
	require.Len(t, layers, 1)
	assert.InDelta(t, 1.0, layers[0].Stop, 1e-12)
	assert.InDelta(t, visual.MaxAlpha, layers[0].Alpha, 1e-12)
}

func TestBackgroundIgnoresHostEdits(t *testing.T) {
	f := newFixture(t)
	f.board.Add("Funk")
	f.events.waitBackgrounds(t, 1)

	f.events.lock.Lock()
	f.events.edit = func(s collection.Snapshot) {
		for i := range s.Prompts {
			s.Prompts[i].Weight = 0
		}
	}
	f.events.lock.Unlock()

	// Inside the window, so the background runs later from held input.
	f.board.SetLevel("Funk", 5)
	assert.Equal(t, 1, f.events.backgroundCount())

	f.clock.Step(visual.DefaultInterval)
	f.events.waitBackgrounds(t, 2)
	layers := f.events.background(1).Layers
	require.Len(t, layers, 1, "the host's copy is not the throttle's")
	assert.InDelta(t, visual.MaxAlpha, layers[0].Alpha, 1e-12)

	got, _ := f.board.Snapshot().Get("Funk")
	assert.Equal(t, 5, got.Level())
}

func TestPlayPause(t *testing.T) {
	f := newFixture(t)
	f.board.PlayPause()
	assert.Equal(t, 1, f.events.playPause)
}

func TestClose(t *testing.T) {
	f := newFixture(t)
	p, _ := f.board.Add("Funk")
	require.NoError(t, f.board.OpenMIDI(context.Background()))

	require.NoError(t, f.board.Close())
	assert.True(t, f.access.Closed())
	assert.Zero(t, f.board.Bus().Subscribers(p.CC))
	assert.False(t, f.clock.HasWaiters())
	require.NoError(t, f.board.Close())
}
