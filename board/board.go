// Package board wires the prompt collection to its inputs and outputs: one
// widget per prompt bound to the MIDI bus, the device panel, the pointer
// surface and the throttled background.
package board

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"slices"
	"time"

	"k8s.io/utils/clock"

	"github.com/jmacd/promptdj/collection"
	"github.com/jmacd/promptdj/geometry"
	"github.com/jmacd/promptdj/midi"
	"github.com/jmacd/promptdj/prompt"
	"github.com/jmacd/promptdj/visual"
)

// Events receives everything the board reports to its host.
type Events interface {
	PromptsChanged(collection.Snapshot)
	PlayPause()
	Error(message string)
	Background(visual.Background)
}

type (
	Option func(*options)

	options struct {
		logger    *slog.Logger
		clock     clock.WithDelayedExecution
		interval  time.Duration
		placer    visual.Placer
		half      geometry.Extent
		preferred string
		coll      []collection.Option
	}

	widget struct {
		state *prompt.State
		drag  *prompt.Drag
	}

	Board struct {
		events  Events
		logger  *slog.Logger
		coll    *collection.Controller
		bus     *midi.Bus
		panel   *midi.Panel
		surface *prompt.Pointer
		half    geometry.Extent
		bg      *visual.Throttle[[]prompt.Prompt, visual.Background]

		lock        sync.Mutex
		widgets     map[string]*widget
		audio       map[string]float64
		closed      bool
		unsubscribe func()
	}
)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithClock(c clock.WithDelayedExecution) Option {
	return func(o *options) { o.clock = c }
}

// WithThrottleInterval sets the minimum spacing of background updates.
func WithThrottleInterval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

func WithPlacer(p visual.Placer) Option {
	return func(o *options) { o.placer = p }
}

// WithHalfExtent sets the half-size of a prompt element, used to keep
// moved prompts inside the container.
func WithHalfExtent(e geometry.Extent) Option {
	return func(o *options) { o.half = e }
}

func WithPreferredInput(s string) Option {
	return func(o *options) { o.preferred = s }
}

// WithCollection passes options through to the collection controller.
func WithCollection(opts ...collection.Option) Option {
	return func(o *options) { o.coll = append(o.coll, opts...) }
}

// New builds a board reporting to events. MIDI access is acquired through
// open the first time OpenMIDI is called.
func New(events Events, open midi.Opener, opts ...Option) *Board {
	o := options{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:    clock.RealClock{},
		interval: visual.DefaultInterval,
		placer:   visual.RandomPlacer(nil),
		half:     geometry.Extent{W: 40, H: 40},
	}
	for _, opt := range opts {
		opt(&o)
	}

	b := &Board{
		events:  events,
		logger:  o.logger.With("system", "board"),
		bus:     midi.NewBus(),
		surface: prompt.NewPointer(),
		half:    o.half,
		widgets: map[string]*widget{},
		audio:   map[string]float64{},
	}
	b.coll = collection.New(append([]collection.Option{collection.WithLogger(o.logger)}, o.coll...)...)
	b.panel = midi.NewPanel(open, b.bus, o.logger,
		midi.WithErrorHandler(events.Error),
		midi.WithPreferredInput(o.preferred),
	)
	b.bg = visual.NewThrottle(o.interval, o.clock,
		func(ps []prompt.Prompt) visual.Background { return visual.ComputeBackground(ps, o.placer) },
		events.Background,
	)

	b.sync(b.coll.Snapshot())
	b.unsubscribe = b.coll.OnChange(b.changed)
	return b
}

func (b *Board) changed(snap collection.Snapshot) {
	if !b.sync(snap) {
		return
	}
	// The throttle may hold its input past this call; keep it apart from
	// what the host receives.
	prompts := slices.Clone(snap.Prompts)
	b.events.PromptsChanged(snap)
	b.bg.Call(prompts)
}

// sync creates widgets for new prompts, tears down widgets for removed
// ones and refreshes the rest from the authoritative record.
func (b *Board) sync(snap collection.Snapshot) bool {
	b.lock.Lock()
	if b.closed {
		b.lock.Unlock()
		return false
	}

	var gone []*widget
	seen := make(map[string]bool, snap.Len())
	for _, p := range snap.Prompts {
		seen[p.ID] = true
		w, ok := b.widgets[p.ID]
		if !ok {
			b.widgets[p.ID] = b.newWidget(p)
			continue
		}
		if !w.drag.Dragging() {
			w.state.Sync(p)
		}
	}
	for id, w := range b.widgets {
		if !seen[id] {
			gone = append(gone, w)
			delete(b.widgets, id)
			delete(b.audio, id)
		}
	}
	b.lock.Unlock()

	for _, w := range gone {
		w.close()
	}
	return true
}

func (b *Board) newWidget(p prompt.Prompt) *widget {
	state := prompt.NewState(p, func(p prompt.Prompt) { b.coll.Update(p) })
	state.BindCC(b.bus)
	return &widget{
		state: state,
		drag:  prompt.NewDrag(state, b.surface, b.bounds),
	}
}

func (w *widget) close() {
	w.drag.Cancel()
	w.state.Close()
}

func (b *Board) bounds() (half, container geometry.Extent) {
	return b.half, b.coll.Bounds()
}

func (b *Board) widget(id string) (*widget, bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	w, ok := b.widgets[id]
	return w, ok
}

// Add creates a prompt named name. See collection.Controller.Add.
func (b *Board) Add(name string) (prompt.Prompt, bool) {
	return b.coll.Add(name)
}

func (b *Board) Remove(id string) bool {
	return b.coll.Remove(id)
}

// SetLevel sets the weight of id from a selector level.
func (b *Board) SetLevel(id string, level int) bool {
	w, ok := b.widget(id)
	if !ok {
		return false
	}
	w.state.SetWeightFromLevel(level)
	return true
}

// MoveTo places id at (x, y), clamped to the container.
func (b *Board) MoveTo(id string, x, y float64) bool {
	w, ok := b.widget(id)
	if !ok {
		return false
	}
	half, container := b.bounds()
	w.state.MoveTo(x, y, half, container)
	return true
}

// Drag returns the drag state machine of id.
func (b *Board) Drag(id string) (*prompt.Drag, bool) {
	w, ok := b.widget(id)
	if !ok {
		return nil, false
	}
	return w.drag, true
}

// Pointer is the surface pointer events are fed into.
func (b *Board) Pointer() *prompt.Pointer {
	return b.surface
}

func (b *Board) SetBounds(w, h float64) {
	b.coll.SetBounds(w, h)
}

func (b *Board) Bounds() geometry.Extent {
	return b.coll.Bounds()
}

// Local returns the widget's copy of id, which leads the collection while
// a drag is in progress.
func (b *Board) Local(id string) (prompt.Prompt, bool) {
	w, ok := b.widget(id)
	if !ok {
		return prompt.Prompt{}, false
	}
	return w.state.Prompt(), true
}

func (b *Board) SetFiltered(ids ...string) {
	b.coll.SetFiltered(ids...)
}

// SetAudioLevel records the live loudness of id, clamped to [0, 1].
func (b *Board) SetAudioLevel(id string, level float64) {
	switch {
	case !(level > 0):
		level = 0
	case level > 1:
		level = 1
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	if _, ok := b.widgets[id]; ok {
		b.audio[id] = level
	}
}

// Halo returns the halo scale of id and whether it is drawn.
func (b *Board) Halo(id string) (scale float64, visible bool) {
	w, ok := b.widget(id)
	if !ok {
		return 1, false
	}
	b.lock.Lock()
	audio := b.audio[id]
	b.lock.Unlock()
	return visual.HaloScale(w.state.Prompt().Level(), audio, b.coll.Filtered(id))
}

func (b *Board) Snapshot() collection.Snapshot {
	return b.coll.Snapshot()
}

// OnChange registers an additional snapshot listener.
func (b *Board) OnChange(fn func(collection.Snapshot)) (unsubscribe func()) {
	return b.coll.OnChange(fn)
}

func (b *Board) AvailableNames() []string {
	return b.coll.AvailableNames()
}

// Bus is the control-change bus the widgets listen on.
func (b *Board) Bus() *midi.Bus {
	return b.bus
}

// OpenMIDI shows the device panel, acquiring access on first use.
// Failures are reported once through Events.Error.
func (b *Board) OpenMIDI(ctx context.Context) error {
	return b.panel.Open(ctx)
}

func (b *Board) HideMIDI() {
	b.panel.Hide()
}

func (b *Board) MIDIShown() bool {
	return b.panel.Shown()
}

func (b *Board) Devices() ([]midi.Device, error) {
	return b.panel.Devices()
}

func (b *Board) SelectInput(id midi.DeviceID) error {
	return b.panel.SetActiveInput(id)
}

func (b *Board) ActiveInput() (midi.DeviceID, bool) {
	return b.panel.ActiveInput()
}

// PlayPause forwards a play/pause request to the host.
func (b *Board) PlayPause() {
	b.events.PlayPause()
}

// Close tears down every widget, the background timer and MIDI access.
func (b *Board) Close() error {
	b.lock.Lock()
	if b.closed {
		b.lock.Unlock()
		return nil
	}
	b.closed = true
	widgets := b.widgets
	b.widgets = map[string]*widget{}
	b.lock.Unlock()

	b.unsubscribe()
	b.bg.Stop()
	for _, w := range widgets {
		w.close()
	}
	return b.panel.Close()
}
