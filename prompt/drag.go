package prompt

import (
	"sync"

	"github.com/jmacd/promptdj/geometry"
)

type (
	// PointerHandler receives pointer events from a Surface.
	PointerHandler interface {
		PointerMove(x, y float64)
		PointerUp(x, y float64)
	}

	// Surface is the process-wide pointer input. Handlers are attached only
	// for the duration of a drag.
	Surface interface {
		Subscribe(h PointerHandler) (release func())
	}

	// Bounds reports the element half-extent and the container extent at
	// the time of a pointer event.
	Bounds func() (half, container geometry.Extent)

	// DragSession is the per-gesture state between pointer-down and
	// pointer-up or cancel.
	DragSession struct {
		StartPointer  geometry.Point
		StartPosition geometry.Point
	}
)

// Drag moves a State with the pointer. Intermediate moves update the
// local position only; pointer-up reports the final record once.
type Drag struct {
	state   *State
	surface Surface
	bounds  Bounds

	lock    sync.Mutex
	session *DragSession
	release func()
}

func NewDrag(state *State, surface Surface, bounds Bounds) *Drag {
	return &Drag{state: state, surface: surface, bounds: bounds}
}

// PointerDown starts a session unless the press landed on a control
// region (onControl) or a session is already active.
func (d *Drag) PointerDown(x, y float64, onControl bool) bool {
	if onControl {
		return false
	}

	d.lock.Lock()
	if d.session != nil {
		d.lock.Unlock()
		return false
	}
	d.session = &DragSession{
		StartPointer:  geometry.Point{X: x, Y: y},
		StartPosition: d.state.Prompt().Position(),
	}
	d.lock.Unlock()

	release := d.surface.Subscribe(d)

	d.lock.Lock()
	if d.session == nil {
		// Ended while subscribing.
		d.lock.Unlock()
		release()
		return false
	}
	d.release = release
	d.lock.Unlock()
	return true
}

func (d *Drag) target(x, y float64) (geometry.Point, bool) {
	d.lock.Lock()
	s := d.session
	d.lock.Unlock()
	if s == nil {
		return geometry.Point{}, false
	}

	half, container := d.bounds()
	req := geometry.Point{
		X: s.StartPosition.X + x - s.StartPointer.X,
		Y: s.StartPosition.Y + y - s.StartPointer.Y,
	}
	return geometry.Clamp(req, half, container), true
}

// PointerMove repositions the prompt locally without notifying.
func (d *Drag) PointerMove(x, y float64) {
	if pt, ok := d.target(x, y); ok {
		d.state.place(pt)
	}
}

// PointerUp places the prompt, ends the session and notifies once.
func (d *Drag) PointerUp(x, y float64) {
	pt, ok := d.target(x, y)
	if !ok {
		return
	}
	if !d.end() {
		return
	}
	d.state.place(pt)
	d.state.commit()
}

// Cancel ends an active session without notifying. It is the teardown
// path when the widget goes away mid-drag.
func (d *Drag) Cancel() {
	d.end()
}

// end releases the surface subscription and reports whether a session
// was active.
func (d *Drag) end() bool {
	d.lock.Lock()
	active := d.session != nil
	release := d.release
	d.session = nil
	d.release = nil
	d.lock.Unlock()

	if release != nil {
		release()
	}
	return active
}

func (d *Drag) Dragging() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.session != nil
}

// Session returns a copy of the active session.
func (d *Drag) Session() (DragSession, bool) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.session == nil {
		return DragSession{}, false
	}
	return *d.session, true
}
