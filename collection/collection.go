// Package collection owns the ordered set of prompts. It assigns CC
// numbers, tracks which palette names are still available and publishes a
// full snapshot to its listeners after every change.
package collection

import (
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/jmacd/promptdj/geometry"
	"github.com/jmacd/promptdj/intensity"
	"github.com/jmacd/promptdj/midi/controller"
	"github.com/jmacd/promptdj/palette"
	"github.com/jmacd/promptdj/prompt"
)

// MaxCC is the largest assignable control number.
const MaxCC = controller.Control(controller.NumControls - 1)

type (
	Option func(*Controller)

	// Controller is safe for concurrent use. Listeners are called after
	// the lock is released, on the goroutine that made the change.
	Controller struct {
		palette palette.Palette
		logger  *slog.Logger

		lock      sync.Mutex
		order     []string
		prompts   map[string]prompt.Prompt
		nextCC    controller.Control
		bounds    geometry.Extent
		filtered  map[string]bool
		available []string

		nextListener int
		listeners    map[int]func(Snapshot)

		// dropped holds seed IDs rejected by WithPrompts.
		dropped []string
	}
)

func WithPalette(p palette.Palette) Option {
	return func(c *Controller) { c.palette = p }
}

// WithFirstCC sets the first control number handed out by Add.
func WithFirstCC(cc controller.Control) Option {
	return func(c *Controller) { c.nextCC = cc }
}

func WithBounds(e geometry.Extent) Option {
	return func(c *Controller) { c.bounds = e }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithPrompts seeds the collection. A seed whose ID or CC is already
// taken, or whose CC is out of range, is dropped. The CC counter advances
// past every seeded CC.
func WithPrompts(ps ...prompt.Prompt) Option {
	return func(c *Controller) {
		used := map[controller.Control]bool{}
		for _, p := range c.prompts {
			used[p.CC] = true
		}
		for _, p := range ps {
			if p.ID == "" {
				continue
			}
			if _, ok := c.prompts[p.ID]; ok {
				c.dropped = append(c.dropped, p.ID)
				continue
			}
			if p.CC < 0 || p.CC > MaxCC || used[p.CC] {
				c.dropped = append(c.dropped, p.ID)
				continue
			}
			used[p.CC] = true
			if p.Text == "" {
				p.Text = p.ID
			}
			p.Weight = intensity.ClampWeight(p.Weight)
			c.order = append(c.order, p.ID)
			c.prompts[p.ID] = p
		}
	}
}

func New(opts ...Option) *Controller {
	c := &Controller{
		palette:   palette.Default,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		prompts:   map[string]prompt.Prompt{},
		filtered:  map[string]bool{},
		listeners: map[int]func(Snapshot){},
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, p := range c.prompts {
		if p.CC >= c.nextCC {
			c.nextCC = p.CC + 1
		}
	}
	c.logger = c.logger.With("system", "collection")
	if len(c.dropped) > 0 {
		c.logger.Warn("dropped conflicting prompts", "ids", c.dropped)
		c.dropped = nil
	}
	c.recomputeLocked()
	return c
}

// Add creates a prompt named name with weight 0, the next CC number, the
// palette colour for name and a position at the centre of the current
// bounds. It returns false for an empty or existing name, or when no
// control numbers remain.
func (c *Controller) Add(name string) (prompt.Prompt, bool) {
	if name == "" {
		return prompt.Prompt{}, false
	}

	c.lock.Lock()
	if _, ok := c.prompts[name]; ok {
		c.lock.Unlock()
		return prompt.Prompt{}, false
	}
	if c.nextCC > MaxCC {
		c.lock.Unlock()
		c.logger.Warn("no control numbers left", "name", name)
		return prompt.Prompt{}, false
	}

	center := c.bounds.Center()
	p := prompt.Prompt{
		ID:    name,
		Text:  name,
		CC:    c.nextCC,
		Color: c.palette.ColorFor(name, int(c.nextCC)),
		X:     center.X,
		Y:     center.Y,
	}
	c.nextCC++
	c.order = append(c.order, name)
	c.prompts[name] = p
	c.recomputeLocked()
	snap, calls := c.publishLocked()
	c.lock.Unlock()

	c.logger.Debug("added", "name", name, "cc", p.CC)
	notify(calls, snap)
	return p, true
}

// Remove deletes id. Its CC number is not reused.
func (c *Controller) Remove(id string) bool {
	c.lock.Lock()
	if _, ok := c.prompts[id]; !ok {
		c.lock.Unlock()
		return false
	}
	delete(c.prompts, id)
	delete(c.filtered, id)
	c.order = slices.DeleteFunc(c.order, func(s string) bool { return s == id })
	c.recomputeLocked()
	snap, calls := c.publishLocked()
	c.lock.Unlock()

	c.logger.Debug("removed", "name", id)
	notify(calls, snap)
	return true
}

// Update merges the weight and position of p into the prompt with the
// same ID. Text, CC and colour keep their original values. Unknown IDs
// are ignored.
func (c *Controller) Update(p prompt.Prompt) bool {
	c.lock.Lock()
	cur, ok := c.prompts[p.ID]
	if !ok {
		c.lock.Unlock()
		return false
	}
	cur.Weight = intensity.ClampWeight(p.Weight)
	cur.X, cur.Y = p.X, p.Y
	c.prompts[p.ID] = cur
	snap, calls := c.publishLocked()
	c.lock.Unlock()

	notify(calls, snap)
	return true
}

// SetFiltered replaces the filter set. IDs need not be present.
func (c *Controller) SetFiltered(ids ...string) {
	c.lock.Lock()
	c.filtered = map[string]bool{}
	for _, id := range ids {
		c.filtered[id] = true
	}
	snap, calls := c.publishLocked()
	c.lock.Unlock()

	notify(calls, snap)
}

func (c *Controller) Filtered(id string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.filtered[id]
}

// SetBounds sets the container extent used to place new prompts.
func (c *Controller) SetBounds(w, h float64) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.bounds = geometry.Extent{W: w, H: h}
}

func (c *Controller) Bounds() geometry.Extent {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.bounds
}

// AvailableNames returns the palette names not yet in the collection, in
// palette order.
func (c *Controller) AvailableNames() []string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return slices.Clone(c.available)
}

// NextCC is the control number the next Add will assign.
func (c *Controller) NextCC() controller.Control {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.nextCC
}

func (c *Controller) Get(id string) (prompt.Prompt, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	p, ok := c.prompts[id]
	return p, ok
}

func (c *Controller) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.order)
}

func (c *Controller) Snapshot() Snapshot {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.snapshotLocked()
}

// OnChange registers fn to receive a snapshot after every change.
func (c *Controller) OnChange(fn func(Snapshot)) (unsubscribe func()) {
	c.lock.Lock()
	c.nextListener++
	id := c.nextListener
	c.listeners[id] = fn
	c.lock.Unlock()

	return func() {
		c.lock.Lock()
		delete(c.listeners, id)
		c.lock.Unlock()
	}
}

func (c *Controller) recomputeLocked() {
	c.available = c.available[:0]
	for _, name := range c.palette.Names() {
		if _, ok := c.prompts[name]; !ok {
			c.available = append(c.available, name)
		}
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		Prompts:  make([]prompt.Prompt, 0, len(c.order)),
		Filtered: maps.Clone(c.filtered),
	}
	for _, id := range c.order {
		s.Prompts = append(s.Prompts, c.prompts[id])
	}
	return s
}

func (c *Controller) publishLocked() (Snapshot, []func(Snapshot)) {
	if len(c.listeners) == 0 {
		return Snapshot{}, nil
	}
	ids := slices.Sorted(maps.Keys(c.listeners))
	calls := make([]func(Snapshot), len(ids))
	for i, id := range ids {
		calls[i] = c.listeners[id]
	}
	return c.snapshotLocked(), calls
}

// notify hands every listener its own copy; snap itself is never passed
// out.
func notify(calls []func(Snapshot), snap Snapshot) {
	for _, fn := range calls {
		fn(snap.Clone())
	}
}
