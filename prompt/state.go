package prompt

import (
	"sync"

	"github.com/jmacd/promptdj/geometry"
	"github.com/jmacd/promptdj/intensity"
	"github.com/jmacd/promptdj/midi/controller"
)

// Subscriber is the control-change source a State listens to.
type Subscriber interface {
	Subscribe(control controller.Control, cb controller.Callback) (unsubscribe func())
}

// State is a widget's local copy of one prompt. Mutations update the copy
// and then report the full record through the change callback; the
// collection merges it by ID. Weight and position are independent:
// changing one never touches the other.
type State struct {
	notify func(Prompt)

	lock        sync.Mutex
	p           Prompt
	unsubscribe func()
}

// NewState starts from p. notify receives every changed record and may be
// nil.
func NewState(p Prompt, notify func(Prompt)) *State {
	if notify == nil {
		notify = func(Prompt) {}
	}
	return &State{p: p, notify: notify}
}

// Prompt returns a copy of the current record.
func (s *State) Prompt() Prompt {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.p
}

// Sync replaces the weight and position with the authoritative values
// from p without notifying.
func (s *State) Sync(p Prompt) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.p.Weight = intensity.ClampWeight(p.Weight)
	s.p.X, s.p.Y = p.X, p.Y
}

// SetWeightFromLevel sets the canonical weight of level (0..5).
func (s *State) SetWeightFromLevel(level int) {
	s.setWeight(intensity.LevelToWeight(level))
}

// SetWeightFromCC quantizes a CC value to a level and applies it.
func (s *State) SetWeightFromCC(value int) {
	s.SetWeightFromLevel(intensity.CCToLevel(value))
}

func (s *State) setWeight(w float64) {
	w = intensity.ClampWeight(w)

	s.lock.Lock()
	if s.p.Weight == w {
		s.lock.Unlock()
		return
	}
	s.p.Weight = w
	p := s.p
	s.lock.Unlock()

	s.notify(p)
}

// MoveTo clamps (x, y) into container for an element of half-extent half
// and notifies if the position changed.
func (s *State) MoveTo(x, y float64, half, container geometry.Extent) {
	if s.place(geometry.Clamp(geometry.Point{X: x, Y: y}, half, container)) {
		s.commit()
	}
}

// place sets the position without notifying and reports whether it moved.
func (s *State) place(pt geometry.Point) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.p.X == pt.X && s.p.Y == pt.Y {
		return false
	}
	s.p.X, s.p.Y = pt.X, pt.Y
	return true
}

func (s *State) commit() {
	s.notify(s.Prompt())
}

// BindCC listens for control changes on this prompt's CC number. Any
// previous binding is released first.
func (s *State) BindCC(src Subscriber) {
	s.lock.Lock()
	prev := s.unsubscribe
	cc := s.p.CC
	s.unsubscribe = nil
	s.lock.Unlock()

	if prev != nil {
		prev()
	}

	unsubscribe := src.Subscribe(cc, func(msg controller.Message) {
		if msg.Control == cc {
			s.SetWeightFromCC(int(msg.Value))
		}
	})

	s.lock.Lock()
	s.unsubscribe = unsubscribe
	s.lock.Unlock()
}

// Close releases the CC binding.
func (s *State) Close() {
	s.lock.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.lock.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
