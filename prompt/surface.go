package prompt

import "sync"

// Pointer is a Surface that fans pointer events out to the handlers
// currently attached. A front end feeds it raw motion and release events.
type Pointer struct {
	lock     sync.Mutex
	nextID   int
	handlers map[int]PointerHandler
}

func NewPointer() *Pointer {
	return &Pointer{handlers: map[int]PointerHandler{}}
}

func (p *Pointer) Subscribe(h PointerHandler) func() {
	p.lock.Lock()
	p.nextID++
	id := p.nextID
	p.handlers[id] = h
	p.lock.Unlock()

	return func() {
		p.lock.Lock()
		delete(p.handlers, id)
		p.lock.Unlock()
	}
}

func (p *Pointer) snapshot() []PointerHandler {
	p.lock.Lock()
	defer p.lock.Unlock()
	hs := make([]PointerHandler, 0, len(p.handlers))
	for _, h := range p.handlers {
		hs = append(hs, h)
	}
	return hs
}

func (p *Pointer) Move(x, y float64) {
	for _, h := range p.snapshot() {
		h.PointerMove(x, y)
	}
}

func (p *Pointer) Up(x, y float64) {
	for _, h := range p.snapshot() {
		h.PointerUp(x, y)
	}
}

// Listeners reports the number of attached handlers.
func (p *Pointer) Listeners() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return len(p.handlers)
}
