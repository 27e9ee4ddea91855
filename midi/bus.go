package midi

import (
	"sync"

	"github.com/jmacd/promptdj/midi/controller"
)

// AllControls subscribes to every control number.
const AllControls = controller.Control(controller.NumControls)

type subscription struct {
	id int
	cb controller.Callback
}

// Bus fans control-change messages out to subscribers keyed by control
// number. Callbacks run on the publishing goroutine, outside the lock.
type Bus struct {
	lock   sync.Mutex
	nextID int

	// calls has an additional entry representing AllControls.
	calls [controller.NumControls + 1][]subscription
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers cb for control, or for every control when control
// is AllControls. The returned func removes the subscription; calling it
// more than once is harmless.
func (b *Bus) Subscribe(control controller.Control, cb controller.Callback) (unsubscribe func()) {
	if control < 0 || control > AllControls {
		return func() {}
	}

	b.lock.Lock()
	b.nextID++
	id := b.nextID
	b.calls[control] = append(b.calls[control], subscription{id: id, cb: cb})
	b.lock.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(control, id) })
	}
}

func (b *Bus) remove(control controller.Control, id int) {
	b.lock.Lock()
	defer b.lock.Unlock()

	subs := b.calls[control]
	for i, s := range subs {
		if s.id == id {
			b.calls[control] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers msg to the subscribers of its control, then to the
// AllControls subscribers.
func (b *Bus) Publish(msg controller.Message) {
	if msg.Control < 0 || msg.Control >= AllControls {
		return
	}

	b.lock.Lock()
	cbs := b.calls[msg.Control]
	acbs := b.calls[AllControls]
	b.lock.Unlock()

	for _, s := range cbs {
		s.cb(msg)
	}
	for _, s := range acbs {
		s.cb(msg)
	}
}

// Subscribers reports the number of subscriptions on control.
func (b *Bus) Subscribers(control controller.Control) int {
	if control < 0 || control > AllControls {
		return 0
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.calls[control])
}
