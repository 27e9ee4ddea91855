package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmacd/promptdj/collection"
	"github.com/jmacd/promptdj/visual"
)

type (
	snapshotMsg   collection.Snapshot
	backgroundMsg visual.Background
	errorMsg      string
	playPauseMsg  struct{}
	midiOpenedMsg struct{ err error }
)

// Events forwards board events into a running program in the order they
// were raised. A single goroutine drains the queue, since Send blocks
// until the program reads the message and board events are often raised
// from inside Update. Events that arrive before Attach or after Close are
// dropped.
type Events struct {
	lock    sync.Mutex
	cond    *sync.Cond
	queue   []tea.Msg
	started bool
	closed  bool
}

func NewEvents() *Events {
	e := &Events{}
	e.cond = sync.NewCond(&e.lock)
	return e
}

func (e *Events) Attach(p *tea.Program) {
	e.attach(p.Send)
}

func (e *Events) attach(sink func(tea.Msg)) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.started || e.closed {
		return
	}
	e.started = true
	go e.forward(sink)
}

func (e *Events) forward(sink func(tea.Msg)) {
	for {
		e.lock.Lock()
		for len(e.queue) == 0 && !e.closed {
			e.cond.Wait()
		}
		if e.closed {
			e.lock.Unlock()
			return
		}
		msg := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		e.lock.Unlock()

		sink(msg)
	}
}

// Close stops forwarding and discards anything still queued.
func (e *Events) Close() {
	e.lock.Lock()
	e.closed = true
	e.queue = nil
	e.lock.Unlock()
	e.cond.Broadcast()
}

func (e *Events) send(msg tea.Msg) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if !e.started || e.closed {
		return
	}
	e.queue = append(e.queue, msg)
	e.cond.Signal()
}

func (e *Events) PromptsChanged(s collection.Snapshot) { e.send(snapshotMsg(s)) }
func (e *Events) PlayPause()                           { e.send(playPauseMsg{}) }
func (e *Events) Error(message string)                 { e.send(errorMsg(message)) }
func (e *Events) Background(bg visual.Background)      { e.send(backgroundMsg(bg)) }
