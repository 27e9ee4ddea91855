package visual

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// DefaultInterval is the minimum spacing between background recomputations.
const DefaultInterval = 30 * time.Millisecond

// Throttle rate-limits a pure function with a trailing edge. The first
// call in a quiet period runs immediately. Calls inside the interval are
// coalesced: exactly one trailing run happens once the interval has
// elapsed, using the most recent input. There is one timer per Throttle.
type Throttle[In, Out any] struct {
	fn       func(In) Out
	deliver  func(Out)
	interval time.Duration
	clock    clock.WithDelayedExecution

	lock    sync.Mutex
	last    time.Time
	ran     bool
	pending bool
	due     time.Time
	gen     uint64
	latest  In
	timer   clock.Timer
	stopped bool
}

// NewThrottle wraps fn. Every result, immediate or trailing, is passed to
// deliver when it is non-nil.
func NewThrottle[In, Out any](interval time.Duration, clk clock.WithDelayedExecution, fn func(In) Out, deliver func(Out)) *Throttle[In, Out] {
	return &Throttle[In, Out]{
		fn:       fn,
		deliver:  deliver,
		interval: interval,
		clock:    clk,
	}
}

// Call runs fn(in) now if the interval has passed and nothing is pending,
// returning its result with ran=true. Otherwise in replaces any earlier
// pending input and ran is false.
func (t *Throttle[In, Out]) Call(in In) (out Out, ran bool) {
	t.lock.Lock()
	if t.stopped {
		t.lock.Unlock()
		return out, false
	}
	now := t.clock.Now()
	if !t.pending && (!t.ran || now.Sub(t.last) >= t.interval) {
		t.last = now
		t.ran = true
		t.lock.Unlock()
		return t.run(in), true
	}

	t.latest = in
	if t.pending {
		t.lock.Unlock()
		return out, false
	}
	wait := t.interval - now.Sub(t.last)
	t.pending = true
	t.due = now.Add(wait)
	t.gen++
	gen := t.gen
	t.lock.Unlock()

	// Scheduled outside the lock: a timer may run its callback before
	// AfterFunc returns.
	timer := t.clock.AfterFunc(wait, func() { t.fire(gen) })

	t.lock.Lock()
	if t.stopped || !t.pending || t.gen != gen {
		t.lock.Unlock()
		timer.Stop()
		return out, false
	}
	t.timer = timer
	t.lock.Unlock()
	return out, false
}

// fire runs the trailing call. The window restarts at the scheduled due
// time rather than the observed one.
func (t *Throttle[In, Out]) fire(gen uint64) {
	t.lock.Lock()
	if t.stopped || !t.pending || t.gen != gen {
		t.lock.Unlock()
		return
	}
	in := t.latest
	var zero In
	t.latest = zero
	t.pending = false
	t.timer = nil
	t.last = t.due
	t.lock.Unlock()

	t.run(in)
}

func (t *Throttle[In, Out]) run(in In) Out {
	out := t.fn(in)
	if t.deliver != nil {
		t.deliver(out)
	}
	return out
}

// Pending reports whether a trailing run is scheduled.
func (t *Throttle[In, Out]) Pending() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.pending
}

// Stop releases the pending timer. Later calls are ignored.
func (t *Throttle[In, Out]) Stop() {
	t.lock.Lock()
	t.stopped = true
	t.pending = false
	timer := t.timer
	t.timer = nil
	t.lock.Unlock()

	if timer != nil {
		timer.Stop()
	}
}
