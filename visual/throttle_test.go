package visual

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/clock"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/jmacd/promptdj/palette"
	"github.com/jmacd/promptdj/prompt"
)

// recorder collects inputs and outputs; trailing runs arrive on the
// timer goroutine.
type recorder struct {
	lock      sync.Mutex
	calls     []int
	delivered []int
}

func (r *recorder) fn(in int) int {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.calls = append(r.calls, in)
	return in * 10
}

func (r *recorder) deliver(out int) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.delivered = append(r.delivered, out)
}

func (r *recorder) Calls() []int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]int(nil), r.calls...)
}

func (r *recorder) Delivered() []int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]int(nil), r.delivered...)
}

func (r *recorder) waitCalls(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(r.Calls()) >= n }, time.Second, time.Millisecond)
}

// countingClock counts scheduled timers.
type countingClock struct {
	*testingclock.FakeClock

	lock   sync.Mutex
	timers int
}

func (c *countingClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.lock.Lock()
	c.timers++
	c.lock.Unlock()
	return c.FakeClock.AfterFunc(d, f)
}

func (c *countingClock) Timers() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.timers
}

func newCountingThrottle(clk clock.WithDelayedExecution) (*Throttle[int, int], *recorder) {
	r := &recorder{}
	return NewThrottle(DefaultInterval, clk, r.fn, r.deliver), r
}

func TestThrottleFirstCallImmediate(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	th, r := newCountingThrottle(clk)

	out, ran := th.Call(4)
	assert.True(t, ran)
	assert.Equal(t, 40, out)
	assert.Equal(t, []int{4}, r.Calls())
	assert.Equal(t, []int{40}, r.Delivered())
	assert.False(t, th.Pending())
	assert.False(t, clk.HasWaiters())
}

func TestThrottleCoalescesBurst(t *testing.T) {
	clk := &countingClock{FakeClock: testingclock.NewFakeClock(time.Unix(0, 0))}
	th, r := newCountingThrottle(clk)

	th.Call(0)
	for i := 1; i <= 10; i++ {
		clk.Step(2 * time.Millisecond)
		_, ran := th.Call(i)
		assert.False(t, ran)
	}
	assert.Equal(t, []int{0}, r.Calls(), "nothing recomputed inside the window")
	assert.Equal(t, 1, clk.Timers(), "a single timer per throttle")

	clk.Step(DefaultInterval)
	r.waitCalls(t, 2)
	assert.Equal(t, []int{0, 10}, r.Calls(), "one trailing run with the latest input")
	assert.Equal(t, []int{0, 100}, r.Delivered())
	assert.False(t, th.Pending())
	assert.Equal(t, 1, clk.Timers())
}

func TestThrottleTrailingFiresAtWindowEnd(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	th, r := newCountingThrottle(clk)

	th.Call(1)
	clk.Step(10 * time.Millisecond)
	th.Call(2)

	clk.Step(DefaultInterval - 11*time.Millisecond)
	assert.True(t, clk.HasWaiters(), "still inside the window")
	assert.Equal(t, []int{1}, r.Calls())

	clk.Step(time.Millisecond)
	r.waitCalls(t, 2)
	assert.Equal(t, []int{1, 2}, r.Calls())
	assert.False(t, clk.HasWaiters())
}

func TestThrottleQuietPeriodResets(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	th, r := newCountingThrottle(clk)

	th.Call(1)
	clk.Step(DefaultInterval)
	_, ran := th.Call(2)
	assert.True(t, ran)
	assert.Equal(t, []int{1, 2}, r.Calls())
}

func TestThrottleCallAfterTrailingWaits(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	th, r := newCountingThrottle(clk)

	th.Call(1)
	th.Call(2)
	clk.Step(DefaultInterval) // trailing run of 2
	r.waitCalls(t, 2)
	require.Eventually(t, func() bool { return !th.Pending() }, time.Second, time.Millisecond)

	_, ran := th.Call(3)
	assert.False(t, ran, "the trailing run starts a new window")
	clk.Step(DefaultInterval)
	r.waitCalls(t, 3)
	assert.Equal(t, []int{1, 2, 3}, r.Calls())
}

func TestThrottleStop(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	th, r := newCountingThrottle(clk)

	th.Call(1)
	th.Call(2)
	assert.True(t, clk.HasWaiters())
	th.Stop()
	assert.False(t, clk.HasWaiters())

	clk.Step(time.Second)
	_, ran := th.Call(3)
	assert.False(t, ran)
	assert.Equal(t, []int{1}, r.Calls())
}

func TestThrottledBackgroundMatchesLastState(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	place := fixed(0.5, 0.5)

	var (
		lock sync.Mutex
		got  []Background
	)
	th := NewThrottle(DefaultInterval, clk,
		func(ps []prompt.Prompt) Background { return ComputeBackground(ps, place) },
		func(bg Background) {
			lock.Lock()
			defer lock.Unlock()
			got = append(got, bg)
		},
	)
	count := func() int {
		lock.Lock()
		defer lock.Unlock()
		return len(got)
	}

	states := make([][]prompt.Prompt, 11)
	for i := range states {
		states[i] = []prompt.Prompt{{ID: "Funk", Color: palette.ColorTeal, Weight: float64(i) / 5}}
	}

	th.Call(states[0])
	for i := 1; i <= 10; i++ {
		th.Call(states[i])
	}
	clk.Step(DefaultInterval)
	require.Eventually(t, func() bool { return count() == 2 }, time.Second, time.Millisecond)

	lock.Lock()
	defer lock.Unlock()
	assert.Equal(t, ComputeBackground(states[10], place), got[1])
}
