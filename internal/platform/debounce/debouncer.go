package debounce

import (
	"sync"
	"time"
)

type State string

const (
	StateIdle    State = "idle"
	StatePending State = "pending"
	StateFiring  State = "firing"
)

// Debouncer coalesces bursts of triggers into one trailing-edge fire.
// A maxWait above zero bounds how long a steady stream of triggers can
// postpone the fire, counted from the first trigger of the burst.
type Debouncer struct {
	mu sync.Mutex

	delay   time.Duration
	maxWait time.Duration
	fn      func()

	state    State
	timer    *time.Timer
	maxTimer *time.Timer
	gen      uint64
}

func New(delay, maxWait time.Duration, fn func()) *Debouncer {
	if delay <= 0 {
		delay = time.Millisecond
	}
	if fn == nil {
		fn = func() {}
	}
	return &Debouncer{
		delay:   delay,
		maxWait: maxWait,
		fn:      fn,
		state:   StateIdle,
	}
}

// Trigger arms the debounce window, restarting the trailing delay when
// one is already pending.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case StateIdle, StateFiring:
		d.state = StatePending
		d.gen++
		gen := d.gen
		d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
		if d.maxWait > 0 {
			d.maxTimer = time.AfterFunc(d.maxWait, func() { d.fire(gen) })
		}
	case StatePending:
		if d.timer != nil {
			d.timer.Stop()
		}
		gen := d.gen
		d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
	}
}

// Cancel drops any pending fire without running the callback.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
}

// Flush runs the callback immediately when a fire is pending.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.state != StatePending {
		d.mu.Unlock()
		return
	}
	gen := d.gen
	d.mu.Unlock()
	d.fire(gen)
}

func (d *Debouncer) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.state != StatePending || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.state = StateFiring
	d.stopTimers()
	d.mu.Unlock()

	d.fn()

	d.mu.Lock()
	if d.state == StateFiring && gen == d.gen {
		d.state = StateIdle
	}
	d.mu.Unlock()
}

func (d *Debouncer) reset() {
	d.stopTimers()
	d.gen++
	d.state = StateIdle
}

func (d *Debouncer) stopTimers() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.maxTimer != nil {
		d.maxTimer.Stop()
		d.maxTimer = nil
	}
}
