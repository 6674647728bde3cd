package editor

import (
	"sync"
	"time"
)

// Debouncer runs the most recently triggered function once no trigger has
// arrived for the configured delay.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	fn      func()
	gen     uint64
	stopped bool
}

// NewDebouncer returns a Debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn, replacing any pending function and restarting the
// delay. Triggers after Stop are ignored.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.fn = fn
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	// A newer trigger or a flush superseded this timer.
	if gen != d.gen || d.fn == nil {
		d.mu.Unlock()
		return
	}
	fn := d.fn
	d.fn = nil
	d.mu.Unlock()

	fn()
}

// Flush runs the pending function now, if there is one.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	fn := d.take()
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Stop drops the pending function without running it. The Debouncer
// ignores all later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.take()
	d.stopped = true
	d.mu.Unlock()
}

// Pending reports whether a function is waiting to run.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fn != nil
}

func (d *Debouncer) take() func() {
	fn := d.fn
	d.fn = nil
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	return fn
}
