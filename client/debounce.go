package client

import (
	"sync"
	"time"
)

// Debouncer delays a call until input pauses. Each Trigger cancels the
// pending call and schedules the new one; only the latest fn runs.
type Debouncer struct {
	delay   time.Duration
	mu      sync.Mutex
	timer   *time.Timer
	pending func()
	gen     uint64
}

// NewDebouncer returns a Debouncer. A zero delay runs every Trigger at once.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

func (d *Debouncer) Trigger(fn func()) {
	if d.delay <= 0 {
		fn()
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.pending = fn
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.pending == nil {
		// Cancelled after the timer expired.
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()
	fn()
}

func (d *Debouncer) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
	d.gen++
}

// Flush runs the pending call now, if there is one.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	fn := d.pending
	d.cancelLocked()
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Stop drops the pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}
