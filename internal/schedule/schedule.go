package schedule

import (
	"sync"
	"time"
)

// Timer is a cancelable one-shot. Scheduling while a shot is pending stops
// the pending one first, so the owner of the timer always has at most one
// callback in flight.
type Timer struct {
	mu sync.Mutex
	t  *time.Timer
}

func (t *Timer) Schedule(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.t != nil {
		t.t.Stop()
	}
	t.t = time.AfterFunc(d, fn)
}

// Stop cancels the pending shot, if any. Safe to call on a zero Timer.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
}

// Debouncer coalesces bursts of calls into a single invocation of the most
// recent function, after a quiet period of the configured delay.
type Debouncer struct {
	delay time.Duration

	mu sync.Mutex
	t  *time.Timer
	fn func()
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Call replaces any pending invocation with fn and restarts the delay.
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.fn = fn
	if d.t != nil {
		d.t.Stop()
	}
	d.t = time.AfterFunc(d.delay, d.fire)
}

// Cancel drops the pending invocation without running it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.t != nil {
		d.t.Stop()
		d.t = nil
	}
	d.fn = nil
}

// Flush runs the pending invocation immediately, if there is one.
func (d *Debouncer) Flush() {
	d.fire()
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	fn := d.fn
	d.fn = nil
	if d.t != nil {
		d.t.Stop()
		d.t = nil
	}
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}
