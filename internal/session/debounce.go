package session

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before a search query is applied.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer runs only the last of a burst of calls, once no new call has
// arrived for the configured delay.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending func()
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay}
}

// Delay is the quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Trigger schedules fn, cancelling anything scheduled earlier.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = fn
	d.timer = time.AfterFunc(d.delay, d.fire)
}

// Flush runs the pending call now instead of waiting out the delay. It
// reports whether there was one.
func (d *Debouncer) Flush() bool {
	fn := d.take()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Stop cancels a pending call. It reports whether one was pending.
func (d *Debouncer) Stop() bool {
	return d.take() != nil
}

func (d *Debouncer) fire() {
	if fn := d.take(); fn != nil {
		fn()
	}
}

// take stops the timer and hands the pending call to exactly one caller.
func (d *Debouncer) take() func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	fn := d.pending
	d.pending = nil
	return fn
}
