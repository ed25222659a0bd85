package refresh

import (
	"sync"
	"time"
)

// Debouncer runs fn after a delay, coalescing triggers.
//
// Triggers that arrive while a run is armed but not started join that run.
// At most one run is in flight at a time; triggers that arrive during a run
// collapse into exactly one follow-up run. Every trigger is therefore
// followed by at least one run that starts after it.
type Debouncer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	running bool
	pending bool
	closed  bool
	wg      sync.WaitGroup
}

// NewDebouncer creates a Debouncer. A non-positive delay runs fn as soon as
// a goroutine is available.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger requests a run. It never blocks on fn.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case d.closed:
	case d.running:
		d.pending = true
	case d.timer == nil:
		d.arm()
	}
}

// arm must be called with mu held.
func (d *Debouncer) arm() {
	d.wg.Add(1)
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	defer d.wg.Done()

	d.mu.Lock()
	d.timer = nil
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.running = false
		if d.pending && !d.closed {
			d.pending = false
			d.arm()
		}
		d.mu.Unlock()
	}()
	d.fn()
}

// Close cancels an armed run and waits for a run in flight to finish.
// Later triggers are ignored.
func (d *Debouncer) Close() {
	d.mu.Lock()
	d.closed = true
	d.pending = false
	if d.timer != nil && d.timer.Stop() {
		d.timer = nil
		d.wg.Done()
	}
	d.mu.Unlock()

	d.wg.Wait()
}
