package usecase

import (
	"sync"
	"time"
)

// DefaultSearchDebounce is the quiescence window before typed search text
// may affect queries.
const DefaultSearchDebounce = 400 * time.Millisecond

// Debouncer delays a commit until input has been quiet for a fixed window.
// Each OnInput cancels the pending timer; only the last input of a burst
// reaches the commit function. There is at most one pending timer.
type Debouncer struct {
	mu         sync.Mutex
	delay      time.Duration
	commit     func()
	timer      *time.Timer
	generation uint64
	stopped    bool
}

func NewDebouncer(delay time.Duration, commit func()) *Debouncer {
	if delay <= 0 {
		delay = DefaultSearchDebounce
	}
	return &Debouncer{delay: delay, commit: commit}
}

// OnInput restarts the quiescence timer.
func (d *Debouncer) OnInput() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.generation++
	gen := d.generation
	d.timer = time.AfterFunc(d.delay, func() {
		d.fire(gen)
	})
}

// Pending reports whether a commit is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels any pending commit and ignores further input.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.generation++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	// A timer that already fired cannot be stopped; the generation check
	// drops callbacks that lost the race with a newer OnInput or Stop.
	if gen != d.generation {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.commit()
}
