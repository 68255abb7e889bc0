package monitor

import (
	"sync"
	"time"
)

// Recurring invokes fn at a fixed interval until cancelled. Cancellation is
// idempotent and a pending tick never fires after Cancel returns: fn runs
// under the lock, so fn must not block or call back into the Recurring.
type Recurring struct {
	interval time.Duration
	fn       func()

	mu        sync.Mutex
	timer     *time.Timer
	cancelled bool
}

// NewRecurring schedules fn every interval, starting one interval from now.
func NewRecurring(interval time.Duration, fn func()) *Recurring {
	r := &Recurring{interval: interval, fn: fn}
	r.timer = time.AfterFunc(interval, r.run)
	return r
}

func (r *Recurring) run() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled {
		return
	}
	r.fn()
	r.timer = time.AfterFunc(r.interval, r.run)
}

// Cancel stops the schedule. Safe to call more than once.
func (r *Recurring) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled {
		return
	}
	r.cancelled = true
	if r.timer != nil {
		r.timer.Stop()
	}
}
