package sched

import (
	"sync"
	"time"
)

// Scheduler schedules callbacks after a delay and reports elapsed time.
//
// Implementations must be safe for concurrent use. Callbacks run without any
// scheduler-internal lock held; callers are responsible for their own
// serialization (the synth engine funnels every callback through one mutex).
type Scheduler interface {
	// After runs fn once after delay. The returned Timer can cancel it.
	After(delay time.Duration, fn func()) *Timer
	// Now returns monotonic elapsed time since the scheduler was created.
	Now() time.Duration
}

// Timer is a handle to a pending callback.
type Timer struct {
	stop func() bool
}

// Stop cancels the pending callback. It reports whether the callback was
// still pending. Stopping an already-fired or already-stopped timer is a
// no-op returning false.
func (t *Timer) Stop() bool {
	if t == nil || t.stop == nil {
		return false
	}
	return t.stop()
}

// Real is a Scheduler backed by the runtime timer facility.
type Real struct {
	start time.Time
}

// NewReal returns a wall-clock scheduler.
func NewReal() *Real {
	return &Real{start: time.Now()}
}

// After implements Scheduler.
func (r *Real) After(delay time.Duration, fn func()) *Timer {
	if delay < 0 {
		delay = 0
	}

	var mu sync.Mutex
	fired := false
	t := time.AfterFunc(delay, func() {
		mu.Lock()
		fired = true
		mu.Unlock()
		fn()
	})

	return &Timer{stop: func() bool {
		mu.Lock()
		defer mu.Unlock()
		if fired {
			return false
		}
		return t.Stop()
	}}
}

// Now implements Scheduler.
func (r *Real) Now() time.Duration {
	return time.Since(r.start)
}
