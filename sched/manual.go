package sched

import (
	"container/heap"
	"sync"
	"time"
)

// Manual is a Scheduler driven by virtual time. Nothing fires until Advance
// is called. Callbacks scheduled from within a firing callback run in the
// same Advance when they fall due inside the advanced window.
type Manual struct {
	mu   sync.Mutex
	now  time.Duration
	seq  uint64
	heap eventHeap
}

type event struct {
	at     time.Duration
	seq    uint64 // FIFO tie-break for equal deadlines
	fn     func()
	cancel bool
}

// NewManual returns a virtual-time scheduler starting at zero.
func NewManual() *Manual {
	return &Manual{}
}

// After implements Scheduler.
func (m *Manual) After(delay time.Duration, fn func()) *Timer {
	if delay < 0 {
		delay = 0
	}

	m.mu.Lock()
	m.seq++
	ev := &event{at: m.now + delay, seq: m.seq, fn: fn}
	heap.Push(&m.heap, ev)
	m.mu.Unlock()

	return &Timer{stop: func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		if ev.cancel || ev.fn == nil {
			return false
		}
		ev.cancel = true
		return true
	}}
}

// Now implements Scheduler.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves virtual time forward by d, firing due callbacks in deadline
// order. Ties fire in scheduling order.
func (m *Manual) Advance(d time.Duration) {
	if d < 0 {
		return
	}

	m.mu.Lock()
	target := m.now + d
	for {
		if len(m.heap) == 0 || m.heap[0].at > target {
			break
		}
		ev := heap.Pop(&m.heap).(*event)
		if ev.cancel {
			continue
		}
		if ev.at > m.now {
			m.now = ev.at
		}
		fn := ev.fn
		ev.fn = nil
		// Fire without the lock so the callback can reschedule.
		m.mu.Unlock()
		fn()
		m.mu.Lock()
	}
	m.now = target
	m.mu.Unlock()
}

type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(*event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return ev
}
