package sched

import (
	"testing"
	"time"
)

func TestManualFiresInDeadlineOrder(t *testing.T) {
	m := NewManual()

	var got []int
	m.After(30*time.Millisecond, func() { got = append(got, 3) })
	m.After(10*time.Millisecond, func() { got = append(got, 1) })
	m.After(20*time.Millisecond, func() { got = append(got, 2) })

	m.Advance(50 * time.Millisecond)

	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("fire order = %v, want [1 2 3]", got)
	}
}

func TestManualDoesNotFireEarly(t *testing.T) {
	m := NewManual()

	fired := false
	m.After(20*time.Millisecond, func() { fired = true })

	m.Advance(19 * time.Millisecond)
	if fired {
		t.Fatalf("callback fired before its deadline")
	}

	m.Advance(1 * time.Millisecond)
	if !fired {
		t.Fatalf("callback did not fire at its deadline")
	}
}

func TestManualRecursiveChainWithinAdvance(t *testing.T) {
	m := NewManual()

	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		if ticks < 5 {
			m.After(10*time.Millisecond, tick)
		}
	}
	m.After(10*time.Millisecond, tick)

	m.Advance(100 * time.Millisecond)

	if ticks != 5 {
		t.Fatalf("ticks = %d, want 5", ticks)
	}
	if now := m.Now(); now != 100*time.Millisecond {
		t.Fatalf("Now() = %v, want 100ms", now)
	}
}

func TestManualStopCancelsPending(t *testing.T) {
	m := NewManual()

	fired := false
	timer := m.After(10*time.Millisecond, func() { fired = true })

	if !timer.Stop() {
		t.Fatalf("Stop() = false on pending timer, want true")
	}
	if timer.Stop() {
		t.Fatalf("second Stop() = true, want false")
	}

	m.Advance(time.Second)
	if fired {
		t.Fatalf("stopped timer fired")
	}
}

func TestManualEqualDeadlinesFIFO(t *testing.T) {
	m := NewManual()

	var got []int
	for i := 0; i < 4; i++ {
		i := i
		m.After(10*time.Millisecond, func() { got = append(got, i) })
	}

	m.Advance(10 * time.Millisecond)

	for i, v := range got {
		if v != i {
			t.Fatalf("fire order = %v, want FIFO", got)
		}
	}
}

func TestNilTimerStop(t *testing.T) {
	var timer *Timer
	if timer.Stop() {
		t.Fatalf("nil Timer Stop() = true, want false")
	}
}

func TestRealAfterFires(t *testing.T) {
	r := NewReal()

	done := make(chan struct{})
	r.After(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer did not fire")
	}
}
