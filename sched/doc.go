// Package sched provides a small scheduler abstraction for logical timing:
// tick loops, debounce windows and deferred teardown.
//
// Audio-rate parameter changes are NOT scheduled here; those go through the
// sample-accurate automation clock of the signal graph. sched covers the
// coarse wall-clock side only, and exists chiefly so that evolution loops and
// deferred voice teardown can be driven by virtual time in tests (see Manual).
package sched
