package graph

import (
	"math"
	"sort"

	"github.com/cwbudde/algo-vecmath"
)

type eventType int

const (
	evSet eventType = iota
	evLinear
	evExp
	evTarget
)

type automationEvent struct {
	typ       eventType
	time      float64
	value     float64
	timeConst float64
}

type targetState struct {
	v0, t0, target, tc float64
}

// Param is an automatable node parameter. Scheduled events are evaluated
// against the context clock with sample accuracy; connected nodes add
// audio-rate modulation on top of the automation value.
type Param struct {
	ctx    *Context
	base   float64
	events []automationEvent
	inputs []Node
	buf    []float64
}

func newParam(ctx *Context, initial float64) *Param {
	return &Param{ctx: ctx, base: initial}
}

// SetValue sets the value immediately (at the current clock time),
// cancelling nothing that is already scheduled later.
func (p *Param) SetValue(v float64) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	p.insert(automationEvent{typ: evSet, time: p.ctx.now(), value: v})
}

// SetValueAtTime schedules an instant change at time t (seconds).
func (p *Param) SetValueAtTime(v, t float64) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	p.insert(automationEvent{typ: evSet, time: t, value: v})
}

// LinearRampToValueAtTime ramps linearly from the previous event to v at t.
func (p *Param) LinearRampToValueAtTime(v, t float64) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	p.insert(automationEvent{typ: evLinear, time: t, value: v})
}

// ExponentialRampToValueAtTime ramps geometrically to v at t. Values too
// close to zero are clamped to a small positive floor, matching the
// platform rule that exponential ramps cannot touch zero.
func (p *Param) ExponentialRampToValueAtTime(v, t float64) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	p.insert(automationEvent{typ: evExp, time: t, value: expFloor(v)})
}

// SetTargetAtTime starts an exponential approach toward target at t with
// the given time constant. The approach holds until the next event.
func (p *Param) SetTargetAtTime(target, t, timeConst float64) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	if timeConst <= 0 {
		p.insert(automationEvent{typ: evSet, time: t, value: target})
		return
	}
	p.insert(automationEvent{typ: evTarget, time: t, value: target, timeConst: timeConst})
}

// CancelScheduledValues drops every event scheduled at or after t.
func (p *Param) CancelScheduledValues(t float64) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	kept := p.events[:0]
	for _, e := range p.events {
		if e.time < t {
			kept = append(kept, e)
		}
	}
	p.events = kept
}

// Value returns the automation value at the current clock time, without
// modulation input.
func (p *Param) Value() float64 {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	return p.automationValue(p.ctx.now())
}

func (p *Param) insert(e automationEvent) {
	p.events = append(p.events, e)
	sort.SliceStable(p.events, func(i, j int) bool {
		return p.events[i].time < p.events[j].time
	})
}

func (p *Param) removeInput(src Node) {
	for i, in := range p.inputs {
		if in == src {
			p.inputs = append(p.inputs[:i], p.inputs[i+1:]...)
			return
		}
	}
}

// automationValue folds the event list up to time t. Ramps interpolate from
// the previous event's value; a set-target approach holds until the next
// event cuts it off. Callers hold the context lock.
func (p *Param) automationValue(t float64) float64 {
	prevT, prevV := 0.0, p.base
	var tg *targetState

	for i := range p.events {
		e := &p.events[i]
		if e.time > t {
			switch e.typ {
			case evLinear:
				if tg != nil {
					// A ramp scheduled after a target approach tracks
					// the approach until the ramp deadline.
					return withTarget(tg, prevV, t)
				}
				if e.time == prevT {
					return e.value
				}
				return prevV + (e.value-prevV)*(t-prevT)/(e.time-prevT)
			case evExp:
				if tg != nil {
					return withTarget(tg, prevV, t)
				}
				if e.time == prevT {
					return e.value
				}
				v0 := expFloor(prevV)
				return v0 * math.Pow(e.value/v0, (t-prevT)/(e.time-prevT))
			default:
				return withTarget(tg, prevV, t)
			}
		}

		switch e.typ {
		case evSet, evLinear, evExp:
			prevV = e.value
			prevT = e.time
			tg = nil
		case evTarget:
			v0 := withTarget(tg, prevV, e.time)
			tg = &targetState{v0: v0, t0: e.time, target: e.value, tc: e.timeConst}
			prevV = v0
			prevT = e.time
		}
	}

	return withTarget(tg, prevV, t)
}

func withTarget(tg *targetState, fallback, t float64) float64 {
	if tg == nil {
		return fallback
	}
	if t <= tg.t0 {
		return tg.v0
	}
	return tg.target + (tg.v0-tg.target)*math.Exp(-(t-tg.t0)/tg.tc)
}

// values fills and returns the per-sample parameter buffer for the current
// block: automation plus modulation inputs. Callers hold the context lock.
func (p *Param) values(gen uint64, n int) []float64 {
	if cap(p.buf) < n {
		p.buf = make([]float64, n)
	}
	p.buf = p.buf[:n]

	for i := 0; i < n; i++ {
		p.buf[i] = p.automationValue(p.ctx.sampleTime(i))
	}
	for _, in := range p.inputs {
		l, _ := in.process(gen, n)
		vecmath.AddBlockInPlace(p.buf, l)
	}
	return p.buf
}

func expFloor(v float64) float64 {
	const floor = 1e-6
	if v > floor {
		return v
	}
	if v < -floor {
		return v
	}
	if v < 0 {
		return -floor
	}
	return floor
}
