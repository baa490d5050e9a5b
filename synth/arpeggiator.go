package synth

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/cwbudde/algo-touchsynth/graph"
	"github.com/cwbudde/algo-touchsynth/sched"
	"github.com/cwbudde/algo-touchsynth/theory"
)

type arpPattern int

const (
	arpUp arpPattern = iota
	arpDown
	arpUpDown
	arpRandom
)

func (p arpPattern) String() string {
	switch p {
	case arpUp:
		return "up"
	case arpDown:
		return "down"
	case arpUpDown:
		return "updown"
	default:
		return "random"
	}
}

const (
	arpMinRate = 3.0  // steps per second
	arpMaxRate = 16.0 // steps per second
)

type arpVoice struct {
	nodes nodeSet

	osc  *graph.Oscillator
	gain *graph.Gain

	note    theory.NoteInfo
	pattern arpPattern
	rate    float64
	step    int
	rising  bool
	timer   *sched.Timer
	rng     *rand.Rand

	released bool
}

// Arpeggiator runs one sawtooth per touch, its frequency retargeted on a
// repeating timer to walk the chord tones of the touched degree. The
// vertical axis picks the walk pattern and hold duration accelerates the
// step rate.
type Arpeggiator struct {
	voices map[string]*arpVoice
	ctx    *EngineContext
	seed   int64
}

// NewArpeggiator returns the timer-stepped arpeggiator mode.
func NewArpeggiator() *Arpeggiator {
	return &Arpeggiator{voices: make(map[string]*arpVoice), seed: 1}
}

// Name implements Mode.
func (m *Arpeggiator) Name() string { return "arpeggiator" }

// Continuous implements Mode.
func (m *Arpeggiator) Continuous() bool { return false }

// Init implements Mode.
func (m *Arpeggiator) Init(ctx *EngineContext) {
	m.ctx = ctx
	m.voices = make(map[string]*arpVoice)
}

// Start implements Mode.
func (m *Arpeggiator) Start(string, *EngineContext) {}

// Update implements Mode.
func (m *Arpeggiator) Update(x, y float64, id string, duration float64, ctx *EngineContext) {
	if m.ctx == nil || ctx.Graph == nil {
		return
	}

	note := noteFor(ctx, x)
	pattern := arpPattern(int(clampUnit(y) * 3.999))
	now := ctx.Graph.CurrentTime()

	v := m.voices[id]
	if v != nil && v.released {
		v = nil
	}
	if v == nil {
		if m.liveCount() >= MaxVoices {
			return
		}
		v = m.newVoice(note, pattern, now, ctx)
		m.voices[id] = v
		ctx.registerVoice(VoiceInfo{TouchID: id, Mode: m.Name(), Note: note.NoteName, Freq: note.Freq})
		m.scheduleStep(v, ctx)
	} else {
		v.note = note
		v.pattern = pattern
		ctx.updateVoice(id, VoiceInfo{TouchID: id, Mode: m.Name(), Note: note.NoteName, Freq: note.Freq})
	}

	// Longer holds accelerate the arpeggio, within a playable range.
	v.rate = math.Min(arpMinRate+duration*2, arpMaxRate)

	ctx.hud(note.NoteName, fmt.Sprintf("arp · %s · %.1f/s", v.pattern, v.rate))
}

func (m *Arpeggiator) newVoice(note theory.NoteInfo, pattern arpPattern, now float64, ctx *EngineContext) *arpVoice {
	m.seed++
	v := &arpVoice{
		note:    note,
		pattern: pattern,
		rate:    arpMinRate,
		rising:  true,
		rng:     rand.New(rand.NewSource(m.seed)),
	}

	v.osc = graph.NewOscillator(ctx.Graph, graph.Sawtooth, note.Freq)
	v.gain = graph.NewGain(ctx.Graph, 0)
	v.osc.Connect(v.gain)
	v.gain.Connect(ctx.Master)

	v.nodes.addSource(v.osc, v.osc)
	v.nodes.addNode(v.gain)

	attackGain(v.gain, ctx, now, 0.16)
	v.osc.Start(now)
	return v
}

// scheduleStep advances the pattern one tone and re-arms the timer at the
// current rate, so rate changes take effect on the next step.
func (m *Arpeggiator) scheduleStep(v *arpVoice, ctx *EngineContext) {
	v.timer = ctx.After(time.Duration(float64(time.Second)/v.rate), func() {
		if v.released {
			return
		}
		freqs := append(chordFor(ctx, v.note), v.note.Freq*2)
		idx := m.nextStep(v, len(freqs))
		v.osc.Frequency().SetValueAtTime(freqs[idx], ctx.Graph.CurrentTime())
		m.scheduleStep(v, ctx)
	})
}

func (m *Arpeggiator) nextStep(v *arpVoice, n int) int {
	switch v.pattern {
	case arpUp:
		v.step = (v.step + 1) % n
	case arpDown:
		v.step = (v.step - 1 + n) % n
	case arpUpDown:
		if v.rising {
			v.step++
			if v.step >= n-1 {
				v.rising = false
			}
		} else {
			v.step--
			if v.step <= 0 {
				v.rising = true
			}
		}
	case arpRandom:
		v.step = v.rng.Intn(n)
	}
	if v.step < 0 {
		v.step = 0
	}
	if v.step >= n {
		v.step %= n
	}
	return v.step
}

// Stop implements Mode.
func (m *Arpeggiator) Stop(id string, release float64, ctx *EngineContext) {
	v := m.voices[id]
	if v == nil || v.released {
		return
	}
	v.released = true
	v.timer.Stop()

	now := ctx.Graph.CurrentTime()
	rel := releaseTime(release, ctx)
	releaseGain(v.gain, now, rel)

	ctx.After(teardownDelay(rel), func() {
		v.nodes.teardown(ctx.Graph.CurrentTime())
		if m.voices[id] == v {
			delete(m.voices, id)
			ctx.unregisterVoice(id)
		}
	})
}

// Cleanup implements Mode.
func (m *Arpeggiator) Cleanup() {
	var now float64
	if m.ctx != nil && m.ctx.Graph != nil {
		now = m.ctx.Graph.CurrentTime()
	}
	for _, v := range m.voices {
		v.released = true
		v.timer.Stop()
		v.nodes.teardown(now)
	}
	m.voices = make(map[string]*arpVoice)
	m.ctx = nil
}

// VoiceCount implements Mode.
func (m *Arpeggiator) VoiceCount() int { return m.liveCount() }

func (m *Arpeggiator) liveCount() int {
	n := 0
	for _, v := range m.voices {
		if !v.released {
			n++
		}
	}
	return n
}
