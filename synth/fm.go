package synth

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-touchsynth/graph"
	"github.com/cwbudde/algo-touchsynth/theory"
)

// Harmonic carrier-to-modulator ratios swept by the vertical axis. Low
// ratios give electric-piano timbres, high ones bells and metal.
var fmRatios = [...]float64{1, 2, 3, 4, 6, 8}

type fmVoice struct {
	nodes nodeSet

	carrier  *graph.Oscillator
	mod      *graph.Oscillator
	modDepth *graph.Gain
	gain     *graph.Gain

	note     theory.NoteInfo
	ratio    float64
	released bool
}

// FM is a two-operator frequency-modulation mode: one sine modulator
// drives the carrier frequency. The vertical axis steps through harmonic
// ratios and the modulation index deepens the longer the touch is held.
type FM struct {
	voices map[string]*fmVoice
	ctx    *EngineContext
}

// NewFM returns the two-operator FM mode.
func NewFM() *FM {
	return &FM{voices: make(map[string]*fmVoice)}
}

// Name implements Mode.
func (m *FM) Name() string { return "fm" }

// Continuous implements Mode.
func (m *FM) Continuous() bool { return false }

// Init implements Mode.
func (m *FM) Init(ctx *EngineContext) {
	m.ctx = ctx
	m.voices = make(map[string]*fmVoice)
}

// Start implements Mode.
func (m *FM) Start(string, *EngineContext) {}

// Update implements Mode.
func (m *FM) Update(x, y float64, id string, duration float64, ctx *EngineContext) {
	if m.ctx == nil || ctx.Graph == nil {
		return
	}

	note := noteFor(ctx, x)
	ratio := fmRatios[int(clampUnit(y)*float64(len(fmRatios)-1)+0.5)]
	now := ctx.Graph.CurrentTime()

	v := m.voices[id]
	if v != nil && v.released {
		v = nil
	}
	if v == nil {
		if m.liveCount() >= MaxVoices {
			return
		}
		v = m.newVoice(note, ratio, now, ctx)
		m.voices[id] = v
		ctx.registerVoice(VoiceInfo{TouchID: id, Mode: m.Name(), Note: note.NoteName, Freq: note.Freq})
	} else {
		v.note = note
		v.carrier.Frequency().SetTargetAtTime(note.Freq, now, 0.03)
		v.mod.Frequency().SetTargetAtTime(note.Freq*ratio, now, 0.03)
		v.ratio = ratio
		ctx.updateVoice(id, VoiceInfo{TouchID: id, Mode: m.Name(), Note: note.NoteName, Freq: note.Freq})
	}

	// Modulation index in frequency deviation terms. Holding deepens it
	// toward a brassy extreme.
	index := 1 + math.Min(duration, 8)
	v.modDepth.GainParam().SetTargetAtTime(index*note.Freq, now, 0.08)

	ctx.hud(note.NoteName, fmt.Sprintf("fm · ratio %g · index %.1f", ratio, index))
}

func (m *FM) newVoice(note theory.NoteInfo, ratio, now float64, ctx *EngineContext) *fmVoice {
	v := &fmVoice{note: note, ratio: ratio}

	v.carrier = graph.NewOscillator(ctx.Graph, graph.Sine, note.Freq)
	v.mod = graph.NewOscillator(ctx.Graph, graph.Sine, note.Freq*ratio)
	v.modDepth = graph.NewGain(ctx.Graph, note.Freq)
	v.gain = graph.NewGain(ctx.Graph, 0)

	v.mod.Connect(v.modDepth)
	v.modDepth.ConnectParam(v.carrier.Frequency())
	v.carrier.Connect(v.gain)
	v.gain.Connect(ctx.Master)

	v.nodes.addSource(v.carrier, v.carrier)
	v.nodes.addSource(v.mod, v.mod)
	v.nodes.addNode(v.modDepth)
	v.nodes.addNode(v.gain)

	attackGain(v.gain, ctx, now, 0.2)
	v.carrier.Start(now)
	v.mod.Start(now)
	return v
}

// Stop implements Mode.
func (m *FM) Stop(id string, release float64, ctx *EngineContext) {
	v := m.voices[id]
	if v == nil || v.released {
		return
	}
	v.released = true

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
func (m *FM) Cleanup() {
	var now float64
	if m.ctx != nil && m.ctx.Graph != nil {
		now = m.ctx.Graph.CurrentTime()
	}
	for _, v := range m.voices {
		v.released = true
		v.nodes.teardown(now)
	}
	m.voices = make(map[string]*fmVoice)
	m.ctx = nil
}

// VoiceCount implements Mode.
func (m *FM) VoiceCount() int { return m.liveCount() }

func (m *FM) liveCount() int {
	n := 0
	for _, v := range m.voices {
		if !v.released {
			n++
		}
	}
	return n
}
