package synth

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-touchsynth/graph"
	"github.com/cwbudde/algo-touchsynth/theory"
)

// Chord types swept by the vertical axis, roughly darkest to brightest.
var droneChords = [...]theory.Quality{
	theory.Power,
	theory.Minor,
	theory.Minor7,
	theory.Sus4,
	theory.Major,
	theory.Major7,
}

// Cents offsets fattening each chord tone with a detuned pair.
var droneDetunes = [...]float64{-7, 6}

type droneVoice struct {
	nodes nodeSet

	oscs       []*graph.Oscillator
	gain       *graph.Gain
	wobble     *graph.Oscillator
	wobbleAmps []*graph.Gain

	note     theory.NoteInfo
	quality  theory.Quality
	released bool
}

// Drone stacks detuned sawtooth pairs on the tones of a chord picked by
// the vertical axis. A shared low-rate LFO wobbles every oscillator's
// pitch, deepening the longer the touch is held.
type Drone struct {
	voices map[string]*droneVoice
	ctx    *EngineContext
}

// NewDrone returns the chordal drone mode.
func NewDrone() *Drone {
	return &Drone{voices: make(map[string]*droneVoice)}
}

// Name implements Mode.
func (m *Drone) Name() string { return "drone" }

// Continuous implements Mode.
func (m *Drone) Continuous() bool { return false }

// Init implements Mode.
func (m *Drone) Init(ctx *EngineContext) {
	m.ctx = ctx
	m.voices = make(map[string]*droneVoice)
}

// Start implements Mode.
func (m *Drone) Start(string, *EngineContext) {}

// Update implements Mode.
func (m *Drone) Update(x, y float64, id string, duration float64, ctx *EngineContext) {
	if m.ctx == nil || ctx.Graph == nil {
		return
	}

	note := noteFor(ctx, x)
	quality := droneChords[int(clampUnit(y)*float64(len(droneChords)-1)+0.5)]
	now := ctx.Graph.CurrentTime()

	v := m.voices[id]
	if v != nil && v.released {
		v = nil
	}
	if v == nil {
		if m.liveCount() >= MaxVoices {
			return
		}
		v = m.newVoice(note, quality, now, ctx)
		m.voices[id] = v
		ctx.registerVoice(VoiceInfo{TouchID: id, Mode: m.Name(), Note: note.NoteName, Freq: note.Freq})
	} else {
		if quality != v.quality {
			v.quality = quality
		}
		v.note = note
		freqs := theory.ChordFrequencies(note.Freq, v.quality)
		for i, osc := range v.oscs {
			f := freqs[(i/len(droneDetunes))%len(freqs)]
			osc.Frequency().SetTargetAtTime(f, now, 0.08)
		}
		ctx.updateVoice(id, VoiceInfo{TouchID: id, Mode: m.Name(), Note: note.NoteName, Freq: note.Freq})
	}

	// The shared wobble deepens with hold, in Hz of pitch deviation.
	depth := math.Min(duration*0.4, 3)
	for _, amp := range v.wobbleAmps {
		amp.GainParam().SetTargetAtTime(depth, now, 0.2)
	}

	ctx.hud(note.NoteName, fmt.Sprintf("drone · %s", v.quality))
}

func (m *Drone) newVoice(note theory.NoteInfo, quality theory.Quality, now float64, ctx *EngineContext) *droneVoice {
	v := &droneVoice{note: note, quality: quality}

	v.gain = graph.NewGain(ctx.Graph, 0)
	v.gain.Connect(ctx.Master)
	v.nodes.addNode(v.gain)

	v.wobble = graph.NewOscillator(ctx.Graph, graph.Sine, 0.4)
	v.nodes.addSource(v.wobble, v.wobble)

	freqs := theory.ChordFrequencies(note.Freq, quality)
	level := 0.18 / float64(len(freqs)*len(droneDetunes))
	for _, f := range freqs {
		for _, cents := range droneDetunes {
			osc := graph.NewOscillator(ctx.Graph, graph.Sawtooth, f)
			osc.Detune().SetValue(cents)

			oscGain := graph.NewGain(ctx.Graph, level)
			osc.Connect(oscGain)
			oscGain.Connect(v.gain)

			amp := graph.NewGain(ctx.Graph, 0)
			v.wobble.Connect(amp)
			amp.ConnectParam(osc.Frequency())

			v.oscs = append(v.oscs, osc)
			v.wobbleAmps = append(v.wobbleAmps, amp)
			v.nodes.addSource(osc, osc)
			v.nodes.addNode(oscGain)
			v.nodes.addNode(amp)

			osc.Start(now)
		}
	}

	attackGain(v.gain, ctx, now, 1)
	v.wobble.Start(now)
	return v
}

// Stop implements Mode.
func (m *Drone) Stop(id string, release float64, ctx *EngineContext) {
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
func (m *Drone) Cleanup() {
	var now float64
	if m.ctx != nil && m.ctx.Graph != nil {
		now = m.ctx.Graph.CurrentTime()
	}
	for _, v := range m.voices {
		v.released = true
		v.nodes.teardown(now)
	}
	m.voices = make(map[string]*droneVoice)
	m.ctx = nil
}

// VoiceCount implements Mode.
func (m *Drone) VoiceCount() int { return m.liveCount() }

func (m *Drone) liveCount() int {
	n := 0
	for _, v := range m.voices {
		if !v.released {
			n++
		}
	}
	return n
}
