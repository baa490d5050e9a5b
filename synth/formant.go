package synth

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-touchsynth/graph"
	"github.com/cwbudde/algo-touchsynth/theory"
)

// vowel holds the first three formant center frequencies in Hz.
type vowel struct {
	name  string
	bands [3]float64
}

// Vertical axis sweeps a → u; positions between entries cross-fade the
// band frequencies.
var formantVowels = [...]vowel{
	{"a", [3]float64{710, 1100, 2540}},
	{"e", [3]float64{569, 1965, 2636}},
	{"i", [3]float64{285, 2373, 3088}},
	{"o", [3]float64{599, 891, 2605}},
	{"u", [3]float64{309, 939, 2320}},
}

// Relative gain of each formant band, strongest first.
var formantLevels = [3]float64{0.3, 0.18, 0.09}

// formantBands interpolates the three band frequencies for a vowel-axis
// position.
func formantBands(y float64) (bands [3]float64, name string) {
	pos := clampUnit(y) * float64(len(formantVowels)-1)
	i0 := int(pos)
	if i0 >= len(formantVowels)-1 {
		i0 = len(formantVowels) - 2
	}
	frac := pos - float64(i0)
	a, b := formantVowels[i0], formantVowels[i0+1]
	for i := range bands {
		bands[i] = lerp(a.bands[i], b.bands[i], frac)
	}
	if frac < 0.5 {
		name = a.name
	} else {
		name = b.name
	}
	return bands, name
}

type formantVoice struct {
	nodes nodeSet

	osc      *graph.Oscillator
	breath   *graph.Gain
	filters  [3]*graph.Biquad
	vibDepth *graph.Gain
	gain     *graph.Gain

	note     theory.NoteInfo
	released bool
}

// Formant is a vocal mode: a sawtooth plus a touch of breath noise runs
// through three parallel bandpass sections tuned to vowel formants. The
// vertical axis cross-fades through a/e/i/o/u; breathiness and vibrato
// grow the longer the touch is held.
type Formant struct {
	voices map[string]*formantVoice
	ctx    *EngineContext
	seed   int64
}

// NewFormant returns the vowel formant mode.
func NewFormant() *Formant {
	return &Formant{voices: make(map[string]*formantVoice), seed: 1}
}

// Name implements Mode.
func (m *Formant) Name() string { return "formant" }

// Continuous implements Mode.
func (m *Formant) Continuous() bool { return false }

// Init implements Mode.
func (m *Formant) Init(ctx *EngineContext) {
	m.ctx = ctx
	m.voices = make(map[string]*formantVoice)
}

// Start implements Mode.
func (m *Formant) Start(string, *EngineContext) {}

// Update implements Mode.
func (m *Formant) Update(x, y float64, id string, duration float64, ctx *EngineContext) {
	if m.ctx == nil || ctx.Graph == nil {
		return
	}

	note := noteFor(ctx, x)
	bands, vowelName := formantBands(y)
	now := ctx.Graph.CurrentTime()

	v := m.voices[id]
	if v != nil && v.released {
		v = nil
	}
	if v == nil {
		if m.liveCount() >= MaxVoices {
			return
		}
		v = m.newVoice(note, bands, now, ctx)
		m.voices[id] = v
		ctx.registerVoice(VoiceInfo{TouchID: id, Mode: m.Name(), Note: note.NoteName, Freq: note.Freq})
	} else {
		v.note = note
		v.osc.Frequency().SetTargetAtTime(note.Freq, now, 0.03)
		for i, f := range v.filters {
			f.Frequency().SetTargetAtTime(bands[i], now, 0.05)
		}
		ctx.updateVoice(id, VoiceInfo{TouchID: id, Mode: m.Name(), Note: note.NoteName, Freq: note.Freq})
	}

	breath := math.Min(duration*0.02, 0.08)
	vibrato := math.Min(duration*1.2, 6)
	v.breath.GainParam().SetTargetAtTime(breath, now, 0.2)
	v.vibDepth.GainParam().SetTargetAtTime(vibrato, now, 0.2)

	ctx.hud(note.NoteName, fmt.Sprintf("formant · %s", vowelName))
}

func (m *Formant) newVoice(note theory.NoteInfo, bands [3]float64, now float64, ctx *EngineContext) *formantVoice {
	v := &formantVoice{note: note}

	v.osc = graph.NewOscillator(ctx.Graph, graph.Sawtooth, note.Freq)
	m.seed++
	noise := graph.NewNoise(ctx.Graph, graph.White, m.seed)
	v.breath = graph.NewGain(ctx.Graph, 0)
	noise.Connect(v.breath)

	v.gain = graph.NewGain(ctx.Graph, 0)
	v.gain.Connect(ctx.Master)

	for i := range v.filters {
		f := graph.NewBiquad(ctx.Graph, graph.Bandpass, bands[i], 5)
		bandGain := graph.NewGain(ctx.Graph, formantLevels[i])
		v.osc.Connect(f)
		v.breath.Connect(f)
		f.Connect(bandGain)
		bandGain.Connect(v.gain)
		v.filters[i] = f
		v.nodes.addNode(f)
		v.nodes.addNode(bandGain)
	}

	vib := graph.NewOscillator(ctx.Graph, graph.Sine, 5.5)
	v.vibDepth = graph.NewGain(ctx.Graph, 0)
	vib.Connect(v.vibDepth)
	v.vibDepth.ConnectParam(v.osc.Frequency())

	v.nodes.addSource(v.osc, v.osc)
	v.nodes.addSource(noise, noise)
	v.nodes.addSource(vib, vib)
	v.nodes.addNode(v.breath)
	v.nodes.addNode(v.vibDepth)
	v.nodes.addNode(v.gain)

	attackGain(v.gain, ctx, now, 1)
	v.osc.Start(now)
	noise.Start(now)
	vib.Start(now)
	return v
}

// Stop implements Mode.
func (m *Formant) Stop(id string, release float64, ctx *EngineContext) {
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
func (m *Formant) Cleanup() {
	var now float64
	if m.ctx != nil && m.ctx.Graph != nil {
		now = m.ctx.Graph.CurrentTime()
	}
	for _, v := range m.voices {
		v.released = true
		v.nodes.teardown(now)
	}
	m.voices = make(map[string]*formantVoice)
	m.ctx = nil
}

// VoiceCount implements Mode.
func (m *Formant) VoiceCount() int { return m.liveCount() }

func (m *Formant) liveCount() int {
	n := 0
	for _, v := range m.voices {
		if !v.released {
			n++
		}
	}
	return n
}
