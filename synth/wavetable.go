package synth

import (
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/algo-touchsynth/graph"
	"github.com/cwbudde/algo-touchsynth/sched"
	"github.com/cwbudde/algo-touchsynth/theory"
)

const wavetableHarmonics = 32

// Fourier sine coefficients (index = harmonic number) for the four
// anchor waveforms the morph axis interpolates between.
var wavetableCoefficients = [4][]float64{
	harmonicSine(),
	harmonicTriangle(),
	harmonicSaw(),
	harmonicSquare(),
}

// Per-anchor loudness compensation: the inverse of each waveform's RMS
// energy relative to a sine, so morphing does not change perceived
// loudness. Interpolated the same way as the coefficients.
var wavetableCompensationAnchors = [4]float64{1.0, 0.9, 0.5, 0.6}

func harmonicSine() []float64 {
	c := make([]float64, wavetableHarmonics+1)
	c[1] = 1
	return c
}

func harmonicTriangle() []float64 {
	c := make([]float64, wavetableHarmonics+1)
	sign := 1.0
	for k := 1; k <= wavetableHarmonics; k += 2 {
		c[k] = sign * 8 / (math.Pi * math.Pi * float64(k) * float64(k))
		sign = -sign
	}
	return c
}

func harmonicSaw() []float64 {
	c := make([]float64, wavetableHarmonics+1)
	sign := 1.0
	for k := 1; k <= wavetableHarmonics; k++ {
		c[k] = sign * 2 / (math.Pi * float64(k))
		sign = -sign
	}
	return c
}

func harmonicSquare() []float64 {
	c := make([]float64, wavetableHarmonics+1)
	for k := 1; k <= wavetableHarmonics; k += 2 {
		c[k] = 4 / (math.Pi * float64(k))
	}
	return c
}

// wavetableMorph resolves the morph axis into interpolated Fourier
// coefficients and the matching loudness compensation factor. y sweeps
// sine → triangle → saw → square.
func wavetableMorph(y float64) (imag []float64, compensation float64) {
	y = clampUnit(y)
	pos := y * 3
	i0 := int(pos)
	if i0 >= 3 {
		i0 = 2
	}
	frac := pos - float64(i0)

	a, b := wavetableCoefficients[i0], wavetableCoefficients[i0+1]
	imag = make([]float64, wavetableHarmonics+1)
	for k := 1; k <= wavetableHarmonics; k++ {
		imag[k] = lerp(a[k], b[k], frac)
	}
	compensation = lerp(wavetableCompensationAnchors[i0], wavetableCompensationAnchors[i0+1], frac)
	return imag, compensation
}

type wavetableVoice struct {
	nodes nodeSet

	osc       *graph.Oscillator
	gain      *graph.Gain
	vibDepth  *graph.Gain
	tremDepth *graph.Gain

	note     theory.NoteInfo
	morph    float64
	level    float64
	released bool
	arpOn    bool
	arpStep  int
	arpTimer *sched.Timer
}

// Wavetable morphs between harmonic-series waveforms on the vertical
// axis while the horizontal axis picks pitch. Hold duration and device
// shake deepen vibrato and tremolo; an ADSR preset and a chord
// arpeggiator sub-mode hook in through the context.
type Wavetable struct {
	voices map[string]*wavetableVoice
	ctx    *EngineContext
}

// NewWavetable returns the wavetable morphing mode.
func NewWavetable() *Wavetable {
	return &Wavetable{voices: make(map[string]*wavetableVoice)}
}

// Name implements Mode.
func (m *Wavetable) Name() string { return "wavetable" }

// Continuous implements Mode.
func (m *Wavetable) Continuous() bool { return false }

// Init implements Mode.
func (m *Wavetable) Init(ctx *EngineContext) {
	m.ctx = ctx
	m.voices = make(map[string]*wavetableVoice)
}

// Start implements Mode. Voice creation is deferred to the first Update,
// which carries the position.
func (m *Wavetable) Start(string, *EngineContext) {}

// Update implements Mode.
func (m *Wavetable) Update(x, y float64, id string, duration float64, ctx *EngineContext) {
	if m.ctx == nil || ctx.Graph == nil {
		return
	}

	note := noteFor(ctx, x)
	now := ctx.Graph.CurrentTime()

	v := m.voices[id]
	if v != nil && v.released {
		// The previous voice for this id is still fading out; it keeps
		// its own teardown and this touch gets a fresh voice.
		v = nil
	}
	if v == nil {
		if m.liveCount() >= MaxVoices {
			return
		}
		v = m.newVoice(note, y, now, ctx)
		m.voices[id] = v
		ctx.registerVoice(VoiceInfo{TouchID: id, Mode: m.Name(), Note: note.NoteName, Freq: note.Freq})
		if ctx.ArpeggioOn {
			m.startArpeggio(v, ctx)
		}
	} else {
		v.note = note
		v.osc.Frequency().SetTargetAtTime(note.Freq, now, 0.03)
		if math.Abs(y-v.morph) > 0.01 {
			imag, comp := wavetableMorph(y)
			v.osc.SetPeriodicWave(nil, imag)
			v.morph = y
			v.level = 0.22 * comp
			v.gain.GainParam().SetTargetAtTime(v.level, now, 0.05)
		}
		ctx.updateVoice(id, VoiceInfo{TouchID: id, Mode: m.Name(), Note: note.NoteName, Freq: note.Freq})
	}

	// Vibrato and tremolo deepen with hold duration and device shake.
	shake := ctx.Orientation.Shake
	vibrato := math.Min(duration*1.5, 8) + shake*12
	tremolo := v.level * (math.Min(duration*0.1, 0.4) + shake*0.3)
	v.vibDepth.GainParam().SetTargetAtTime(vibrato, now, 0.1)
	v.tremDepth.GainParam().SetTargetAtTime(tremolo, now, 0.1)

	ctx.hud(note.NoteName, fmt.Sprintf("wavetable · morph %.2f", y))
}

func (m *Wavetable) newVoice(note theory.NoteInfo, y, now float64, ctx *EngineContext) *wavetableVoice {
	imag, comp := wavetableMorph(y)

	v := &wavetableVoice{note: note, morph: y, level: 0.22 * comp}

	v.osc = graph.NewOscillator(ctx.Graph, graph.Sine, note.Freq)
	v.osc.SetPeriodicWave(nil, imag)
	v.gain = graph.NewGain(ctx.Graph, 0)
	v.osc.Connect(v.gain)
	v.gain.Connect(ctx.Master)

	lfoRate := 5 + ctx.Orientation.LFORate
	vib := graph.NewOscillator(ctx.Graph, graph.Sine, lfoRate)
	v.vibDepth = graph.NewGain(ctx.Graph, 0)
	vib.Connect(v.vibDepth)
	v.vibDepth.ConnectParam(v.osc.Frequency())

	trem := graph.NewOscillator(ctx.Graph, graph.Sine, lfoRate*0.8)
	v.tremDepth = graph.NewGain(ctx.Graph, 0)
	trem.Connect(v.tremDepth)
	v.tremDepth.ConnectParam(v.gain.GainParam())

	v.nodes.addSource(v.osc, v.osc)
	v.nodes.addSource(vib, vib)
	v.nodes.addSource(trem, trem)
	v.nodes.addNode(v.gain)
	v.nodes.addNode(v.vibDepth)
	v.nodes.addNode(v.tremDepth)

	attackGain(v.gain, ctx, now, v.level)
	v.osc.Start(now)
	vib.Start(now)
	trem.Start(now)
	return v
}

func (m *Wavetable) startArpeggio(v *wavetableVoice, ctx *EngineContext) {
	v.arpOn = true
	rate := ctx.ArpeggioRate
	if rate <= 0 {
		rate = 6
	}
	interval := time.Duration(float64(time.Second) / rate)

	var step func()
	step = func() {
		if !v.arpOn || v.released {
			return
		}
		freqs := chordFor(ctx, v.note)
		f := freqs[v.arpStep%len(freqs)]
		v.arpStep++
		v.osc.Frequency().SetValueAtTime(f, ctx.Graph.CurrentTime())
		v.arpTimer = ctx.After(interval, step)
	}
	v.arpTimer = ctx.After(interval, step)
}

// Stop implements Mode. A second Stop for the same id is a no-op.
func (m *Wavetable) Stop(id string, release float64, ctx *EngineContext) {
	v := m.voices[id]
	if v == nil || v.released {
		return
	}
	v.released = true
	v.arpOn = false
	v.arpTimer.Stop()

	now := ctx.Graph.CurrentTime()
	rel := releaseTime(release, ctx)
	releaseGain(v.gain, now, rel)

	ctx.After(teardownDelay(rel), func() {
		v.nodes.teardown(ctx.Graph.CurrentTime())
		// A new voice may have claimed this id while the fade ran.
		if m.voices[id] == v {
			delete(m.voices, id)
			ctx.unregisterVoice(id)
		}
	})
}

// Cleanup implements Mode.
func (m *Wavetable) Cleanup() {
	var now float64
	if m.ctx != nil && m.ctx.Graph != nil {
		now = m.ctx.Graph.CurrentTime()
	}
	for _, v := range m.voices {
		v.arpOn = false
		v.arpTimer.Stop()
		v.released = true
		v.nodes.teardown(now)
	}
	m.voices = make(map[string]*wavetableVoice)
	m.ctx = nil
}

// VoiceCount implements Mode.
func (m *Wavetable) VoiceCount() int {
	return m.liveCount()
}

func (m *Wavetable) liveCount() int {
	n := 0
	for _, v := range m.voices {
		if !v.released {
			n++
		}
	}
	return n
}
