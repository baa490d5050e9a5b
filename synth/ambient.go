package synth

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/cwbudde/algo-touchsynth/graph"
	"github.com/cwbudde/algo-touchsynth/sched"
)

const (
	// evolutionTick is the update interval of the continuous modes.
	evolutionTick = 16 * time.Millisecond

	// ambientTouchTimeout resets the touching flag after the last
	// gesture sample, since releases can get lost on some platforms.
	ambientTouchTimeout = 300 * time.Millisecond
)

// Chord voicings the drones cycle through, one semitone offset per
// drone. A new touch advances to the next entry.
var ambientChords = [...][4]float64{
	{0, 7, 12, 16},
	{0, 5, 12, 19},
	{0, 3, 10, 15},
	{0, 7, 14, 17},
	{0, 8, 12, 15},
}

// Stereo placement of the four drones.
var ambientPans = [...]float64{-0.6, -0.2, 0.25, 0.65}

type ambientDrone struct {
	oscA *graph.Oscillator
	oscB *graph.Oscillator
	gain *graph.Gain
}

// Ambient is a continuous texture: four detuned drones spread across the
// field, a filtered pink-noise bed and tremolo'd shimmer partials. The
// listening position drifts on a slow macro sine plus a damped random
// walk soft-bounced inside [0.1, 0.9]; touching blends the finger
// position in and advances the chord voicing on each new touch.
type Ambient struct {
	nodes nodeSet
	ctx   *EngineContext
	rng   *rand.Rand

	drones    [4]ambientDrone
	bedGain   *graph.Gain
	bedFilter *graph.Biquad
	shimGain  *graph.Gain
	shimTrem  *graph.Gain

	running    bool
	timer      *sched.Timer
	macroPhase float64

	posX, posY float64
	velX, velY float64

	touchX, touchY float64
	touching       bool
	lastTouch      time.Duration
	chordIdx       int
}

// NewAmbient returns the evolving ambient texture mode.
func NewAmbient() *Ambient {
	return &Ambient{rng: rand.New(rand.NewSource(1))}
}

// Name implements Mode.
func (m *Ambient) Name() string { return "ambient" }

// Continuous implements Mode.
func (m *Ambient) Continuous() bool { return true }

// Init implements Mode. The whole texture is built up front; touches
// only steer it.
func (m *Ambient) Init(ctx *EngineContext) {
	m.ctx = ctx
	m.nodes = nodeSet{}
	m.posX, m.posY = 0.5, 0.5
	m.velX, m.velY = 0, 0
	m.macroPhase = 0
	m.touching = false
	m.chordIdx = 0

	now := ctx.Graph.CurrentTime()
	root := m.rootFreq()
	chord := ambientChords[0]
	for i := range m.drones {
		f := root * math.Pow(2, chord[i]/12)
		a := graph.NewOscillator(ctx.Graph, graph.Sawtooth, f)
		b := graph.NewOscillator(ctx.Graph, graph.Sawtooth, f)
		a.Detune().SetValue(-6)
		b.Detune().SetValue(5)

		g := graph.NewGain(ctx.Graph, 0.03)
		pan := graph.NewStereoPanner(ctx.Graph, ambientPans[i])
		a.Connect(g)
		b.Connect(g)
		g.Connect(pan)
		pan.Connect(ctx.Master)

		m.drones[i] = ambientDrone{oscA: a, oscB: b, gain: g}
		m.nodes.addSource(a, a)
		m.nodes.addSource(b, b)
		m.nodes.addNode(g)
		m.nodes.addNode(pan)
		a.Start(now)
		b.Start(now)
	}

	bed := graph.NewNoise(ctx.Graph, graph.Pink, 7)
	m.bedFilter = graph.NewBiquad(ctx.Graph, graph.Lowpass, 900, 0.5)
	m.bedGain = graph.NewGain(ctx.Graph, 0.03)
	bed.Connect(m.bedFilter)
	m.bedFilter.Connect(m.bedGain)
	m.bedGain.Connect(ctx.Master)
	m.nodes.addSource(bed, bed)
	m.nodes.addNode(m.bedFilter)
	m.nodes.addNode(m.bedGain)
	bed.Start(now)

	// Shimmer: a high partial whose gain wobbles.
	shim := graph.NewOscillator(ctx.Graph, graph.Sine, root*4)
	m.shimGain = graph.NewGain(ctx.Graph, 0.01)
	trem := graph.NewOscillator(ctx.Graph, graph.Sine, 0.3)
	m.shimTrem = graph.NewGain(ctx.Graph, 0.008)
	shim.Connect(m.shimGain)
	m.shimGain.Connect(ctx.Master)
	trem.Connect(m.shimTrem)
	m.shimTrem.ConnectParam(m.shimGain.GainParam())
	m.nodes.addSource(shim, shim)
	m.nodes.addSource(trem, trem)
	m.nodes.addNode(m.shimGain)
	m.nodes.addNode(m.shimTrem)
	shim.Start(now)
	trem.Start(now)

	m.running = true
	m.timer = ctx.After(evolutionTick, m.tick)
}

func (m *Ambient) rootFreq() float64 {
	base := m.ctx.BaseFreq
	if base <= 0 {
		base = 110
	}
	return base
}

// tick advances the evolution and re-arms itself while the mode lives.
func (m *Ambient) tick() {
	if !m.running {
		return
	}
	ctx := m.ctx

	if m.touching && ctx.Now()-m.lastTouch > ambientTouchTimeout {
		m.touching = false
	}

	// Damped random walk, soft-bounced inside [0.1, 0.9].
	m.velX = m.velX*0.94 + (m.rng.Float64()*2-1)*0.0025
	m.velY = m.velY*0.94 + (m.rng.Float64()*2-1)*0.0025
	wx := m.posX + m.velX
	wy := m.posY + m.velY
	if wx < 0.1 {
		wx = 0.1
		m.velX = -m.velX * 0.5
	} else if wx > 0.9 {
		wx = 0.9
		m.velX = -m.velX * 0.5
	}
	if wy < 0.1 {
		wy = 0.1
		m.velY = -m.velY * 0.5
	} else if wy > 0.9 {
		wy = 0.9
		m.velY = -m.velY * 0.5
	}

	m.macroPhase += 0.0012
	driftX := 0.5 + 0.3*math.Sin(m.macroPhase)
	driftY := 0.5 + 0.3*math.Sin(m.macroPhase*0.7+1.3)

	var tx, ty float64
	if m.touching {
		tx = m.touchX*0.6 + wx*0.25 + driftX*0.15
		ty = m.touchY*0.6 + wy*0.25 + driftY*0.15
	} else {
		tx = wx*0.6 + driftX*0.4
		ty = wy*0.6 + driftY*0.4
	}
	m.posX += (tx - m.posX) * 0.06
	m.posY += (ty - m.posY) * 0.06

	m.apply()
	m.timer = ctx.After(evolutionTick, m.tick)
}

// apply retunes the texture to the current smoothed position: x sweeps
// the root, y the texture density and brightness.
func (m *Ambient) apply() {
	ctx := m.ctx
	now := ctx.Graph.CurrentTime()

	root := m.rootFreq() * math.Pow(2, m.posX*1.5)
	chord := ambientChords[m.chordIdx]
	for i := range m.drones {
		f := root * math.Pow(2, chord[i]/12)
		m.drones[i].oscA.Frequency().SetTargetAtTime(f, now, 0.4)
		m.drones[i].oscB.Frequency().SetTargetAtTime(f, now, 0.4)
	}

	density := m.posY
	m.bedGain.GainParam().SetTargetAtTime(0.015+density*0.05, now, 0.3)
	m.bedFilter.Frequency().SetTargetAtTime(300+density*2500, now, 0.3)
	m.shimGain.GainParam().SetTargetAtTime(0.004+density*0.02, now, 0.3)
}

// Start implements Mode.
func (m *Ambient) Start(string, *EngineContext) {}

// Update implements Mode. A fresh touch advances the chord voicing; the
// position becomes the texture's attractor while the finger stays down.
func (m *Ambient) Update(x, y float64, _ string, _ float64, ctx *EngineContext) {
	if !m.running {
		return
	}
	if !m.touching {
		m.chordIdx = (m.chordIdx + 1) % len(ambientChords)
		ctx.hud("", fmt.Sprintf("ambient · voicing %d", m.chordIdx+1))
	}
	m.touching = true
	m.lastTouch = ctx.Now()
	m.touchX = x
	m.touchY = y
}

// Stop implements Mode. Touch is a perturbation here, not a gate; the
// inactivity timeout releases the attractor instead.
func (m *Ambient) Stop(string, float64, *EngineContext) {}

// Cleanup implements Mode.
func (m *Ambient) Cleanup() {
	m.running = false
	m.timer.Stop()
	var now float64
	if m.ctx != nil && m.ctx.Graph != nil {
		now = m.ctx.Graph.CurrentTime()
	}
	m.nodes.teardown(now)
	m.ctx = nil
}

// VoiceCount implements Mode.
func (m *Ambient) VoiceCount() int {
	if m.running {
		return len(m.drones)
	}
	return 0
}
