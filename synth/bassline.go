package synth

import (
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/algo-touchsynth/graph"
	"github.com/cwbudde/algo-touchsynth/sched"
)

// basslineStep is one pattern step: a semitone offset from the root and
// its share of one bar.
type basslineStep struct {
	semitones float64
	fraction  float64
}

type basslinePattern struct {
	name  string
	steps []basslineStep
}

// Patterns in simple → complex order; the vertical axis selects one.
var basslinePatterns = [...]basslinePattern{
	{"pulse", []basslineStep{
		{0, 0.5}, {0, 0.5},
	}},
	{"octave", []basslineStep{
		{0, 0.25}, {12, 0.25}, {0, 0.25}, {12, 0.25},
	}},
	{"fifth", []basslineStep{
		{0, 0.375}, {7, 0.125}, {0, 0.25}, {7, 0.125}, {12, 0.125},
	}},
	{"walk", []basslineStep{
		{0, 0.25}, {3, 0.25}, {5, 0.25}, {7, 0.25},
	}},
	{"syncopated", []basslineStep{
		{0, 0.375}, {12, 0.125}, {10, 0.125}, {0, 0.125}, {7, 0.125}, {3, 0.125},
	}},
}

// Bassline is a continuous ostinato: a sawtooth with a sub sine an
// octave below, sequenced through named step patterns by recursive
// timer chaining so each step carries its own duration. Compass heading
// maps to tempo, the horizontal axis to a root the sequence glides
// toward, the vertical axis to pattern complexity.
type Bassline struct {
	nodes nodeSet
	ctx   *EngineContext

	osc     *graph.Oscillator
	sub     *graph.Oscillator
	oscGain *graph.Gain
	subGain *graph.Gain
	filter  *graph.Biquad

	running bool
	timer   *sched.Timer

	root       float64
	targetRoot float64
	patternIdx int
	stepIdx    int
}

// NewBassline returns the sequenced bassline mode.
func NewBassline() *Bassline {
	return &Bassline{}
}

// Name implements Mode.
func (m *Bassline) Name() string { return "bassline" }

// Continuous implements Mode.
func (m *Bassline) Continuous() bool { return true }

// Init implements Mode.
func (m *Bassline) Init(ctx *EngineContext) {
	m.ctx = ctx
	m.nodes = nodeSet{}
	m.root = m.defaultRoot()
	m.targetRoot = m.root
	m.patternIdx = 0
	m.stepIdx = 0

	now := ctx.Graph.CurrentTime()
	m.osc = graph.NewOscillator(ctx.Graph, graph.Sawtooth, m.root)
	m.sub = graph.NewOscillator(ctx.Graph, graph.Sine, m.root/2)
	m.oscGain = graph.NewGain(ctx.Graph, 0)
	m.subGain = graph.NewGain(ctx.Graph, 0)
	m.filter = graph.NewBiquad(ctx.Graph, graph.Lowpass, 600, 1.2)

	m.osc.Connect(m.oscGain)
	m.sub.Connect(m.subGain)
	m.oscGain.Connect(m.filter)
	m.subGain.Connect(m.filter)
	m.filter.Connect(ctx.Master)

	m.nodes.addSource(m.osc, m.osc)
	m.nodes.addSource(m.sub, m.sub)
	m.nodes.addNode(m.oscGain)
	m.nodes.addNode(m.subGain)
	m.nodes.addNode(m.filter)

	m.osc.Start(now)
	m.sub.Start(now)

	m.running = true
	m.scheduleStep(0)
}

func (m *Bassline) defaultRoot() float64 {
	base := m.ctx.BaseFreq
	if base <= 0 {
		base = 110
	}
	return base / 2
}

// bpm maps the compass heading linearly into 70..140.
func (m *Bassline) bpm() float64 {
	heading := math.Mod(m.ctx.Orientation.Heading, 360)
	if heading < 0 {
		heading += 360
	}
	return 70 + heading/360*70
}

// scheduleStep plays the current step after delay and chains the next
// one, so per-step durations vary with the pattern and live tempo.
func (m *Bassline) scheduleStep(delay time.Duration) {
	m.timer = m.ctx.After(delay, func() {
		if !m.running {
			return
		}
		pattern := basslinePatterns[m.patternIdx]
		step := pattern.steps[m.stepIdx%len(pattern.steps)]
		m.stepIdx++

		// Glide the root toward the touch target instead of snapping.
		m.root += (m.targetRoot - m.root) * 0.35

		barSeconds := 4 * 60 / m.bpm()
		stepSeconds := barSeconds * step.fraction
		m.playStep(step, stepSeconds)
		m.scheduleStep(time.Duration(stepSeconds * float64(time.Second)))
	})
}

// playStep retunes both oscillators and fires the two-stage punch
// envelope: fast linear attack, exponential decay to a sustain floor.
func (m *Bassline) playStep(step basslineStep, stepSeconds float64) {
	ctx := m.ctx
	now := ctx.Graph.CurrentTime()

	f := m.root * math.Pow(2, step.semitones/12)
	m.osc.Frequency().SetValueAtTime(f, now)
	m.sub.Frequency().SetValueAtTime(f/2, now)

	decayEnd := now + math.Max(stepSeconds*0.85, 0.05)
	punch := func(g *graph.Gain, peak float64) {
		p := g.GainParam()
		p.CancelScheduledValues(now)
		p.SetValueAtTime(0.0001, now)
		p.LinearRampToValueAtTime(peak, now+0.012)
		p.ExponentialRampToValueAtTime(peak*0.15, decayEnd)
	}
	punch(m.oscGain, 0.22)
	punch(m.subGain, 0.18)
}

// Start implements Mode.
func (m *Bassline) Start(string, *EngineContext) {}

// Update implements Mode. Touch steers the sequence without gating it.
func (m *Bassline) Update(x, y float64, _ string, _ float64, ctx *EngineContext) {
	if !m.running {
		return
	}
	m.targetRoot = m.defaultRoot() * math.Pow(2, x*2)
	m.patternIdx = int(clampUnit(y) * float64(len(basslinePatterns)) * 0.999)
	ctx.hud("", fmt.Sprintf("bassline · %s · %.0f bpm", basslinePatterns[m.patternIdx].name, m.bpm()))
}

// Stop implements Mode. The ostinato keeps running.
func (m *Bassline) Stop(string, float64, *EngineContext) {}

// Cleanup implements Mode.
func (m *Bassline) Cleanup() {
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
func (m *Bassline) VoiceCount() int {
	if m.running {
		return 1
	}
	return 0
}
