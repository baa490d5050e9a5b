package synth

import (
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/algo-touchsynth/graph"
	"github.com/cwbudde/algo-touchsynth/sched"
)

const (
	// oneheartAdvanceEvery auto-advances the progression.
	oneheartAdvanceEvery = 30 * time.Second

	// oneheartCooldown rate-limits touch-triggered chord advances. The
	// cooldown is global: rapid multi-finger taps share one window
	// instead of each finger getting its own.
	oneheartCooldown = 2 * time.Second

	// oneheartGlide is the retuning time constant between chords.
	oneheartGlide = 2.5

	oneheartTouchTimeout = 300 * time.Millisecond
)

type oneheartMood struct {
	name   string
	chords [][4]float64 // semitone offsets per pad voice
}

// Chord progressions per mood, voiced wide so each pad voice lands on
// its own tone.
var oneheartMoods = [...]oneheartMood{
	{"focus", [][4]float64{
		{0, 4, 7, 11},
		{5, 9, 12, 16},
		{7, 11, 14, 17},
		{2, 5, 9, 12},
	}},
	{"relaxation", [][4]float64{
		{0, 3, 7, 10},
		{-4, 3, 7, 12},
		{-2, 5, 8, 12},
		{0, 3, 10, 14},
	}},
	{"sleep", [][4]float64{
		{0, 7, 12, 16},
		{-5, 2, 12, 14},
		{-3, 4, 12, 16},
		{0, 5, 12, 17},
	}},
}

// Base detune in cents per oscillator of a pad voice; breathing sways
// these around their centers.
var oneheartDetunes = [...]float64{-4, 3, -6, 5}

// oneheartPad is one chord tone: detuned sine+triangle pairs into a gain
// and a panner.
type oneheartPad struct {
	oscs    [4]*graph.Oscillator
	gain    *graph.Gain
	panner  *graph.StereoPanner
	basePan float64
}

// Oneheart is a slow-evolving pad: one four-oscillator voice per chord
// tone spread across the stereo field, stepping through a mood-specific
// progression. The progression auto-advances on a long timer and can be
// nudged early by touch, rate-limited globally. A breathing modulation
// sways detune, pan and level; the two control axes chase the finger
// while touched and drift back toward neutral when idle.
type Oneheart struct {
	nodes nodeSet
	ctx   *EngineContext

	pads   [4]oneheartPad
	noise  *graph.Gain
	filter *graph.Biquad

	mood     int
	chordIdx int

	running      bool
	tickTimer    *sched.Timer
	advanceTimer *sched.Timer
	lastAdvance  time.Duration

	breathPhase      float64
	axisX, axisY     float64
	targetX, targetY float64
	touched          bool
	lastTouch        time.Duration
}

// NewOneheart returns the mood pad mode.
func NewOneheart() *Oneheart {
	return &Oneheart{axisX: 0.5, axisY: 0.5, targetX: 0.5, targetY: 0.5}
}

// Name implements Mode.
func (m *Oneheart) Name() string { return "oneheart" }

// Continuous implements Mode.
func (m *Oneheart) Continuous() bool { return true }

// SetMood selects the progression table by name.
func (m *Oneheart) SetMood(name string) error {
	for i, mood := range oneheartMoods {
		if mood.name == name {
			m.mood = i
			return nil
		}
	}
	return fmt.Errorf("synth: unknown mood %q", name)
}

// Init implements Mode. Builds the full pad and engages the long reverb.
func (m *Oneheart) Init(ctx *EngineContext) {
	m.ctx = ctx
	m.nodes = nodeSet{}
	m.chordIdx = 0
	m.breathPhase = 0
	m.axisX, m.axisY = 0.5, 0.5
	m.targetX, m.targetY = 0.5, 0.5
	m.touched = false
	m.lastAdvance = -oneheartCooldown

	if ctx.Reverb != nil {
		ctx.Reverb.SetWet(0.4)
		ctx.Reverb.SetDecay(8)
	}

	now := ctx.Graph.CurrentTime()
	m.filter = graph.NewBiquad(ctx.Graph, graph.Lowpass, 2400, 0.5)
	m.filter.Connect(ctx.Master)
	m.nodes.addNode(m.filter)

	chord := oneheartMoods[m.mood].chords[0]
	pans := [...]float64{-0.7, -0.25, 0.25, 0.7}
	for i := range m.pads {
		f := m.padFreq(chord[i])
		pad := oneheartPad{basePan: pans[i]}
		pad.gain = graph.NewGain(ctx.Graph, 0)
		pad.panner = graph.NewStereoPanner(ctx.Graph, pans[i])
		pad.gain.Connect(pad.panner)
		pad.panner.Connect(m.filter)
		m.nodes.addNode(pad.gain)
		m.nodes.addNode(pad.panner)

		waves := [...]graph.Waveform{graph.Sine, graph.Sine, graph.Triangle, graph.Triangle}
		for j := range pad.oscs {
			osc := graph.NewOscillator(ctx.Graph, waves[j], f)
			osc.Detune().SetValue(oneheartDetunes[j])
			osc.Connect(pad.gain)
			pad.oscs[j] = osc
			m.nodes.addSource(osc, osc)
			osc.Start(now)
		}

		pad.gain.GainParam().SetValueAtTime(0.0001, now)
		pad.gain.GainParam().ExponentialRampToValueAtTime(0.05, now+4)
		m.pads[i] = pad
	}

	// A faint texture-noise layer the focus axis opens up.
	noiseSrc := graph.NewNoise(ctx.Graph, graph.Pink, 11)
	m.noise = graph.NewGain(ctx.Graph, 0)
	noiseSrc.Connect(m.noise)
	m.noise.Connect(m.filter)
	m.nodes.addSource(noiseSrc, noiseSrc)
	m.nodes.addNode(m.noise)
	noiseSrc.Start(now)

	m.running = true
	m.tickTimer = ctx.After(evolutionTick, m.tick)
	m.advanceTimer = ctx.After(oneheartAdvanceEvery, m.autoAdvance)
}

func (m *Oneheart) padFreq(semitones float64) float64 {
	base := m.ctx.BaseFreq
	if base <= 0 {
		base = 110
	}
	return base * math.Pow(2, semitones/12)
}

func (m *Oneheart) autoAdvance() {
	if !m.running {
		return
	}
	m.advanceChord()
	m.advanceTimer = m.ctx.After(oneheartAdvanceEvery, m.autoAdvance)
}

// advanceChord steps the progression and glides every pad to its new
// tone over several seconds.
func (m *Oneheart) advanceChord() {
	mood := oneheartMoods[m.mood]
	m.chordIdx = (m.chordIdx + 1) % len(mood.chords)
	chord := mood.chords[m.chordIdx]
	now := m.ctx.Graph.CurrentTime()
	for i := range m.pads {
		f := m.padFreq(chord[i])
		for _, osc := range m.pads[i].oscs {
			osc.Frequency().SetTargetAtTime(f, now, oneheartGlide)
		}
	}
	m.lastAdvance = m.ctx.Now()
	m.ctx.hud("", fmt.Sprintf("oneheart · %s · chord %d", mood.name, m.chordIdx+1))
}

// tick breathes the pad and chases the axis targets.
func (m *Oneheart) tick() {
	if !m.running {
		return
	}
	ctx := m.ctx

	if m.touched && ctx.Now()-m.lastTouch > oneheartTouchTimeout {
		m.touched = false
	}

	// Axes chase the finger quickly, drift back toward neutral slowly.
	if m.touched {
		m.axisX += (m.targetX - m.axisX) * 0.06
		m.axisY += (m.targetY - m.axisY) * 0.06
	} else {
		m.targetX += (0.5 - m.targetX) * 0.002
		m.targetY += (0.5 - m.targetY) * 0.002
		m.axisX += (m.targetX - m.axisX) * 0.008
		m.axisY += (m.targetY - m.axisY) * 0.008
	}

	m.breathPhase += 0.006
	breath := math.Sin(m.breathPhase)
	now := ctx.Graph.CurrentTime()
	depth := 0.5 + m.axisY*0.5

	for i := range m.pads {
		pad := &m.pads[i]
		sway := breath * depth
		pad.panner.Pan().SetTargetAtTime(pad.basePan+0.12*math.Sin(m.breathPhase+float64(i)), now, 0.3)
		pad.gain.GainParam().SetTargetAtTime(0.05*(1+0.18*sway), now, 0.3)
		for j, osc := range pad.oscs {
			osc.Detune().SetTargetAtTime(oneheartDetunes[j]*(1+0.4*sway), now, 0.3)
		}
	}

	switch oneheartMoods[m.mood].name {
	case "focus":
		// Focus opens the texture noise and widens the voicing.
		m.noise.GainParam().SetTargetAtTime(m.axisY*0.02, now, 0.4)
		m.filter.Frequency().SetTargetAtTime(2000+m.axisX*2000, now, 0.4)
	default:
		// Relaxation and sleep darken the filter and push the reverb.
		m.filter.Frequency().SetTargetAtTime(3000-m.axisY*2300, now, 0.4)
		if ctx.Reverb != nil {
			ctx.Reverb.SetWet(0.25 + m.axisY*0.45)
		}
	}

	m.tickTimer = ctx.After(evolutionTick, m.tick)
}

// Start implements Mode.
func (m *Oneheart) Start(string, *EngineContext) {}

// Update implements Mode. A fresh touch may advance the chord, subject
// to the global cooldown; the position becomes the axis target.
func (m *Oneheart) Update(x, y float64, _ string, _ float64, ctx *EngineContext) {
	if !m.running {
		return
	}
	fresh := !m.touched
	m.touched = true
	m.lastTouch = ctx.Now()
	m.targetX = x
	m.targetY = y
	if fresh && ctx.Now()-m.lastAdvance >= oneheartCooldown {
		m.advanceChord()
	}
}

// Stop implements Mode. Touch never gates the pad.
func (m *Oneheart) Stop(string, float64, *EngineContext) {}

// Cleanup implements Mode.
func (m *Oneheart) Cleanup() {
	m.running = false
	m.tickTimer.Stop()
	m.advanceTimer.Stop()
	var now float64
	if m.ctx != nil && m.ctx.Graph != nil {
		now = m.ctx.Graph.CurrentTime()
		if m.ctx.Reverb != nil {
			m.ctx.Reverb.SetWet(0.15)
			m.ctx.Reverb.SetDecay(2)
		}
	}
	m.nodes.teardown(now)
	m.ctx = nil
}

// VoiceCount implements Mode.
func (m *Oneheart) VoiceCount() int {
	if m.running {
		return len(m.pads)
	}
	return 0
}
