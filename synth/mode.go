package synth

import (
	"time"

	"github.com/cwbudde/algo-touchsynth/graph"
	"github.com/cwbudde/algo-touchsynth/theory"
)

// Mode is a named synthesis algorithm. Exactly one mode is active at a
// time; the registry tears the outgoing mode down before the incoming one
// initializes.
type Mode interface {
	Name() string
	// Continuous reports whether the mode runs an internal evolution
	// tick and treats touches as perturbations instead of gates.
	Continuous() bool

	Init(ctx *EngineContext)
	Start(touchID string, ctx *EngineContext)
	Update(x, y float64, touchID string, duration float64, ctx *EngineContext)
	Stop(touchID string, release float64, ctx *EngineContext)
	Cleanup()
	VoiceCount() int
}

const (
	// MaxVoices is the per-touch polyphony ceiling. Touches beyond it
	// are silently ignored until a voice releases.
	MaxVoices = 8

	// teardownBuffer pads the deferred voice destruction past the
	// release tail so the fade is never cut audibly.
	teardownBuffer = 100 * time.Millisecond

	// DefaultRelease is the release time used when no envelope preset
	// is active.
	DefaultRelease = 0.3
)

// noteFor maps a horizontal position to pitch using the context's
// quantization settings.
func noteFor(ctx *EngineContext, x float64) theory.NoteInfo {
	octaves := ctx.Octaves
	if octaves <= 0 {
		octaves = 3
	}
	base := ctx.BaseFreq
	if base <= 0 {
		base = 110
	}
	if ctx.Quantize {
		return theory.Quantize(x, octaves, base, ctx.Tonic, theory.Pattern(ctx.Scale))
	}
	return theory.Continuous(x, octaves, base, ctx.Tonic)
}

// stoppable is the common start/stop surface of graph sources.
type stoppable interface {
	Stop(t float64)
}

// nodeSet owns the signal-graph nodes of one voice. Teardown is callable
// exactly once; redundant calls are swallowed, matching the overlapping
// release/cleanup races the platform produces.
type nodeSet struct {
	sources  []stoppable
	nodes    []graph.Node
	disposed bool
}

func (s *nodeSet) addSource(src stoppable, n graph.Node) {
	s.sources = append(s.sources, src)
	s.nodes = append(s.nodes, n)
}

func (s *nodeSet) addNode(n graph.Node) {
	s.nodes = append(s.nodes, n)
}

// teardown stops every source at time t and disconnects every node.
func (s *nodeSet) teardown(t float64) {
	if s.disposed {
		return
	}
	s.disposed = true
	for _, src := range s.sources {
		src.Stop(t)
	}
	for _, n := range s.nodes {
		n.Disconnect()
	}
}

// releaseGain fades a voice gain toward silence over release seconds,
// starting from wherever the automation currently sits.
func releaseGain(g *graph.Gain, now, release float64) {
	if release <= 0 {
		release = 0.01
	}
	p := g.GainParam()
	v := p.Value()
	p.CancelScheduledValues(now)
	p.SetValueAtTime(v, now)
	p.ExponentialRampToValueAtTime(0.0001, now+release)
}

// attackGain ramps a voice gain from silence to level, honoring the ADSR
// preset when the context enables it.
func attackGain(g *graph.Gain, ctx *EngineContext, now, level float64) {
	p := g.GainParam()
	p.CancelScheduledValues(now)
	p.SetValueAtTime(0.0001, now)
	if ctx.EnvelopeOn {
		env := ctx.Envelope
		attack := env.Attack
		if attack <= 0 {
			attack = 0.01
		}
		decay := env.Decay
		if decay <= 0 {
			decay = 0.01
		}
		sustain := env.Sustain
		if sustain <= 0 {
			sustain = 0.5
		}
		p.LinearRampToValueAtTime(level, now+attack)
		p.ExponentialRampToValueAtTime(level*sustain, now+attack+decay)
		return
	}
	p.LinearRampToValueAtTime(level, now+0.015)
}

// releaseTime picks the effective release: the explicit request, the
// envelope preset, or the default, in that order.
func releaseTime(requested float64, ctx *EngineContext) float64 {
	if requested > 0 {
		return requested
	}
	if ctx.EnvelopeOn && ctx.Envelope.Release > 0 {
		return ctx.Envelope.Release
	}
	return DefaultRelease
}

// teardownDelay converts a release time into the deferred-destroy delay.
func teardownDelay(release float64) time.Duration {
	return time.Duration(release*float64(time.Second)) + teardownBuffer
}

// chordFor derives the diatonic chord tones rooted on a quantized note.
func chordFor(ctx *EngineContext, note theory.NoteInfo) []float64 {
	quality := theory.DiatonicQuality(ctx.Scale, note.Degree)
	return theory.ChordFrequencies(note.Freq, quality)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
