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

const (
	// karplusPoolSize bounds the number of noise-burst buffers the pool
	// will ever retain. Plucks past the bound get throwaway buffers.
	karplusPoolSize = 24

	// karplusDebounce is the minimum interval between plucks on one
	// touch. Faster repeats are swallowed.
	karplusDebounce = 60 * time.Millisecond

	// karplusBowInterval re-plucks a held touch, bowing the string.
	karplusBowInterval = 250 * time.Millisecond

	// Sympathetic partials above this fundamental would alias into
	// harshness, so they are skipped.
	karplusSympatheticCeiling = 8000.0
)

// Partial ratios excited alongside the fundamental at reduced gain.
var karplusSympatheticRatios = [...]float64{2, 3}

// pooledBuffer is one pool entry. Access is single-threaded under the
// engine lock, so a bare in-use flag suffices.
type pooledBuffer struct {
	data  []float64
	inUse bool
}

// bufferPool recycles noise-burst buffers by power-of-two size bucket.
// When every entry of a bucket is in use and the pool is at capacity it
// hands out an untracked buffer instead of growing.
type bufferPool struct {
	max     int
	entries []*pooledBuffer
}

func newBufferPool(max int) *bufferPool {
	return &bufferPool{max: max}
}

func bucketSize(n int) int {
	b := 64
	for b < n {
		b <<= 1
	}
	return b
}

func (p *bufferPool) acquire(n int) *pooledBuffer {
	want := bucketSize(n)
	for _, e := range p.entries {
		if !e.inUse && len(e.data) == want {
			e.inUse = true
			return e
		}
	}
	e := &pooledBuffer{data: make([]float64, want), inUse: true}
	if len(p.entries) < p.max {
		p.entries = append(p.entries, e)
	}
	return e
}

func (p *bufferPool) release(e *pooledBuffer) {
	e.inUse = false
}

// pluck is one sounding string excitation and its graph nodes.
type pluck struct {
	nodes nodeSet
	buf   *pooledBuffer
}

type karplusVoice struct {
	plucks []*pluck

	note      theory.NoteInfo
	lastPluck time.Duration
	bowTimer  *sched.Timer
	released  bool
}

// Karplus is a plucked-string mode: a looped noise burst of one period,
// pre-shaped by a one-pole brightness filter, decays through a tracking
// lowpass. Short touches pluck once; held touches bow the string by
// re-plucking on an interval. Sympathetic partials ring at reduced gain.
type Karplus struct {
	voices map[string]*karplusVoice
	pool   *bufferPool
	rng    *rand.Rand
	ctx    *EngineContext
}

// NewKarplus returns the plucked-string mode.
func NewKarplus() *Karplus {
	return &Karplus{
		voices: make(map[string]*karplusVoice),
		pool:   newBufferPool(karplusPoolSize),
		rng:    rand.New(rand.NewSource(1)),
	}
}

// Name implements Mode.
func (m *Karplus) Name() string { return "karplus" }

// Continuous implements Mode.
func (m *Karplus) Continuous() bool { return false }

// Init implements Mode.
func (m *Karplus) Init(ctx *EngineContext) {
	m.ctx = ctx
	m.voices = make(map[string]*karplusVoice)
	m.pool = newBufferPool(karplusPoolSize)
}

// Start implements Mode.
func (m *Karplus) Start(string, *EngineContext) {}

// Update implements Mode.
func (m *Karplus) Update(x, y float64, id string, duration float64, ctx *EngineContext) {
	if m.ctx == nil || ctx.Graph == nil {
		return
	}

	note := noteFor(ctx, x)
	brightness := 0.25 + clampUnit(y)*0.6

	v := m.voices[id]
	if v != nil && v.released {
		v = nil
	}
	if v == nil {
		if m.liveCount() >= MaxVoices {
			return
		}
		v = &karplusVoice{note: note, lastPluck: -time.Hour}
		m.voices[id] = v
		ctx.registerVoice(VoiceInfo{TouchID: id, Mode: m.Name(), Note: note.NoteName, Freq: note.Freq})
		m.bow(id, v, brightness, ctx)
	} else {
		v.note = note
		ctx.updateVoice(id, VoiceInfo{TouchID: id, Mode: m.Name(), Note: note.NoteName, Freq: note.Freq})
	}

	m.tryPluck(v, brightness, ctx)

	ctx.hud(note.NoteName, fmt.Sprintf("karplus · bright %.2f", brightness))
}

// tryPluck excites the string unless the debounce window is still open.
func (m *Karplus) tryPluck(v *karplusVoice, brightness float64, ctx *EngineContext) {
	now := ctx.Now()
	if now-v.lastPluck < karplusDebounce {
		return
	}
	v.lastPluck = now

	t := ctx.Graph.CurrentTime()
	m.excite(v, v.note.Freq, brightness, 0.3, t, ctx)

	for _, ratio := range karplusSympatheticRatios {
		f := v.note.Freq * ratio
		if f >= karplusSympatheticCeiling {
			continue
		}
		// Small random onset delays keep the partials from smearing
		// into a single thicker attack.
		delay := 0.005 + m.rng.Float64()*0.02
		m.excite(v, f, brightness*0.8, 0.07, t+delay, ctx)
	}
}

// bow re-plucks while the touch is held.
func (m *Karplus) bow(id string, v *karplusVoice, brightness float64, ctx *EngineContext) {
	v.bowTimer = ctx.After(karplusBowInterval, func() {
		if v.released || m.voices[id] != v {
			return
		}
		m.tryPluck(v, brightness, ctx)
		m.bow(id, v, brightness, ctx)
	})
}

// excite builds one string loop: pooled noise burst of one period,
// one-pole brightness prefilter, looped source through a tracking
// lowpass and an exponentially decaying gain.
func (m *Karplus) excite(v *karplusVoice, freq, brightness, level, t float64, ctx *EngineContext) {
	n := int(float64(ctx.Graph.SampleRate()) / freq)
	if n < 2 {
		n = 2
	}

	entry := m.pool.acquire(n)
	buf := entry.data[:n]
	prev := 0.0
	for i := range buf {
		white := m.rng.Float64()*2 - 1
		prev += brightness * (white - prev)
		buf[i] = prev
	}

	p := &pluck{buf: entry}
	src := graph.NewBufferSource(ctx.Graph, buf)
	src.SetLoop(true)

	cutoff := math.Min(freq*6, 9000)
	filter := graph.NewBiquad(ctx.Graph, graph.Lowpass, cutoff, 0.7)
	gain := graph.NewGain(ctx.Graph, 0)

	src.Connect(filter)
	filter.Connect(gain)
	gain.Connect(ctx.Master)

	p.nodes.addSource(src, src)
	p.nodes.addNode(filter)
	p.nodes.addNode(gain)
	v.plucks = append(v.plucks, p)

	// Lower strings ring longer.
	decay := math.Min(0.6+180/freq, 3)
	gp := gain.GainParam()
	gp.SetValueAtTime(level, t)
	gp.ExponentialRampToValueAtTime(0.0001, t+decay)
	src.Start(t)

	ctx.After(teardownDelay(decay), func() {
		p.nodes.teardown(ctx.Graph.CurrentTime())
		m.pool.release(p.buf)
		for i, q := range v.plucks {
			if q == p {
				v.plucks = append(v.plucks[:i], v.plucks[i+1:]...)
				break
			}
		}
	})
}

// Stop implements Mode. Plucks already sounding ring out on their own
// decay envelopes; only the bowing stops.
func (m *Karplus) Stop(id string, _ float64, ctx *EngineContext) {
	v := m.voices[id]
	if v == nil || v.released {
		return
	}
	v.released = true
	v.bowTimer.Stop()

	var finalize func()
	finalize = func() {
		if m.voices[id] != v {
			return
		}
		if len(v.plucks) > 0 {
			// Let the remaining plucks ring out before dropping the voice.
			ctx.After(teardownBuffer, finalize)
			return
		}
		delete(m.voices, id)
		ctx.unregisterVoice(id)
	}
	ctx.After(teardownDelay(DefaultRelease), finalize)
}

// Cleanup implements Mode.
func (m *Karplus) Cleanup() {
	var now float64
	if m.ctx != nil && m.ctx.Graph != nil {
		now = m.ctx.Graph.CurrentTime()
	}
	for _, v := range m.voices {
		v.released = true
		v.bowTimer.Stop()
		for _, p := range v.plucks {
			p.nodes.teardown(now)
			m.pool.release(p.buf)
		}
		v.plucks = nil
	}
	m.voices = make(map[string]*karplusVoice)
	m.ctx = nil
}

// VoiceCount implements Mode.
func (m *Karplus) VoiceCount() int { return m.liveCount() }

func (m *Karplus) liveCount() int {
	n := 0
	for _, v := range m.voices {
		if !v.released {
			n++
		}
	}
	return n
}
