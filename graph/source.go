package graph

import (
	"math"
	"math/rand"
)

// BufferSource plays a mono sample buffer, optionally looping. Karplus
// plucks and other one-shot material are driven through it.
type BufferSource struct {
	baseNode

	buffer []float64
	loop   bool
	rate   *Param

	pos     float64
	started bool
	stopped bool
	startT  float64
	stopT   float64
	done    bool
}

// NewBufferSource creates a source around buffer. The slice is used
// directly, not copied; callers hand over ownership.
func NewBufferSource(ctx *Context, buffer []float64) *BufferSource {
	s := &BufferSource{buffer: buffer, rate: newParam(ctx, 1)}
	s.init(ctx, s)
	return s
}

// SetLoop toggles looping playback.
func (s *BufferSource) SetLoop(loop bool) {
	s.ctx.mu.Lock()
	s.loop = loop
	s.ctx.mu.Unlock()
}

// PlaybackRate returns the playback-rate parameter (1 = native speed).
func (s *BufferSource) PlaybackRate() *Param { return s.rate }

// Start schedules playback from time t. Double starts are no-ops.
func (s *BufferSource) Start(t float64) {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.startT = t
}

// Stop schedules the end of playback at time t. Redundant stops are no-ops.
func (s *BufferSource) Stop(t float64) {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	if !s.started || s.stopped {
		return
	}
	s.stopped = true
	s.stopT = t
}

func (s *BufferSource) process(gen uint64, n int) ([]float64, []float64) {
	if s.lastGen == gen {
		return s.outL[:n], s.outR[:n]
	}
	s.ensureOut(n)
	s.lastGen = gen

	if !s.started || s.done || len(s.buffer) == 0 {
		return s.outL, s.outR
	}

	rates := s.rate.values(gen, n)
	length := float64(len(s.buffer))

	for i := 0; i < n; i++ {
		t := s.ctx.sampleTime(i)
		if t < s.startT {
			continue
		}
		if s.stopped && t >= s.stopT {
			s.done = true
			break
		}

		idx := int(s.pos)
		if idx >= len(s.buffer) {
			if !s.loop {
				s.done = true
				break
			}
			s.pos = math.Mod(s.pos, length)
			idx = int(s.pos)
		}
		v := s.buffer[idx]
		s.outL[i] = v
		s.outR[i] = v

		s.pos += rates[i]
	}
	return s.outL, s.outR
}

// NoiseColor selects the noise spectrum.
type NoiseColor int

// Supported noise colors.
const (
	White NoiseColor = iota
	Pink
)

// Noise is a seeded noise source. Pink noise uses the Paul Kellet
// three-pole approximation over the same white generator.
type Noise struct {
	baseNode

	color   NoiseColor
	rng     *rand.Rand
	started bool
	stopped bool
	startT  float64
	stopT   float64

	// pink filter state
	p0, p1, p2 float64
}

// NewNoise creates a noise source with a deterministic seed.
func NewNoise(ctx *Context, color NoiseColor, seed int64) *Noise {
	n := &Noise{color: color, rng: rand.New(rand.NewSource(seed))}
	n.init(ctx, n)
	return n
}

// Start schedules noise output from time t. Double starts are no-ops.
func (nd *Noise) Start(t float64) {
	nd.ctx.mu.Lock()
	defer nd.ctx.mu.Unlock()
	if nd.started {
		return
	}
	nd.started = true
	nd.startT = t
}

// Stop schedules silence from time t. Redundant stops are no-ops.
func (nd *Noise) Stop(t float64) {
	nd.ctx.mu.Lock()
	defer nd.ctx.mu.Unlock()
	if !nd.started || nd.stopped {
		return
	}
	nd.stopped = true
	nd.stopT = t
}

func (nd *Noise) process(gen uint64, n int) ([]float64, []float64) {
	if nd.lastGen == gen {
		return nd.outL[:n], nd.outR[:n]
	}
	nd.ensureOut(n)
	nd.lastGen = gen

	if !nd.started {
		return nd.outL, nd.outR
	}

	for i := 0; i < n; i++ {
		t := nd.ctx.sampleTime(i)
		if t < nd.startT || (nd.stopped && t >= nd.stopT) {
			continue
		}

		white := nd.rng.Float64()*2 - 1
		v := white
		if nd.color == Pink {
			nd.p0 = 0.99765*nd.p0 + white*0.0990460
			nd.p1 = 0.96300*nd.p1 + white*0.2965164
			nd.p2 = 0.57000*nd.p2 + white*1.0526913
			v = (nd.p0 + nd.p1 + nd.p2 + white*0.1848) * 0.2
		}
		nd.outL[i] = v
		nd.outR[i] = v
	}
	return nd.outL, nd.outR
}
