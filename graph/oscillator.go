package graph

import "math"

// Waveform selects the oscillator shape.
type Waveform int

// Built-in oscillator waveforms.
const (
	Sine Waveform = iota
	Triangle
	Sawtooth
	Square
)

const periodicTableSize = 2048

// Oscillator is a band-unlimited waveform source with automatable
// frequency (Hz) and detune (cents). A custom periodic wave built from
// Fourier coefficients replaces the built-in shape.
type Oscillator struct {
	baseNode

	wave  Waveform
	table []float64

	freq   *Param
	detune *Param

	phase   float64
	started bool
	stopped bool
	startT  float64
	stopT   float64
}

// NewOscillator creates an oscillator of the given shape at freq Hz.
// It is silent until Start is called.
func NewOscillator(ctx *Context, wave Waveform, freq float64) *Oscillator {
	o := &Oscillator{
		wave:   wave,
		freq:   newParam(ctx, freq),
		detune: newParam(ctx, 0),
	}
	o.init(ctx, o)
	return o
}

// Frequency returns the frequency parameter in Hz.
func (o *Oscillator) Frequency() *Param { return o.freq }

// Detune returns the detune parameter in cents.
func (o *Oscillator) Detune() *Param { return o.detune }

// SetPeriodicWave installs a custom waveform from Fourier coefficients.
// real holds cosine terms, imag sine terms; index 0 (DC) is ignored. The
// wave is peak-normalized, matching the platform default.
func (o *Oscillator) SetPeriodicWave(real, imag []float64) {
	n := len(real)
	if len(imag) > n {
		n = len(imag)
	}
	if n < 2 {
		return
	}

	table := make([]float64, periodicTableSize)
	for i := range table {
		theta := 2 * math.Pi * float64(i) / periodicTableSize
		var s float64
		for k := 1; k < n; k++ {
			if k < len(real) {
				s += real[k] * math.Cos(float64(k)*theta)
			}
			if k < len(imag) {
				s += imag[k] * math.Sin(float64(k)*theta)
			}
		}
		table[i] = s
	}

	peak := 0.0
	for _, v := range table {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak > 0 {
		for i := range table {
			table[i] /= peak
		}
	}

	o.ctx.mu.Lock()
	o.table = table
	o.ctx.mu.Unlock()
}

// Start schedules the oscillator to begin producing at time t. Starting an
// already-started oscillator is a no-op.
func (o *Oscillator) Start(t float64) {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	if o.started {
		return
	}
	o.started = true
	o.startT = t
}

// Stop schedules the oscillator to go silent at time t. Stopping an
// already-stopped (or never-started) oscillator is a no-op.
func (o *Oscillator) Stop(t float64) {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	if !o.started || o.stopped {
		return
	}
	o.stopped = true
	o.stopT = t
}

func (o *Oscillator) process(gen uint64, n int) ([]float64, []float64) {
	if o.lastGen == gen {
		return o.outL[:n], o.outR[:n]
	}
	o.ensureOut(n)
	o.lastGen = gen

	if !o.started {
		return o.outL, o.outR
	}

	freqs := o.freq.values(gen, n)
	cents := o.detune.values(gen, n)
	rate := o.ctx.cfg.SampleRate

	for i := 0; i < n; i++ {
		t := o.ctx.sampleTime(i)
		if t < o.startT || (o.stopped && t >= o.stopT) {
			continue
		}

		f := freqs[i] * math.Pow(2, cents[i]/1200)
		v := o.sample()
		o.outL[i] = v
		o.outR[i] = v

		o.phase += f / rate
		o.phase -= math.Floor(o.phase)
	}
	return o.outL, o.outR
}

// sample evaluates the waveform at the current phase in [0,1).
func (o *Oscillator) sample() float64 {
	if o.table != nil {
		pos := o.phase * periodicTableSize
		i0 := int(pos) % periodicTableSize
		i1 := (i0 + 1) % periodicTableSize
		frac := pos - math.Floor(pos)
		return o.table[i0]*(1-frac) + o.table[i1]*frac
	}

	switch o.wave {
	case Triangle:
		return 1 - 4*math.Abs(o.phase-0.5)
	case Sawtooth:
		return 2*o.phase - 1
	case Square:
		if o.phase < 0.5 {
			return 1
		}
		return -1
	default:
		return math.Sin(2 * math.Pi * o.phase)
	}
}
