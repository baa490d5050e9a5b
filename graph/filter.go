package graph

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// FilterType selects the biquad response.
type FilterType int

// Supported filter responses.
const (
	Lowpass FilterType = iota
	Highpass
	Bandpass
)

// Biquad filters its summed input through one RBJ second-order section per
// channel. Frequency and Q are automatable; coefficients are refreshed at
// block rate, which is fine-grained enough for gesture-driven sweeps.
type Biquad struct {
	baseNode

	typ  FilterType
	freq *Param
	q    *Param

	secL *biquad.Section
	secR *biquad.Section

	lastFreq float64
	lastQ    float64
}

// NewBiquad creates a filter node with the given response, cutoff/center
// frequency in Hz and quality factor.
func NewBiquad(ctx *Context, typ FilterType, freq, q float64) *Biquad {
	b := &Biquad{
		typ:  typ,
		freq: newParam(ctx, freq),
		q:    newParam(ctx, q),
		secL: biquad.NewSection(biquad.Coefficients{B0: 1}),
		secR: biquad.NewSection(biquad.Coefficients{B0: 1}),
	}
	b.init(ctx, b)
	b.updateCoefficients(freq, q)
	return b
}

// Frequency returns the cutoff/center frequency parameter in Hz.
func (b *Biquad) Frequency() *Param { return b.freq }

// Q returns the quality-factor parameter.
func (b *Biquad) Q() *Param { return b.q }

func (b *Biquad) updateCoefficients(freq, q float64) {
	nyquist := b.ctx.cfg.SampleRate / 2
	freq = math.Min(math.Max(freq, 10), nyquist*0.99)
	if q <= 0 {
		q = 0.0001
	}

	var c biquad.Coefficients
	switch b.typ {
	case Highpass:
		c = design.Highpass(freq, q, b.ctx.cfg.SampleRate)
	case Bandpass:
		c = design.Bandpass(freq, q, b.ctx.cfg.SampleRate)
	default:
		c = design.Lowpass(freq, q, b.ctx.cfg.SampleRate)
	}
	b.secL.Coefficients = c
	b.secR.Coefficients = c
	b.lastFreq = freq
	b.lastQ = q
}

func (b *Biquad) process(gen uint64, n int) ([]float64, []float64) {
	if b.lastGen == gen {
		return b.outL[:n], b.outR[:n]
	}
	b.ensureOut(n)
	b.lastGen = gen

	inL, inR := b.pullInputs(gen, n)

	freq := b.freq.values(gen, n)[0]
	q := b.q.values(gen, n)[0]
	if freq != b.lastFreq || q != b.lastQ {
		b.updateCoefficients(freq, q)
	}

	copy(b.outL, inL)
	copy(b.outR, inR)
	b.secL.ProcessBlock(b.outL)
	b.secR.ProcessBlock(b.outR)
	return b.outL, b.outR
}
