package graph

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/effects/reverb"
)

// Reverb is a feedback-delay-network reverb insert, one FDN per channel.
// The relaxation/pad modes drive its wet mix and tail length through the
// engine's reverb hooks.
type Reverb struct {
	baseNode
	left  *reverb.FDNReverb
	right *reverb.FDNReverb
}

// NewReverb creates a reverb insert at the context sample rate.
func NewReverb(ctx *Context) (*Reverb, error) {
	l, err := reverb.NewFDNReverb(ctx.cfg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("graph: reverb: %w", err)
	}
	r, err := reverb.NewFDNReverb(ctx.cfg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("graph: reverb: %w", err)
	}

	rv := &Reverb{left: l, right: r}
	rv.init(ctx, rv)
	return rv, nil
}

// SetWet sets the wet mix in [0,1]; out-of-range values are clamped.
// Invalid runtime values never fail, they are corrected silently.
func (rv *Reverb) SetWet(v float64) {
	v = clamp01(v)
	rv.ctx.mu.Lock()
	defer rv.ctx.mu.Unlock()
	_ = rv.left.SetWet(v)
	_ = rv.right.SetWet(v)
	_ = rv.left.SetDry(1 - v*0.5)
	_ = rv.right.SetDry(1 - v*0.5)
}

// SetDecay sets the RT60 tail length in seconds, clamped to [0.1, 20].
func (rv *Reverb) SetDecay(seconds float64) {
	if seconds < 0.1 {
		seconds = 0.1
	} else if seconds > 20 {
		seconds = 20
	}
	rv.ctx.mu.Lock()
	defer rv.ctx.mu.Unlock()
	_ = rv.left.SetRT60(seconds)
	_ = rv.right.SetRT60(seconds)
}

func (rv *Reverb) process(gen uint64, n int) ([]float64, []float64) {
	if rv.lastGen == gen {
		return rv.outL[:n], rv.outR[:n]
	}
	rv.ensureOut(n)
	rv.lastGen = gen

	inL, inR := rv.pullInputs(gen, n)
	for i := 0; i < n; i++ {
		rv.outL[i] = rv.left.ProcessSample(inL[i])
		rv.outR[i] = rv.right.ProcessSample(inR[i])
	}
	return rv.outL, rv.outR
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
