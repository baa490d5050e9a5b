package graph

import "math"

// StereoPanner places its (mono-summed) input in the stereo field with an
// equal-power law. Pan runs from -1 (hard left) to 1 (hard right).
type StereoPanner struct {
	baseNode
	pan *Param
}

// NewStereoPanner creates a panner at the given initial pan position.
func NewStereoPanner(ctx *Context, pan float64) *StereoPanner {
	p := &StereoPanner{pan: newParam(ctx, pan)}
	p.init(ctx, p)
	return p
}

// Pan returns the pan parameter in [-1, 1].
func (p *StereoPanner) Pan() *Param { return p.pan }

func (p *StereoPanner) process(gen uint64, n int) ([]float64, []float64) {
	if p.lastGen == gen {
		return p.outL[:n], p.outR[:n]
	}
	p.ensureOut(n)
	p.lastGen = gen

	inL, inR := p.pullInputs(gen, n)
	pans := p.pan.values(gen, n)
	for i := 0; i < n; i++ {
		pan := pans[i]
		if pan < -1 {
			pan = -1
		} else if pan > 1 {
			pan = 1
		}
		angle := (pan + 1) * math.Pi / 4
		mono := (inL[i] + inR[i]) * 0.5
		p.outL[i] = mono * math.Cos(angle)
		p.outR[i] = mono * math.Sin(angle)
	}
	return p.outL, p.outR
}
