package graph

// Gain scales its summed input by an automatable gain factor.
type Gain struct {
	baseNode
	gain *Param
}

// NewGain creates a gain node with the given initial gain.
func NewGain(ctx *Context, gain float64) *Gain {
	return newGain(ctx, gain)
}

func newGain(ctx *Context, gain float64) *Gain {
	g := &Gain{gain: newParam(ctx, gain)}
	g.init(ctx, g)
	return g
}

// GainParam returns the gain parameter.
func (g *Gain) GainParam() *Param { return g.gain }

func (g *Gain) process(gen uint64, n int) ([]float64, []float64) {
	if g.lastGen == gen {
		return g.outL[:n], g.outR[:n]
	}
	g.ensureOut(n)
	g.lastGen = gen

	inL, inR := g.pullInputs(gen, n)
	gains := g.gain.values(gen, n)
	for i := 0; i < n; i++ {
		g.outL[i] = inL[i] * gains[i]
		g.outR[i] = inR[i] * gains[i]
	}
	return g.outL, g.outR
}
