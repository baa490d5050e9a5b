package graph

import "github.com/cwbudde/algo-vecmath"

// Node is a graph element that produces a stereo block when pulled from the
// destination. Concrete nodes are created through the Context-bound
// constructors (NewOscillator, NewGain, ...).
type Node interface {
	// Connect routes this node's output into dst's input sum.
	Connect(dst Node)
	// ConnectParam routes this node's output (left channel) onto a
	// parameter for audio-rate modulation.
	ConnectParam(p *Param)
	// Disconnect removes this node from every destination it feeds.
	// It is idempotent and safe to call on a never-connected node.
	Disconnect()

	process(gen uint64, n int) (l, r []float64)
	addInput(src Node)
	removeInput(src Node)
	context() *Context
}

// baseNode carries the shared connection bookkeeping. The concrete node
// stores itself in self so Connect hands the right interface value around.
type baseNode struct {
	ctx  *Context
	self Node

	inputs    []Node
	nodeOuts  []Node
	paramOuts []*Param

	lastGen    uint64
	outL, outR []float64
	sumL, sumR []float64
}

func (b *baseNode) init(ctx *Context, self Node) {
	b.ctx = ctx
	b.self = self
}

func (b *baseNode) context() *Context { return b.ctx }

// Connect implements Node.
func (b *baseNode) Connect(dst Node) {
	if dst == nil || dst.context() != b.ctx {
		return
	}
	b.ctx.mu.Lock()
	defer b.ctx.mu.Unlock()
	dst.addInput(b.self)
	b.nodeOuts = append(b.nodeOuts, dst)
}

// ConnectParam implements Node.
func (b *baseNode) ConnectParam(p *Param) {
	if p == nil || p.ctx != b.ctx {
		return
	}
	b.ctx.mu.Lock()
	defer b.ctx.mu.Unlock()
	p.inputs = append(p.inputs, b.self)
	b.paramOuts = append(b.paramOuts, p)
}

// Disconnect implements Node.
func (b *baseNode) Disconnect() {
	b.ctx.mu.Lock()
	defer b.ctx.mu.Unlock()
	for _, dst := range b.nodeOuts {
		dst.removeInput(b.self)
	}
	b.nodeOuts = b.nodeOuts[:0]
	for _, p := range b.paramOuts {
		p.removeInput(b.self)
	}
	b.paramOuts = b.paramOuts[:0]
}

func (b *baseNode) addInput(src Node) {
	b.inputs = append(b.inputs, src)
}

func (b *baseNode) removeInput(src Node) {
	for i, in := range b.inputs {
		if in == src {
			b.inputs = append(b.inputs[:i], b.inputs[i+1:]...)
			return
		}
	}
}

// ensureOut sizes the output buffers and zeroes them.
func (b *baseNode) ensureOut(n int) {
	if cap(b.outL) < n {
		b.outL = make([]float64, n)
		b.outR = make([]float64, n)
	}
	b.outL = b.outL[:n]
	b.outR = b.outR[:n]
	zero(b.outL)
	zero(b.outR)
}

// pullInputs renders and sums every input into the node's input bus.
// Must run after lastGen is set so graph cycles terminate (a re-entrant
// pull sees the already-claimed generation and returns the stale block).
func (b *baseNode) pullInputs(gen uint64, n int) (l, r []float64) {
	if cap(b.sumL) < n {
		b.sumL = make([]float64, n)
		b.sumR = make([]float64, n)
	}
	b.sumL = b.sumL[:n]
	b.sumR = b.sumR[:n]
	zero(b.sumL)
	zero(b.sumR)

	for _, in := range b.inputs {
		il, ir := in.process(gen, n)
		vecmath.AddBlockInPlace(b.sumL, il)
		vecmath.AddBlockInPlace(b.sumR, ir)
	}
	return b.sumL, b.sumR
}

func zero(s []float64) {
	for i := range s {
		s[i] = 0
	}
}
