package graph

import (
	"fmt"
	"sync"

	"github.com/cwbudde/algo-dsp/dsp/core"
)

// Context owns a signal graph: its sample clock, its destination bus and
// the master gain every chain ultimately connects to.
//
// All topology and parameter mutations take the context lock, as does
// RenderBlock, so mutation from a control goroutine is safe while an audio
// goroutine renders.
type Context struct {
	mu  sync.Mutex
	cfg core.ProcessorConfig

	master   *Gain
	rendered int64 // samples rendered so far
	gen      uint64

	scratchL []float64
	scratchR []float64
}

// NewContext creates a graph context. Defaults: 48 kHz, block size 1024.
func NewContext(opts ...core.ProcessorOption) (*Context, error) {
	cfg := core.ApplyProcessorOptions(opts...)
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("graph: sample rate must be > 0: %f", cfg.SampleRate)
	}
	if cfg.BlockSize <= 0 {
		return nil, fmt.Errorf("graph: block size must be > 0: %d", cfg.BlockSize)
	}

	ctx := &Context{cfg: cfg}
	ctx.master = newGain(ctx, 1)
	return ctx, nil
}

// SampleRate returns the context sample rate in Hz.
func (c *Context) SampleRate() float64 { return c.cfg.SampleRate }

// BlockSize returns the preferred render block size.
func (c *Context) BlockSize() int { return c.cfg.BlockSize }

// Destination returns the master gain node. Sources connect to it (directly
// or through their chains); its output is what RenderBlock produces.
func (c *Context) Destination() *Gain { return c.master }

// CurrentTime returns the audio clock in seconds: rendered samples divided
// by the sample rate. It only advances while rendering.
func (c *Context) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.rendered) / c.cfg.SampleRate
}

// now returns the clock without locking; callers hold c.mu.
func (c *Context) now() float64 {
	return float64(c.rendered) / c.cfg.SampleRate
}

// RenderBlock renders len(l) frames of the graph into l and r, advancing
// the clock. The two slices must have equal length.
func (c *Context) RenderBlock(l, r []float64) {
	if len(l) != len(r) || len(l) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	outL, outR := c.master.process(c.gen, len(l))
	copy(l, outL)
	copy(r, outR)
	c.rendered += int64(len(l))
}

// sampleTime returns the clock time of sample i within the current block.
func (c *Context) sampleTime(i int) float64 {
	return float64(c.rendered+int64(i)) / c.cfg.SampleRate
}
