package playback

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-touchsynth/graph"
)

// Headless renders a graph synchronously, without any audio device.
type Headless struct {
	graph *graph.Context
}

// NewHeadless wraps a graph context for offline rendering.
func NewHeadless(g *graph.Context) (*Headless, error) {
	if g == nil {
		return nil, fmt.Errorf("playback: graph context must not be nil")
	}
	return &Headless{graph: g}, nil
}

// RenderBlocks renders n blocks, invoking fn after each one with the
// freshly rendered stereo block. fn may be nil.
func (h *Headless) RenderBlocks(n int, fn func(l, r []float64)) {
	size := h.graph.BlockSize()
	l := make([]float64, size)
	r := make([]float64, size)
	for i := 0; i < n; i++ {
		h.graph.RenderBlock(l, r)
		if fn != nil {
			fn(l, r)
		}
	}
}

// Render renders enough whole blocks to cover the given duration in
// seconds and returns the concatenated stereo signal.
func (h *Headless) Render(seconds float64) (l, r []float64) {
	if seconds <= 0 {
		return nil, nil
	}
	samples := int(seconds * h.graph.SampleRate())
	blocks := (samples + h.graph.BlockSize() - 1) / h.graph.BlockSize()
	l = make([]float64, 0, blocks*h.graph.BlockSize())
	r = make([]float64, 0, blocks*h.graph.BlockSize())
	h.RenderBlocks(blocks, func(bl, br []float64) {
		l = append(l, bl...)
		r = append(r, br...)
	})
	return l, r
}

// RMS returns the root-mean-square level of a signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range signal {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(signal)))
}
