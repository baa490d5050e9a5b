package playback

import (
	"fmt"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/algo-touchsynth/graph"
)

// Output is a running audio sink pulling from a graph.
type Output interface {
	Start() error
	Stop() error
	Close() error
}

// OtoOutput streams a graph to the default audio device as stereo
// float32 little-endian frames. The device pulls through Read on its
// own goroutine; the graph context's lock keeps that safe against
// control-side parameter changes.
type OtoOutput struct {
	mu      sync.Mutex
	graph   *graph.Context
	ctx     *oto.Context
	player  *oto.Player
	started bool

	bufL    []float64
	bufR    []float64
	pending []byte
	scratch []byte
}

// NewOto opens the default audio device at the graph's sample rate.
func NewOto(g *graph.Context) (*OtoOutput, error) {
	if g == nil {
		return nil, fmt.Errorf("playback: graph context must not be nil")
	}

	op := &oto.NewContextOptions{
		SampleRate:   int(g.SampleRate()),
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("playback: open audio device: %w", err)
	}
	<-ready

	size := g.BlockSize()
	o := &OtoOutput{
		graph:   g,
		ctx:     ctx,
		bufL:    make([]float64, size),
		bufR:    make([]float64, size),
		scratch: make([]byte, 0, size*8),
	}
	o.player = ctx.NewPlayer(o)
	return o, nil
}

// Read implements io.Reader for the oto player: it renders graph blocks
// on demand and interleaves them as float32 stereo frames.
func (o *OtoOutput) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(o.pending) == 0 {
			o.renderBlock()
		}
		c := copy(p[n:], o.pending)
		o.pending = o.pending[c:]
		n += c
	}
	return n, nil
}

func (o *OtoOutput) renderBlock() {
	o.graph.RenderBlock(o.bufL, o.bufR)
	buf := o.scratch[:0]
	for i := range o.bufL {
		buf = appendFloat32LE(buf, float32(o.bufL[i]))
		buf = appendFloat32LE(buf, float32(o.bufR[i]))
	}
	o.scratch = buf[:0]
	o.pending = buf
}

func appendFloat32LE(dst []byte, v float32) []byte {
	bits := math.Float32bits(v)
	return append(dst, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
}

// Start begins playback. Starting twice is a no-op.
func (o *OtoOutput) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started || o.player == nil {
		return nil
	}
	o.player.Play()
	o.started = true
	return nil
}

// Stop pauses playback, keeping the device open.
func (o *OtoOutput) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.started || o.player == nil {
		return nil
	}
	o.started = false
	o.player.Pause()
	return nil
}

// Close releases the player. The oto context itself stays open; the
// library keeps it for the process lifetime.
func (o *OtoOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = false
	if o.player == nil {
		return nil
	}
	err := o.player.Close()
	o.player = nil
	return err
}
