package synth

import (
	"fmt"
	"sync"
	"time"

	"github.com/cwbudde/algo-touchsynth/graph"
	"github.com/cwbudde/algo-touchsynth/sched"
)

// Engine owns the signal-graph context, the master chain (voice bus →
// reverb → destination), the mode registry and the EngineContext handed
// into every mode call. All public methods serialize on one mutex, as do
// scheduler callbacks funneled through the context, so mode state is
// only ever touched by one goroutine at a time.
type Engine struct {
	mu sync.Mutex

	gctx   *graph.Context
	sch    sched.Scheduler
	ectx   *EngineContext
	reg    *Registry
	reverb *graph.Reverb

	touches map[string]time.Duration // touch id -> start time
}

// Option configures an Engine.
type Option func(*Engine) error

// WithScale sets the quantization scale name.
func WithScale(name string) Option {
	return func(e *Engine) error {
		e.ectx.Scale = name
		return nil
	}
}

// WithQuantize toggles scale quantization.
func WithQuantize(on bool) Option {
	return func(e *Engine) error {
		e.ectx.Quantize = on
		return nil
	}
}

// WithBaseFreq sets the frequency mapped to x = 0.
func WithBaseFreq(hz float64) Option {
	return func(e *Engine) error {
		if hz <= 0 {
			return fmt.Errorf("synth: base frequency must be > 0: %f", hz)
		}
		e.ectx.BaseFreq = hz
		return nil
	}
}

// WithOctaves sets the swept octave span.
func WithOctaves(n int) Option {
	return func(e *Engine) error {
		if n < 1 || n > 8 {
			return fmt.Errorf("synth: octave span must be in [1, 8]: %d", n)
		}
		e.ectx.Octaves = n
		return nil
	}
}

// WithEnvelope installs an ADSR preset and enables it.
func WithEnvelope(env ADSR) Option {
	return func(e *Engine) error {
		if env.Attack < 0 || env.Decay < 0 || env.Release < 0 {
			return fmt.Errorf("synth: envelope stages must be >= 0: %+v", env)
		}
		if env.Sustain < 0 || env.Sustain > 1 {
			return fmt.Errorf("synth: envelope sustain must be in [0, 1]: %f", env.Sustain)
		}
		e.ectx.Envelope = env
		e.ectx.EnvelopeOn = true
		return nil
	}
}

// WithHUD installs the HUD notification hook.
func WithHUD(fn func(primary, secondary string)) Option {
	return func(e *Engine) error {
		e.ectx.UpdateHUD = fn
		return nil
	}
}

// WithVoiceHooks installs the voice-registry notification hooks.
func WithVoiceHooks(register func(VoiceInfo), update func(string, VoiceInfo), unregister func(string)) Option {
	return func(e *Engine) error {
		e.ectx.RegisterVoice = register
		e.ectx.UpdateVoice = update
		e.ectx.UnregisterVoice = unregister
		return nil
	}
}

// New creates an engine on the given graph context and scheduler and
// registers the built-in modes. A nil graph or scheduler is a programmer
// error and fails construction; everything after that degrades silently.
func New(gctx *graph.Context, scheduler sched.Scheduler, opts ...Option) (*Engine, error) {
	if gctx == nil {
		return nil, fmt.Errorf("synth: graph context must not be nil")
	}
	if scheduler == nil {
		return nil, fmt.Errorf("synth: scheduler must not be nil")
	}

	reverb, err := graph.NewReverb(gctx)
	if err != nil {
		return nil, err
	}

	bus := graph.NewGain(gctx, 0.8)
	bus.Connect(reverb)
	reverb.Connect(gctx.Destination())
	reverb.SetWet(0.15)
	reverb.SetDecay(2)

	e := &Engine{
		gctx:    gctx,
		sch:     scheduler,
		reg:     NewRegistry(),
		reverb:  reverb,
		touches: make(map[string]time.Duration),
	}
	e.ectx = &EngineContext{
		Graph:        gctx,
		Sched:        scheduler,
		Master:       bus,
		Quantize:     true,
		Scale:        "minor",
		Octaves:      3,
		BaseFreq:     110,
		Envelope:     ADSR{Attack: 0.05, Decay: 0.1, Sustain: 0.7, Release: 0.4},
		ArpeggioRate: 6,
		Reverb:       reverb,
	}
	e.ectx.run = func(fn func()) {
		e.mu.Lock()
		defer e.mu.Unlock()
		fn()
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	for _, m := range []Mode{
		NewWavetable(),
		NewFM(),
		NewDrone(),
		NewArpeggiator(),
		NewKarplus(),
		NewFormant(),
		NewAmbient(),
		NewBassline(),
		NewOneheart(),
	} {
		e.reg.Register(m)
	}
	return e, nil
}

// Register adds a custom mode.
func (e *Engine) Register(m Mode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reg.Register(m)
}

// Modes returns the registered mode names in registration order.
func (e *Engine) Modes() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reg.Names()
}

// SetMode switches the active mode, tearing the outgoing one down first.
func (e *Engine) SetMode(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touches = make(map[string]time.Duration)
	return e.reg.Switch(name, e.ectx)
}

// ModeName returns the active mode name, empty when none is active.
func (e *Engine) ModeName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if m := e.reg.Active(); m != nil {
		return m.Name()
	}
	return ""
}

// Touch feeds one gesture sample for the given touch id. The first call
// for an unseen id starts a voice; subsequent calls update it. With no
// active mode this is a silent no-op.
func (e *Engine) Touch(x, y float64, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.reg.Active()
	if m == nil {
		return
	}
	start, known := e.touches[id]
	if !known {
		start = e.sch.Now()
		e.touches[id] = start
		m.Start(id, e.ectx)
	}
	duration := (e.sch.Now() - start).Seconds()
	m.Update(clampUnit(x), clampUnit(y), id, duration, e.ectx)
}

// Release ends the touch: the voice fades over the mode's release time
// and is destroyed after a deferred delay. Unknown ids are no-ops.
func (e *Engine) Release(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.touches, id)
	if m := e.reg.Active(); m != nil {
		m.Stop(id, 0, e.ectx)
	}
}

// VoiceCount reports the active mode's live voice count.
func (e *Engine) VoiceCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if m := e.reg.Active(); m != nil {
		return m.VoiceCount()
	}
	return 0
}

// SetOrientation refreshes the device-motion parameters.
func (e *Engine) SetOrientation(o Orientation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ectx.Orientation = o
}

// SetQuantize toggles scale quantization.
func (e *Engine) SetQuantize(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ectx.Quantize = on
}

// SetScale sets the scale name; unknown names quantize to natural minor.
func (e *Engine) SetScale(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ectx.Scale = name
}

// SetTonic sets the tonic offset in semitones.
func (e *Engine) SetTonic(semitones int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ectx.Tonic = semitones
}

// SetArpeggio toggles the wavetable arpeggiator sub-mode and its rate.
func (e *Engine) SetArpeggio(on bool, stepsPerSecond float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ectx.ArpeggioOn = on
	if stepsPerSecond > 0 {
		e.ectx.ArpeggioRate = stepsPerSecond
	}
}

// SetEnvelopeEnabled toggles the ADSR preset.
func (e *Engine) SetEnvelopeEnabled(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ectx.EnvelopeOn = on
}

// Graph exposes the graph context for rendering/output backends.
func (e *Engine) Graph() *graph.Context {
	return e.gctx
}

// Close tears the active mode down and silences the engine.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reg.Shutdown()
	e.touches = make(map[string]time.Duration)
}
