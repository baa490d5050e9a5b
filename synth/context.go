package synth

import (
	"time"

	"github.com/cwbudde/algo-touchsynth/graph"
	"github.com/cwbudde/algo-touchsynth/sched"
)

// MouseTouch is the sentinel touch identifier for pointer input.
const MouseTouch = "mouse"

// Orientation carries the device-motion parameters the owning engine
// refreshes between calls. Modes read them for filter/vibrato/tremolo
// modulation independent of the per-touch path.
type Orientation struct {
	Pan       float64 // tilt-derived, -1..1
	FilterMod float64 // 0..1
	LFORate   float64 // Hz
	Shake     float64 // acceleration magnitude, 0..1
	Heading   float64 // compass heading in degrees
}

// ADSR is the four-stage amplitude envelope preset.
type ADSR struct {
	Attack  float64 // seconds
	Decay   float64 // seconds
	Sustain float64 // level fraction 0..1
	Release float64 // seconds
}

// VoiceInfo is the display payload sent through the voice-registry hooks.
type VoiceInfo struct {
	TouchID string
	Mode    string
	Note    string
	Freq    float64
}

// ReverbControl is the optional hook pad-style modes use to drive the
// master reverb. *graph.Reverb satisfies it.
type ReverbControl interface {
	SetWet(v float64)
	SetDecay(seconds float64)
}

// EngineContext is the dependency surface injected into every mode call.
// The owning engine constructs it once and mutates it in place between
// calls; modes never write to it except through the provided callbacks.
type EngineContext struct {
	Graph *graph.Context
	Sched sched.Scheduler

	// Master is the bus modes connect their voices to. It feeds the
	// engine's reverb/destination chain.
	Master *graph.Gain

	Quantize bool
	Scale    string
	Tonic    int
	Octaves  int
	BaseFreq float64

	Envelope   ADSR
	EnvelopeOn bool

	ArpeggioOn   bool
	ArpeggioRate float64 // steps per second

	Orientation Orientation

	// Notification hooks. All optional; the engine never depends on
	// their effects. They are invoked with the engine lock held and
	// must not call back into the engine.
	UpdateHUD       func(primary, secondary string)
	RegisterVoice   func(info VoiceInfo)
	UpdateVoice     func(touchID string, info VoiceInfo)
	UnregisterVoice func(touchID string)

	Reverb ReverbControl // optional

	// run serializes scheduler callbacks with engine calls; installed
	// by the engine, identity when absent (bare-context tests).
	run func(func())
}

// After schedules fn through the context scheduler, wrapped in the
// engine's serializer so mode state is never touched concurrently.
func (c *EngineContext) After(d time.Duration, fn func()) *sched.Timer {
	wrapped := fn
	if c.run != nil {
		run := c.run
		wrapped = func() { run(fn) }
	}
	return c.Sched.After(d, wrapped)
}

// Now returns the coarse scheduler clock. Audio-rate scheduling uses
// Graph.CurrentTime instead.
func (c *EngineContext) Now() time.Duration {
	return c.Sched.Now()
}

// hud safely invokes the HUD hook.
func (c *EngineContext) hud(primary, secondary string) {
	if c.UpdateHUD != nil {
		c.UpdateHUD(primary, secondary)
	}
}

func (c *EngineContext) registerVoice(info VoiceInfo) {
	if c.RegisterVoice != nil {
		c.RegisterVoice(info)
	}
}

func (c *EngineContext) updateVoice(id string, info VoiceInfo) {
	if c.UpdateVoice != nil {
		c.UpdateVoice(id, info)
	}
}

func (c *EngineContext) unregisterVoice(id string) {
	if c.UnregisterVoice != nil {
		c.UnregisterVoice(id)
	}
}
