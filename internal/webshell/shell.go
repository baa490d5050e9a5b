// Package webshell wires the synth engine, scheduler and mel analyzer
// into one object with a JS-friendly surface for the wasm build.
package webshell

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/cwbudde/algo-touchsynth/graph"
	"github.com/cwbudde/algo-touchsynth/sched"
	"github.com/cwbudde/algo-touchsynth/scope"
	"github.com/cwbudde/algo-touchsynth/synth"
)

const renderBlock = 128

// Shell owns one engine instance and its spectrogram analyzer.
type Shell struct {
	gctx     *graph.Context
	engine   *synth.Engine
	analyzer *scope.MelAnalyzer

	blockL   []float64
	blockR   []float64
	mono     []float64
	pendingL []float64
	pendingR []float64

	orientation synth.Orientation
}

// NewShell builds the engine at the given sample rate and activates the
// first mode.
func NewShell(sampleRate float64) (*Shell, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("webshell: sample rate must be > 0: %f", sampleRate)
	}

	gctx, err := graph.NewContext(core.WithSampleRate(sampleRate), core.WithBlockSize(renderBlock))
	if err != nil {
		return nil, err
	}
	engine, err := synth.New(gctx, sched.NewReal())
	if err != nil {
		return nil, err
	}
	analyzer, err := scope.NewMelAnalyzer(scope.Params{
		SampleRate: sampleRate,
		FFTSize:    2048,
		Bands:      96,
		Smoothing:  0.6,
	})
	if err != nil {
		return nil, err
	}

	s := &Shell{
		gctx:     gctx,
		engine:   engine,
		analyzer: analyzer,
		blockL:   make([]float64, renderBlock),
		blockR:   make([]float64, renderBlock),
		mono:     make([]float64, renderBlock),
	}
	if names := engine.Modes(); len(names) > 0 {
		if err := engine.SetMode(names[0]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Render fills dst with interleaved stereo float32 frames and feeds the
// mono mix to the analyzer.
func (s *Shell) Render(dst []float32) {
	frames := len(dst) / 2
	i := 0
	for i < frames {
		if len(s.pendingL) == 0 {
			s.gctx.RenderBlock(s.blockL, s.blockR)
			s.pendingL = s.blockL
			s.pendingR = s.blockR
			for j := range s.mono {
				s.mono[j] = (s.blockL[j] + s.blockR[j]) * 0.5
			}
			s.analyzer.Push(s.mono)
		}
		n := frames - i
		if n > len(s.pendingL) {
			n = len(s.pendingL)
		}
		for j := 0; j < n; j++ {
			dst[2*(i+j)] = float32(s.pendingL[j])
			dst[2*(i+j)+1] = float32(s.pendingR[j])
		}
		s.pendingL = s.pendingL[n:]
		s.pendingR = s.pendingR[n:]
		i += n
	}
}

// Modes lists the registered mode names.
func (s *Shell) Modes() []string { return s.engine.Modes() }

// SetMode switches the active synthesis mode.
func (s *Shell) SetMode(name string) error { return s.engine.SetMode(name) }

// ModeName reports the active mode.
func (s *Shell) ModeName() string { return s.engine.ModeName() }

// Touch feeds a gesture sample for a touch id.
func (s *Shell) Touch(x, y float64, id string) { s.engine.Touch(x, y, id) }

// Release ends a touch.
func (s *Shell) Release(id string) { s.engine.Release(id) }

// VoiceCount reports the live voice count of the active mode.
func (s *Shell) VoiceCount() int { return s.engine.VoiceCount() }

// SetOrientation updates the device-motion parameters.
func (s *Shell) SetOrientation(pan, filterMod, lfoRate, shake, heading float64) {
	s.orientation = synth.Orientation{
		Pan:       pan,
		FilterMod: filterMod,
		LFORate:   lfoRate,
		Shake:     shake,
		Heading:   heading,
	}
	s.engine.SetOrientation(s.orientation)
}

// SetQuantize toggles scale quantization.
func (s *Shell) SetQuantize(on bool) { s.engine.SetQuantize(on) }

// SetScale selects the quantization scale.
func (s *Shell) SetScale(name string) { s.engine.SetScale(name) }

// SetTonic sets the tonic offset in semitones.
func (s *Shell) SetTonic(semitones int) { s.engine.SetTonic(semitones) }

// SetArpeggio toggles the arpeggiator sub-mode.
func (s *Shell) SetArpeggio(on bool, rate float64) { s.engine.SetArpeggio(on, rate) }

// SetEnvelopeEnabled toggles the ADSR preset.
func (s *Shell) SetEnvelopeEnabled(on bool) { s.engine.SetEnvelopeEnabled(on) }

// MelBands reports the analyzer band count.
func (s *Shell) MelBands() int { return s.analyzer.Bands() }

// MelFrame copies the latest mel frame in dB into dst. It reports
// whether a frame has been produced yet.
func (s *Shell) MelFrame(dst []float64) bool { return s.analyzer.Frame(dst) }

// Close tears the engine down.
func (s *Shell) Close() { s.engine.Close() }
