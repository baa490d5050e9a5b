package playback

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-touchsynth/graph"
	"github.com/cwbudde/algo-touchsynth/sched"
	"github.com/cwbudde/algo-touchsynth/synth"
)

func TestNewHeadlessRejectsNilGraph(t *testing.T) {
	if _, err := NewHeadless(nil); err == nil {
		t.Fatal("NewHeadless(nil): expected error")
	}
}

func TestRenderLengthCoversDuration(t *testing.T) {
	g, err := graph.NewContext(core.WithSampleRate(48000), core.WithBlockSize(128))
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	h, err := NewHeadless(g)
	if err != nil {
		t.Fatalf("NewHeadless: %v", err)
	}

	l, r := h.Render(0.1)
	if len(l) != len(r) {
		t.Fatalf("channel lengths differ: %d vs %d", len(l), len(r))
	}
	if len(l) < 4800 {
		t.Fatalf("rendered %d samples, want >= 4800", len(l))
	}
	if len(l)%128 != 0 {
		t.Fatalf("rendered %d samples, want whole blocks of 128", len(l))
	}
}

func TestEmptyGraphRendersSilence(t *testing.T) {
	g, err := graph.NewContext(core.WithSampleRate(48000), core.WithBlockSize(128))
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	h, _ := NewHeadless(g)
	l, _ := h.Render(0.05)
	if got := RMS(l); got != 0 {
		t.Fatalf("RMS of empty graph = %v, want 0", got)
	}
}

func TestEngineVoiceIsAudible(t *testing.T) {
	g, err := graph.NewContext(core.WithSampleRate(48000), core.WithBlockSize(128))
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	e, err := synth.New(g, sched.NewManual())
	if err != nil {
		t.Fatalf("synth.New: %v", err)
	}
	if err := e.SetMode("fm"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	e.Touch(0.5, 0.5, synth.MouseTouch)

	h, _ := NewHeadless(g)
	l, r := h.Render(0.25)
	if RMS(l) < 1e-4 || RMS(r) < 1e-4 {
		t.Fatalf("voice inaudible: rms L %v R %v", RMS(l), RMS(r))
	}
}

func TestRMS(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Fatalf("RMS(nil) = %v, want 0", got)
	}
	buf := make([]float64, 1000)
	for i := range buf {
		buf[i] = 0.5
	}
	if got := RMS(buf); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("RMS = %v, want 0.5", got)
	}
}
