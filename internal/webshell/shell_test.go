package webshell

import (
	"math"
	"testing"
)

func TestNewShellValidatesSampleRate(t *testing.T) {
	if _, err := NewShell(0); err == nil {
		t.Fatal("NewShell(0): expected error")
	}
}

func TestShellActivatesFirstMode(t *testing.T) {
	s, err := NewShell(48000)
	if err != nil {
		t.Fatalf("NewShell: %v", err)
	}
	defer s.Close()

	if got := s.ModeName(); got != "wavetable" {
		t.Fatalf("ModeName = %q, want wavetable", got)
	}
	if got := len(s.Modes()); got != 9 {
		t.Fatalf("len(Modes) = %d, want 9", got)
	}
}

func TestShellRendersTouchedVoice(t *testing.T) {
	s, err := NewShell(48000)
	if err != nil {
		t.Fatalf("NewShell: %v", err)
	}
	defer s.Close()

	s.Touch(0.5, 0.2, "t1")

	dst := make([]float32, 2*4800) // 100 ms stereo
	s.Render(dst)

	sum := 0.0
	for _, v := range dst {
		sum += float64(v) * float64(v)
	}
	if rms := math.Sqrt(sum / float64(len(dst))); rms < 1e-4 {
		t.Fatalf("rendered rms = %v, want audible signal", rms)
	}
}

func TestShellMelFrameAfterRendering(t *testing.T) {
	s, err := NewShell(48000)
	if err != nil {
		t.Fatalf("NewShell: %v", err)
	}
	defer s.Close()

	frame := make([]float64, s.MelBands())
	if s.MelFrame(frame) {
		t.Fatal("mel frame ready before rendering")
	}

	s.Touch(0.5, 0.5, "t1")
	dst := make([]float32, 2*4096)
	s.Render(dst)

	if !s.MelFrame(frame) {
		t.Fatal("mel frame not ready after rendering a full window")
	}
}
