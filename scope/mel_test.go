package scope

import (
	"math"
	"testing"
)

func newTestAnalyzer(t *testing.T) *MelAnalyzer {
	t.Helper()
	a, err := NewMelAnalyzer(Params{SampleRate: 48000, FFTSize: 1024, Bands: 48})
	if err != nil {
		t.Fatalf("NewMelAnalyzer: %v", err)
	}
	return a
}

func sine(freq, sampleRate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}
	return out
}

func peakBand(frame []float64) int {
	best := 0
	for i, v := range frame {
		if v > frame[best] {
			best = i
		}
	}
	return best
}

func TestNewMelAnalyzerValidation(t *testing.T) {
	if _, err := NewMelAnalyzer(Params{}); err == nil {
		t.Fatal("zero sample rate: expected error")
	}

	a, err := NewMelAnalyzer(Params{SampleRate: 48000, FFTSize: 999, Bands: 1000, Smoothing: 2})
	if err != nil {
		t.Fatalf("NewMelAnalyzer: %v", err)
	}
	if a.cfg.FFTSize != 1024 {
		t.Fatalf("FFTSize = %d, want default 1024", a.cfg.FFTSize)
	}
	if a.cfg.Bands != 64 {
		t.Fatalf("Bands = %d, want default 64", a.cfg.Bands)
	}
	if a.cfg.Smoothing != 0.95 {
		t.Fatalf("Smoothing = %v, want clamp 0.95", a.cfg.Smoothing)
	}
	if a.cfg.Hop != 256 {
		t.Fatalf("Hop = %d, want FFTSize/4", a.cfg.Hop)
	}
}

func TestFrameNotReadyBeforeFill(t *testing.T) {
	a := newTestAnalyzer(t)
	frame := make([]float64, a.Bands())
	if a.Frame(frame) {
		t.Fatal("frame ready before any samples")
	}
	a.Push(sine(440, 48000, 512))
	if a.Frame(frame) {
		t.Fatal("frame ready before the ring filled")
	}
	a.Push(sine(440, 48000, 1024))
	if !a.Frame(frame) {
		t.Fatal("frame not ready after a full window")
	}
}

func TestPeakBandTracksFrequency(t *testing.T) {
	low := newTestAnalyzer(t)
	high := newTestAnalyzer(t)

	low.Push(sine(200, 48000, 4096))
	high.Push(sine(4000, 48000, 4096))

	lf := make([]float64, low.Bands())
	hf := make([]float64, high.Bands())
	low.Frame(lf)
	high.Frame(hf)

	lb, hb := peakBand(lf), peakBand(hf)
	if lb >= hb {
		t.Fatalf("peak bands not ordered by frequency: 200Hz -> %d, 4000Hz -> %d", lb, hb)
	}
}

func TestAnalyzerDeterministic(t *testing.T) {
	a := newTestAnalyzer(t)
	b := newTestAnalyzer(t)
	in := sine(1234, 48000, 8192)
	a.Push(in)
	b.Push(in)

	fa := make([]float64, a.Bands())
	fb := make([]float64, b.Bands())
	a.Frame(fa)
	b.Frame(fb)
	for i := range fa {
		if fa[i] != fb[i] {
			t.Fatalf("band %d differs: %v vs %v", i, fa[i], fb[i])
		}
	}
}

func TestSilenceIsFloorDB(t *testing.T) {
	a := newTestAnalyzer(t)
	a.Push(make([]float64, 4096))
	frame := make([]float64, a.Bands())
	if !a.Frame(frame) {
		t.Fatal("frame not ready")
	}
	for i, v := range frame {
		if v > -100 {
			t.Fatalf("band %d = %v dB for silence, want near floor", i, v)
		}
	}
}
