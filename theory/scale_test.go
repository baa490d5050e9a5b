package theory

import (
	"math"
	"testing"
)

func TestQuantizeDeterministic(t *testing.T) {
	pattern := Pattern("minor")
	for _, x := range []float64{0, 0.1, 0.333, 0.5, 0.75, 0.999} {
		a := Quantize(x, 3, 55, 0, pattern)
		b := Quantize(x, 3, 55, 0, pattern)
		if a != b {
			t.Fatalf("Quantize(%v) not deterministic: %+v vs %+v", x, a, b)
		}
	}
}

func TestQuantizeRootAtZero(t *testing.T) {
	for name, pattern := range scalePatterns {
		info := Quantize(0, 3, 55, 0, pattern)
		if info.Degree != 0 {
			t.Fatalf("%s: Quantize(0) degree = %d, want 0", name, info.Degree)
		}
		if info.Octave != 0 {
			t.Fatalf("%s: Quantize(0) octave = %d, want 0", name, info.Octave)
		}
		if math.Abs(info.Freq-55) > 1e-12 {
			t.Fatalf("%s: Quantize(0) freq = %v, want 55", name, info.Freq)
		}
	}
}

func TestQuantizeSweepVisitsEveryDegree(t *testing.T) {
	const octaves = 3
	for name, pattern := range scalePatterns {
		seen := make(map[[2]int]bool)
		for i := 0; i < 10000; i++ {
			x := float64(i) / 10000
			info := Quantize(x, octaves, 55, 0, pattern)
			seen[[2]int{info.Octave, info.Degree}] = true
		}
		want := octaves * len(pattern)
		if len(seen) != want {
			t.Fatalf("%s: sweep visited %d slots, want %d", name, len(seen), want)
		}
	}
}

// Asserts the documented slot formula on the quantized C-minor scenario:
// pattern [0,2,3,5,7,8,10], 3 octaves, base 55 Hz, tonic 0.
func TestQuantizeMinorScenario(t *testing.T) {
	pattern := []int{0, 2, 3, 5, 7, 8, 10}
	const (
		octaves = 3
		base    = 55.0
	)
	total := octaves * len(pattern)

	for _, x := range []float64{0, 0.333, 0.5, 0.999} {
		noteIndex := int(math.Floor(x * float64(total)))
		if noteIndex >= total {
			noteIndex = total - 1
		}
		wantOct := noteIndex / len(pattern)
		wantDeg := noteIndex % len(pattern)
		wantSemi := pattern[wantDeg] + 12*wantOct
		wantFreq := base * math.Pow(2, float64(wantSemi)/12)

		info := Quantize(x, octaves, base, 0, pattern)
		if info.Degree != wantDeg || info.Octave != wantOct || info.Semitone != wantSemi {
			t.Fatalf("x=%v: got degree=%d octave=%d semitone=%d, want %d/%d/%d",
				x, info.Degree, info.Octave, info.Semitone, wantDeg, wantOct, wantSemi)
		}
		if math.Abs(info.Freq-wantFreq) > 1e-9 {
			t.Fatalf("x=%v: freq = %v, want %v", x, info.Freq, wantFreq)
		}
	}

	if got := Quantize(0, octaves, base, 0, pattern); got.Freq != 55 {
		t.Fatalf("x=0 freq = %v, want exactly 55", got.Freq)
	}
}

func TestQuantizeFloorNotRound(t *testing.T) {
	pattern := Pattern("minor")
	// Just below a slot boundary must stay in the lower slot.
	total := float64(3 * len(pattern))
	x := (1.0 - 1e-9) / total
	if info := Quantize(x, 3, 55, 0, pattern); info.Degree != 0 {
		t.Fatalf("degree below boundary = %d, want 0", info.Degree)
	}
	x = (1.0 + 1e-9) / total
	if info := Quantize(x, 3, 55, 0, pattern); info.Degree != 1 {
		t.Fatalf("degree above boundary = %d, want 1", info.Degree)
	}
}

func TestQuantizeUpperEdgeClamped(t *testing.T) {
	pattern := Pattern("minor")
	info := Quantize(1, 3, 55, 0, pattern)
	if info.Octave != 2 || info.Degree != len(pattern)-1 {
		t.Fatalf("x=1 slot = octave %d degree %d, want top slot", info.Octave, info.Degree)
	}
}

func TestContinuousSweep(t *testing.T) {
	lo := Continuous(0, 3, 55, 0)
	hi := Continuous(1, 3, 55, 0)
	if math.Abs(lo.Freq-55) > 1e-12 {
		t.Fatalf("Continuous(0) freq = %v, want 55", lo.Freq)
	}
	if math.Abs(hi.Freq-55*8) > 1e-9 {
		t.Fatalf("Continuous(1) freq = %v, want 440", hi.Freq)
	}
	if lo.IsQuantized || hi.IsQuantized {
		t.Fatalf("Continuous marked quantized")
	}
	if lo.Degree != 0 || hi.Degree != 0 {
		t.Fatalf("Continuous degree nonzero")
	}

	// Strictly monotonic in x.
	prev := -1.0
	for i := 0; i <= 100; i++ {
		f := Continuous(float64(i)/100, 3, 55, 0).Freq
		if f <= prev {
			t.Fatalf("Continuous not monotonic at step %d", i)
		}
		prev = f
	}
}

func TestUnknownScaleFallsBackToMinor(t *testing.T) {
	got := Pattern("klingon")
	want := scalePatterns["minor"]
	if len(got) != len(want) {
		t.Fatalf("fallback pattern length = %d, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("fallback pattern[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestNoteName(t *testing.T) {
	cases := []struct {
		freq float64
		want string
	}{
		{440, "A4"},
		{261.6256, "C4"},
		{55, "A1"},
		{880, "A5"},
	}
	for _, tc := range cases {
		if got := NoteName(tc.freq); got != tc.want {
			t.Fatalf("NoteName(%v) = %q, want %q", tc.freq, got, tc.want)
		}
	}
	if got := NoteName(0); got != "" {
		t.Fatalf("NoteName(0) = %q, want empty", got)
	}
}

func TestQuantizeClampsBadInput(t *testing.T) {
	pattern := Pattern("minor")
	if info := Quantize(math.NaN(), 3, 55, 0, pattern); info.Degree != 0 {
		t.Fatalf("NaN position degree = %d, want 0", info.Degree)
	}
	if info := Quantize(-2, 3, 55, 0, pattern); info.Degree != 0 {
		t.Fatalf("negative position degree = %d, want 0", info.Degree)
	}
	if info := Quantize(0.5, 3, 55, 0, nil); !info.IsQuantized {
		t.Fatalf("nil pattern did not fall back")
	}
}
