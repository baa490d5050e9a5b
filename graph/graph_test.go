package graph

import (
	"math"
	"testing"
)

func render(ctx *Context, blocks int) (l, r []float64) {
	bl := make([]float64, ctx.BlockSize())
	br := make([]float64, ctx.BlockSize())
	for i := 0; i < blocks; i++ {
		ctx.RenderBlock(bl, br)
		l = append(l, bl...)
		r = append(r, br...)
	}
	return l, r
}

func rms(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(s)))
}

func TestOscillatorSilentUntilStarted(t *testing.T) {
	ctx := newTestContext(t)
	osc := NewOscillator(ctx, Sine, 440)
	osc.Connect(ctx.Destination())

	l, _ := render(ctx, 2)
	if got := rms(l); got != 0 {
		t.Fatalf("unstarted oscillator rms = %v, want 0", got)
	}

	osc.Start(ctx.CurrentTime())
	l, r := render(ctx, 4)
	if rms(l) < 0.1 || rms(r) < 0.1 {
		t.Fatalf("started oscillator rms = %v/%v, want audible", rms(l), rms(r))
	}
}

func TestOscillatorStopsAtScheduledTime(t *testing.T) {
	ctx := newTestContext(t)
	osc := NewOscillator(ctx, Sine, 440)
	osc.Connect(ctx.Destination())
	osc.Start(0)
	osc.Stop(float64(ctx.BlockSize()) / ctx.SampleRate())

	l, _ := render(ctx, 1)
	if rms(l) < 0.1 {
		t.Fatalf("pre-stop block silent")
	}
	l, _ = render(ctx, 1)
	if got := rms(l); got != 0 {
		t.Fatalf("post-stop rms = %v, want 0", got)
	}

	// Redundant stop must not panic or change anything.
	osc.Stop(0)
}

func TestCurrentTimeAdvancesWithRendering(t *testing.T) {
	ctx := newTestContext(t)
	if got := ctx.CurrentTime(); got != 0 {
		t.Fatalf("initial time = %v, want 0", got)
	}
	render(ctx, 3)
	want := 3 * float64(ctx.BlockSize()) / ctx.SampleRate()
	if got := ctx.CurrentTime(); math.Abs(got-want) > 1e-12 {
		t.Fatalf("time after 3 blocks = %v, want %v", got, want)
	}
}

func TestGainScalesOutput(t *testing.T) {
	ctx := newTestContext(t)
	osc := NewOscillator(ctx, Sine, 440)
	g := NewGain(ctx, 0.5)
	osc.Connect(g)
	g.Connect(ctx.Destination())
	osc.Start(0)

	half, _ := render(ctx, 4)

	ctx2 := newTestContext(t)
	osc2 := NewOscillator(ctx2, Sine, 440)
	g2 := NewGain(ctx2, 1)
	osc2.Connect(g2)
	g2.Connect(ctx2.Destination())
	osc2.Start(0)

	full, _ := render(ctx2, 4)

	ratio := rms(half) / rms(full)
	if math.Abs(ratio-0.5) > 1e-9 {
		t.Fatalf("gain 0.5 rms ratio = %v, want 0.5", ratio)
	}
}

func TestFanOutSumsAtDestination(t *testing.T) {
	ctx := newTestContext(t)
	osc := NewOscillator(ctx, Sine, 440)
	a := NewGain(ctx, 0.3)
	b := NewGain(ctx, 0.3)
	osc.Connect(a)
	osc.Connect(b)
	a.Connect(ctx.Destination())
	b.Connect(ctx.Destination())
	osc.Start(0)

	sum, _ := render(ctx, 4)

	ctx2 := newTestContext(t)
	osc2 := NewOscillator(ctx2, Sine, 440)
	g2 := NewGain(ctx2, 0.6)
	osc2.Connect(g2)
	g2.Connect(ctx2.Destination())
	osc2.Start(0)

	single, _ := render(ctx2, 4)

	if math.Abs(rms(sum)-rms(single)) > 1e-9 {
		t.Fatalf("fan-out rms = %v, single-path rms = %v, want equal", rms(sum), rms(single))
	}
}

func TestDisconnectSilencesAndIsIdempotent(t *testing.T) {
	ctx := newTestContext(t)
	osc := NewOscillator(ctx, Sine, 440)
	osc.Connect(ctx.Destination())
	osc.Start(0)

	l, _ := render(ctx, 1)
	if rms(l) == 0 {
		t.Fatalf("connected oscillator silent")
	}

	osc.Disconnect()
	osc.Disconnect() // second disconnect must be harmless

	l, _ = render(ctx, 1)
	if got := rms(l); got != 0 {
		t.Fatalf("disconnected rms = %v, want 0", got)
	}
}

func TestStereoPannerHardLeft(t *testing.T) {
	ctx := newTestContext(t)
	osc := NewOscillator(ctx, Sine, 440)
	pan := NewStereoPanner(ctx, -1)
	osc.Connect(pan)
	pan.Connect(ctx.Destination())
	osc.Start(0)

	l, r := render(ctx, 4)
	if rms(l) < 0.1 {
		t.Fatalf("hard-left pan left rms = %v, want audible", rms(l))
	}
	if rms(r) > 1e-9 {
		t.Fatalf("hard-left pan right rms = %v, want 0", rms(r))
	}
}

func TestBufferSourceLoops(t *testing.T) {
	ctx := newTestContext(t)
	buf := make([]float64, 32)
	for i := range buf {
		buf[i] = 1
	}
	src := NewBufferSource(ctx, buf)
	src.SetLoop(true)
	src.Connect(ctx.Destination())
	src.Start(0)

	l, _ := render(ctx, 2)
	for i, v := range l {
		if v != 1 {
			t.Fatalf("looped source sample %d = %v, want 1", i, v)
		}
	}
}

func TestBufferSourceOneShotEnds(t *testing.T) {
	ctx := newTestContext(t)
	buf := make([]float64, 32)
	for i := range buf {
		buf[i] = 1
	}
	src := NewBufferSource(ctx, buf)
	src.Connect(ctx.Destination())
	src.Start(0)

	l, _ := render(ctx, 1)
	for i := 0; i < 32; i++ {
		if l[i] != 1 {
			t.Fatalf("sample %d = %v, want 1", i, l[i])
		}
	}
	for i := 32; i < len(l); i++ {
		if l[i] != 0 {
			t.Fatalf("sample %d = %v past buffer end, want 0", i, l[i])
		}
	}
}

func TestNoiseDeterministicForSeed(t *testing.T) {
	ctx1 := newTestContext(t)
	n1 := NewNoise(ctx1, White, 42)
	n1.Connect(ctx1.Destination())
	n1.Start(0)
	a, _ := render(ctx1, 2)

	ctx2 := newTestContext(t)
	n2 := NewNoise(ctx2, White, 42)
	n2.Connect(ctx2.Destination())
	n2.Start(0)
	b, _ := render(ctx2, 2)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("seeded noise diverged at sample %d", i)
		}
	}
	if rms(a) < 0.1 {
		t.Fatalf("noise rms = %v, want audible", rms(a))
	}
}

func TestBiquadLowpassAttenuatesHighFrequencies(t *testing.T) {
	ctx := newTestContext(t)
	osc := NewOscillator(ctx, Sine, 8000)
	f := NewBiquad(ctx, Lowpass, 200, 0.707)
	osc.Connect(f)
	f.Connect(ctx.Destination())
	osc.Start(0)

	filtered, _ := render(ctx, 8)

	ctx2 := newTestContext(t)
	osc2 := NewOscillator(ctx2, Sine, 8000)
	osc2.Connect(ctx2.Destination())
	osc2.Start(0)
	raw, _ := render(ctx2, 8)

	if rms(filtered) > rms(raw)*0.05 {
		t.Fatalf("lowpass rms = %v vs raw %v, want strong attenuation", rms(filtered), rms(raw))
	}
}

func TestLFOModulatesParam(t *testing.T) {
	ctx := newTestContext(t)
	osc := NewOscillator(ctx, Sine, 440)
	g := NewGain(ctx, 0.5)
	osc.Connect(g)
	g.Connect(ctx.Destination())

	lfo := NewOscillator(ctx, Sine, 2)
	depth := NewGain(ctx, 0.5)
	lfo.Connect(depth)
	depth.ConnectParam(g.GainParam())

	osc.Start(0)
	lfo.Start(0)

	l, _ := render(ctx, 32)
	if rms(l) < 0.05 {
		t.Fatalf("modulated output rms = %v, want audible", rms(l))
	}

	// Amplitude must actually vary across the LFO cycle.
	quarter := len(l) / 4
	r1 := rms(l[:quarter])
	r2 := rms(l[quarter : 2*quarter])
	if math.Abs(r1-r2) < 1e-3 {
		t.Fatalf("tremolo depth not observable: %v vs %v", r1, r2)
	}
}

func TestNewContextRejectsBadConfig(t *testing.T) {
	if _, err := NewContext(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}

func BenchmarkRenderVoiceChain(b *testing.B) {
	ctx, err := NewContext()
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < 8; i++ {
		osc := NewOscillator(ctx, Sawtooth, 110*float64(i+1))
		f := NewBiquad(ctx, Lowpass, 2000, 0.707)
		g := NewGain(ctx, 0.1)
		osc.Connect(f)
		f.Connect(g)
		g.Connect(ctx.Destination())
		osc.Start(0)
	}
	l := make([]float64, ctx.BlockSize())
	r := make([]float64, ctx.BlockSize())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ctx.RenderBlock(l, r)
	}
}
