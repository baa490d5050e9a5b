package synth

import (
	"math"
	"testing"
	"time"
)

func TestWavetableMorphCompensation(t *testing.T) {
	cases := []struct {
		y    float64
		want float64
	}{
		{0, 1.0},   // pure sine
		{1, 0.6},   // pure square
		{0.5, 0.7}, // halfway between triangle and saw
		{1.0 / 3, 0.9},
	}
	for _, c := range cases {
		_, got := wavetableMorph(c.y)
		if math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("wavetableMorph(%v) compensation = %v, want %v", c.y, got, c.want)
		}
	}
}

func TestWavetableMorphCoefficients(t *testing.T) {
	imag, _ := wavetableMorph(0)
	if imag[1] != 1 {
		t.Fatalf("sine fundamental = %v, want 1", imag[1])
	}
	for k := 2; k <= wavetableHarmonics; k++ {
		if imag[k] != 0 {
			t.Fatalf("sine harmonic %d = %v, want 0", k, imag[k])
		}
	}

	imag, _ = wavetableMorph(1)
	for k := 2; k <= wavetableHarmonics; k += 2 {
		if imag[k] != 0 {
			t.Fatalf("square harmonic %d = %v, want 0", k, imag[k])
		}
	}
	for k := 1; k <= wavetableHarmonics; k += 2 {
		if imag[k] <= 0 {
			t.Fatalf("square harmonic %d = %v, want > 0", k, imag[k])
		}
	}
}

func TestWavetableVoiceLevelTracksCompensation(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.SetMode("wavetable"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	wt := e.reg.modes["wavetable"].(*Wavetable)

	e.Touch(0.5, 0, "t1")
	if got, want := wt.voices["t1"].level, 0.22*1.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("level at morph 0 = %v, want %v", got, want)
	}

	e.Touch(0.5, 1, "t2")
	if got, want := wt.voices["t2"].level, 0.22*0.6; math.Abs(got-want) > 1e-9 {
		t.Fatalf("level at morph 1 = %v, want %v", got, want)
	}
}

func TestWavetableArpeggioRetargetsChordTones(t *testing.T) {
	e, sch := newTestEngine(t)
	e.SetArpeggio(true, 10)
	if err := e.SetMode("wavetable"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	wt := e.reg.modes["wavetable"].(*Wavetable)

	e.Touch(0, 0.5, "t1")
	v := wt.voices["t1"]
	start := v.osc.Frequency().Value()

	sch.Advance(250 * time.Millisecond) // two steps at 10/s
	if got := v.osc.Frequency().Value(); got == start {
		t.Fatalf("arpeggio did not retarget: still %v", got)
	}
	if v.arpStep < 2 {
		t.Fatalf("arp steps = %d, want >= 2", v.arpStep)
	}

	e.Release("t1")
	stepAtRelease := v.arpStep
	sch.Advance(time.Second)
	if v.arpStep != stepAtRelease {
		t.Fatalf("arpeggio kept stepping after release: %d -> %d", stepAtRelease, v.arpStep)
	}
}

func TestBufferPoolBound(t *testing.T) {
	p := newBufferPool(4)
	held := make([]*pooledBuffer, 0, 20)
	for n := 100; n < 2100; n += 100 {
		held = append(held, p.acquire(n))
	}
	if len(p.entries) > 4 {
		t.Fatalf("pool grew to %d entries, max 4", len(p.entries))
	}
	for _, e := range held {
		p.release(e)
	}
	if len(p.entries) > 4 {
		t.Fatalf("pool holds %d entries after release, max 4", len(p.entries))
	}
}

func TestBufferPoolReusesBySizeBucket(t *testing.T) {
	p := newBufferPool(8)
	a := p.acquire(1000)
	p.release(a)
	b := p.acquire(900) // same power-of-two bucket
	if a != b {
		t.Fatal("expected the released entry to be reused for the same bucket")
	}
	if len(b.data) < 1000 {
		t.Fatalf("bucket size %d, want >= 1000", len(b.data))
	}
}

// Two plucks requested inside the debounce window must produce only one
// excitation (plus its sympathetic partials).
func TestKarplusPluckDebounce(t *testing.T) {
	e, sch := newTestEngine(t)
	if err := e.SetMode("karplus"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	k := e.reg.modes["karplus"].(*Karplus)

	e.Touch(0.1, 0.5, "t1")
	v := k.voices["t1"]
	if v == nil {
		t.Fatal("no karplus voice after touch")
	}
	// Fundamental plus two sympathetic partials for a low note.
	if got := len(v.plucks); got != 3 {
		t.Fatalf("plucks after first touch = %d, want 3", got)
	}

	e.Touch(0.12, 0.5, "t1") // inside the debounce window
	if got := len(v.plucks); got != 3 {
		t.Fatalf("plucks after debounced touch = %d, want 3", got)
	}

	sch.Advance(karplusDebounce + 10*time.Millisecond)
	e.Touch(0.14, 0.5, "t1")
	if got := len(v.plucks); got < 4 {
		t.Fatalf("plucks after debounce window passed = %d, want more than 3", got)
	}
}

func TestKarplusSympatheticCeiling(t *testing.T) {
	e, _ := newTestEngine(t, WithBaseFreq(5000))
	if err := e.SetMode("karplus"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	k := e.reg.modes["karplus"].(*Karplus)

	// With a 5 kHz base every sympathetic partial lands above the
	// ceiling; only the fundamental may ring.
	e.Touch(0, 0.5, "t1")
	v := k.voices["t1"]
	if got := len(v.plucks); got != 1 {
		t.Fatalf("plucks = %d, want 1", got)
	}
}

func TestArpeggiatorStepsThroughChord(t *testing.T) {
	e, sch := newTestEngine(t)
	if err := e.SetMode("arpeggiator"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	a := e.reg.modes["arpeggiator"].(*Arpeggiator)

	e.Touch(0, 0, "t1") // root of the scale, pattern "up"
	v := a.voices["t1"]
	start := v.osc.Frequency().Value()

	sch.Advance(400 * time.Millisecond) // past one step at 3 steps/s
	stepped := v.osc.Frequency().Value()
	if stepped == start {
		t.Fatalf("frequency did not step: still %v", stepped)
	}
	if v.step != 1 {
		t.Fatalf("step index = %d, want 1", v.step)
	}
}

func TestArpeggiatorStopsSteppingAfterRelease(t *testing.T) {
	e, sch := newTestEngine(t)
	if err := e.SetMode("arpeggiator"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	a := e.reg.modes["arpeggiator"].(*Arpeggiator)

	e.Touch(0, 0, "t1")
	v := a.voices["t1"]
	e.Release("t1")
	sch.Advance(2 * time.Second)

	if !v.released {
		t.Fatal("voice not marked released")
	}
	if got := v.step; got > 1 {
		t.Fatalf("pattern kept stepping after release: step = %d", got)
	}
}

func TestAmbientAdvancesVoicingOnFreshTouchOnly(t *testing.T) {
	e, sch := newTestEngine(t)
	if err := e.SetMode("ambient"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	amb := e.reg.modes["ambient"].(*Ambient)

	if amb.chordIdx != 0 {
		t.Fatalf("initial voicing = %d, want 0", amb.chordIdx)
	}

	e.Touch(0.3, 0.3, "t1")
	if amb.chordIdx != 1 {
		t.Fatalf("voicing after fresh touch = %d, want 1", amb.chordIdx)
	}

	e.Touch(0.35, 0.3, "t1")
	e.Touch(0.4, 0.3, "t2")
	if amb.chordIdx != 1 {
		t.Fatalf("voicing while touching = %d, want 1", amb.chordIdx)
	}

	// Inactivity resets the touching flag, so the next touch is fresh.
	sch.Advance(500 * time.Millisecond)
	e.Touch(0.5, 0.5, "t3")
	if amb.chordIdx != 2 {
		t.Fatalf("voicing after inactivity = %d, want 2", amb.chordIdx)
	}
}

func TestAmbientWalkStaysInBounds(t *testing.T) {
	e, sch := newTestEngine(t)
	if err := e.SetMode("ambient"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	amb := e.reg.modes["ambient"].(*Ambient)

	for i := 0; i < 600; i++ {
		sch.Advance(evolutionTick)
		if amb.posX < 0 || amb.posX > 1 || amb.posY < 0 || amb.posY > 1 {
			t.Fatalf("walk escaped at tick %d: (%v, %v)", i, amb.posX, amb.posY)
		}
	}
}

func TestBasslineChainDiesOnCleanup(t *testing.T) {
	e, sch := newTestEngine(t)
	if err := e.SetMode("bassline"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	b := e.reg.modes["bassline"].(*Bassline)

	sch.Advance(3 * time.Second)
	if b.stepIdx == 0 {
		t.Fatal("sequence never stepped")
	}
	stepped := b.stepIdx

	if err := e.SetMode("fm"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	sch.Advance(10 * time.Second)
	if b.stepIdx != stepped {
		t.Fatalf("sequence resurrected after cleanup: %d -> %d", stepped, b.stepIdx)
	}
}

func TestBasslineTempoFollowsHeading(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.SetMode("bassline"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	b := e.reg.modes["bassline"].(*Bassline)

	e.SetOrientation(Orientation{Heading: 0})
	if got := b.bpm(); got != 70 {
		t.Fatalf("bpm at heading 0 = %v, want 70", got)
	}
	e.SetOrientation(Orientation{Heading: 180})
	if got := b.bpm(); got != 105 {
		t.Fatalf("bpm at heading 180 = %v, want 105", got)
	}
	e.SetOrientation(Orientation{Heading: -90})
	if got := b.bpm(); math.Abs(got-122.5) > 1e-9 {
		t.Fatalf("bpm at heading -90 = %v, want 122.5", got)
	}
}

func TestOneheartGlobalCooldown(t *testing.T) {
	e, sch := newTestEngine(t)
	if err := e.SetMode("oneheart"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	oh := e.reg.modes["oneheart"].(*Oneheart)

	e.Touch(0.5, 0.5, "a")
	if oh.chordIdx != 1 {
		t.Fatalf("chord after first touch = %d, want 1", oh.chordIdx)
	}

	// A second finger inside the cooldown shares the window and must
	// not advance, even after the touching flag resets.
	sch.Advance(500 * time.Millisecond)
	e.Touch(0.6, 0.4, "b")
	if oh.chordIdx != 1 {
		t.Fatalf("chord inside cooldown = %d, want 1", oh.chordIdx)
	}

	sch.Advance(2500 * time.Millisecond)
	e.Touch(0.4, 0.6, "c")
	if oh.chordIdx != 2 {
		t.Fatalf("chord after cooldown = %d, want 2", oh.chordIdx)
	}
}

func TestOneheartAutoAdvance(t *testing.T) {
	e, sch := newTestEngine(t)
	if err := e.SetMode("oneheart"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	oh := e.reg.modes["oneheart"].(*Oneheart)

	sch.Advance(oneheartAdvanceEvery + time.Second)
	if oh.chordIdx != 1 {
		t.Fatalf("chord after auto-advance window = %d, want 1", oh.chordIdx)
	}
}

func TestOneheartSetMood(t *testing.T) {
	oh := NewOneheart()
	if err := oh.SetMood("sleep"); err != nil {
		t.Fatalf("SetMood(sleep): %v", err)
	}
	if err := oh.SetMood("anxious"); err == nil {
		t.Fatal("SetMood(anxious): expected error")
	}
}
