// Command touchsynth plays the touch instrument from the terminal: a
// seeded random-walk performer wanders the control surface of the
// chosen synthesis mode.
//
// Usage:
//
//	touchsynth [flags]
//
// Examples:
//
//	touchsynth -list
//	touchsynth -mode karplus -seconds 20
//	touchsynth -mode ambient -scale dorian -tonic 3
//	touchsynth -mode fm -headless -seconds 5
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/cwbudde/algo-touchsynth/graph"
	"github.com/cwbudde/algo-touchsynth/playback"
	"github.com/cwbudde/algo-touchsynth/sched"
	"github.com/cwbudde/algo-touchsynth/synth"
)

const renderBlock = 128

func main() {
	mode := flag.String("mode", "wavetable", "synthesis mode")
	scale := flag.String("scale", "minor", "quantization scale")
	tonic := flag.Int("tonic", 0, "tonic offset in semitones")
	seconds := flag.Float64("seconds", 10, "performance length in seconds")
	sampleRate := flag.Float64("sr", 48000, "sample rate in Hz")
	seed := flag.Int64("seed", 1, "random-walk seed")
	headless := flag.Bool("headless", false, "render silently and print an RMS summary")
	list := flag.Bool("list", false, "list available modes")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: touchsynth [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Plays a random-walk performance on the touch instrument.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(*mode, *scale, *tonic, *seconds, *sampleRate, *seed, *headless, *list); err != nil {
		fmt.Fprintln(os.Stderr, "touchsynth:", err)
		os.Exit(1)
	}
}

func run(mode, scale string, tonic int, seconds, sampleRate float64, seed int64, headless, list bool) error {
	gctx, err := graph.NewContext(core.WithSampleRate(sampleRate), core.WithBlockSize(renderBlock))
	if err != nil {
		return err
	}

	var scheduler sched.Scheduler
	var manual *sched.Manual
	if headless {
		manual = sched.NewManual()
		scheduler = manual
	} else {
		scheduler = sched.NewReal()
	}

	engine, err := synth.New(gctx, scheduler, synth.WithScale(scale))
	if err != nil {
		return err
	}
	engine.SetTonic(tonic)

	if list {
		for _, name := range engine.Modes() {
			fmt.Println(name)
		}
		return nil
	}

	if err := engine.SetMode(mode); err != nil {
		return err
	}
	fmt.Printf("mode %s · scale %s · %gs\n", mode, scale, seconds)

	if headless {
		return performHeadless(engine, gctx, manual, seconds, seed)
	}
	return performLive(engine, gctx, seconds, seed)
}

// walker is the scripted performer: a damped random walk across the
// surface that occasionally lifts the finger and puts it back down.
type walker struct {
	rng        *rand.Rand
	x, y       float64
	vx, vy     float64
	down       bool
	touchIndex int
	touchID    string
}

func newWalker(seed int64) *walker {
	return &walker{rng: rand.New(rand.NewSource(seed)), x: 0.5, y: 0.5}
}

func (w *walker) step(e *synth.Engine) {
	w.vx = w.vx*0.92 + (w.rng.Float64()*2-1)*0.01
	w.vy = w.vy*0.92 + (w.rng.Float64()*2-1)*0.01
	w.x += w.vx
	w.y += w.vy
	if w.x < 0 {
		w.x, w.vx = 0, -w.vx
	} else if w.x > 1 {
		w.x, w.vx = 1, -w.vx
	}
	if w.y < 0 {
		w.y, w.vy = 0, -w.vy
	} else if w.y > 1 {
		w.y, w.vy = 1, -w.vy
	}

	switch {
	case !w.down:
		if w.rng.Float64() < 0.1 {
			w.touchIndex++
			w.touchID = "walk" + strconv.Itoa(w.touchIndex)
			w.down = true
			e.Touch(w.x, w.y, w.touchID)
		}
	case w.rng.Float64() < 0.02:
		e.Release(w.touchID)
		w.down = false
	default:
		e.Touch(w.x, w.y, w.touchID)
	}
}

func performHeadless(e *synth.Engine, g *graph.Context, manual *sched.Manual, seconds float64, seed int64) error {
	h, err := playback.NewHeadless(g)
	if err != nil {
		return err
	}
	w := newWalker(seed)

	blockDur := time.Duration(float64(renderBlock) / g.SampleRate() * float64(time.Second))
	blocks := int(seconds * g.SampleRate() / renderBlock)
	gestureEvery := 8 // roughly every 21 ms at 48 kHz

	var sumL, sumR, peak float64
	var n int
	for i := 0; i < blocks; i++ {
		h.RenderBlocks(1, func(l, r []float64) {
			for j := range l {
				sumL += l[j] * l[j]
				sumR += r[j] * r[j]
				if a := math.Abs(l[j]); a > peak {
					peak = a
				}
			}
			n += len(l)
		})
		manual.Advance(blockDur)
		if i%gestureEvery == 0 {
			w.step(e)
		}
	}

	fmt.Printf("rendered %.1fs · rms L %.4f R %.4f · peak %.4f · voices %d\n",
		float64(n)/g.SampleRate(), rms(sumL, n), rms(sumR, n), peak, e.VoiceCount())
	return nil
}

func performLive(e *synth.Engine, g *graph.Context, seconds float64, seed int64) error {
	out, err := playback.NewOto(g)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := out.Start(); err != nil {
		return err
	}
	w := newWalker(seed)

	deadline := time.Now().Add(time.Duration(seconds * float64(time.Second)))
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for now := range ticker.C {
		if now.After(deadline) {
			break
		}
		w.step(e)
	}

	e.Close()
	return out.Stop()
}

func rms(sumSquares float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Sqrt(sumSquares / float64(n))
}
