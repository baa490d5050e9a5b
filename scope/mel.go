package scope

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-dsp/dsp/window"
	algofft "github.com/cwbudde/algo-fft"
)

const (
	minDB = -130.0
	eps   = 1e-12
)

// Params configures a MelAnalyzer. Zero fields pick defaults; out-of-range
// fields are clamped rather than rejected, except the sample rate.
type Params struct {
	SampleRate float64
	FFTSize    int     // power of two, 256..8192, default 1024
	Hop        int     // samples between frames, default FFTSize/4
	Bands      int     // mel bands, 8..256, default 64
	FMin       float64 // lowest band edge in Hz, default 40
	FMax       float64 // highest band edge in Hz, default Nyquist
	Smoothing  float64 // 0..0.95 exponential frame smoothing
}

// melFilter is one triangular band: weights applied to FFT bins
// starting at bin start.
type melFilter struct {
	start   int
	weights []float64
}

// MelAnalyzer turns a pushed sample stream into mel-band power frames.
// Not safe for concurrent use; feed it from the render goroutine.
type MelAnalyzer struct {
	cfg Params

	plan      *algofft.Plan[complex128]
	win       []float64
	winGain   float64
	filters   []melFilter
	fftInput  []complex128
	fftOutput []complex128
	power     []float64

	ring         []float64
	write        int
	filled       int
	samplesToHop int

	bandsDB []float64
	ready   bool
}

// NewMelAnalyzer builds an analyzer for the given parameters.
func NewMelAnalyzer(p Params) (*MelAnalyzer, error) {
	if p.SampleRate <= 0 {
		return nil, fmt.Errorf("scope: sample rate must be > 0: %f", p.SampleRate)
	}
	cfg := sanitizeParams(p)

	win := window.Generate(window.TypeHann, cfg.FFTSize, window.WithPeriodic())
	sum := 0.0
	for _, w := range win {
		sum += w
	}

	plan, err := algofft.NewPlan64(cfg.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("scope: fft plan: %w", err)
	}

	a := &MelAnalyzer{
		cfg:       cfg,
		plan:      plan,
		win:       win,
		winGain:   sum / float64(cfg.FFTSize),
		fftInput:  make([]complex128, cfg.FFTSize),
		fftOutput: make([]complex128, cfg.FFTSize),
		power:     make([]float64, cfg.FFTSize/2+1),
		ring:      make([]float64, cfg.FFTSize),
		bandsDB:   make([]float64, cfg.Bands),
	}
	a.filters = melFilterbank(cfg)
	for i := range a.bandsDB {
		a.bandsDB[i] = minDB
	}
	return a, nil
}

func sanitizeParams(p Params) Params {
	cfg := p
	switch cfg.FFTSize {
	case 256, 512, 1024, 2048, 4096, 8192:
	default:
		cfg.FFTSize = 1024
	}
	if cfg.Hop < 1 || cfg.Hop > cfg.FFTSize {
		cfg.Hop = cfg.FFTSize / 4
	}
	if cfg.Bands < 8 || cfg.Bands > 256 {
		cfg.Bands = 64
	}
	nyquist := cfg.SampleRate / 2
	if cfg.FMin <= 0 {
		cfg.FMin = 40
	}
	if cfg.FMax <= cfg.FMin || cfg.FMax > nyquist {
		cfg.FMax = nyquist
	}
	if cfg.Smoothing < 0 {
		cfg.Smoothing = 0
	}
	if cfg.Smoothing > 0.95 {
		cfg.Smoothing = 0.95
	}
	return cfg
}

func hzToMel(f float64) float64 {
	return 2595 * math.Log10(1+f/700)
}

func melToHz(m float64) float64 {
	return 700 * (math.Pow(10, m/2595) - 1)
}

// melFilterbank lays Bands triangular filters with 50% overlap between
// FMin and FMax on the mel scale.
func melFilterbank(cfg Params) []melFilter {
	bins := cfg.FFTSize/2 + 1
	binHz := cfg.SampleRate / float64(cfg.FFTSize)

	lo := hzToMel(cfg.FMin)
	hi := hzToMel(cfg.FMax)
	points := make([]float64, cfg.Bands+2)
	for i := range points {
		mel := lo + (hi-lo)*float64(i)/float64(cfg.Bands+1)
		points[i] = melToHz(mel)
	}

	filters := make([]melFilter, cfg.Bands)
	for b := 0; b < cfg.Bands; b++ {
		left, center, right := points[b], points[b+1], points[b+2]
		start := int(math.Ceil(left / binHz))
		end := int(math.Floor(right / binHz))
		if start < 0 {
			start = 0
		}
		if end >= bins {
			end = bins - 1
		}
		if end < start {
			// Band narrower than one bin; pin it to the nearest bin so
			// every band contributes something.
			start = int(math.Round(center / binHz))
			if start >= bins {
				start = bins - 1
			}
			filters[b] = melFilter{start: start, weights: []float64{1}}
			continue
		}

		weights := make([]float64, end-start+1)
		for i := range weights {
			f := float64(start+i) * binHz
			var w float64
			if f <= center {
				w = (f - left) / math.Max(center-left, eps)
			} else {
				w = (right - f) / math.Max(right-center, eps)
			}
			if w < 0 {
				w = 0
			}
			weights[i] = w
		}
		filters[b] = melFilter{start: start, weights: weights}
	}
	return filters
}

// Bands reports the number of mel bands per frame.
func (a *MelAnalyzer) Bands() int { return a.cfg.Bands }

// Push feeds samples into the ring, emitting a frame every hop once the
// ring has filled.
func (a *MelAnalyzer) Push(samples []float64) {
	for _, s := range samples {
		a.ring[a.write] = s
		a.write++
		if a.write >= a.cfg.FFTSize {
			a.write = 0
		}
		if a.filled < a.cfg.FFTSize {
			a.filled++
		}

		a.samplesToHop++
		if a.filled < a.cfg.FFTSize || a.samplesToHop < a.cfg.Hop {
			continue
		}
		a.samplesToHop = 0
		a.analyzeFrame()
	}
}

// Frame copies the latest mel frame in dB into dst, which must hold
// Bands values. It reports whether a full frame has been produced yet.
func (a *MelAnalyzer) Frame(dst []float64) bool {
	copy(dst, a.bandsDB)
	return a.ready
}

func (a *MelAnalyzer) analyzeFrame() {
	read := a.write
	for i := 0; i < a.cfg.FFTSize; i++ {
		a.fftInput[i] = complex(a.ring[read]*a.win[i], 0)
		read++
		if read >= a.cfg.FFTSize {
			read = 0
		}
	}

	if err := a.plan.Forward(a.fftOutput, a.fftInput); err != nil {
		return
	}

	norm := float64(a.cfg.FFTSize) * math.Max(a.winGain, eps)
	last := len(a.power) - 1
	for k := 0; k <= last; k++ {
		mag := cmplx.Abs(a.fftOutput[k]) / norm
		if k > 0 && k < last {
			mag *= 2
		}
		a.power[k] = mag * mag
	}

	for b, filt := range a.filters {
		sum := 0.0
		for i, w := range filt.weights {
			sum += w * a.power[filt.start+i]
		}
		valDB := 10 * math.Log10(math.Max(eps, sum))
		if valDB < minDB {
			valDB = minDB
		}
		if !a.ready {
			a.bandsDB[b] = valDB
			continue
		}
		s := a.cfg.Smoothing
		a.bandsDB[b] = s*a.bandsDB[b] + (1-s)*valDB
	}
	a.ready = true
}
