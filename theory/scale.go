package theory

import (
	"math"
	"strconv"
)

// NoteInfo is the result of mapping a normalized position to a pitch.
// It is derived on every call and never stored.
type NoteInfo struct {
	Freq        float64
	Semitone    int // semitone offset from the base frequency
	NoteName    string
	Octave      int // octave index within the swept span, 0-based
	IsQuantized bool
	Degree      int // scale degree; 0 and meaningless when not quantized
}

// DefaultScale is the fallback pattern name for unknown scales.
const DefaultScale = "minor"

var scalePatterns = map[string][]int{
	"major":           {0, 2, 4, 5, 7, 9, 11},
	"minor":           {0, 2, 3, 5, 7, 8, 10},
	"harmonicMinor":   {0, 2, 3, 5, 7, 8, 11},
	"dorian":          {0, 2, 3, 5, 7, 9, 10},
	"phrygian":        {0, 1, 3, 5, 7, 8, 10},
	"lydian":          {0, 2, 4, 6, 7, 9, 11},
	"mixolydian":      {0, 2, 4, 5, 7, 9, 10},
	"majorPentatonic": {0, 2, 4, 7, 9},
	"minorPentatonic": {0, 3, 5, 7, 10},
	"blues":           {0, 3, 5, 6, 7, 10},
	"wholeTone":       {0, 2, 4, 6, 8, 10},
	"chromatic":       {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// ScaleNames returns the known scale names in no particular order.
func ScaleNames() []string {
	names := make([]string, 0, len(scalePatterns))
	for name := range scalePatterns {
		names = append(names, name)
	}
	return names
}

// Pattern returns the semitone pattern for a scale name. Unknown names fall
// back to the natural minor pattern.
func Pattern(name string) []int {
	if p, ok := scalePatterns[name]; ok {
		return p
	}
	return scalePatterns[DefaultScale]
}

// Quantize snaps a normalized position x in [0,1] to a note of the given
// scale pattern spread over octaves octaves above baseFreq.
//
// The span is divided into octaves*len(pattern) slots; the slot index is
// floor-truncated (never rounded) so every position maps to exactly one
// slot. tonic shifts the whole mapping in semitones.
func Quantize(x float64, octaves int, baseFreq float64, tonic int, pattern []int) NoteInfo {
	if len(pattern) == 0 {
		pattern = scalePatterns[DefaultScale]
	}
	if octaves < 1 {
		octaves = 1
	}
	x = clampUnit(x)

	total := octaves * len(pattern)
	noteIndex := int(math.Floor(x * float64(total)))
	if noteIndex >= total {
		noteIndex = total - 1
	}

	octave := noteIndex / len(pattern)
	degree := noteIndex % len(pattern)
	semitone := tonic + pattern[degree] + 12*octave
	freq := baseFreq * math.Pow(2, float64(semitone)/12)

	return NoteInfo{
		Freq:        freq,
		Semitone:    semitone,
		NoteName:    NoteName(freq),
		Octave:      octave,
		IsQuantized: true,
		Degree:      degree,
	}
}

// Continuous maps x in [0,1] to an unquantized frequency sweeping octaves
// octaves above baseFreq. The note name is derived from the nearest semitone
// for display only; Degree is fixed at 0.
func Continuous(x float64, octaves int, baseFreq float64, tonic int) NoteInfo {
	if octaves < 1 {
		octaves = 1
	}
	x = clampUnit(x)

	semis := float64(tonic) + x*float64(octaves)*12
	freq := baseFreq * math.Pow(2, semis/12)

	return NoteInfo{
		Freq:        freq,
		Semitone:    int(math.Round(semis)),
		NoteName:    NoteName(freq),
		Octave:      int(semis) / 12,
		IsQuantized: false,
		Degree:      0,
	}
}

// NoteName formats the nearest equal-temperament note of freq, with its
// scientific pitch octave (A440 = "A4").
func NoteName(freq float64) string {
	if freq <= 0 {
		return ""
	}
	midi := int(math.Round(69 + 12*math.Log2(freq/440)))
	if midi < 0 {
		midi = 0
	}
	name := noteNames[midi%12]
	octave := midi/12 - 1
	return name + strconv.Itoa(octave)
}

func clampUnit(x float64) float64 {
	switch {
	case math.IsNaN(x), x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}
