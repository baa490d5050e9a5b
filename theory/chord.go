package theory

import "math"

// Quality tags the chord naturally built on a scale degree.
type Quality string

// Chord qualities used by the diatonic tables.
const (
	Major      Quality = "major"
	Minor      Quality = "minor"
	Diminished Quality = "diminished"
	Augmented  Quality = "augmented"
	Sus4       Quality = "sus4"
	Power      Quality = "power"
	Major7     Quality = "major7"
	Minor7     Quality = "minor7"
	Dominant7  Quality = "dominant7"
)

var chordIntervals = map[Quality][]int{
	Major:      {0, 4, 7},
	Minor:      {0, 3, 7},
	Diminished: {0, 3, 6},
	Augmented:  {0, 4, 8},
	Sus4:       {0, 5, 7},
	Power:      {0, 7, 12},
	Major7:     {0, 4, 7, 11},
	Minor7:     {0, 3, 7, 10},
	Dominant7:  {0, 4, 7, 10},
}

// Diatonic chord quality per scale degree. Scales without a classical triad
// stack (pentatonics, blues) use the qualities that fit their degrees in
// practice; anything unlisted falls back to the natural minor row.
var diatonicQualities = map[string][]Quality{
	"major":           {Major, Minor, Minor, Major, Major, Minor, Diminished},
	"minor":           {Minor, Diminished, Major, Minor, Minor, Major, Major},
	"harmonicMinor":   {Minor, Diminished, Augmented, Minor, Major, Major, Diminished},
	"dorian":          {Minor, Minor, Major, Major, Minor, Diminished, Major},
	"phrygian":        {Minor, Major, Major, Minor, Diminished, Major, Minor},
	"lydian":          {Major, Major, Minor, Diminished, Major, Minor, Minor},
	"mixolydian":      {Major, Minor, Diminished, Major, Minor, Minor, Major},
	"majorPentatonic": {Major, Minor, Minor, Major, Minor},
	"minorPentatonic": {Minor, Major, Minor, Minor, Major},
	"blues":           {Minor, Power, Power, Power, Power, Power},
	"wholeTone":       {Augmented, Augmented, Augmented, Augmented, Augmented, Augmented},
	"chromatic":       {Power, Power, Power, Power, Power, Power, Power, Power, Power, Power, Power, Power},
}

// Intervals returns the semitone offsets of a chord quality, root first.
// Unknown qualities resolve to a bare power chord.
func Intervals(q Quality) []int {
	if iv, ok := chordIntervals[q]; ok {
		return iv
	}
	return chordIntervals[Power]
}

// DiatonicQuality returns the chord quality on the given scale degree of the
// named scale. Unknown scales use the natural minor table; the degree wraps
// around the table length.
func DiatonicQuality(scale string, degree int) Quality {
	row, ok := diatonicQualities[scale]
	if !ok {
		row = diatonicQualities[DefaultScale]
	}
	if len(row) == 0 {
		return Power
	}
	degree %= len(row)
	if degree < 0 {
		degree += len(row)
	}
	return row[degree]
}

// ChordFrequencies expands a root frequency into the chord tones of the
// given quality: root * 2^(interval/12) per interval.
func ChordFrequencies(root float64, q Quality) []float64 {
	iv := Intervals(q)
	freqs := make([]float64, len(iv))
	for i, semis := range iv {
		freqs[i] = root * math.Pow(2, float64(semis)/12)
	}
	return freqs
}
