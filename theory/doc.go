// Package theory maps normalized control positions to musical pitch.
//
// It provides scale pattern tables, equal-temperament quantization of a
// [0,1] position into a note/frequency, and diatonic chord derivation used
// by the chord- and arpeggio-based synthesis modes.
package theory
