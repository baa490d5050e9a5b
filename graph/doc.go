// Package graph implements the stereo signal graph the synthesis modes
// build their voices on: oscillators, gains, biquad filters, panners,
// buffer/noise sources and a reverb insert, connected into a pull-model
// graph rendered block by block.
//
// Parameters carry sample-accurate automation (instant set, linear and
// exponential ramps, exponential approach toward a target) evaluated
// against the graph's monotonic sample clock, and additionally accept node
// connections for audio-rate modulation (LFO vibrato/tremolo).
//
// Filter sections and the reverb tail are built on algo-dsp; block mixing
// uses algo-vecmath.
package graph
