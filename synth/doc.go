// Package synth implements the touch-driven synthesis mode engine.
//
// A Mode turns normalized gesture positions into sound through the signal
// graph: per-touch modes (wavetable, fm, drone, arpeggiator, karplus,
// formant) keep one voice per active touch under a polyphony ceiling;
// continuous modes (ambient, bassline, oneheart) run a single always-on
// structure driven by an internal evolution tick, with touches acting as
// perturbations rather than gates.
//
// The Engine facade owns the graph context, the master chain, the mode
// registry and the EngineContext injected into every mode call.
package synth
