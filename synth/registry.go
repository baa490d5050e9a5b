package synth

import "fmt"

// Registry maps mode names to instances and tracks the single active
// mode. Switching tears the outgoing mode down completely before the
// incoming one initializes, so no graph edges or oscillators leak across.
type Registry struct {
	modes  map[string]Mode
	order  []string
	active Mode
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{modes: make(map[string]Mode)}
}

// Register adds a mode under its own name. Re-registering a name
// replaces the previous instance.
func (r *Registry) Register(m Mode) {
	if m == nil {
		return
	}
	name := m.Name()
	if _, exists := r.modes[name]; !exists {
		r.order = append(r.order, name)
	}
	r.modes[name] = m
}

// Get looks a mode up by name.
func (r *Registry) Get(name string) (Mode, bool) {
	m, ok := r.modes[name]
	return m, ok
}

// Names returns the registered mode names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Active returns the currently active mode, or nil.
func (r *Registry) Active() Mode {
	return r.active
}

// Switch makes the named mode active: the outgoing mode's Cleanup runs
// to completion before the incoming mode's Init. Switching to the active
// mode is a no-op.
func (r *Registry) Switch(name string, ctx *EngineContext) error {
	next, ok := r.modes[name]
	if !ok {
		return fmt.Errorf("synth: unknown mode %q", name)
	}
	if r.active == next {
		return nil
	}
	if r.active != nil {
		r.active.Cleanup()
	}
	r.active = next
	next.Init(ctx)
	return nil
}

// Shutdown cleans the active mode up and leaves no mode active.
func (r *Registry) Shutdown() {
	if r.active != nil {
		r.active.Cleanup()
		r.active = nil
	}
}
