package hooks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/specialistvlad/packgrid/internal/ctxlog"
)

// Registry stores the callbacks registered for each event, in registration
// order. Registrations are only ever appended.
type Registry struct {
	mu     sync.RWMutex
	events map[string][]Callback
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{events: make(map[string][]Callback)}
}

// Register appends cb to the event's callbacks. Registering the same
// callback twice is legal; both registrations fire.
func (r *Registry) Register(event string, cb Callback) {
	if event == "" {
		panic("hooks: event name must not be empty")
	}
	if !cb.valid() {
		panic(fmt.Sprintf("hooks: invalid callback %q for event %q", cb.Name, event))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event] = append(r.events[event], cb)
}

// Count returns the number of callbacks registered for event.
func (r *Registry) Count(event string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events[event])
}

// Events returns the names of all events with at least one callback, sorted.
func (r *Registry) Events() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.events))
	for name := range r.events {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) snapshot(event string) []Callback {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Callback(nil), r.events[event]...)
}

// Apply lets each plugin register its callbacks, in order. The first error
// stops setup.
func (r *Registry) Apply(ctx context.Context, plugins ...NamedPlugin) error {
	logger := ctxlog.FromContext(ctx)
	for _, p := range plugins {
		logger.Debug("Applying plugin.", "plugin", p.Name)
		if err := p.Plugin.Apply(r); err != nil {
			return fmt.Errorf("failed to apply plugin %q: %w", p.Name, err)
		}
	}
	logger.Debug("All plugins applied.", "count", len(plugins), "events", r.Events())
	return nil
}

// NamedPlugin pairs a plugin with the name it was configured under.
type NamedPlugin struct {
	Name   string
	Plugin Plugin
}

// Fire invokes every callback registered for event, in registration order,
// and waits until all of them completed. Callbacks registered while Fire is
// running do not take part in this call.
//
// On failure the returned error is a failure.HookFailure wrapping a
// *Failure. If ctx ends before the barrier resolves, Fire returns a
// failure.Timeout and the pending callbacks are abandoned.
func (r *Registry) Fire(ctx context.Context, event string, payload any) error {
	return newFiring(event, r.snapshot(event)).run(ctx, payload)
}
