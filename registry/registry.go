// Package registry maps agent names to agent instances. It owns agent
// lifecycle for the relay: registration, lookup and discovery.
package registry

import (
	"sync"

	"github.com/hupe1980/agentrelay/core"
)

// Registry is a concurrent name to agent map. Registration is
// last-write-wins, so agents can be hot-swapped at runtime. Lookups are
// atomic per name: a Lookup racing a Register of the same name returns
// either the old or the new binding, never a torn one.
type Registry struct {
	agents sync.Map // name -> core.Agent
}

// New constructs an empty registry.
func New() *Registry { return &Registry{} }

// Register inserts the agent under its descriptor name, replacing any
// previous binding.
func (r *Registry) Register(a core.Agent) {
	r.agents.Store(a.Descriptor().Name, a)
}

// Lookup returns the agent bound to name or a *core.UnknownAgentError.
func (r *Registry) Lookup(name string) (core.Agent, error) {
	v, ok := r.agents.Load(name)
	if !ok {
		return nil, &core.UnknownAgentError{Name: name}
	}
	return v.(core.Agent), nil
}

// List returns the descriptors of all registered agents. Order is not
// meaningful; callers may sort for display.
func (r *Registry) List() []core.Descriptor {
	var descriptors []core.Descriptor
	r.agents.Range(func(_, v any) bool {
		descriptors = append(descriptors, v.(core.Agent).Descriptor())
		return true
	})
	return descriptors
}
