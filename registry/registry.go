// Package registry provides a thread-safe name to agent lookup. The registry
// holds no execution state; duplicate registrations are rejected with an
// error so a running agent's definition can never be silently shadowed.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/inkfold/inkfold/core"
)

// ErrAgentExists is returned when registering a name that is already taken.
var ErrAgentExists = errors.New("agent already registered")

// ErrAgentNotFound is returned when resolving an unknown agent name.
var ErrAgentNotFound = errors.New("agent not registered")

// Registry is a concurrency-safe map of agent name to implementation.
// List returns names in registration order.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]core.Agent
	order  []string
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{agents: make(map[string]core.Agent)}
}

// Register stores the agent under its unique name. Registering a name twice
// fails with ErrAgentExists.
func (r *Registry) Register(a core.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := a.Name()
	if _, exists := r.agents[name]; exists {
		return fmt.Errorf("agent %q: %w", name, ErrAgentExists)
	}

	r.agents[name] = a
	r.order = append(r.order, name)

	return nil
}

// Get retrieves a registered agent by name.
func (r *Registry) Get(name string) (core.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	return a, ok
}

// Resolve retrieves a registered agent by name or fails with an error that
// enumerates every currently registered name. Callers building UIs rely on
// the enumeration to self-correct, so it is part of the contract.
func (r *Registry) Resolve(name string) (core.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if a, ok := r.agents[name]; ok {
		return a, nil
	}

	registered := "none"
	if len(r.order) > 0 {
		registered = strings.Join(r.order, ", ")
	}

	return nil, fmt.Errorf("agent %q: %w (registered agents: %s)", name, ErrAgentNotFound, registered)
}

// List returns all registered names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
