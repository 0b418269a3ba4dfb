// Package integrators advances a plant state over one fixed step.
package integrators

import (
	"fmt"
	"slices"

	"github.com/san-kum/ctrlsim/internal/dynamo"
)

var registry = map[string]func() dynamo.Integrator{
	"euler": func() dynamo.Integrator { return NewEuler() },
	"rk4":   func() dynamo.Integrator { return NewRK4() },
}

// New returns a fresh integrator registered under name. An empty name
// selects Euler.
func New(name string) (dynamo.Integrator, error) {
	if name == "" {
		name = "euler"
	}
	mk, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator %q (available: %v)", name, Names())
	}
	return mk(), nil
}

// Names lists the registered integrators.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
