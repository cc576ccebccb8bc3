// Package env_vars provides the <env> task, which copies the process
// environment into build properties.
package env_vars

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/vk/anvil/internal/element"
	"github.com/vk/anvil/internal/registry"
	"github.com/vk/anvil/internal/task"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Env is the <env> task.
type Env struct {
	task.Base
	Prefix string `anvil:"prefix,attr"`
	// Only is a comma separated list of variable names. Empty copies
	// everything.
	Only string `anvil:"only,attr"`

	environ func() []string
}

// SetDefaults implements element.Defaulter.
func (e *Env) SetDefaults() {
	e.Base.SetDefaults()
	e.Prefix = "env."
}

// Variables returns the selected environment variables.
func (e *Env) Variables() map[string]string {
	environ := e.environ
	if environ == nil {
		environ = os.Environ
	}
	only := e.Names()
	out := make(map[string]string)
	for _, kv := range environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		if len(only) > 0 && !slices.Contains(only, name) {
			continue
		}
		out[name] = value
	}
	return out
}

// Names returns the trimmed, non-empty entries of Only.
func (e *Env) Names() []string {
	var names []string
	for _, n := range strings.Split(e.Only, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// Execute sets one property per variable.
func (e *Env) Execute(_ context.Context, _ *task.Runtime) error {
	vars := e.Variables()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := e.Project.Properties.Set(e.Prefix+name, vars[name]); err != nil {
			return fmt.Errorf("cannot set environment property: %w", err)
		}
	}
	e.Detail("Loaded %d environment variables.", len(names))
	return nil
}

// Register registers the task with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask("env", func() element.Element { return new(Env) })
}
