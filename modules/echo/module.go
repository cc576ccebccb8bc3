// Package echo writes a message to the build output.
package echo

import (
	"context"

	"github.com/vk/anvil/internal/buildlog"
	"github.com/vk/anvil/internal/element"
	"github.com/vk/anvil/internal/registry"
	"github.com/vk/anvil/internal/task"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Echo is the <echo> task.
type Echo struct {
	task.Base
	Message string         `anvil:"message,attr,required"`
	Level   buildlog.Level `anvil:"level,attr"`
}

// SetDefaults implements element.Defaulter.
func (e *Echo) SetDefaults() {
	e.Base.SetDefaults()
	e.Level = buildlog.Info
}

// Execute emits the message at the configured level.
func (e *Echo) Execute(_ context.Context, _ *task.Runtime) error {
	e.Log(e.Level, "%s", e.Message)
	return nil
}

// Register registers the task with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask("echo", func() element.Element { return new(Echo) })
}
