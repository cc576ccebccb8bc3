// Package fail stops the build with a message.
package fail

import (
	"context"
	"errors"

	"github.com/vk/anvil/internal/element"
	"github.com/vk/anvil/internal/registry"
	"github.com/vk/anvil/internal/task"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Fail is the <fail> task.
type Fail struct {
	task.Base
	Message string `anvil:"message,attr"`
}

// Execute always fails.
func (f *Fail) Execute(_ context.Context, _ *task.Runtime) error {
	msg := f.Message
	if msg == "" {
		msg = "No message."
	}
	return errors.New(msg)
}

// Register registers the task with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask("fail", func() element.Element { return new(Fail) })
}
