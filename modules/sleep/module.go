// Package sleep pauses the build.
package sleep

import (
	"context"
	"time"

	"github.com/vk/anvil/internal/element"
	"github.com/vk/anvil/internal/registry"
	"github.com/vk/anvil/internal/task"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Sleep is the <sleep> task. The durations of all attributes add up.
type Sleep struct {
	task.Base
	Hours        int `anvil:"hours,attr" validate:"int(min=0)"`
	Minutes      int `anvil:"minutes,attr" validate:"int(min=0)"`
	Seconds      int `anvil:"seconds,attr" validate:"int(min=0)"`
	Milliseconds int `anvil:"milliseconds,attr" validate:"int(min=0)"`
}

// Duration is the total time to sleep.
func (s *Sleep) Duration() time.Duration {
	return time.Duration(s.Hours)*time.Hour +
		time.Duration(s.Minutes)*time.Minute +
		time.Duration(s.Seconds)*time.Second +
		time.Duration(s.Milliseconds)*time.Millisecond
}

// Execute sleeps, returning early if ctx is cancelled.
func (s *Sleep) Execute(ctx context.Context, _ *task.Runtime) error {
	d := s.Duration()
	s.Detail("Sleeping for %s.", d)
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register registers the task with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask("sleep", func() element.Element { return new(Sleep) })
}
